package service

import (
	"fmt"
	"sync/atomic"
	"time"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"
)

// Calendar 决定"今天"和当前统计周期，时区可热更新
type Calendar struct {
	now func() time.Time
	loc atomic.Pointer[time.Location]
}

func NewCalendar(loc *time.Location) *Calendar {
	return NewCalendarAt(loc, func() time.Time { return time.Now().UTC() })
}

// NewCalendarAt 使用自定义时钟，测试用
func NewCalendarAt(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calendar{now: now}
	c.loc.Store(loc)
	return c
}

func (c *Calendar) SetLocation(loc *time.Location) {
	if loc != nil {
		c.loc.Store(loc)
	}
}

func (c *Calendar) Location() *time.Location {
	return c.loc.Load()
}

// Now 返回 UTC 时间，入库统一用它
func (c *Calendar) Now() time.Time {
	return c.now().UTC()
}

// Days 返回本地时区下今天和昨天的 YYYY-MM-DD
func (c *Calendar) Days() (today, yesterday string) {
	local := c.Now().In(c.Location())
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, local.Location())
	return midnight.Format(util.DateFormat), midnight.AddDate(0, 0, -1).Format(util.DateFormat)
}

// PeriodKey 周: ISO 年+周 (2026-W42)，月: 2026-10
func (c *Calendar) PeriodKey(t model.PeriodType) string {
	return PeriodKeyFor(c.Now().In(c.Location()), t)
}

func PeriodKeyFor(t time.Time, periodType model.PeriodType) string {
	switch periodType {
	case model.PeriodWeekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case model.PeriodMonthly:
		return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
	default:
		return ""
	}
}
