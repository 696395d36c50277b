package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSessionNotFound  = errors.New("practice session not found")
	ErrItemNotFound     = errors.New("practice item not found")
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrUnknownCategory  = errors.New("unknown stats category")

	ErrNoContentForLevel    = errors.New("no content for level")
	ErrNoMoreItemsAvailable = errors.New("no more items available")

	ErrSessionCompleted     = errors.New("practice session already completed")
	ErrSessionTargetReached = errors.New("practice session target reached")
	ErrSessionKindMismatch  = errors.New("operation does not match session kind")

	ErrInvalidWindow = errors.New("invalid leaderboard window")
	ErrInvalidKind   = errors.New("invalid practice kind")
	ErrInvalidCount  = errors.New("invalid item count")
	ErrInvalidAnswer = errors.New("invalid answer")
	ErrInvalidAudio  = errors.New("invalid audio file")

	// 积分、连续天数等附带更新失败，只记录日志不返回给调用方
	ErrDependencyDegraded = errors.New("dependency degraded")
	// 发音评分服务超时，可重试
	ErrExternalTimeout = errors.New("external service timeout")
	ErrExternalService = errors.New("external service error")
)
