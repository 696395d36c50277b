package controller

import (
	"vocab_backend/internal/service"
	"vocab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// @Summary 统计分类
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/stats [get]
func (c *StatsController) Categories(ctx *gin.Context) {
	util.Success(ctx, c.StatsService.Categories())
}

// @Summary 个人练习统计
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param category path string true "quiz|speaking"
// @Success 200 {object} util.Response
// @Router /api/stats/{category} [get]
func (c *StatsController) GetStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.StatsService.Compute(ctx.Request.Context(), ctx.Param("category"), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
