package controller

import (
	"vocab_backend/internal/service"
	"vocab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// @Summary 我的排名
// @Tags 排行榜
// @Produce json
// @Security BearerAuth
// @Param window query string false "global|weekly|monthly" default(global)
// @Success 200 {object} util.Response
// @Router /api/leaderboard/rank [get]
func (c *LeaderboardController) Rank(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	window, err := service.ParseWindow(ctx.Query("window"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	standing, err := c.LeaderboardService.Rank(ctx.Request.Context(), user.UserID, window)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, standing)
}

// @Summary 排行榜前N名
// @Tags 排行榜
// @Produce json
// @Security BearerAuth
// @Param window query string false "global|weekly|monthly" default(global)
// @Param limit query int false "条数" default(100)
// @Success 200 {object} util.Response
// @Router /api/leaderboard/top [get]
func (c *LeaderboardController) Top(ctx *gin.Context) {
	window, err := service.ParseWindow(ctx.Query("window"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	entries, err := c.LeaderboardService.Top(ctx.Request.Context(), window, util.ParseIntDefault(ctx.Query("limit"), 0))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"window":  window,
		"entries": entries,
	})
}
