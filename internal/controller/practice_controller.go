package controller

import (
	"vocab_backend/internal/service"
	"vocab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService *service.PracticeService
}

func NewPracticeController(practiceService *service.PracticeService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

// @Summary 开始或继续练习
// @Description 存在24小时内未完成的同等级会话时继续该会话，只下发未作答的题目
// @Tags 练习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.StartSessionRequest true "练习类型、等级和数量"
// @Success 200 {object} util.Response
// @Router /api/practice/sessions [post]
func (c *PracticeController) StartSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.PracticeService.StartOrResume(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if res.IsResuming {
		util.Success(ctx, res)
		return
	}
	util.Created(ctx, res)
}

// @Summary 获取练习会话
// @Tags 练习
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/practice/sessions/{id} [get]
func (c *PracticeController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.PracticeService.GetSession(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 提交作答
// @Description 测验提交 optionId，口语提交 audioRef；重复提交返回首次结果
// @Tags 练习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Param body body service.SubmitItemRequest true "作答"
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "评分服务超时，可重试"
// @Router /api/practice/sessions/{id}/items [post]
func (c *PracticeController) SubmitItem(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.PracticeService.SubmitItem(ctx.Request.Context(), user.UserID, ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 完成练习
// @Description 重复调用返回相同结果，奖励只发放一次
// @Tags 练习
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/practice/sessions/{id}/complete [post]
func (c *PracticeController) CompleteSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	res, err := c.PracticeService.CompleteSession(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
