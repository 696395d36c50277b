package controller

import (
	"vocab_backend/internal/model"
	"vocab_backend/internal/service"
	"vocab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BookmarkController struct {
	BookmarkService *service.BookmarkService
}

func NewBookmarkController(bookmarkService *service.BookmarkService) *BookmarkController {
	return &BookmarkController{BookmarkService: bookmarkService}
}

// @Summary 收藏列表
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param kind query string false "quiz|speaking"
// @Success 200 {object} util.Response
// @Router /api/bookmarks [get]
func (c *BookmarkController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.BookmarkService.List(ctx.Request.Context(), user.UserID, model.PracticeKind(ctx.Query("kind")))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 添加收藏
// @Description 已收藏时更新备注
// @Tags 收藏
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.BookmarkRequest true "收藏"
// @Success 201 {object} util.Response
// @Router /api/bookmarks [post]
func (c *BookmarkController) Add(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.BookmarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	b, err := c.BookmarkService.Add(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, b)
}

// @Summary 取消收藏
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param kind query string true "quiz|speaking"
// @Param itemId query int true "条目ID"
// @Success 200 {object} util.Response
// @Router /api/bookmarks [delete]
func (c *BookmarkController) Remove(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	itemID := util.MustParseUint(ctx.Query("itemId"))
	if itemID == 0 {
		util.BadRequest(ctx, "invalid itemId")
		return
	}

	if err := c.BookmarkService.Remove(ctx.Request.Context(), user.UserID, model.PracticeKind(ctx.Query("kind")), itemID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
