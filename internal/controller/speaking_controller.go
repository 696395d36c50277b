package controller

import (
	"vocab_backend/internal/service"
	"vocab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SpeakingController struct {
	StorageService *service.StorageService
}

func NewSpeakingController(storageService *service.StorageService) *SpeakingController {
	return &SpeakingController{StorageService: storageService}
}

// @Summary 上传录音
// @Description 返回的 audioRef 用于提交口语作答
// @Tags 练习
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "录音文件"
// @Success 201 {object} util.Response
// @Router /api/speaking/audio [post]
func (c *SpeakingController) UploadAudio(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	defer f.Close()

	upload, err := c.StorageService.UploadAudio(ctx.Request.Context(), user.UserID, fh.Filename, f, fh.Size)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, upload)
}
