package util

import (
	"errors"
	"net/http"
	"strconv"
	"vocab_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NothingToPractice 题库无法满足请求时的响应体，不视为服务端错误
type NothingToPractice struct {
	State  string `json:"state"`
	Reason string `json:"reason"`
}

const StateNothingToPractice = "nothing_to_practice"

// RetryAfterSeconds 外部服务超时时建议客户端等待的秒数
const RetryAfterSeconds = 5

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	InternalServerError(c)
}

// HandleError 将业务错误映射为 HTTP 响应
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoContentForLevel), errors.Is(err, ErrNoMoreItemsAvailable):
		reason := "no_content_for_level"
		if errors.Is(err, ErrNoMoreItemsAvailable) {
			reason = "no_more_items_available"
		}
		c.JSON(http.StatusOK, Response{
			Code:    http.StatusOK,
			Message: err.Error(),
			Data:    NothingToPractice{State: StateNothingToPractice, Reason: reason},
		})
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrBookmarkNotFound), errors.Is(err, ErrUnknownCategory):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSessionCompleted), errors.Is(err, ErrSessionTargetReached):
		Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidCount),
		errors.Is(err, ErrInvalidAnswer), errors.Is(err, ErrInvalidAudio), errors.Is(err, ErrSessionKindMismatch):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrExternalTimeout):
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds))
		Error(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrExternalService):
		Error(c, http.StatusBadGateway, err.Error())
	default:
		LogInternalError(c, err)
	}
}
