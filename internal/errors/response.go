package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 標準エラーレスポンス
type ErrorResponse struct {
	Error     string `json:"error"`               // エラーコード
	Message   string `json:"message"`             // ユーザー向けメッセージ
	Retryable bool   `json:"retryable,omitempty"` // 再試行ボタンを出すか
}

// RespondWithError writes a standard error body.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "リクエストが多すぎます。しばらくしてから再度お試しください"
	}
	RespondWithError(c, http.StatusTooManyRequests, RateLimitExceeded, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "サーバーエラーが発生しました。しばらくしてから再度お試しください"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ParseAndRespond maps err with ParseError and writes the response.
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	c.JSON(info.Status, ErrorResponse{
		Error:     info.Code,
		Message:   info.Message,
		Retryable: info.Retryable,
	})
}
