package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"derivative-service/pkg/errno"
)

// Response 统一响应体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{Code: errno.OK.Code, Message: errno.OK.Message, Data: data})
}

// Failed 按错误码选择 HTTP 状态，非 errno 错误视为内部错误
func Failed(ctx *gin.Context, err error) {
	FailedWithData(ctx, err, nil)
}

func FailedWithData(ctx *gin.Context, err error, data interface{}) {
	code := errno.CodeOf(err)
	if code == nil {
		code = errno.ErrInternalServer
	}
	ctx.JSON(HTTPStatus(code), Response{Code: code.Code, Message: err.Error(), Data: data})
}

// HTTPStatus 错误码到 HTTP 状态
func HTTPStatus(code *errno.Errno) int {
	switch code {
	case errno.ErrInvalidParam, errno.ErrBucketRequired, errno.ErrObjectKeyRequired:
		return http.StatusBadRequest
	case errno.ErrUnauthorized:
		return http.StatusUnauthorized
	case errno.ErrNotFound:
		return http.StatusNotFound
	case errno.ErrStructuralKey:
		return http.StatusUnprocessableEntity
	case errno.ErrDownload, errno.ErrDerivativeJobsFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
