package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDKey     = "request_id"
	CorrelationIDKey = "correlation_id"

	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// RequestContextMiddleware 注入 request_id 和 correlation_id，便于下游和日志使用。
// correlation_id 对应外部元数据记录，事件体里没有时由 handler 补上。
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		if corrID := c.GetHeader(HeaderCorrelationID); corrID != "" {
			c.Set(CorrelationIDKey, corrID)
		}
		c.Set(RequestIDKey, reqID)
		c.Writer.Header().Set(HeaderRequestID, reqID)
		c.Next()
	}
}
