package gintool

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/to404hanga/submission_controller/constants"
)

// ContextMiddleware 上下文中间件, 需放在鉴权中间件之后
// 请求未携带 RequestID 时生成一个并回写到响应头
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(constants.HeaderRequestIDKey) == "" {
			c.Request.Header.Set(constants.HeaderRequestIDKey, uuid.NewString())
		}
		c.Header(constants.HeaderRequestIDKey, c.GetHeader(constants.HeaderRequestIDKey))
		c.Request = c.Request.WithContext(GinContextToLoggerContext(c))
		c.Next()
	}
}
