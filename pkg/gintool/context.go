package gintool

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/constants"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/web/jwt"
)

var ErrUserClaimsNotFound = errors.New("user claims not found")

// GinContextToLoggerContext 将 Gin 上下文转换为 Logger 上下文
func GinContextToLoggerContext(c *gin.Context) context.Context {
	fields := make([]logger.Field, 0, 2)

	if requestID := c.GetHeader(constants.HeaderRequestIDKey); requestID != "" {
		fields = append(fields, logger.String("RequestID", requestID))
	}
	if uc, ok := userClaims(c); ok {
		fields = append(fields, logger.String("StudentID", uc.StudentID))
	}

	return loggerv2.ContextWithFields(c.Request.Context(), fields...)
}

func userClaims(c *gin.Context) (jwt.UserClaims, bool) {
	v, exists := c.Get(constants.ContextUserClaimsKey)
	if !exists {
		return jwt.UserClaims{}, false
	}
	uc, ok := v.(jwt.UserClaims)
	return uc, ok
}

// ExtractOperator 从登录令牌中提取操作人
func ExtractOperator(c *gin.Context, p model.CommonParamInterface) error {
	uc, ok := userClaims(c)
	if !ok {
		return ErrUserClaimsNotFound
	}
	p.SetOperator(uc.Operator())
	return nil
}
