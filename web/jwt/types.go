package jwt

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/to404hanga/submission_controller/entity"
)

type Handler interface {
	ExtractToken(ctx *gin.Context) string
	SetLoginToken(ctx *gin.Context, studentID string, role entity.Role) error
	SetJWTToken(ctx *gin.Context, studentID string, role entity.Role, ssid string) error
	CheckSession(ctx *gin.Context, ssid string) error
	// ClearToken 注销当前会话
	ClearToken(ctx *gin.Context) error

	JwtKey() []byte
	GetUserClaims(ctx *gin.Context) (*UserClaims, error)
}

type UserClaims struct {
	jwt.RegisteredClaims
	StudentID string
	Role      entity.Role
	Ssid      string
	UserAgent string
}

// Operator 转为服务层使用的操作人
func (uc *UserClaims) Operator() entity.Operator {
	return entity.Operator{StudentID: uc.StudentID, Role: uc.Role}
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	StudentID string
	Role      entity.Role
	Ssid      string
}
