package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/constants"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/gintool"
	ijwt "github.com/to404hanga/submission_controller/web/jwt"
)

type UserHandler struct {
	jwtHandler ijwt.Handler
	log        loggerv2.Logger
}

var _ Handler = (*UserHandler)(nil)

func NewUserHandler(jwtHandler ijwt.Handler, log loggerv2.Logger) *UserHandler {
	return &UserHandler{
		jwtHandler: jwtHandler,
		log:        log,
	}
}

func (h *UserHandler) Register(r *gin.Engine) {
	r.GET(constants.GetCurrentUserPath, gintool.WrapWithoutBodyHandler(h.GetCurrentUser, h.log))
	r.POST(constants.LogoutPath, gintool.WrapWithoutBodyHandler(h.Logout, h.log))
}

type CurrentUserResponse struct {
	StudentID string      `json:"student_id"`
	Role      entity.Role `json:"role"`
	IsTeacher bool        `json:"is_teacher"`
}

func (h *UserHandler) GetCurrentUser(c *gin.Context, param *model.CommonParam) {
	gintool.GinSuccess(c, CurrentUserResponse{
		StudentID: param.Operator.StudentID,
		Role:      param.Operator.Role,
		IsTeacher: param.Operator.IsTeacher(),
	})
}

func (h *UserHandler) Logout(c *gin.Context, param *model.CommonParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("student_id", param.Operator.StudentID))

	if err := h.jwtHandler.ClearToken(c); err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		h.log.ErrorContext(ctx, "Logout failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, nil)
}
