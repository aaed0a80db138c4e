package web

import (
	"github.com/gin-gonic/gin"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/constants"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/gintool"
	"github.com/to404hanga/submission_controller/service"
)

type GitSubmissionHandler struct {
	gitSvc service.GitSubmissionService
	log    loggerv2.Logger
}

var _ Handler = (*GitSubmissionHandler)(nil)

func NewGitSubmissionHandler(gitSvc service.GitSubmissionService, log loggerv2.Logger) *GitSubmissionHandler {
	return &GitSubmissionHandler{
		gitSvc: gitSvc,
		log:    log,
	}
}

func (h *GitSubmissionHandler) Register(r *gin.Engine) {
	r.POST(constants.SetupGitSubmissionPath, gintool.WrapHandler(h.Setup, h.log))
	r.POST(constants.ConnectGitSubmissionPath, gintool.WrapHandler(h.Connect, h.log))
	r.POST(constants.RefreshGitSubmissionPath, gintool.WrapHandler(h.Refresh, h.log))
	r.POST(constants.ResetGitSubmissionPath, gintool.WrapHandler(h.Reset, h.log))
	r.GET(constants.GetGitSubmissionPath, gintool.WrapHandler(h.Get, h.log))
}

func (h *GitSubmissionHandler) Setup(c *gin.Context, param *model.SetupGitSubmissionParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.String("assignment_id", param.AssignmentID),
		logger.String("repository_url", param.RepositoryURL))

	gs, err := h.gitSvc.Setup(ctx, param)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "SetupGitSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, gs)
}

func (h *GitSubmissionHandler) Connect(c *gin.Context, param *model.GitSubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("git_submission_id", param.GitSubmissionID))

	gs, err := h.gitSvc.Connect(ctx, param.Operator, param.GitSubmissionID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "ConnectGitSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, gs)
}

func (h *GitSubmissionHandler) Refresh(c *gin.Context, param *model.GitSubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("git_submission_id", param.GitSubmissionID))

	resp, err := h.gitSvc.Refresh(ctx, param.Operator, param.GitSubmissionID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "RefreshGitSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, resp)
}

func (h *GitSubmissionHandler) Reset(c *gin.Context, param *model.GitSubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("git_submission_id", param.GitSubmissionID))

	if err := h.gitSvc.Reset(ctx, param.Operator, param.GitSubmissionID); err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "ResetGitSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, nil)
}

func (h *GitSubmissionHandler) Get(c *gin.Context, param *model.AssignmentIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	opt, err := h.gitSvc.Get(ctx, param.Operator, param.AssignmentID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetGitSubmission failed", logger.Error(err))
		return
	}
	gs, ok := opt.Get()
	if !ok {
		gintool.GinSuccess(c, nil)
		return
	}
	gintool.GinSuccess(c, gs)
}
