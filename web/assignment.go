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

type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
	log           loggerv2.Logger
}

var _ Handler = (*AssignmentHandler)(nil)

func NewAssignmentHandler(assignmentSvc service.AssignmentService, log loggerv2.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentSvc: assignmentSvc,
		log:           log,
	}
}

func (h *AssignmentHandler) Register(r *gin.Engine) {
	r.POST(constants.CreateAssignmentPath, gintool.WrapHandler(h.CreateAssignment, h.log))
	r.PUT(constants.UpdateAssignmentPath, gintool.WrapHandler(h.UpdateAssignment, h.log))
	r.GET(constants.GetAssignmentPath, gintool.WrapHandler(h.GetAssignment, h.log))
	r.GET(constants.GetAssignmentListPath, gintool.WrapWithoutBodyHandler(h.GetAssignmentList, h.log))
	r.PUT(constants.SetAssignmentActivePath, gintool.WrapHandler(h.SetAssignmentActive, h.log))
	r.POST(constants.UploadTeacherFilesPath, gintool.WrapHandler(h.UploadTeacherFiles, h.log))
	r.GET(constants.ListAssignmentSubmissionPath, gintool.WrapHandler(h.ListAssignmentSubmission, h.log))
}

func (h *AssignmentHandler) CreateAssignment(c *gin.Context, param *model.CreateAssignmentParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.ID))

	a, err := h.assignmentSvc.Create(ctx, param)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "CreateAssignment failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, a)
}

func (h *AssignmentHandler) UpdateAssignment(c *gin.Context, param *model.UpdateAssignmentParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.ID))

	a, err := h.assignmentSvc.Update(ctx, param)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "UpdateAssignment failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, a)
}

func (h *AssignmentHandler) GetAssignment(c *gin.Context, param *model.AssignmentIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	a, err := h.assignmentSvc.Get(ctx, param.Operator, param.AssignmentID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetAssignment failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, a)
}

func (h *AssignmentHandler) GetAssignmentList(c *gin.Context, param *model.CommonParam) {
	ctx := c.Request.Context()

	resp, err := h.assignmentSvc.List(ctx, param.Operator)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetAssignmentList failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, resp)
}

func (h *AssignmentHandler) SetAssignmentActive(c *gin.Context, param *model.SetAssignmentActiveParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.String("assignment_id", param.ID),
		logger.Any("active", param.Active))

	if err := h.assignmentSvc.SetActive(ctx, param); err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "SetAssignmentActive failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, nil)
}

func (h *AssignmentHandler) UploadTeacherFiles(c *gin.Context, param *model.UploadTeacherFilesParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	path, cleanup, err := saveUpload(c)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "UploadTeacherFiles save file failed", logger.Error(err))
		return
	}
	defer cleanup()
	param.ArchivePath = path

	if err = h.assignmentSvc.UploadTeacherFiles(ctx, param); err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "UploadTeacherFiles failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, nil)
}

func (h *AssignmentHandler) ListAssignmentSubmission(c *gin.Context, param *model.AssignmentIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	resp, err := h.assignmentSvc.ListSubmissions(ctx, param.Operator, param.AssignmentID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "ListAssignmentSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, resp)
}
