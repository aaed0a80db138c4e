package web

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/constants"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/gintool"
	"github.com/to404hanga/submission_controller/pkg/minio"
	"github.com/to404hanga/submission_controller/service"
	"github.com/to404hanga/submission_controller/service/storage"
)

type SubmissionHandler struct {
	submissionSvc           service.SubmissionService
	store                   *storage.LocalStorage
	minioSvc                *minio.MinIOService
	log                     loggerv2.Logger
	bucket                  string
	downloadDurationSeconds int
	internalToken           string
}

var _ Handler = (*SubmissionHandler)(nil)

// NewSubmissionHandler minioSvc 为空时原始压缩包由本服务直接下发
func NewSubmissionHandler(submissionSvc service.SubmissionService, store *storage.LocalStorage, minioSvc *minio.MinIOService, log loggerv2.Logger, bucket string, downloadDurationSeconds int, internalToken string) *SubmissionHandler {
	return &SubmissionHandler{
		submissionSvc:           submissionSvc,
		store:                   store,
		minioSvc:                minioSvc,
		log:                     log,
		bucket:                  bucket,
		downloadDurationSeconds: downloadDurationSeconds,
		internalToken:           internalToken,
	}
}

func (h *SubmissionHandler) Register(r *gin.Engine) {
	r.POST(constants.UploadSubmissionPath, gintool.WrapHandler(h.UploadSubmission, h.log))
	r.POST(constants.SubmitFromGitPath, gintool.WrapHandler(h.SubmitFromGit, h.log))
	r.POST(constants.RebuildSubmissionPath, gintool.WrapHandler(h.Rebuild, h.log))
	r.POST(constants.RebuildFullSubmissionPath, gintool.WrapHandler(h.RebuildFull, h.log))
	r.DELETE(constants.DeleteSubmissionPath, gintool.WrapHandler(h.DeleteSubmission, h.log))
	r.GET(constants.GetSubmissionPath, gintool.WrapHandler(h.GetSubmission, h.log))
	r.GET(constants.GetLatestSubmissionPath, gintool.WrapHandler(h.GetLatestSubmission, h.log))
	r.GET(constants.ListGroupSubmissionsPath, gintool.WrapHandler(h.ListGroupSubmissions, h.log))
	r.GET(constants.GetSubmissionSummaryPath, gintool.WrapHandler(h.GetSubmissionSummary, h.log))
	r.GET(constants.GetNextSubmissionTimePath, gintool.WrapHandler(h.GetNextSubmissionTime, h.log))
	r.GET(constants.GetSubmissionDownloadURLPath, gintool.WrapHandler(h.GetSubmissionDownloadURL, h.log))
	r.POST(constants.BuildCallbackPath, h.BuildCallback)
}

// saveUpload 将表单中的文件落盘到临时目录, 调用方负责执行 cleanup
func saveUpload(c *gin.Context) (path string, cleanup func(), err error) {
	fileHeader, err := c.FormFile(constants.MultipartFileField)
	if err != nil {
		return "", nil, errs.ValidationError(errs.ReasonInvalidInput, fmt.Sprintf("missing upload file: %v", err))
	}
	tmpDir, err := os.MkdirTemp("", "submission_upload_*")
	if err != nil {
		return "", nil, errs.StorageFailure("create tmp dir failed", err)
	}
	cleanup = func() { _ = os.RemoveAll(tmpDir) }
	path = filepath.Join(tmpDir, "upload.zip")
	if err = c.SaveUploadedFile(fileHeader, path); err != nil {
		cleanup()
		return "", nil, errs.StorageFailure("save upload file failed", err)
	}
	return path, cleanup, nil
}

func (h *SubmissionHandler) UploadSubmission(c *gin.Context, param *model.UploadSubmissionParam) {
	start := time.Now()
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	path, cleanup, err := saveUpload(c)
	if err != nil {
		observeIntake("upload", start, err)
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "UploadSubmission save file failed", logger.Error(err))
		return
	}
	defer cleanup()
	param.ArchivePath = path

	res, err := h.submissionSvc.UploadSubmission(ctx, param)
	observeIntake("upload", start, err)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "UploadSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, res)
}

func (h *SubmissionHandler) SubmitFromGit(c *gin.Context, param *model.SubmitFromGitParam) {
	start := time.Now()
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("git_submission_id", param.GitSubmissionID))

	res, err := h.submissionSvc.SubmitFromGit(ctx, param.Operator, param.GitSubmissionID)
	observeIntake("git", start, err)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "SubmitFromGit failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, res)
}

func (h *SubmissionHandler) Rebuild(c *gin.Context, param *model.RebuildParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("submission_id", param.SubmissionID))

	if err := h.submissionSvc.Rebuild(ctx, param.Operator, param.SubmissionID, param.ChangeStatusDate); err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "Rebuild failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, nil)
}

func (h *SubmissionHandler) RebuildFull(c *gin.Context, param *model.SubmissionIDParam) {
	start := time.Now()
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("submission_id", param.SubmissionID))

	res, err := h.submissionSvc.RebuildFull(ctx, param.Operator, param.SubmissionID)
	observeIntake("rebuild_full", start, err)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "RebuildFull failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, res)
}

func (h *SubmissionHandler) DeleteSubmission(c *gin.Context, param *model.SubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("submission_id", param.SubmissionID))

	if err := h.submissionSvc.DeleteSubmission(ctx, param.Operator, param.SubmissionID); err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "DeleteSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, nil)
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context, param *model.SubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("submission_id", param.SubmissionID))

	sub, err := h.submissionSvc.GetSubmission(ctx, param.Operator, param.SubmissionID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetSubmission failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, sub)
}

func (h *SubmissionHandler) GetLatestSubmission(c *gin.Context, param *model.AssignmentIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	opt, err := h.submissionSvc.GetLatestSubmission(ctx, param.Operator, param.AssignmentID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetLatestSubmission failed", logger.Error(err))
		return
	}
	sub, ok := opt.Get()
	if !ok {
		gintool.GinSuccess(c, nil)
		return
	}
	gintool.GinSuccess(c, sub)
}

func (h *SubmissionHandler) ListGroupSubmissions(c *gin.Context, param *model.ListGroupSubmissionsParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.String("assignment_id", param.AssignmentID),
		logger.Uint64("group_id", param.GroupID))

	list, err := h.submissionSvc.ListGroupSubmissions(ctx, param.Operator, param.AssignmentID, param.GroupID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "ListGroupSubmissions failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, model.ListSubmissionsResponse{List: list, Total: len(list)})
}

func (h *SubmissionHandler) GetSubmissionSummary(c *gin.Context, param *model.SubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("submission_id", param.SubmissionID))

	summary, err := h.submissionSvc.GetSubmissionSummary(ctx, param.Operator, param.SubmissionID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetSubmissionSummary failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, summary)
}

func (h *SubmissionHandler) GetNextSubmissionTime(c *gin.Context, param *model.AssignmentIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	opt, err := h.submissionSvc.GetNextSubmissionTime(ctx, param.Operator, param.AssignmentID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetNextSubmissionTime failed", logger.Error(err))
		return
	}
	resp := model.NextSubmissionTimeResponse{}
	if next, ok := opt.Get(); ok {
		resp.NextSubmissionTime = &next
	}
	gintool.GinSuccess(c, resp)
}

// GetSubmissionDownloadURL 启用对象存储时返回预签名地址, 否则直接下发压缩包
func (h *SubmissionHandler) GetSubmissionDownloadURL(c *gin.Context, param *model.SubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("submission_id", param.SubmissionID))

	archivePath, err := h.submissionSvc.GetSubmissionArchive(ctx, param.Operator, param.SubmissionID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetSubmissionArchive failed", logger.Error(err))
		return
	}

	if h.minioSvc == nil {
		c.FileAttachment(archivePath, fmt.Sprintf("submission_%d.zip", param.SubmissionID))
		return
	}

	key, err := h.store.ObjectKey(archivePath)
	if err != nil {
		gintool.GinErrorResponse(c, errs.StorageFailure("resolve object key failed", err))
		h.log.ErrorContext(ctx, "ObjectKey failed", logger.String("archive", archivePath), logger.Error(err))
		return
	}
	presignedURL, err := h.minioSvc.GetPresignedDownloadURL(ctx, h.bucket, key, h.downloadDurationSeconds)
	if err != nil {
		gintool.GinErrorResponse(c, errs.StorageFailure("presign download url failed", err))
		h.log.ErrorContext(ctx, "GetPresignedDownloadURL failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, model.GetSubmissionDownloadURLResponse{PresignedURL: presignedURL})
}

// BuildCallback 构建设施的 HTTP 回调, 不经过用户鉴权, 以内部令牌校验
func (h *SubmissionHandler) BuildCallback(c *gin.Context) {
	var param model.BuildCallbackParam
	if err := c.ShouldBindHeader(&param); err != nil {
		badRequest(c, h.log, "BuildCallback bind header failed", err)
		return
	}
	if err := c.ShouldBindJSON(&param.BuildResult); err != nil {
		badRequest(c, h.log, "BuildCallback bind body failed", err)
		return
	}
	if err := gintool.Validate(&param); err != nil {
		badRequest(c, h.log, "BuildCallback validate failed", err)
		return
	}

	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("submission_id", param.SubmissionID),
		logger.String("outcome", string(param.Outcome)))
	if h.internalToken == "" || subtle.ConstantTimeCompare([]byte(param.Token), []byte(h.internalToken)) != 1 {
		buildCallbackTotal.WithLabelValues(string(param.Outcome), "401").Inc()
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusUnauthorized,
			Message: "invalid internal token",
		})
		h.log.WarnContext(ctx, "BuildCallback rejected")
		return
	}

	err := h.submissionSvc.HandleBuildResult(ctx, &param.BuildResult)
	buildCallbackTotal.WithLabelValues(string(param.Outcome), fmt.Sprint(errs.HTTPStatus(err))).Inc()
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "HandleBuildResult failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, nil)
}

func badRequest(c *gin.Context, log loggerv2.Logger, msg string, err error) {
	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	})
	log.ErrorContext(c.Request.Context(), msg, logger.Error(err))
}
