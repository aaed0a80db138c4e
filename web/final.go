package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/constants"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/gintool"
	"github.com/to404hanga/submission_controller/service"
	"github.com/to404hanga/submission_controller/service/exporter/factory"
)

type FinalHandler struct {
	finalSvc service.FinalService
	log      loggerv2.Logger
}

var _ Handler = (*FinalHandler)(nil)

func NewFinalHandler(finalSvc service.FinalService, log loggerv2.Logger) *FinalHandler {
	return &FinalHandler{
		finalSvc: finalSvc,
		log:      log,
	}
}

func (h *FinalHandler) Register(r *gin.Engine) {
	r.POST(constants.MarkAsFinalPath, gintool.WrapHandler(h.MarkAsFinal, h.log))
	r.GET(constants.ExportFinalPath, gintool.WrapHandler(h.ExportFinal, h.log))
}

func (h *FinalHandler) MarkAsFinal(c *gin.Context, param *model.SubmissionIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.Uint64("submission_id", param.SubmissionID))

	resp, err := h.finalSvc.MarkAsFinal(ctx, param.Operator, param.SubmissionID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "MarkAsFinal failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, resp)
}

// ExportFinal 导出内容先写入缓冲区, 失败时仍能返回 JSON 错误
func (h *FinalHandler) ExportFinal(c *gin.Context, param *model.ExportFinalParam) {
	start := time.Now()
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.String("assignment_id", param.AssignmentID),
		logger.String("type", param.Type))

	exporterType := factory.ExporterType(param.Type)
	if exporterType == "" {
		exporterType = factory.CSVFinalExporter
	}

	var buf bytes.Buffer
	err := h.finalSvc.Export(ctx, param, &buf)
	code := strconv.Itoa(errs.HTTPStatus(err))
	exportFinalRequestsTotal.WithLabelValues(string(exporterType), code).Inc()
	exportFinalDurationSeconds.WithLabelValues(string(exporterType), code).Observe(time.Since(start).Seconds())
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "ExportFinal failed", logger.Error(err))
		return
	}

	filename := fmt.Sprintf("%s_final%s", param.AssignmentID, factory.ExporterSuffixMap[exporterType])
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, factory.ExporterContentTypeMap[exporterType], buf.Bytes())
}
