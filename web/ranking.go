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

type RankingHandler struct {
	rankingSvc service.RankingService
	log        loggerv2.Logger
}

var _ Handler = (*RankingHandler)(nil)

func NewRankingHandler(rankingSvc service.RankingService, log loggerv2.Logger) *RankingHandler {
	return &RankingHandler{
		rankingSvc: rankingSvc,
		log:        log,
	}
}

func (h *RankingHandler) Register(r *gin.Engine) {
	r.GET(constants.GetLeaderboardPath, gintool.WrapHandler(h.GetLeaderboard, h.log))
}

func (h *RankingHandler) GetLeaderboard(c *gin.Context, param *model.AssignmentIDParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(), logger.String("assignment_id", param.AssignmentID))

	resp, err := h.rankingSvc.GetLeaderboard(ctx, param.Operator, param.AssignmentID)
	if err != nil {
		gintool.GinErrorResponse(c, err)
		h.log.ErrorContext(ctx, "GetLeaderboard failed", logger.Error(err))
		return
	}
	gintool.GinSuccess(c, resp)
}
