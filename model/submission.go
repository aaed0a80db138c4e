package model

import (
	"time"

	"github.com/to404hanga/submission_controller/entity"
)

type UploadSubmissionParam struct {
	CommonParam `json:"-"`

	AssignmentID string `form:"assignment_id" binding:"required"`
	// ArchivePath 上传文件落盘后的临时路径, 由 handler 填充
	ArchivePath string `form:"-" json:"-"`
}

type SubmitFromGitParam struct {
	CommonParam `json:"-"`

	GitSubmissionID uint64 `json:"git_submission_id" binding:"required"`
}

// IntakeResult 提交受理结果, 构建结果需稍后查询
type IntakeResult struct {
	SubmissionID    uint64                  `json:"submission_id"`
	Status          entity.SubmissionStatus `json:"status"`
	StructureErrors []string                `json:"structure_errors,omitempty"`
}

type RebuildParam struct {
	CommonParam `json:"-"`

	SubmissionID     uint64 `json:"submission_id" binding:"required"`
	ChangeStatusDate bool   `json:"change_status_date"`
}

type SubmissionIDParam struct {
	CommonParam `json:"-"`

	SubmissionID uint64 `json:"submission_id" form:"submission_id" binding:"required"`
}

type AssignmentIDParam struct {
	CommonParam `json:"-"`

	AssignmentID string `json:"assignment_id" form:"assignment_id" binding:"required"`
}

type ListGroupSubmissionsParam struct {
	CommonParam `json:"-"`

	AssignmentID string `form:"assignment_id" binding:"required"`
	GroupID      uint64 `form:"group_id" binding:"required"`
}

// BuildResult 构建设施回传的结果
type BuildResult struct {
	SubmissionID  uint64              `json:"submission_id" binding:"required"`
	CorrelationID string              `json:"correlation_id"`
	Outcome       entity.BuildOutcome `json:"outcome" binding:"required,oneof=SUCCESS FAILED ABORTED_BY_TIMEOUT TOO_MUCH_OUTPUT ILLEGAL_ACCESS"`
	Output        []string            `json:"output"`
}

type BuildCallbackParam struct {
	CommonParam `json:"-"`
	BuildResult

	Token string `header:"X-Internal-Token" json:"-" binding:"required"`
}

type Report struct {
	Indicator entity.Indicator   `json:"indicator"`
	Value     entity.ReportValue `json:"value"`
	Progress  *int               `json:"progress,omitempty"`
	Goal      *int               `json:"goal,omitempty"`
}

type Submission struct {
	ID              uint64                  `json:"id"`
	AssignmentID    string                  `json:"assignment_id"`
	GroupID         uint64                  `json:"group_id"`
	SubmitterID     string                  `json:"submitter_id"`
	Authors         []entity.Author         `json:"authors"`
	SubmissionDate  time.Time               `json:"submission_date"`
	Status          entity.SubmissionStatus `json:"status"`
	StatusDate      time.Time               `json:"status_date"`
	StructureErrors []string                `json:"structure_errors,omitempty"`
	MarkedAsFinal   bool                    `json:"marked_as_final"`
	Overdue         bool                    `json:"overdue"`
	GitCommitHash   *string                 `json:"git_commit_hash,omitempty"`
	GitCommitDate   *time.Time              `json:"git_commit_date,omitempty"`
	Reports         []Report                `json:"reports"`
}

type ListSubmissionsResponse struct {
	List  []Submission `json:"list"`
	Total int          `json:"total"`
}

type NextSubmissionTimeResponse struct {
	NextSubmissionTime *time.Time `json:"next_submission_time"`
}

type GetSubmissionDownloadURLResponse struct {
	PresignedURL string `json:"presigned_url"`
}
