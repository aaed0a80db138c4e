package model

type MarkAsFinalResponse struct {
	SubmissionID  uint64 `json:"submission_id"`
	MarkedAsFinal bool   `json:"marked_as_final"`
}

type ExportFinalParam struct {
	CommonParam `json:"-"`

	AssignmentID   string `form:"assignment_id" binding:"required"`
	Type           string `form:"type" binding:"omitempty,oneof=csv xlsx"`
	IncludeElapsed bool   `form:"include_elapsed"`
}
