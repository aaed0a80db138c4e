package model

import "time"

type SetupGitSubmissionParam struct {
	CommonParam `json:"-"`

	AssignmentID  string `json:"assignment_id" binding:"required"`
	RepositoryURL string `json:"repository_url" binding:"required"`
}

type GitSubmissionIDParam struct {
	CommonParam `json:"-"`

	GitSubmissionID uint64 `json:"git_submission_id" form:"git_submission_id" binding:"required"`
}

type GitSubmission struct {
	ID                 uint64     `json:"id"`
	AssignmentID       string     `json:"assignment_id"`
	SubmitterStudentID string     `json:"submitter_student_id"`
	GroupID            *uint64    `json:"group_id,omitempty"`
	RepositoryURL      string     `json:"repository_url"`
	PublicKey          string     `json:"public_key"`
	Connected          bool       `json:"connected"`
	LastCommitDate     *time.Time `json:"last_commit_date,omitempty"`
	LastSubmissionID   *uint64    `json:"last_submission_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type RefreshGitSubmissionResponse struct {
	GitSubmission
	// Changed 远端有新的提交
	Changed bool `json:"changed"`
}
