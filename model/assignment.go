package model

import (
	"time"

	"github.com/to404hanga/submission_controller/entity"
)

type CreateAssignmentParam struct {
	CommonParam `json:"-"`

	ID                            string                  `json:"id" binding:"required,max=64"`
	Name                          string                  `json:"name" binding:"required"`
	PackageName                   string                  `json:"package_name"`
	Language                      entity.Language         `json:"language" binding:"required,oneof=JAVA KOTLIN"`
	SubmissionMethod              entity.SubmissionMethod `json:"submission_method" binding:"required,oneof=UPLOAD GIT"`
	DueDate                       *time.Time              `json:"due_date"`
	CooloffPeriod                 *int                    `json:"cooloff_period" binding:"omitempty,min=0"`
	AcceptsStudentTests           bool                    `json:"accepts_student_tests"`
	CalculateStudentTestsCoverage bool                    `json:"calculate_student_tests_coverage"`
	MandatoryTestsSuffix          *string                 `json:"mandatory_tests_suffix"`
	ShowLeaderBoard               bool                    `json:"show_leader_board"`
	LeaderboardType               entity.LeaderboardType  `json:"leaderboard_type" binding:"omitempty,oneof=TESTS_PASSED ELAPSED_TIME COVERAGE"`
}

type UpdateAssignmentParam struct {
	CommonParam `json:"-"`

	ID string `json:"id" binding:"required"`

	Name                          *string                  `json:"name"`
	PackageName                   *string                  `json:"package_name"`
	Language                      *entity.Language         `json:"language" binding:"omitempty,oneof=JAVA KOTLIN"`
	SubmissionMethod              *entity.SubmissionMethod `json:"submission_method" binding:"omitempty,oneof=UPLOAD GIT"`
	Archived                      *bool                    `json:"archived"`
	DueDate                       *time.Time               `json:"due_date"`
	CooloffPeriod                 *int                     `json:"cooloff_period" binding:"omitempty,min=0"`
	AcceptsStudentTests           *bool                    `json:"accepts_student_tests"`
	CalculateStudentTestsCoverage *bool                    `json:"calculate_student_tests_coverage"`
	MandatoryTestsSuffix          *string                  `json:"mandatory_tests_suffix"`
	ShowLeaderBoard               *bool                    `json:"show_leader_board"`
	LeaderboardType               *entity.LeaderboardType  `json:"leaderboard_type" binding:"omitempty,oneof=TESTS_PASSED ELAPSED_TIME COVERAGE"`
}

type SetAssignmentActiveParam struct {
	CommonParam `json:"-"`

	ID     string `json:"id" binding:"required"`
	Active *bool  `json:"active" binding:"required"`
}

type UploadTeacherFilesParam struct {
	CommonParam `json:"-"`

	AssignmentID string `form:"assignment_id" binding:"required"`
	ArchivePath  string `form:"-" json:"-"`
}

type Assignment struct {
	entity.Assignment
	SubmissionCount int64 `json:"submission_count"`
}

type ListAssignmentsResponse struct {
	List  []entity.Assignment `json:"list"`
	Total int                 `json:"total"`
}
