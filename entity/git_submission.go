package entity

import "time"

type GitSubmission struct {
	ID                 uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	AssignmentID       string     `gorm:"column:assignment_id;type:varchar(64);not null;uniqueIndex:uk_student_assignment"`
	SubmitterStudentID string     `gorm:"column:submitter_student_id;type:varchar(64);not null;uniqueIndex:uk_student_assignment"`
	GroupID            *uint64    `gorm:"column:group_id;index"`
	GitRepositoryURL   string     `gorm:"column:git_repository_url;type:varchar(512);not null"`
	PrivateKey         string     `gorm:"column:private_key;type:text"`
	PublicKey          string     `gorm:"column:public_key;type:text"`
	Connected          bool       `gorm:"column:connected;not null;default:false"`
	LastCommitDate     *time.Time `gorm:"column:last_commit_date"`
	LastSubmissionID   *uint64    `gorm:"column:last_submission_id"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
}

func (GitSubmission) TableName() string {
	return "git_submission"
}
