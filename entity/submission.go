package entity

import "time"

type Submission struct {
	ID               uint64           `gorm:"column:id;primaryKey;autoIncrement"`
	AssignmentID     string           `gorm:"column:assignment_id;type:varchar(64);not null;index:idx_assignment_group"`
	GroupID          uint64           `gorm:"column:group_id;not null;index:idx_assignment_group"`
	SubmitterID      string           `gorm:"column:submitter_id;type:varchar(64);not null"`
	SubmissionDate   time.Time        `gorm:"column:submission_date;not null"`
	Status           SubmissionStatus `gorm:"column:status;type:varchar(32);not null;index"`
	StatusDate       time.Time        `gorm:"column:status_date;not null"`
	SubmissionFolder string           `gorm:"column:submission_folder;type:varchar(255)"`
	// SubmissionArchive 原始压缩包相对存储根目录的路径, git 提交为空
	SubmissionArchive string     `gorm:"column:submission_archive;type:varchar(255)"`
	GitSubmissionID   *uint64    `gorm:"column:git_submission_id;index"`
	GitCommitDate     *time.Time `gorm:"column:git_commit_date"`
	GitCommitHash     *string    `gorm:"column:git_commit_hash;type:varchar(64)"`
	BuildReportID     *uint64    `gorm:"column:build_report_id"`
	StructureErrors   []string   `gorm:"column:structure_errors;type:text;serializer:json"`
	MarkedAsFinal     bool       `gorm:"column:marked_as_final;not null;default:false"`
	// MavenizedFolder 最近一次生成的规范化目录
	MavenizedFolder string    `gorm:"column:mavenized_folder;type:varchar(255)"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (Submission) TableName() string {
	return "submission"
}

// SetStatus 更新状态, touchDate 为 false 时保留原状态时间
func (s *Submission) SetStatus(status SubmissionStatus, now time.Time, touchDate bool) {
	s.Status = status
	if touchDate {
		s.StatusDate = now
	}
}

func (s *Submission) HasStructureErrors() bool {
	return len(s.StructureErrors) > 0
}

// IsGitBacked 判断是否来自 git 仓库
func (s *Submission) IsGitBacked() bool {
	return s.GitSubmissionID != nil
}

type BuildReport struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Output    string    `gorm:"column:output;type:longtext"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (BuildReport) TableName() string {
	return "build_report"
}
