package entity

import (
	"strings"
	"time"
)

type Language string

const (
	LanguageJava   Language = "JAVA"
	LanguageKotlin Language = "KOTLIN"
)

// EntryPointFile 入口文件名
func (l Language) EntryPointFile() string {
	if l == LanguageKotlin {
		return "Main.kt"
	}
	return "Main.java"
}

// SourceDir 规范化目录中语言对应的源码目录名
func (l Language) SourceDir() string {
	if l == LanguageKotlin {
		return "kotlin"
	}
	return "java"
}

func (l Language) Valid() bool {
	return l == LanguageJava || l == LanguageKotlin
}

type SubmissionMethod string

const (
	SubmissionMethodUpload SubmissionMethod = "UPLOAD"
	SubmissionMethodGit    SubmissionMethod = "GIT"
)

type LeaderboardType string

const (
	LeaderboardTestsPassed LeaderboardType = "TESTS_PASSED"
	LeaderboardElapsedTime LeaderboardType = "ELAPSED_TIME"
	LeaderboardCoverage    LeaderboardType = "COVERAGE"
)

type Assignment struct {
	ID                            string           `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name                          string           `gorm:"column:name;type:varchar(255);not null" json:"name"`
	OwnerID                       string           `gorm:"column:owner_id;type:varchar(64);not null;index" json:"owner_id"`
	PackageName                   string           `gorm:"column:package_name;type:varchar(255)" json:"package_name"`
	Language                      Language         `gorm:"column:language;type:varchar(16);not null" json:"language"`
	SubmissionMethod              SubmissionMethod `gorm:"column:submission_method;type:varchar(16);not null" json:"submission_method"`
	Active                        bool             `gorm:"column:active;not null;default:false" json:"active"`
	Archived                      bool             `gorm:"column:archived;not null;default:false" json:"archived"`
	DueDate                       *time.Time       `gorm:"column:due_date" json:"due_date"`
	CooloffPeriod                 *int             `gorm:"column:cooloff_period" json:"cooloff_period"` // 单位: 分钟
	AcceptsStudentTests           bool             `gorm:"column:accepts_student_tests;not null;default:false" json:"accepts_student_tests"`
	CalculateStudentTestsCoverage bool             `gorm:"column:calculate_student_tests_coverage;not null;default:false" json:"calculate_student_tests_coverage"`
	MandatoryTestsSuffix          *string          `gorm:"column:mandatory_tests_suffix;type:varchar(64)" json:"mandatory_tests_suffix"`
	ShowLeaderBoard               bool             `gorm:"column:show_leader_board;not null;default:false" json:"show_leader_board"`
	LeaderboardType               LeaderboardType  `gorm:"column:leaderboard_type;type:varchar(16)" json:"leaderboard_type"`
	CreatedAt                     time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt                     time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (Assignment) TableName() string {
	return "assignment"
}

// PackagePath 包名对应的相对路径, 例如 org.dropproject.samples -> org/dropproject/samples
func (a *Assignment) PackagePath() string {
	return strings.ReplaceAll(a.PackageName, ".", "/")
}

// IsOverdue 判断给定时间是否已过截止时间
func (a *Assignment) IsOverdue(t time.Time) bool {
	return a.DueDate != nil && t.After(*a.DueDate)
}
