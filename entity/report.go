package entity

type Indicator string

const (
	IndicatorProjectStructure Indicator = "PROJECT_STRUCTURE"
	IndicatorCompilation      Indicator = "COMPILATION"
	IndicatorCheckstyle       Indicator = "CHECKSTYLE"
	IndicatorStudentUnitTests Indicator = "STUDENT_UNIT_TESTS"
	IndicatorTeacherUnitTests Indicator = "TEACHER_UNIT_TESTS"
	IndicatorHiddenUnitTests  Indicator = "HIDDEN_UNIT_TESTS"
)

// Indicators 指标的展示顺序
var Indicators = []Indicator{
	IndicatorProjectStructure,
	IndicatorCompilation,
	IndicatorCheckstyle,
	IndicatorStudentUnitTests,
	IndicatorTeacherUnitTests,
	IndicatorHiddenUnitTests,
}

type ReportValue string

const (
	ReportOK             ReportValue = "OK"
	ReportNOK            ReportValue = "NOK"
	ReportNotEnoughTests ReportValue = "NOT_ENOUGH_TESTS"
)

type SubmissionReport struct {
	ID           uint64      `gorm:"column:id;primaryKey;autoIncrement"`
	SubmissionID uint64      `gorm:"column:submission_id;not null;index"`
	Indicator    Indicator   `gorm:"column:indicator;type:varchar(32);not null"`
	Value        ReportValue `gorm:"column:value;type:varchar(32);not null"`
	Progress     *int        `gorm:"column:progress"`
	Goal         *int        `gorm:"column:goal"`
}

func (SubmissionReport) TableName() string {
	return "submission_report"
}

// ReportOf 查找指定指标
func ReportOf(reports []SubmissionReport, indicator Indicator) (SubmissionReport, bool) {
	for _, r := range reports {
		if r.Indicator == indicator {
			return r, true
		}
	}
	return SubmissionReport{}, false
}

// HasStructureOrCompilationFailure 报告中项目结构或编译为 NOK
func HasStructureOrCompilationFailure(reports []SubmissionReport) bool {
	for _, r := range reports {
		if (r.Indicator == IndicatorProjectStructure || r.Indicator == IndicatorCompilation) && r.Value == ReportNOK {
			return true
		}
	}
	return false
}
