package report

import (
	"github.com/to404hanga/submission_controller/entity"
)

// TestType 测试类别, 由测试类名前缀决定
type TestType string

const (
	TestTypeStudent TestType = "STUDENT"
	TestTypeTeacher TestType = "TEACHER"
	TestTypeHidden  TestType = "HIDDEN"
)

const (
	teacherPrefix = "TestTeacher"
	hiddenPrefix  = "TestTeacherHidden"
	studentPrefix = "Test"
)

// TestTypeOf 根据简单类名判断测试类别
func TestTypeOf(simpleClassName string) (TestType, bool) {
	switch {
	case hasPrefix(simpleClassName, hiddenPrefix):
		return TestTypeHidden, true
	case hasPrefix(simpleClassName, teacherPrefix):
		return TestTypeTeacher, true
	case hasPrefix(simpleClassName, studentPrefix):
		return TestTypeStudent, true
	}
	return "", false
}

func hasPrefix(s, p string) bool {
	return len(s) >= len(p) && s[:len(p)] == p
}

// TestCounts 一类测试的汇总
type TestCounts struct {
	Total    int     `json:"total"`
	Failures int     `json:"failures"`
	Errors   int     `json:"errors"`
	Skipped  int     `json:"skipped"`
	Elapsed  float64 `json:"elapsed"` // 单位: 秒
}

func (c TestCounts) Passed() int {
	return c.Total - c.Failures - c.Errors - c.Skipped
}

func (c *TestCounts) add(o TestCounts) {
	c.Total += o.Total
	c.Failures += o.Failures
	c.Errors += o.Errors
	c.Skipped += o.Skipped
	c.Elapsed += o.Elapsed
}

// Summary 由构建输出计算出的派生视图, 不持久化
type Summary struct {
	CompilationErrors []string                 `json:"compilation_errors"`
	CheckstyleErrors  []string                 `json:"checkstyle_errors"`
	CheckstyleEnabled bool                     `json:"checkstyle_enabled"`
	Tests             map[TestType]*TestCounts `json:"tests"`
	// Coverage 学生测试的行覆盖率百分比
	Coverage          *int     `json:"coverage,omitempty"`
	MandatoryFailures []string `json:"mandatory_failures"`
	StructureErrors   []string `json:"structure_errors"`
}

// TestsOf 返回指定类别的测试汇总, 未运行时返回 false
func (s *Summary) TestsOf(t TestType) (TestCounts, bool) {
	c, ok := s.Tests[t]
	if !ok || c == nil {
		return TestCounts{}, false
	}
	return *c, true
}

// TeacherProgress 通过的教师测试数与教师测试总数
func (s *Summary) TeacherProgress() (progress, goal int) {
	c, ok := s.TestsOf(TestTypeTeacher)
	if !ok {
		return 0, 0
	}
	return c.Passed(), c.Total
}

// ElapsedSeconds 教师测试耗时
func (s *Summary) ElapsedSeconds() (float64, bool) {
	c, ok := s.TestsOf(TestTypeTeacher)
	if !ok {
		return 0, false
	}
	return c.Elapsed, true
}

func (s *Summary) CompilationOK() bool {
	return len(s.CompilationErrors) == 0
}

// Indicators 将汇总转换为按固定顺序排列的指标结果
func (s *Summary) Indicators(a *entity.Assignment, submissionID uint64) []entity.SubmissionReport {
	var out []entity.SubmissionReport
	add := func(ind entity.Indicator, v entity.ReportValue, progress, goal *int) {
		out = append(out, entity.SubmissionReport{
			SubmissionID: submissionID,
			Indicator:    ind,
			Value:        v,
			Progress:     progress,
			Goal:         goal,
		})
	}

	if len(s.StructureErrors) > 0 {
		add(entity.IndicatorProjectStructure, entity.ReportNOK, nil, nil)
		return out
	}
	add(entity.IndicatorProjectStructure, entity.ReportOK, nil, nil)

	if !s.CompilationOK() {
		add(entity.IndicatorCompilation, entity.ReportNOK, nil, nil)
		return out
	}
	add(entity.IndicatorCompilation, entity.ReportOK, nil, nil)

	if s.CheckstyleEnabled {
		add(entity.IndicatorCheckstyle, okIf(len(s.CheckstyleErrors) == 0), nil, nil)
	}

	if a.AcceptsStudentTests {
		c, ok := s.TestsOf(TestTypeStudent)
		switch {
		case !ok || c.Total == 0:
			add(entity.IndicatorStudentUnitTests, entity.ReportNotEnoughTests, intPtr(0), intPtr(0))
		default:
			add(entity.IndicatorStudentUnitTests, okIf(c.Passed() == c.Total), intPtr(c.Passed()), intPtr(c.Total))
		}
	}

	if c, ok := s.TestsOf(TestTypeTeacher); ok {
		v := okIf(c.Passed() == c.Total && len(s.MandatoryFailures) == 0)
		add(entity.IndicatorTeacherUnitTests, v, intPtr(c.Passed()), intPtr(c.Total))
	}
	if c, ok := s.TestsOf(TestTypeHidden); ok {
		add(entity.IndicatorHiddenUnitTests, okIf(c.Passed() == c.Total), intPtr(c.Passed()), intPtr(c.Total))
	}
	return out
}

func okIf(cond bool) entity.ReportValue {
	if cond {
		return entity.ReportOK
	}
	return entity.ReportNOK
}

func intPtr(v int) *int {
	return &v
}
