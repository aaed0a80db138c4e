package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/pointer"
)

const surefireOutput = `[INFO] -------------------------------------------------------
[INFO]  T E S T S
[INFO] -------------------------------------------------------
[INFO] Running org.dropproject.samples.TestTeacherMain
[ERROR] Tests run: 4, Failures: 1, Errors: 0, Skipped: 0, Time elapsed: 0.125 s <<< FAILURE! - in org.dropproject.samples.TestTeacherMain
[ERROR] testSumMandatory(org.dropproject.samples.TestTeacherMain)  Time elapsed: 0.01 s  <<< FAILURE!
[INFO] Running org.dropproject.samples.TestTeacherHiddenMain
[INFO] Tests run: 2, Failures: 0, Errors: 0, Skipped: 0, Time elapsed: 0.5 s - in org.dropproject.samples.TestTeacherHiddenMain
[INFO] Running org.dropproject.samples.TestMain
[INFO] Tests run: 3, Failures: 0, Errors: 1, Skipped: 0, Time elapsed: 0,2 s -- in org.dropproject.samples.TestMain
[INFO] Results:`

func lines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func TestBuildParsesSurefireOutput(t *testing.T) {
	a := &entity.Assignment{AcceptsStudentTests: true, MandatoryTestsSuffix: pointer.ToPtr("Mandatory")}
	summary, err := NewMavenReportBuilder().Build(lines(surefireOutput), "", a, &entity.Submission{})
	require.NoError(t, err)

	teacher, ok := summary.TestsOf(TestTypeTeacher)
	require.True(t, ok)
	assert.Equal(t, 4, teacher.Total)
	assert.Equal(t, 3, teacher.Passed())

	hidden, ok := summary.TestsOf(TestTypeHidden)
	require.True(t, ok)
	assert.Equal(t, 2, hidden.Passed())

	student, ok := summary.TestsOf(TestTypeStudent)
	require.True(t, ok)
	assert.Equal(t, 2, student.Passed())
	assert.InDelta(t, 0.2, student.Elapsed, 1e-9)

	progress, goal := summary.TeacherProgress()
	assert.Equal(t, 3, progress)
	assert.Equal(t, 4, goal)

	elapsed, ok := summary.ElapsedSeconds()
	require.True(t, ok)
	assert.InDelta(t, 0.125, elapsed, 1e-9)

	assert.Equal(t, []string{"TestTeacherMain.testSumMandatory"}, summary.MandatoryFailures)
	assert.True(t, summary.CompilationOK())

	indicators := summary.Indicators(a, 7)
	got := make(map[entity.Indicator]entity.ReportValue)
	for _, r := range indicators {
		assert.Equal(t, uint64(7), r.SubmissionID)
		got[r.Indicator] = r.Value
	}
	assert.Equal(t, map[entity.Indicator]entity.ReportValue{
		entity.IndicatorProjectStructure: entity.ReportOK,
		entity.IndicatorCompilation:      entity.ReportOK,
		entity.IndicatorStudentUnitTests: entity.ReportNOK,
		entity.IndicatorTeacherUnitTests: entity.ReportNOK,
		entity.IndicatorHiddenUnitTests:  entity.ReportOK,
	}, got)
}

func TestBuildCompilationErrorsStopIndicators(t *testing.T) {
	root := t.TempDir()
	output := []string{
		"[INFO] BUILD FAILURE",
		"[ERROR] COMPILATION ERROR :",
		"[ERROR] " + filepath.Join(root, "src/main/java/org/x/Main.java") + ":[10,5] cannot find symbol",
		"[ERROR] " + filepath.Join(root, "src/main/java/org/x/Main.java") + ":[10,5] cannot find symbol",
	}
	summary, err := NewMavenReportBuilder().Build(output, root, &entity.Assignment{}, &entity.Submission{})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/main/java/org/x/Main.java: [10,5] cannot find symbol"}, summary.CompilationErrors)
	indicators := summary.Indicators(&entity.Assignment{}, 1)
	require.Len(t, indicators, 2)
	assert.Equal(t, entity.IndicatorCompilation, indicators[1].Indicator)
	assert.Equal(t, entity.ReportNOK, indicators[1].Value)
}

func TestBuildStructureErrors(t *testing.T) {
	s := &entity.Submission{StructureErrors: []string{"missing src"}}
	summary, err := NewMavenReportBuilder().Build(nil, "", &entity.Assignment{}, s)
	require.NoError(t, err)

	indicators := summary.Indicators(&entity.Assignment{}, 1)
	require.Len(t, indicators, 1)
	assert.Equal(t, entity.ReportNOK, indicators[0].Value)
}

func TestBuildCheckstyleAndCoverage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, CheckstyleFile), []byte("<module/>"), 0o644))
	jacoco := filepath.Join(root, filepath.FromSlash(JacocoReport))
	require.NoError(t, os.MkdirAll(filepath.Dir(jacoco), 0o755))
	csv := "GROUP,PACKAGE,CLASS,INSTRUCTION_MISSED,INSTRUCTION_COVERED,BRANCH_MISSED,BRANCH_COVERED,LINE_MISSED,LINE_COVERED,COMPLEXITY_MISSED,COMPLEXITY_COVERED,METHOD_MISSED,METHOD_COVERED\n" +
		"proj,org.x,Main,10,30,0,0,2,8,0,0,0,0\n" +
		"proj,org.x,Helper,0,10,0,0,0,10,0,0,0,0\n" +
		"proj,org.x,TestMain,5,5,0,0,20,0,0,0,0,0\n"
	require.NoError(t, os.WriteFile(jacoco, []byte(csv), 0o644))

	output := []string{
		"[WARN] " + filepath.Join(root, "src/main/java/org/x/Main.java") + ":3:1: Missing a Javadoc comment. [JavadocMethod]",
		"[INFO] Tests run: 1, Failures: 0, Errors: 0, Skipped: 0, Time elapsed: 0.1 s - in org.x.TestTeacherMain",
	}
	a := &entity.Assignment{CalculateStudentTestsCoverage: true}
	summary, err := NewMavenReportBuilder().Build(output, root, a, &entity.Submission{})
	require.NoError(t, err)

	require.NotNil(t, summary.Coverage)
	assert.Equal(t, 90, *summary.Coverage)
	assert.True(t, summary.CheckstyleEnabled)
	assert.Equal(t, []string{"src/main/java/org/x/Main.java:3 Missing a Javadoc comment. [JavadocMethod]"}, summary.CheckstyleErrors)

	report, ok := entity.ReportOf(summary.Indicators(a, 1), entity.IndicatorCheckstyle)
	require.True(t, ok)
	assert.Equal(t, entity.ReportNOK, report.Value)
}

func TestStudentTestsNotEnough(t *testing.T) {
	a := &entity.Assignment{AcceptsStudentTests: true}
	summary, err := NewMavenReportBuilder().Build(nil, "", a, &entity.Submission{})
	require.NoError(t, err)

	report, ok := entity.ReportOf(summary.Indicators(a, 1), entity.IndicatorStudentUnitTests)
	require.True(t, ok)
	assert.Equal(t, entity.ReportNotEnoughTests, report.Value)
}

func TestTestTypeOf(t *testing.T) {
	cases := map[string]TestType{
		"TestTeacherHiddenFoo": TestTypeHidden,
		"TestTeacherFoo":       TestTypeTeacher,
		"TestFoo":              TestTypeStudent,
	}
	for name, want := range cases {
		got, ok := TestTypeOf(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := TestTypeOf("MainTest")
	assert.False(t, ok)
}
