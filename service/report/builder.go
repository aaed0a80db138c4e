package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
)

// Builder 将构建输出解析为汇总
type Builder interface {
	Build(lines []string, projectPath string, a *entity.Assignment, s *entity.Submission) (*Summary, error)
}

const (
	CheckstyleFile = "checkstyle.xml"
	JacocoReport   = "target/site/jacoco/jacoco.csv"
)

var (
	// [ERROR] /path/Main.java:[10,5] cannot find symbol
	javacErrorRe = regexp.MustCompile(`^\[ERROR\] (\S+\.java):\[(\d+),(\d+)\] (.*)$`)
	// e: file:///path/Main.kt:10:5 Unresolved reference: x
	kotlincErrorRe = regexp.MustCompile(`^(?:\[ERROR\] )?e: (?:file://)?(\S+\.kt):(?:\()?(\d+)[:,] ?(\d+)\)?:? (.*)$`)
	// [WARN] /path/Main.java:10:5: Missing a Javadoc comment. [JavadocMethod]
	checkstyleRe = regexp.MustCompile(`^\[(?:WARN|WARNING|ERROR)\] (\S+\.java):(\d+)(?::\d+)?: (.*) \[(\w+)\]$`)
	// Tests run: 2, Failures: 0, Errors: 0, Skipped: 0, Time elapsed: 0.012 s - in org.example.TestTeacherMain
	testsRunRe = regexp.MustCompile(`Tests run: (\d+), Failures: (\d+), Errors: (\d+), Skipped: (\d+), Time elapsed: ([\d.,]+) s(?:ec)?.*?-{1,2} in ([\w.$]+)`)
	// [ERROR] testFoo(org.example.TestTeacherMain)  Time elapsed: 0.01 sec  <<< FAILURE!
	failureOldRe = regexp.MustCompile(`^\[ERROR\] ([\w$]+)\(([\w.$]+)\)\s+Time elapsed:.*<<< (?:FAILURE|ERROR)!`)
	// [ERROR] org.example.TestTeacherMain.testFoo -- Time elapsed: 0.01 s <<< FAILURE!
	failureNewRe = regexp.MustCompile(`^\[ERROR\] ([\w.$]+)\.([\w$]+)\s+(?:--\s+)?Time elapsed:.*<<< (?:FAILURE|ERROR)!`)
)

type MavenReportBuilder struct{}

var _ Builder = (*MavenReportBuilder)(nil)

func NewMavenReportBuilder() *MavenReportBuilder {
	return &MavenReportBuilder{}
}

func (b *MavenReportBuilder) Build(lines []string, projectPath string, a *entity.Assignment, s *entity.Submission) (*Summary, error) {
	summary := &Summary{
		Tests: make(map[TestType]*TestCounts),
	}
	if s != nil {
		summary.StructureErrors = s.StructureErrors
	}
	if projectPath != "" {
		summary.CheckstyleEnabled = fsutil.PathExistsExact(projectPath, CheckstyleFile)
	}

	mandatorySuffix := ""
	if a.MandatoryTestsSuffix != nil {
		mandatorySuffix = *a.MandatoryTestsSuffix
	}
	seenFailures := make(map[string]struct{})

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if m := javacErrorRe.FindStringSubmatch(line); m != nil {
			summary.CompilationErrors = appendUnique(summary.CompilationErrors,
				fmt.Sprintf("%s: [%s,%s] %s", relative(projectPath, m[1]), m[2], m[3], m[4]))
			continue
		}
		if m := kotlincErrorRe.FindStringSubmatch(line); m != nil {
			summary.CompilationErrors = appendUnique(summary.CompilationErrors,
				fmt.Sprintf("%s: [%s,%s] %s", relative(projectPath, m[1]), m[2], m[3], m[4]))
			continue
		}
		if m := checkstyleRe.FindStringSubmatch(line); m != nil {
			summary.CheckstyleErrors = append(summary.CheckstyleErrors,
				fmt.Sprintf("%s:%s %s [%s]", relative(projectPath, m[1]), m[2], m[3], m[4]))
			continue
		}
		if m := testsRunRe.FindStringSubmatch(line); m != nil {
			b.addTestsRun(summary, m)
			continue
		}
		if mandatorySuffix == "" {
			continue
		}
		var method, class string
		if m := failureOldRe.FindStringSubmatch(line); m != nil {
			method, class = m[1], m[2]
		} else if m := failureNewRe.FindStringSubmatch(line); m != nil {
			class, method = m[1], m[2]
		}
		if method != "" && strings.HasSuffix(method, mandatorySuffix) {
			key := simpleName(class) + "." + method
			if _, dup := seenFailures[key]; !dup {
				seenFailures[key] = struct{}{}
				summary.MandatoryFailures = append(summary.MandatoryFailures, key)
			}
		}
	}

	if a.CalculateStudentTestsCoverage && projectPath != "" {
		coverage, err := readCoverage(filepath.Join(projectPath, filepath.FromSlash(JacocoReport)))
		if err != nil {
			return nil, fmt.Errorf("Build failed at read coverage: %w", err)
		}
		summary.Coverage = coverage
	}
	return summary, nil
}

func (b *MavenReportBuilder) addTestsRun(summary *Summary, m []string) {
	testType, ok := TestTypeOf(simpleName(m[6]))
	if !ok {
		return
	}
	total, _ := strconv.Atoi(m[1])
	failures, _ := strconv.Atoi(m[2])
	errCount, _ := strconv.Atoi(m[3])
	skipped, _ := strconv.Atoi(m[4])
	elapsed, _ := strconv.ParseFloat(strings.ReplaceAll(m[5], ",", "."), 64)

	c, exists := summary.Tests[testType]
	if !exists {
		c = &TestCounts{}
		summary.Tests[testType] = c
	}
	c.add(TestCounts{Total: total, Failures: failures, Errors: errCount, Skipped: skipped, Elapsed: elapsed})
}

type jacocoRow struct {
	Group       string `csv:"GROUP"`
	Package     string `csv:"PACKAGE"`
	Class       string `csv:"CLASS"`
	LineMissed  int    `csv:"LINE_MISSED"`
	LineCovered int    `csv:"LINE_COVERED"`
}

// readCoverage 读取 jacoco 的 csv 报告, 文件不存在时返回 nil
func readCoverage(path string) (*int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []jacocoRow
	if err = gocsv.Unmarshal(f, &rows); err != nil {
		return nil, err
	}
	var missed, covered int
	for _, r := range rows {
		// 学生测试类本身不计入覆盖率
		if strings.HasPrefix(r.Class, studentPrefix) {
			continue
		}
		missed += r.LineMissed
		covered += r.LineCovered
	}
	if missed+covered == 0 {
		return intPtr(0), nil
	}
	return intPtr(covered * 100 / (missed + covered)), nil
}

func simpleName(class string) string {
	if i := strings.LastIndex(class, "."); i >= 0 {
		return class[i+1:]
	}
	return class
}

func relative(projectPath, file string) string {
	if projectPath == "" {
		return file
	}
	if rel, err := filepath.Rel(projectPath, file); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return file
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
