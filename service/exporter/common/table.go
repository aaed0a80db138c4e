package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/to404hanga/pkg404/gotools/transform"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/report"
	"gorm.io/gorm"
)

const (
	ColSubmissionID   = "submission id"
	ColStudentID      = "student id"
	ColStudentName    = "student name"
	ColStructure      = "project structure"
	ColCompilation    = "compilation"
	ColCodeQuality    = "code quality"
	ColStudentTests   = "student tests"
	ColTeacherTests   = "teacher tests"
	ColHiddenTests    = "hidden tests"
	ColCoverage       = "coverage"
	ColElapsed        = "elapsed"
	ColSubmissionDate = "submission date"
	ColOverdue        = "overdue"
)

const dateLayout = "2006-01-02 15:04:05"

// Table 导出用的二维表, 每行与表头对齐
type Table struct {
	Header []string
	Rows   [][]string
}

// columns 按首次出现顺序去重的列名
type columns struct {
	names []string
	seen  map[string]struct{}
}

func (c *columns) add(name string) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[name]; ok {
		return
	}
	c.seen[name] = struct{}{}
	c.names = append(c.names, name)
}

type finalRow struct {
	sub     *entity.Submission
	reports []entity.SubmissionReport
	summary *report.Summary
}

// FetchFinalTable 汇总作业的最终提交, 每个作者一行
// 可选列在输出任何一行之前根据全部结果决定
func FetchFinalTable(ctx context.Context, db *gorm.DB, builder report.Builder, assignmentID string, includeElapsed bool) (*Table, error) {
	aOpt, err := repository.NewAssignmentRepository(db).FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	a, err := errs.Found(aOpt, "assignment", assignmentID)
	if err != nil {
		return nil, err
	}
	finals, err := repository.NewSubmissionRepository(db).ListFinal(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("FetchFinalTable failed at list finals: %w", err)
	}

	ids := transform.SliceFromSlice(finals, func(_ int, sub entity.Submission) uint64 {
		return sub.ID
	})
	groupIDs := transform.SliceFromSlice(finals, func(_ int, sub entity.Submission) uint64 {
		return sub.GroupID
	})
	reportRepo := repository.NewReportRepository(db)
	reports, err := reportRepo.FindBySubmissions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("FetchFinalTable failed at find reports: %w", err)
	}
	groups, err := repository.NewGroupRepository(db).FindByIDs(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("FetchFinalTable failed at find groups: %w", err)
	}

	var hasTeacher, hasHidden bool
	rows := make([]finalRow, 0, len(finals))
	for i := range finals {
		r := finalRow{sub: &finals[i], reports: reports[finals[i].ID]}
		_, teacher := entity.ReportOf(r.reports, entity.IndicatorTeacherUnitTests)
		_, hidden := entity.ReportOf(r.reports, entity.IndicatorHiddenUnitTests)
		hasTeacher = hasTeacher || teacher
		hasHidden = hasHidden || hidden
		if includeElapsed || a.CalculateStudentTestsCoverage {
			if r.summary, err = report.Load(ctx, reportRepo, builder, a, r.sub); err != nil {
				return nil, fmt.Errorf("FetchFinalTable failed at load summary: %w", err)
			}
		}
		rows = append(rows, r)
	}

	var cols columns
	values := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		group, ok := groups[r.sub.GroupID]
		if !ok {
			continue
		}
		for _, author := range group.Authors() {
			v := make(map[string]string)
			set := func(col, val string) {
				cols.add(col)
				v[col] = val
			}
			set(ColSubmissionID, strconv.FormatUint(r.sub.ID, 10))
			set(ColStudentID, author.StudentID)
			set(ColStudentName, author.Name)
			set(ColStructure, reportValue(r.reports, entity.IndicatorProjectStructure))
			set(ColCompilation, reportValue(r.reports, entity.IndicatorCompilation))
			set(ColCodeQuality, reportValue(r.reports, entity.IndicatorCheckstyle))
			if a.AcceptsStudentTests {
				set(ColStudentTests, reportProgress(r.reports, entity.IndicatorStudentUnitTests))
			}
			if hasTeacher {
				set(ColTeacherTests, reportProgress(r.reports, entity.IndicatorTeacherUnitTests))
			}
			if hasHidden {
				set(ColHiddenTests, reportProgress(r.reports, entity.IndicatorHiddenUnitTests))
			}
			if a.CalculateStudentTestsCoverage {
				set(ColCoverage, coverage(r.summary))
			}
			if includeElapsed {
				set(ColElapsed, elapsed(r.summary))
			}
			set(ColSubmissionDate, r.sub.SubmissionDate.Format(dateLayout))
			set(ColOverdue, strconv.FormatBool(a.IsOverdue(r.sub.SubmissionDate)))
			values = append(values, v)
		}
	}

	table := &Table{Header: cols.names, Rows: make([][]string, 0, len(values))}
	if len(table.Header) == 0 {
		table.Header = defaultHeader(a, includeElapsed)
	}
	for _, v := range values {
		row := make([]string, len(table.Header))
		for i, col := range table.Header {
			row[i] = v[col]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// defaultHeader 没有最终提交时输出的表头
func defaultHeader(a *entity.Assignment, includeElapsed bool) []string {
	header := []string{ColSubmissionID, ColStudentID, ColStudentName, ColStructure, ColCompilation, ColCodeQuality}
	if a.AcceptsStudentTests {
		header = append(header, ColStudentTests)
	}
	if a.CalculateStudentTestsCoverage {
		header = append(header, ColCoverage)
	}
	if includeElapsed {
		header = append(header, ColElapsed)
	}
	return append(header, ColSubmissionDate, ColOverdue)
}

func reportValue(reports []entity.SubmissionReport, ind entity.Indicator) string {
	r, ok := entity.ReportOf(reports, ind)
	if !ok {
		return ""
	}
	return string(r.Value)
}

func reportProgress(reports []entity.SubmissionReport, ind entity.Indicator) string {
	r, ok := entity.ReportOf(reports, ind)
	if !ok || r.Progress == nil {
		return ""
	}
	return strconv.Itoa(*r.Progress)
}

func coverage(s *report.Summary) string {
	if s == nil || s.Coverage == nil {
		return ""
	}
	return strconv.Itoa(*s.Coverage)
}

func elapsed(s *report.Summary) string {
	if s == nil {
		return ""
	}
	v, ok := s.ElapsedSeconds()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
