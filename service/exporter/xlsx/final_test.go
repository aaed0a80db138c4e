package xlsx

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/testkit"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/exporter"
	"github.com/to404hanga/submission_controller/service/report"
	"github.com/xuri/excelize/v2"
)

func TestXLSXFinalExporter(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	a := &entity.Assignment{ID: "sample", Name: "Sample", OwnerID: "p1", Language: entity.LanguageJava, SubmissionMethod: entity.SubmissionMethodUpload}
	require.NoError(t, repository.NewAssignmentRepository(db).Create(ctx, a))

	group, err := repository.NewGroupRepository(db).FindOrCreate(ctx, []entity.Author{
		{StudentID: "a1", Name: "Ana Silva"}, {StudentID: "a2", Name: "Rui Costa"},
	})
	require.NoError(t, err)
	date := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repository.NewSubmissionRepository(db).Create(ctx, &entity.Submission{
		AssignmentID: a.ID, GroupID: group.ID, SubmitterID: "a1", SubmissionDate: date,
		Status: entity.StatusValidated, StatusDate: date, MarkedAsFinal: true,
	}))

	var buf bytes.Buffer
	exp := NewXLSXFinalExporter(db, report.NewMavenReportBuilder(), loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	require.NoError(t, exp.Export(ctx, a.ID, exporter.Options{IncludeElapsed: true}, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "submission id", rows[0][0])
	assert.Contains(t, rows[0], "elapsed")
	assert.Equal(t, "a1", rows[1][1])
	assert.Equal(t, "Rui Costa", rows[2][2])
}
