package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/pointer"
	"github.com/to404hanga/submission_controller/pkg/testkit"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/report"
	"gorm.io/gorm"
)

// seedRanked 写入一次已评测的提交, elapsed 为教师测试耗时
func seedRanked(t *testing.T, db *gorm.DB, a *entity.Assignment, studentID string, status entity.SubmissionStatus, progress int, elapsed float64) *entity.Submission {
	t.Helper()
	ctx := context.Background()
	group, err := repository.NewGroupRepository(db).FindOrCreate(ctx, []entity.Author{{StudentID: studentID, Name: "Student " + studentID}})
	require.NoError(t, err)

	reports := repository.NewReportRepository(db)
	br := &entity.BuildReport{
		Output: fmt.Sprintf("[INFO] Tests run: %d, Failures: 0, Errors: 0, Skipped: 0, Time elapsed: %.1f s - in org.example.TestTeacherMain", progress, elapsed),
	}
	require.NoError(t, reports.CreateBuildReport(ctx, br))

	date := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sub := &entity.Submission{
		AssignmentID:   a.ID,
		GroupID:        group.ID,
		SubmitterID:    studentID,
		SubmissionDate: date,
		Status:         status,
		StatusDate:     date,
		BuildReportID:  &br.ID,
	}
	require.NoError(t, repository.NewSubmissionRepository(db).Create(ctx, sub))
	require.NoError(t, reports.Append(ctx, []entity.SubmissionReport{
		{SubmissionID: sub.ID, Indicator: entity.IndicatorCompilation, Value: entity.ReportOK},
		{SubmissionID: sub.ID, Indicator: entity.IndicatorTeacherUnitTests, Value: entity.ReportOK, Progress: pointer.ToPtr(progress), Goal: pointer.ToPtr(100)},
	}))
	return sub
}

func newRankingFixture(t *testing.T, lbType entity.LeaderboardType, public bool) (*gorm.DB, *RankingServiceImpl, *entity.Assignment) {
	t.Helper()
	db := testkit.NewDB(t)
	_, rdb := testkit.NewRedis(t)
	a := &entity.Assignment{
		ID:               "sample",
		Name:             "Sample",
		OwnerID:          teacher.StudentID,
		Language:         entity.LanguageJava,
		SubmissionMethod: entity.SubmissionMethodUpload,
		Active:           true,
		ShowLeaderBoard:  public,
		LeaderboardType:  lbType,
	}
	require.NoError(t, repository.NewAssignmentRepository(db).Create(context.Background(), a))
	svc := NewRankingService(db, rdb, report.NewMavenReportBuilder(), time.Minute, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	return db, svc, a
}

func TestGetLeaderboardElapsedTime(t *testing.T) {
	db, svc, a := newRankingFixture(t, entity.LeaderboardElapsedTime, true)
	slow := seedRanked(t, db, a, "a1", entity.StatusValidated, 80, 30)
	fast := seedRanked(t, db, a, "a2", entity.StatusValidated, 100, 20)
	mid := seedRanked(t, db, a, "a3", entity.StatusValidatedRebuilt, 100, 25)

	resp, err := svc.GetLeaderboard(context.Background(), student, a.ID)
	require.NoError(t, err)
	require.Len(t, resp.List, 3)
	assert.Equal(t, []uint64{fast.ID, mid.ID, slow.ID},
		[]uint64{resp.List[0].SubmissionID, resp.List[1].SubmissionID, resp.List[2].SubmissionID})
	require.NotNil(t, resp.List[0].ElapsedSeconds)
	assert.InDelta(t, 20.0, *resp.List[0].ElapsedSeconds, 0.001)
	for _, e := range resp.List {
		require.Len(t, e.Reports, 1)
		assert.Equal(t, entity.IndicatorTeacherUnitTests, e.Reports[0].Indicator)
		assert.Equal(t, "Student "+e.Authors[0].StudentID, e.Authors[0].Name)
	}
}

func TestGetLeaderboardFiltersIneligible(t *testing.T) {
	db, svc, a := newRankingFixture(t, entity.LeaderboardTestsPassed, true)
	seedRanked(t, db, a, "a1", entity.StatusValidated, 0, 1)
	seedRanked(t, db, a, "a2", entity.StatusFailed, 10, 1)
	ok := seedRanked(t, db, a, "a3", entity.StatusValidated, 5, 1)
	// 同一小组只看最新一次提交
	older := seedRanked(t, db, a, "a4", entity.StatusValidated, 50, 1)
	require.NoError(t, db.Model(&entity.Submission{}).Where("id = ?", older.ID).
		Update("submission_date", older.SubmissionDate.Add(-time.Hour)).Error)
	seedRanked(t, db, a, "a4", entity.StatusSubmitted, 0, 1)

	resp, err := svc.GetLeaderboard(context.Background(), teacher, a.ID)
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, ok.ID, resp.List[0].SubmissionID)
	assert.Nil(t, resp.List[0].ElapsedSeconds)
}

func TestGetLeaderboardVisibility(t *testing.T) {
	db, svc, a := newRankingFixture(t, entity.LeaderboardTestsPassed, false)
	seedRanked(t, db, a, "a1", entity.StatusValidated, 3, 1)

	_, err := svc.GetLeaderboard(context.Background(), student, a.ID)
	assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

	resp, err := svc.GetLeaderboard(context.Background(), teacher, a.ID)
	require.NoError(t, err)
	assert.Len(t, resp.List, 1)

	_, err = svc.GetLeaderboard(context.Background(), teacher, "missing")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestGetLeaderboardCache(t *testing.T) {
	db, svc, a := newRankingFixture(t, entity.LeaderboardTestsPassed, true)
	ctx := context.Background()
	seedRanked(t, db, a, "a1", entity.StatusValidated, 3, 1)

	resp, err := svc.GetLeaderboard(ctx, student, a.ID)
	require.NoError(t, err)
	require.Len(t, resp.List, 1)

	seedRanked(t, db, a, "a2", entity.StatusValidated, 7, 1)
	resp, err = svc.GetLeaderboard(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Len(t, resp.List, 1)

	require.NoError(t, svc.Invalidate(ctx, a.ID))
	resp, err = svc.GetLeaderboard(ctx, student, a.ID)
	require.NoError(t, err)
	require.Len(t, resp.List, 2)
	assert.Equal(t, 7, resp.List[0].Progress)
}
