package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/archive"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/pointer"
	"github.com/to404hanga/submission_controller/pkg/testkit"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/buildexec"
	"github.com/to404hanga/submission_controller/service/mavenizer"
	"github.com/to404hanga/submission_controller/service/report"
	"github.com/to404hanga/submission_controller/service/storage"
	"gorm.io/gorm"
)

var (
	student = entity.Operator{StudentID: "a1", Role: entity.RoleStudent}
	teacher = entity.Operator{StudentID: "p1", Role: entity.RoleTeacher}
)

const teacherTestsPassed = "[INFO] Tests run: 2, Failures: 0, Errors: 0, Skipped: 0, Time elapsed: 0.5 s - in org.example.TestTeacherMain"

// recordingFacility 同步记录派发的构建请求
type recordingFacility struct {
	mu       sync.Mutex
	requests []buildexec.BuildRequest
	err      error
}

func (f *recordingFacility) Submit(ctx context.Context, ec *buildexec.ExecContext, req buildexec.BuildRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *recordingFacility) last() buildexec.BuildRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *recordingFacility) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// asyncFailingFacility 异步派发并总是失败
type asyncFailingFacility struct{}

func (asyncFailingFacility) Submit(ctx context.Context, ec *buildexec.ExecContext, req buildexec.BuildRequest) error {
	ec.Go(ctx, req, func(ctx context.Context) error {
		return errors.New("broker unavailable")
	})
	return nil
}

type countingCache struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingCache) Invalidate(ctx context.Context, assignmentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[assignmentID]++
	return nil
}

type submissionFixture struct {
	db       *gorm.DB
	rdb      redis.Cmdable
	git      *fakeGitClient
	root     string
	svc      *SubmissionServiceImpl
	facility *recordingFacility
	cache    *countingCache
	ec       *buildexec.ExecContext
	redisSet func(key string)
}

func newSubmissionFixture(t *testing.T, facility buildexec.Facility) *submissionFixture {
	t.Helper()
	db := testkit.NewDB(t)
	mr, rdb := testkit.NewRedis(t)
	root := t.TempDir()
	log := loggerv2.NewLoggerAdapter(logger.NewNopLogger())

	store := storage.NewLocalStorage(root, archive.NewZipService(0), nil, "", log)
	ec := buildexec.NewExecContext(4, log)
	cache := &countingCache{}
	rec, _ := facility.(*recordingFacility)
	if facility == nil {
		rec = &recordingFacility{}
		facility = rec
	}
	git := newFakeGitClient()
	svc := NewSubmissionService(db, rdb, store, git, mavenizer.NewMavenizer(root, nil, log), facility, ec,
		report.NewMavenReportBuilder(), cache, SubmissionConfig{LockTTL: time.Second}, log).(*SubmissionServiceImpl)

	return &submissionFixture{
		db:       db,
		rdb:      rdb,
		git:      git,
		root:     root,
		svc:      svc,
		facility: rec,
		cache:    cache,
		ec:       ec,
		redisSet: func(key string) { require.NoError(t, mr.Set(key, "held")) },
	}
}

func (f *submissionFixture) createAssignment(t *testing.T, mutate func(a *entity.Assignment)) *entity.Assignment {
	t.Helper()
	a := &entity.Assignment{
		ID:               "sample",
		Name:             "Sample",
		OwnerID:          teacher.StudentID,
		PackageName:      "org.example",
		Language:         entity.LanguageJava,
		SubmissionMethod: entity.SubmissionMethodUpload,
		Active:           true,
		LeaderboardType:  entity.LeaderboardTestsPassed,
	}
	if mutate != nil {
		mutate(a)
	}
	require.NoError(t, repository.NewAssignmentRepository(f.db).Create(context.Background(), a))
	return a
}

func (f *submissionFixture) submission(t *testing.T, id uint64) *entity.Submission {
	t.Helper()
	opt, err := repository.NewSubmissionRepository(f.db).FindByID(context.Background(), id)
	require.NoError(t, err)
	s, ok := opt.Get()
	require.True(t, ok)
	return s
}

func (f *submissionFixture) countSubmissions(t *testing.T) int64 {
	t.Helper()
	var cnt int64
	require.NoError(t, f.db.Model(&entity.Submission{}).Count(&cnt).Error)
	return cnt
}

func writeProjectFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// zipProject 打包一个学生项目, withMain 为 false 时缺少入口文件
func zipProject(t *testing.T, authors string, withMain bool) string {
	t.Helper()
	dir := t.TempDir()
	project := filepath.Join(dir, "project")
	writeProjectFile(t, filepath.Join(project, "AUTHORS.txt"), authors)
	writeProjectFile(t, filepath.Join(project, "src", "org", "example", "Util.java"), "package org.example;")
	if withMain {
		writeProjectFile(t, filepath.Join(project, "src", "org", "example", "Main.java"), "package org.example;")
	}
	zipPath := filepath.Join(dir, "upload.zip")
	require.NoError(t, archive.NewZipService(0).Pack(context.Background(), project, zipPath))
	return zipPath
}

func (f *submissionFixture) upload(t *testing.T, op entity.Operator, assignmentID string) (*model.IntakeResult, error) {
	t.Helper()
	param := &model.UploadSubmissionParam{
		AssignmentID: assignmentID,
		ArchivePath:  zipProject(t, "a1;Ana Silva\na2;Rui Costa\n", true),
	}
	param.SetOperator(op)
	return f.svc.UploadSubmission(context.Background(), param)
}

func TestUploadSubmissionDispatchesBuild(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, res.Status)

	sub := f.submission(t, res.SubmissionID)
	assert.Equal(t, entity.StatusSubmitted, sub.Status)
	assert.Equal(t, student.StudentID, sub.SubmitterID)
	assert.NotEmpty(t, sub.MavenizedFolder)
	assert.FileExists(t, filepath.Join(sub.MavenizedFolder, "src", "main", "java", "org", "example", "Main.java"))

	require.Equal(t, 1, f.facility.count())
	req := f.facility.last()
	assert.Equal(t, sub.ID, req.SubmissionID)
	assert.Equal(t, sub.MavenizedFolder, req.MavenizedPath)
	assert.Equal(t, "a1_a2", req.AuthorLabel)
	assert.False(t, req.Rebuild)
	assert.NotEmpty(t, req.CorrelationID)
}

func TestUploadSubmissionRejectsPendingSubmission(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)

	_, err := f.upload(t, student, a.ID)
	require.NoError(t, err)

	uploads := filepath.Join(f.root, storage.UploadFolder)
	before, err := os.ReadDir(uploads)
	require.NoError(t, err)

	_, err = f.upload(t, entity.Operator{StudentID: "a2", Role: entity.RoleStudent}, a.ID)
	assert.ErrorIs(t, err, errs.ErrPendingSubmission)
	assert.Equal(t, int64(1), f.countSubmissions(t))

	// 被拒绝的上传不留下解包目录和压缩包
	after, err := os.ReadDir(uploads)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestUploadSubmissionRejectsWhileGroupLocked(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)

	groups := repository.NewGroupRepository(f.db)
	group, err := groups.FindOrCreate(context.Background(), []entity.Author{
		{StudentID: "a1", Name: "Ana Silva"}, {StudentID: "a2", Name: "Rui Costa"},
	})
	require.NoError(t, err)
	f.redisSet(fmt.Sprintf(intakeLockKey, a.ID, group.ID))

	_, err = f.upload(t, student, a.ID)
	assert.ErrorIs(t, err, errs.ErrPendingSubmission)
	assert.Equal(t, int64(0), f.countSubmissions(t))
	assert.Equal(t, 0, f.facility.count())

	entries, err := os.ReadDir(filepath.Join(f.root, storage.UploadFolder))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadSubmissionStructureErrors(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)

	param := &model.UploadSubmissionParam{
		AssignmentID: a.ID,
		ArchivePath:  zipProject(t, "a1;Ana Silva\n", false),
	}
	param.SetOperator(student)
	res, err := f.svc.UploadSubmission(context.Background(), param)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusValidated, res.Status)
	assert.NotEmpty(t, res.StructureErrors)

	sub := f.submission(t, res.SubmissionID)
	assert.Equal(t, entity.StatusValidated, sub.Status)
	assert.Equal(t, res.StructureErrors, sub.StructureErrors)

	reports, err := repository.NewReportRepository(f.db).FindBySubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	r, ok := entity.ReportOf(reports, entity.IndicatorProjectStructure)
	require.True(t, ok)
	assert.Equal(t, entity.ReportNOK, r.Value)
	assert.Equal(t, 0, f.facility.count())
}

func TestUploadSubmissionPolicy(t *testing.T) {
	t.Run("not an author", func(t *testing.T) {
		f := newSubmissionFixture(t, nil)
		a := f.createAssignment(t, nil)

		_, err := f.upload(t, entity.Operator{StudentID: "x9", Role: entity.RoleStudent}, a.ID)
		var e *errs.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errs.ReasonNotGroupMember, e.Reason)
		assert.Equal(t, int64(0), f.countSubmissions(t))

		entries, err := os.ReadDir(filepath.Join(f.root, storage.UploadFolder))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("inactive assignment", func(t *testing.T) {
		f := newSubmissionFixture(t, nil)
		a := f.createAssignment(t, func(a *entity.Assignment) { a.Active = false })

		_, err := f.upload(t, student, a.ID)
		assert.ErrorIs(t, err, errs.ErrPolicy)

		_, err = f.upload(t, teacher, a.ID)
		assert.NoError(t, err)
	})

	t.Run("wrong method", func(t *testing.T) {
		f := newSubmissionFixture(t, nil)
		a := f.createAssignment(t, func(a *entity.Assignment) { a.SubmissionMethod = entity.SubmissionMethodGit })

		_, err := f.upload(t, teacher, a.ID)
		var e *errs.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errs.ReasonWrongMethod, e.Reason)
	})
}

func TestUploadSubmissionCooloff(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, func(a *entity.Assignment) { a.CooloffPeriod = pointer.ToPtr(10) })
	ctx := context.Background()

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleBuildResult(ctx, &model.BuildResult{
		SubmissionID: res.SubmissionID,
		Outcome:      entity.OutcomeSuccess,
		Output:       []string{teacherTestsPassed},
	}))

	next, err := f.svc.GetNextSubmissionTime(ctx, student, a.ID)
	require.NoError(t, err)
	assert.True(t, next.IsSome())

	_, err = f.upload(t, student, a.ID)
	assert.ErrorIs(t, err, errs.ErrCooloff)

	next, err = f.svc.GetNextSubmissionTime(ctx, teacher, a.ID)
	require.NoError(t, err)
	assert.True(t, next.IsNone())

	f.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	_, err = f.upload(t, student, a.ID)
	assert.NoError(t, err)
}

func TestHandleBuildResult(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)
	ctx := context.Background()

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)

	result := &model.BuildResult{
		SubmissionID: res.SubmissionID,
		Outcome:      entity.OutcomeSuccess,
		Output:       []string{"[INFO] Running org.example.TestTeacherMain", teacherTestsPassed},
	}
	require.NoError(t, f.svc.HandleBuildResult(ctx, result))

	sub := f.submission(t, res.SubmissionID)
	assert.Equal(t, entity.StatusValidated, sub.Status)
	require.NotNil(t, sub.BuildReportID)

	reports := repository.NewReportRepository(f.db)
	list, err := reports.FindBySubmission(ctx, sub.ID)
	require.NoError(t, err)
	r, ok := entity.ReportOf(list, entity.IndicatorTeacherUnitTests)
	require.True(t, ok)
	assert.Equal(t, entity.ReportOK, r.Value)
	assert.Equal(t, 2, *r.Progress)
	assert.Equal(t, 2, *r.Goal)
	assert.Equal(t, 1, f.cache.calls[a.ID])

	// 重复回调不会覆盖终态
	result.Outcome = entity.OutcomeFailed
	require.NoError(t, f.svc.HandleBuildResult(ctx, result))
	sub = f.submission(t, res.SubmissionID)
	assert.Equal(t, entity.StatusValidated, sub.Status)
	again, err := reports.FindBySubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Len(t, again, len(list))

	summary, err := f.svc.GetSubmissionSummary(ctx, student, sub.ID)
	require.NoError(t, err)
	progress, goal := summary.TeacherProgress()
	assert.Equal(t, 2, progress)
	assert.Equal(t, 2, goal)
}

func TestHandleBuildResultTimeout(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleBuildResult(context.Background(), &model.BuildResult{
		SubmissionID: res.SubmissionID,
		Outcome:      entity.OutcomeAbortedByTimeout,
	}))

	sub := f.submission(t, res.SubmissionID)
	assert.Equal(t, entity.StatusAbortedByTimeout, sub.Status)
	list, err := repository.NewReportRepository(f.db).FindBySubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRebuild(t *testing.T) {
	testCases := []struct {
		name             string
		changeStatusDate bool
	}{
		{"keep status date", false},
		{"change status date", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSubmissionFixture(t, nil)
			a := f.createAssignment(t, nil)
			ctx := context.Background()

			res, err := f.upload(t, student, a.ID)
			require.NoError(t, err)
			require.NoError(t, f.svc.HandleBuildResult(ctx, &model.BuildResult{
				SubmissionID: res.SubmissionID,
				Outcome:      entity.OutcomeSuccess,
				Output:       []string{teacherTestsPassed},
			}))
			before := f.submission(t, res.SubmissionID).StatusDate

			f.svc.now = func() time.Time { return before.Add(time.Hour) }
			assert.ErrorIs(t, f.svc.Rebuild(ctx, student, res.SubmissionID, tc.changeStatusDate), errs.ErrPolicy)
			require.NoError(t, f.svc.Rebuild(ctx, teacher, res.SubmissionID, tc.changeStatusDate))

			sub := f.submission(t, res.SubmissionID)
			assert.Equal(t, entity.StatusRebuilding, sub.Status)
			assert.Equal(t, tc.changeStatusDate, !sub.StatusDate.Equal(before))
			require.Equal(t, 2, f.facility.count())
			assert.True(t, f.facility.last().Rebuild)

			require.NoError(t, f.svc.HandleBuildResult(ctx, &model.BuildResult{
				SubmissionID: res.SubmissionID,
				Outcome:      entity.OutcomeSuccess,
				Output:       []string{teacherTestsPassed},
			}))
			sub = f.submission(t, res.SubmissionID)
			assert.Equal(t, entity.StatusValidatedRebuilt, sub.Status)
			assert.Equal(t, tc.changeStatusDate, !sub.StatusDate.Equal(before))
		})
	}
}

func TestRebuildRejectsInFlight(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)

	err = f.svc.Rebuild(context.Background(), teacher, res.SubmissionID, false)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.ReasonInvalidState, e.Reason)
	assert.Equal(t, entity.StatusSubmitted, f.submission(t, res.SubmissionID).Status)
}

func TestRebuildFull(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)
	ctx := context.Background()

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleBuildResult(ctx, &model.BuildResult{
		SubmissionID: res.SubmissionID,
		Outcome:      entity.OutcomeFailed,
	}))

	writeProjectFile(t, filepath.Join(storage.TeacherFolder(f.root, a.ID), "pom.xml"), "<project/>")
	clone, err := f.svc.RebuildFull(ctx, teacher, res.SubmissionID)
	require.NoError(t, err)
	assert.NotEqual(t, res.SubmissionID, clone.SubmissionID)

	orig := f.submission(t, res.SubmissionID)
	copied := f.submission(t, clone.SubmissionID)
	assert.Equal(t, entity.StatusFailed, orig.Status)
	assert.Equal(t, entity.StatusRebuilding, copied.Status)
	assert.True(t, copied.SubmissionDate.Equal(orig.SubmissionDate))
	assert.Equal(t, orig.GroupID, copied.GroupID)
	assert.FileExists(t, filepath.Join(copied.MavenizedFolder, "pom.xml"))

	req := f.facility.last()
	assert.Equal(t, clone.SubmissionID, req.SubmissionID)
	assert.True(t, req.Rebuild)
}

func TestDispatchFailureMarksFailed(t *testing.T) {
	t.Run("synchronous", func(t *testing.T) {
		rec := &recordingFacility{err: errors.New("queue full")}
		f := newSubmissionFixture(t, rec)
		a := f.createAssignment(t, nil)

		_, err := f.upload(t, student, a.ID)
		assert.ErrorIs(t, err, errs.ErrExecution)

		var sub entity.Submission
		require.NoError(t, f.db.First(&sub).Error)
		assert.Equal(t, entity.StatusFailed, sub.Status)
	})

	t.Run("asynchronous", func(t *testing.T) {
		f := newSubmissionFixture(t, asyncFailingFacility{})
		a := f.createAssignment(t, nil)

		res, err := f.upload(t, student, a.ID)
		require.NoError(t, err)
		f.ec.Wait()

		assert.Equal(t, entity.StatusFailed, f.submission(t, res.SubmissionID).Status)
		assert.Equal(t, int64(1), f.ec.Stats().Failed)
	})
}

func TestDeleteSubmission(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)
	ctx := context.Background()

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteSubmission(ctx, student, res.SubmissionID), errs.ErrPolicy)
	require.NoError(t, f.svc.DeleteSubmission(ctx, teacher, res.SubmissionID))
	require.NoError(t, f.svc.DeleteSubmission(ctx, teacher, res.SubmissionID))

	_, err = f.svc.GetSubmission(ctx, student, res.SubmissionID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	latest, err := f.svc.GetLatestSubmission(ctx, student, a.ID)
	require.NoError(t, err)
	assert.True(t, latest.IsNone())

	// 删除后的提交不再阻塞新的提交
	_, err = f.upload(t, student, a.ID)
	assert.NoError(t, err)
}

// racingSubmissionRepository 在 CompareAndSetStatus 之前先改写状态, 模拟并发的构建回调
type racingSubmissionRepository struct {
	repository.SubmissionRepository
	db     *gorm.DB
	status []entity.SubmissionStatus
	calls  int
}

func (r *racingSubmissionRepository) CompareAndSetStatus(ctx context.Context, id uint64, from []entity.SubmissionStatus, columns map[string]any) (bool, error) {
	if r.calls < len(r.status) {
		if err := r.db.Model(&entity.Submission{}).Where("id = ?", id).Update("status", r.status[r.calls]).Error; err != nil {
			return false, err
		}
	}
	r.calls++
	return r.SubmissionRepository.CompareAndSetStatus(ctx, id, from, columns)
}

func TestDeleteSubmissionConcurrentStatusChange(t *testing.T) {
	t.Run("re-read and delete", func(t *testing.T) {
		f := newSubmissionFixture(t, nil)
		a := f.createAssignment(t, nil)
		ctx := context.Background()

		res, err := f.upload(t, student, a.ID)
		require.NoError(t, err)

		racing := &racingSubmissionRepository{
			SubmissionRepository: f.svc.submissions,
			db:                   f.db,
			status:               []entity.SubmissionStatus{entity.StatusValidated},
		}
		f.svc.submissions = racing

		require.NoError(t, f.svc.DeleteSubmission(ctx, teacher, res.SubmissionID))
		assert.Equal(t, entity.StatusDeleted, f.submission(t, res.SubmissionID).Status)
		assert.Equal(t, 2, racing.calls)
		assert.Equal(t, 1, f.cache.calls[a.ID])
	})

	t.Run("keeps changing", func(t *testing.T) {
		f := newSubmissionFixture(t, nil)
		a := f.createAssignment(t, nil)
		ctx := context.Background()

		res, err := f.upload(t, student, a.ID)
		require.NoError(t, err)

		f.svc.submissions = &racingSubmissionRepository{
			SubmissionRepository: f.svc.submissions,
			db:                   f.db,
			status: []entity.SubmissionStatus{
				entity.StatusValidated, entity.StatusFailed, entity.StatusValidated,
			},
		}

		err = f.svc.DeleteSubmission(ctx, teacher, res.SubmissionID)
		assert.ErrorIs(t, err, errs.ErrConflict)
		assert.Equal(t, entity.StatusValidated, f.submission(t, res.SubmissionID).Status)
		assert.Zero(t, f.cache.calls[a.ID])
	})
}

func TestSubmissionQueries(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	a := f.createAssignment(t, nil)
	ctx := context.Background()

	res, err := f.upload(t, student, a.ID)
	require.NoError(t, err)
	sub := f.submission(t, res.SubmissionID)

	latest, err := f.svc.GetLatestSubmission(ctx, student, a.ID)
	require.NoError(t, err)
	got, ok := latest.Get()
	require.True(t, ok)
	assert.Equal(t, sub.ID, got.ID)
	assert.Len(t, got.Authors, 2)

	list, err := f.svc.ListGroupSubmissions(ctx, student, a.ID, sub.GroupID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	outsider := entity.Operator{StudentID: "x9", Role: entity.RoleStudent}
	_, err = f.svc.ListGroupSubmissions(ctx, outsider, a.ID, sub.GroupID)
	assert.ErrorIs(t, err, errs.ErrPolicy)
	_, err = f.svc.GetSubmission(ctx, outsider, sub.ID)
	assert.ErrorIs(t, err, errs.ErrPolicy)

	detail, err := f.svc.GetSubmission(ctx, teacher, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, detail.Status)
	assert.False(t, detail.Overdue)

	archivePath, err := f.svc.GetSubmissionArchive(ctx, student, sub.ID)
	require.NoError(t, err)
	assert.FileExists(t, archivePath)
}
