package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

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
	"github.com/to404hanga/submission_controller/service/storage"
	"gorm.io/gorm"
)

func newAssignmentFixture(t *testing.T) (*gorm.DB, AssignmentService, string, *countingCache) {
	t.Helper()
	db := testkit.NewDB(t)
	root := t.TempDir()
	log := loggerv2.NewLoggerAdapter(logger.NewNopLogger())
	zip := archive.NewZipService(0)
	cache := &countingCache{}
	svc := NewAssignmentService(db, zip, storage.NewLocalStorage(root, zip, nil, "", log), cache, log)
	return db, svc, root, cache
}

func createParam(op entity.Operator) *model.CreateAssignmentParam {
	p := &model.CreateAssignmentParam{
		ID:               "sample",
		Name:             "Sample",
		PackageName:      "org.example",
		Language:         entity.LanguageJava,
		SubmissionMethod: entity.SubmissionMethodUpload,
	}
	p.SetOperator(op)
	return p
}

func TestAssignmentCreateAndGet(t *testing.T) {
	_, svc, _, _ := newAssignmentFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createParam(student))
	assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

	a, err := svc.Create(ctx, createParam(teacher))
	require.NoError(t, err)
	assert.Equal(t, teacher.StudentID, a.OwnerID)
	assert.Equal(t, entity.LeaderboardTestsPassed, a.LeaderboardType)
	assert.False(t, a.Active)

	_, err = svc.Create(ctx, createParam(teacher))
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	// 未激活的作业对学生不可见
	_, err = svc.Get(ctx, student, a.ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	active := &model.SetAssignmentActiveParam{ID: a.ID, Active: pointer.ToPtr(true)}
	active.SetOperator(teacher)
	require.NoError(t, svc.SetActive(ctx, active))
	got, err := svc.Get(ctx, student, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	list, err := svc.List(ctx, teacher)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestAssignmentUpdateMethodImmutable(t *testing.T) {
	db, svc, _, cache := newAssignmentFixture(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, createParam(teacher))
	require.NoError(t, err)

	update := &model.UpdateAssignmentParam{
		ID:               a.ID,
		Name:             pointer.ToPtr("Renamed"),
		SubmissionMethod: pointer.ToPtr(entity.SubmissionMethodGit),
	}
	update.SetOperator(teacher)
	got, err := svc.Update(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, entity.SubmissionMethodGit, got.SubmissionMethod)
	assert.Equal(t, 1, cache.calls[a.ID])

	seedRanked(t, db, a, "a1", entity.StatusValidated, 1, 1)
	update.SubmissionMethod = pointer.ToPtr(entity.SubmissionMethodUpload)
	_, err = svc.Update(ctx, update)
	require.Error(t, err)
	assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

	// 提交方式不变时其他字段仍可修改
	update.SubmissionMethod = nil
	update.ShowLeaderBoard = pointer.ToPtr(true)
	got, err = svc.Update(ctx, update)
	require.NoError(t, err)
	assert.True(t, got.ShowLeaderBoard)
	assert.Equal(t, entity.SubmissionMethodGit, got.SubmissionMethod)

	view, err := svc.Get(ctx, teacher, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.SubmissionCount)
}

func TestUploadTeacherFiles(t *testing.T) {
	_, svc, root, _ := newAssignmentFixture(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, createParam(teacher))
	require.NoError(t, err)

	dir := t.TempDir()
	project := filepath.Join(dir, "teacher-files")
	writeProjectFile(t, filepath.Join(project, "pom.xml"), "<project/>")
	writeProjectFile(t, filepath.Join(project, "src", "org", "example", "TestTeacherMain.java"), "package org.example;")
	zipPath := filepath.Join(dir, "teacher.zip")
	require.NoError(t, archive.NewZipService(0).Pack(ctx, project, zipPath))

	param := &model.UploadTeacherFilesParam{AssignmentID: a.ID, ArchivePath: zipPath}
	param.SetOperator(teacher)
	require.NoError(t, svc.UploadTeacherFiles(ctx, param))

	target := storage.TeacherFolder(root, a.ID)
	assert.FileExists(t, filepath.Join(target, "pom.xml"))
	assert.FileExists(t, filepath.Join(target, "src", "org", "example", "TestTeacherMain.java"))

	// 再次上传覆盖旧文件
	require.NoError(t, os.Remove(filepath.Join(project, "pom.xml")))
	require.NoError(t, archive.NewZipService(0).Pack(ctx, project, zipPath))
	require.NoError(t, svc.UploadTeacherFiles(ctx, param))
	assert.NoFileExists(t, filepath.Join(target, "pom.xml"))
	assert.FileExists(t, filepath.Join(target, "src", "org", "example", "TestTeacherMain.java"))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListSubmissionsExcludesDeleted(t *testing.T) {
	db, svc, _, _ := newAssignmentFixture(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, createParam(teacher))
	require.NoError(t, err)
	kept := seedRanked(t, db, a, "a1", entity.StatusValidated, 2, 1)
	gone := seedRanked(t, db, a, "a2", entity.StatusValidated, 2, 1)
	require.NoError(t, db.Model(&entity.Submission{}).Where("id = ?", gone.ID).Update("status", entity.StatusDeleted).Error)

	_, err = svc.ListSubmissions(ctx, student, a.ID)
	assert.Equal(t, errs.KindPolicy, errs.KindOf(err))

	resp, err := svc.ListSubmissions(ctx, teacher, a.ID)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, kept.ID, resp.List[0].ID)
	assert.Equal(t, "a1", resp.List[0].Authors[0].StudentID)
	assert.Len(t, resp.List[0].Reports, 2)
}
