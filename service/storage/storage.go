package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/archive"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
	"github.com/to404hanga/submission_controller/pkg/option"
)

const (
	UploadFolder     = "upload"
	GitFolder        = "git"
	GitExportFolder  = "git-export"
	AssignmentFolder = "assignments"

	archiveExt   = ".zip"
	sourceFolder = "src"
)

// Storage 原始提交的存储
type Storage interface {
	// Store 保存上传的压缩包并解包, 返回解包后的目录
	Store(ctx context.Context, archivePath string) (string, error)
	// Retrieve 返回提交的原始目录, 已被清理时尝试从压缩包恢复
	Retrieve(ctx context.Context, s *entity.Submission) (option.Option[string], error)
	Root() string
}

// ArchiveBackup 压缩包的远端备份
type ArchiveBackup interface {
	UploadFile(ctx context.Context, bucketName, objectKey, filePath string) error
	DownloadFile(ctx context.Context, bucketName, objectKey, filePath string) error
}

type LocalStorage struct {
	root     string
	archiver archive.Service
	backup   ArchiveBackup
	bucket   string
	log      loggerv2.Logger
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage backup 为 nil 时不做远端备份
func NewLocalStorage(root string, archiver archive.Service, backup ArchiveBackup, bucket string, log loggerv2.Logger) *LocalStorage {
	return &LocalStorage{
		root:     root,
		archiver: archiver,
		backup:   backup,
		bucket:   bucket,
		log:      log,
	}
}

func (l *LocalStorage) Root() string {
	return l.root
}

// TeacherFolder 作业教师文件目录
func TeacherFolder(root, assignmentID string) string {
	return filepath.Join(root, AssignmentFolder, assignmentID)
}

// GitWorkingCopy git 提交的本地工作副本目录
func GitWorkingCopy(root, assignmentID string, gitSubmissionID uint64) string {
	return filepath.Join(root, GitFolder, assignmentID, strconv.FormatUint(gitSubmissionID, 10))
}

// GitExport 按记录的提交导出 git 提交时使用的临时目录, 每次调用都不同
func GitExport(root string, submissionID uint64) string {
	return filepath.Join(root, GitExportFolder, strconv.FormatUint(submissionID, 10)+"-"+uuid.NewString())
}

// ArchiveOf 解包目录对应的压缩包路径
func ArchiveOf(folder string) string {
	return filepath.Clean(folder) + archiveExt
}

// ObjectKey 压缩包在对象存储中的 key
func (l *LocalStorage) ObjectKey(archivePath string) (string, error) {
	rel, err := filepath.Rel(l.root, archivePath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (l *LocalStorage) Store(ctx context.Context, archivePath string) (string, error) {
	folder := filepath.Join(l.root, UploadFolder, uuid.NewString())
	stored := ArchiveOf(folder)
	if err := fsutil.CopyFile(archivePath, stored); err != nil {
		return "", errs.StorageFailure("store archive failed", err)
	}
	if err := l.unpack(ctx, stored, folder); err != nil {
		_ = os.Remove(stored)
		return "", err
	}

	if l.backup != nil {
		key, err := l.ObjectKey(stored)
		if err == nil {
			err = l.backup.UploadFile(ctx, l.bucket, key, stored)
		}
		if err != nil {
			// 备份失败不影响本次提交
			l.log.WarnContext(ctx, "backup archive failed", logger.String("archive", stored), logger.Error(err))
		}
	}
	return folder, nil
}

func (l *LocalStorage) Retrieve(ctx context.Context, s *entity.Submission) (option.Option[string], error) {
	folder := s.SubmissionFolder
	if folder == "" {
		return option.None[string](), nil
	}
	if !fsutil.IsDirEmpty(folder) {
		return option.Some(folder), nil
	}
	if s.IsGitBacked() {
		// git 提交的工作副本不可恢复
		return option.None[string](), nil
	}

	stored := s.SubmissionArchive
	if stored == "" {
		stored = ArchiveOf(folder)
	}
	if _, err := os.Stat(stored); os.IsNotExist(err) {
		if l.backup == nil {
			return option.None[string](), nil
		}
		key, err := l.ObjectKey(stored)
		if err != nil {
			return option.None[string](), errs.StorageFailure("resolve archive key failed", err)
		}
		if err = l.backup.DownloadFile(ctx, l.bucket, key, stored); err != nil {
			l.log.WarnContext(ctx, "restore archive from backup failed", logger.String("key", key), logger.Error(err))
			return option.None[string](), nil
		}
	} else if err != nil {
		return option.None[string](), errs.StorageFailure("stat archive failed", err)
	}

	if err := l.unpack(ctx, stored, folder); err != nil {
		return option.None[string](), err
	}
	return option.Some(folder), nil
}

// unpack 解包到 folder, 压缩包只有一层外包目录 (且不是 src) 时将其内容提升到 folder
func (l *LocalStorage) unpack(ctx context.Context, archivePath, folder string) error {
	staging := folder + ".staging"
	if err := fsutil.RemoveAll(staging); err != nil {
		return errs.StorageFailure("clean staging failed", err)
	}
	defer fsutil.RemoveAll(staging)

	if err := l.archiver.Unpack(ctx, archivePath, staging); err != nil {
		return errs.ArchiveFailure("unpack archive failed", err)
	}

	src := staging
	entries, err := os.ReadDir(staging)
	if err != nil {
		return errs.StorageFailure("read staging failed", err)
	}
	if len(entries) == 1 && entries[0].IsDir() && entries[0].Name() != sourceFolder {
		src = filepath.Join(staging, entries[0].Name())
	}
	if err = fsutil.RemoveAll(folder); err != nil {
		return errs.StorageFailure("clean folder failed", err)
	}
	if err = os.Rename(src, folder); err != nil {
		return errs.StorageFailure(fmt.Sprintf("move %s failed", src), err)
	}
	return nil
}
