package cleaner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/storage"
)

// UploadCleaner 清理过期的上传解包目录, 压缩包保留用于恢复
type UploadCleaner struct {
	submissions         repository.SubmissionRepository
	root                string
	sampleAssignmentIDs []string
	timeRange           time.Duration
	now                 func() time.Time
	log                 loggerv2.Logger
}

func NewUploadCleaner(submissions repository.SubmissionRepository, root string, sampleAssignmentIDs []string, timeRange time.Duration, log loggerv2.Logger) *UploadCleaner {
	return &UploadCleaner{
		submissions:         submissions,
		root:                root,
		sampleAssignmentIDs: sampleAssignmentIDs,
		timeRange:           timeRange,
		now:                 time.Now,
		log:                 log,
	}
}

// RunCleanup 删除早于 timeRange 且未被构建中提交或示例作业引用的目录
func (c *UploadCleaner) RunCleanup(ctx context.Context) error {
	keep, err := c.protectedFolders(ctx)
	if err != nil {
		return err
	}

	uploadRoot := filepath.Join(c.root, storage.UploadFolder)
	entries, err := os.ReadDir(uploadRoot)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("RunCleanup failed at read upload folder: %w", err)
	}

	cutoff := c.now().Add(-c.timeRange)
	removed := 0
	for _, entry := range entries {
		if err = ctx.Err(); err != nil {
			return err
		}
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(uploadRoot, entry.Name())
		if _, ok := keep[folder]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err = fsutil.RemoveAll(folder); err != nil {
			c.log.WarnContext(ctx, "remove upload folder failed", logger.String("folder", folder), logger.Error(err))
			continue
		}
		removed++
	}
	c.log.InfoContext(ctx, "upload cleanup completed", logger.Int("removed", removed))
	return nil
}

func (c *UploadCleaner) protectedFolders(ctx context.Context) (map[string]struct{}, error) {
	inUse, err := c.submissions.ListFoldersInUse(ctx)
	if err != nil {
		return nil, err
	}
	samples, err := c.submissions.ListFoldersOfAssignments(ctx, c.sampleAssignmentIDs)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(inUse)+len(samples))
	for _, f := range append(inUse, samples...) {
		keep[filepath.Clean(f)] = struct{}{}
	}
	return keep, nil
}
