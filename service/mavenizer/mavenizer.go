package mavenizer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
	"github.com/to404hanga/submission_controller/service/validator"
)

// MavenizedFolder 规范化目录所在的子目录
const MavenizedFolder = "mavenized"

type Variant int8

const (
	VariantNormal Variant = iota
	VariantRebuild
)

func (v Variant) suffix() string {
	if v == VariantRebuild {
		return "-mavenized-for-rebuild"
	}
	return "-mavenized"
}

type Input struct {
	// SubmissionID 规范化目录按提交区分, 同一 git 工作副本的多次提交互不覆盖
	SubmissionID uint64
	// RawFolder 已通过结构校验的原始项目目录
	RawFolder  string
	Assignment *entity.Assignment
	// TeacherFolder 作业的教师文件目录, 不存在时跳过覆盖
	TeacherFolder string
	Variant       Variant
	// GitBacked git 工作副本作为原始目录时不删除
	GitBacked bool
}

type Mavenizer struct {
	root      string
	sampleIDs map[string]struct{}
	log       loggerv2.Logger
}

func NewMavenizer(root string, sampleAssignmentIDs []string, log loggerv2.Logger) *Mavenizer {
	ids := make(map[string]struct{}, len(sampleAssignmentIDs))
	for _, id := range sampleAssignmentIDs {
		ids[id] = struct{}{}
	}
	return &Mavenizer{root: root, sampleIDs: ids, log: log}
}

// Destination 给定提交与变体的规范化目录
func (m *Mavenizer) Destination(submissionID uint64, variant Variant) string {
	return filepath.Join(m.root, MavenizedFolder, strconv.FormatUint(submissionID, 10)+variant.suffix())
}

// Mavenize 生成规范化的 maven 项目目录并返回其路径, 重复执行结果一致
func (m *Mavenizer) Mavenize(ctx context.Context, in Input) (string, error) {
	dest := m.Destination(in.SubmissionID, in.Variant)
	lang := in.Assignment.Language.SourceDir()

	if err := fsutil.RemoveAll(dest); err != nil {
		return "", errs.StorageFailure("clean mavenized folder failed", err)
	}

	srcDir := filepath.Join(in.RawFolder, validator.SourceFolder)
	mainDir := filepath.Join(dest, "src", "main", lang)
	testDir := filepath.Join(dest, "src", "test", lang)
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), validator.StudentTestPrefix) {
			if !in.Assignment.AcceptsStudentTests {
				return nil
			}
			return fsutil.CopyFile(path, filepath.Join(testDir, rel))
		}
		return fsutil.CopyFile(path, filepath.Join(mainDir, rel))
	})
	if err != nil {
		return "", errs.StorageFailure("copy student sources failed", err)
	}
	if err = os.MkdirAll(dest, 0o755); err != nil {
		return "", errs.StorageFailure("create mavenized folder failed", err)
	}

	if entry, ok := fsutil.ExistsExact(in.RawFolder, validator.TestFilesFolder); ok && entry.IsDir() {
		err = fsutil.CopyTree(filepath.Join(in.RawFolder, validator.TestFilesFolder), filepath.Join(dest, validator.TestFilesFolder), nil)
		if err != nil {
			return "", errs.StorageFailure("copy test files failed", err)
		}
	}

	if entry, ok := fsutil.ExistsExact(in.RawFolder, validator.AuthorsFile); ok && entry.Type().IsRegular() {
		if err = fsutil.CopyFile(filepath.Join(in.RawFolder, validator.AuthorsFile), filepath.Join(dest, validator.AuthorsFile)); err != nil {
			return "", errs.StorageFailure("copy authors file failed", err)
		}
	}

	if in.TeacherFolder != "" && !fsutil.IsDirEmpty(in.TeacherFolder) {
		err = fsutil.CopyTree(in.TeacherFolder, dest, skipGitMetadata)
		if err != nil {
			return "", errs.StorageFailure("copy teacher files failed", err)
		}
	}

	// 学生自己的 README 优先于教师的 README
	if entry, ok := fsutil.ExistsExact(in.RawFolder, validator.ReadmeFile); ok && entry.Type().IsRegular() {
		if err = fsutil.CopyFile(filepath.Join(in.RawFolder, validator.ReadmeFile), filepath.Join(dest, validator.ReadmeFile)); err != nil {
			return "", errs.StorageFailure("copy readme failed", err)
		}
	}

	if m.keepRaw(in) {
		return dest, nil
	}
	if err = fsutil.RemoveAll(in.RawFolder); err != nil {
		// 目录已经转换完成, 删除失败只记录日志
		m.log.WarnContext(ctx, "Mavenize remove raw folder failed",
			logger.String("raw_folder", in.RawFolder), logger.Error(err))
	}
	return dest, nil
}

func (m *Mavenizer) keepRaw(in Input) bool {
	if in.GitBacked {
		return true
	}
	_, sample := m.sampleIDs[in.Assignment.ID]
	return sample
}

// IsSample 判断作业是否为保留原始目录的示例作业
func (m *Mavenizer) IsSample(assignmentID string) bool {
	_, ok := m.sampleIDs[assignmentID]
	return ok
}

func skipGitMetadata(rel string, _ fs.DirEntry) bool {
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	return first != ".git"
}

func (v Variant) String() string {
	if v == VariantRebuild {
		return "rebuild"
	}
	return "normal"
}
