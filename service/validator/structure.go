package validator

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
)

const (
	SourceFolder      = "src"
	ReadmeFile        = "README.md"
	AuthorsFile       = "AUTHORS.txt"
	TestFilesFolder   = "test-files"
	TeacherTestPrefix = "TestTeacher"
	StudentTestPrefix = "Test"
)

// ValidateStructure 校验项目结构, 返回按检查顺序排列的错误信息, 为空表示合法
// 所有检查都会执行, 父目录缺失导致无法执行的检查同样计为失败
func ValidateStructure(root, packageName string, language entity.Language) []string {
	var errs []string

	srcEntry, srcOK := fsutil.ExistsExact(root, SourceFolder)
	srcOK = srcOK && srcEntry.IsDir()
	if !srcOK {
		errs = append(errs, fmt.Sprintf("The project does not contain a '%s' folder at the root", SourceFolder))
	}

	pkgRel := SourceFolder
	if packageName != "" {
		pkgRel = filepath.ToSlash(filepath.Join(SourceFolder, strings.ReplaceAll(packageName, ".", "/")))
		entry, ok := fsutil.EntryExact(root, pkgRel)
		if !srcOK || !ok || !entry.IsDir() {
			errs = append(errs, fmt.Sprintf("The project does not contain the folder '%s'", pkgRel))
		}
	}

	mainRel := pkgRel + "/" + language.EntryPointFile()
	if entry, ok := fsutil.EntryExact(root, mainRel); !srcOK || !ok || entry.IsDir() {
		errs = append(errs, fmt.Sprintf("The project does not contain the file '%s'", mainRel))
	}

	if srcOK {
		if shadowing := findTeacherTests(filepath.Join(root, SourceFolder)); len(shadowing) > 0 {
			errs = append(errs, fmt.Sprintf("The project contains files whose names start with '%s', which is reserved: %s",
				TeacherTestPrefix, strings.Join(shadowing, ", ")))
		}
	}

	if entry, ok := fsutil.ExistsExact(root, ReadmeFile); ok && !entry.Type().IsRegular() {
		errs = append(errs, fmt.Sprintf("The '%s' at the root must be a file", ReadmeFile))
	}

	return errs
}

func findTeacherTests(srcDir string) []string {
	var found []string
	_ = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), TeacherTestPrefix) {
			rel, _ := filepath.Rel(filepath.Dir(srcDir), path)
			found = append(found, filepath.ToSlash(rel))
		}
		return nil
	})
	sort.Strings(found)
	return found
}
