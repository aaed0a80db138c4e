package mavenizer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

// snapshot 目录下所有文件的相对路径与内容
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	require.NoError(t, filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		b, err := os.ReadFile(path)
		out[filepath.ToSlash(rel)] = string(b)
		return err
	}))
	return out
}

type fixture struct {
	root       string
	raw        string
	teacher    string
	assignment *entity.Assignment
}

func newFixture(t *testing.T) fixture {
	root := t.TempDir()
	raw := filepath.Join(root, "upload", "abc")
	teacher := filepath.Join(root, "assignments", "sample")

	writeFile(t, raw, "src/org/example/Main.java", "student main")
	writeFile(t, raw, "src/org/example/TestMain.java", "student test")
	writeFile(t, raw, "test-files/input.txt", "data")
	writeFile(t, raw, "AUTHORS.txt", "a1;Ana Silva\n")
	writeFile(t, raw, "README.md", "student readme")
	writeFile(t, raw, "notes.txt", "ignored")

	writeFile(t, teacher, "pom.xml", "<project/>")
	writeFile(t, teacher, "README.md", "teacher readme")
	writeFile(t, teacher, "src/test/java/org/example/TestTeacherMain.java", "teacher test")
	writeFile(t, teacher, "src/main/java/org/example/Main.java", "teacher main")
	writeFile(t, teacher, ".git/HEAD", "ref")

	return fixture{
		root:    root,
		raw:     raw,
		teacher: teacher,
		assignment: &entity.Assignment{
			ID:          "exercise",
			PackageName: "org.example",
			Language:    entity.LanguageJava,
		},
	}
}

func TestMavenizeLayout(t *testing.T) {
	f := newFixture(t)
	f.assignment.AcceptsStudentTests = true
	m := NewMavenizer(f.root, nil, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))

	dest, err := m.Mavenize(context.Background(), Input{
		SubmissionID:  17,
		RawFolder:     f.raw,
		Assignment:    f.assignment,
		TeacherFolder: f.teacher,
		Variant:       VariantNormal,
		GitBacked:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "mavenized", "17-mavenized"), dest)

	// 教师文件优先
	assert.Equal(t, "teacher main", readFile(t, dest, "src/main/java/org/example/Main.java"))
	assert.Equal(t, "student test", readFile(t, dest, "src/test/java/org/example/TestMain.java"))
	assert.Equal(t, "teacher test", readFile(t, dest, "src/test/java/org/example/TestTeacherMain.java"))
	assert.Equal(t, "data", readFile(t, dest, "test-files/input.txt"))
	assert.Equal(t, "a1;Ana Silva\n", readFile(t, dest, "AUTHORS.txt"))
	assert.Equal(t, "<project/>", readFile(t, dest, "pom.xml"))
	// 学生 README 优先
	assert.Equal(t, "student readme", readFile(t, dest, "README.md"))

	assert.NoFileExists(t, filepath.Join(dest, "notes.txt"))
	assert.NoDirExists(t, filepath.Join(dest, ".git"))
	assert.DirExists(t, f.raw)
}

func TestMavenizeExcludesStudentTests(t *testing.T) {
	f := newFixture(t)
	m := NewMavenizer(f.root, nil, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))

	dest, err := m.Mavenize(context.Background(), Input{RawFolder: f.raw, Assignment: f.assignment, GitBacked: true})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dest, "src/test/java/org/example/TestMain.java"))
	assert.NoFileExists(t, filepath.Join(dest, "src/main/java/org/example/TestMain.java"))
	assert.Equal(t, "student main", readFile(t, dest, "src/main/java/org/example/Main.java"))
}

func TestMavenizeIdempotent(t *testing.T) {
	f := newFixture(t)
	f.assignment.AcceptsStudentTests = true
	m := NewMavenizer(f.root, nil, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	in := Input{RawFolder: f.raw, Assignment: f.assignment, TeacherFolder: f.teacher, GitBacked: true}

	dest, err := m.Mavenize(context.Background(), in)
	require.NoError(t, err)
	first := snapshot(t, dest)

	// 残留文件会在重新生成时被清理
	writeFile(t, dest, "stale.txt", "stale")
	dest2, err := m.Mavenize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, dest, dest2)
	assert.Equal(t, first, snapshot(t, dest2))
}

func TestMavenizeRebuildVariantKeepsOriginal(t *testing.T) {
	f := newFixture(t)
	m := NewMavenizer(f.root, nil, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))

	normal, err := m.Mavenize(context.Background(), Input{RawFolder: f.raw, Assignment: f.assignment, TeacherFolder: f.teacher, GitBacked: true})
	require.NoError(t, err)

	writeFile(t, f.teacher, "pom.xml", "<project version=\"2\"/>")
	rebuilt, err := m.Mavenize(context.Background(), Input{RawFolder: f.raw, Assignment: f.assignment, TeacherFolder: f.teacher, Variant: VariantRebuild, GitBacked: true})
	require.NoError(t, err)

	assert.NotEqual(t, normal, rebuilt)
	assert.Equal(t, m.Destination(0, VariantRebuild), rebuilt)
	assert.Equal(t, "<project/>", readFile(t, normal, "pom.xml"))
	assert.Equal(t, "<project version=\"2\"/>", readFile(t, rebuilt, "pom.xml"))
}

func TestMavenizeSameRawFolderPerSubmission(t *testing.T) {
	f := newFixture(t)
	m := NewMavenizer(f.root, nil, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))

	first, err := m.Mavenize(context.Background(), Input{SubmissionID: 1, RawFolder: f.raw, Assignment: f.assignment, GitBacked: true})
	require.NoError(t, err)

	// 同一工作副本在下一次提交前被更新
	writeFile(t, f.raw, "src/org/example/Main.java", "student main v2")
	second, err := m.Mavenize(context.Background(), Input{SubmissionID: 2, RawFolder: f.raw, Assignment: f.assignment, GitBacked: true})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "student main", readFile(t, first, "src/main/java/org/example/Main.java"))
	assert.Equal(t, "student main v2", readFile(t, second, "src/main/java/org/example/Main.java"))
}

func TestMavenizeRawFolderDeletion(t *testing.T) {
	t.Run("upload is deleted", func(t *testing.T) {
		f := newFixture(t)
		m := NewMavenizer(f.root, nil, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
		_, err := m.Mavenize(context.Background(), Input{RawFolder: f.raw, Assignment: f.assignment})
		require.NoError(t, err)
		assert.NoDirExists(t, f.raw)
	})

	t.Run("sample assignment is kept", func(t *testing.T) {
		f := newFixture(t)
		m := NewMavenizer(f.root, []string{"exercise"}, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
		_, err := m.Mavenize(context.Background(), Input{RawFolder: f.raw, Assignment: f.assignment})
		require.NoError(t, err)
		assert.DirExists(t, f.raw)
		assert.True(t, m.IsSample("exercise"))
	})
}

func TestMavenizeKotlin(t *testing.T) {
	root := t.TempDir()
	raw := filepath.Join(root, "upload", "kt")
	writeFile(t, raw, "src/org/example/Main.kt", "fun main() {}")
	m := NewMavenizer(root, nil, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))

	dest, err := m.Mavenize(context.Background(), Input{
		RawFolder:  raw,
		Assignment: &entity.Assignment{ID: "kt", PackageName: "org.example", Language: entity.LanguageKotlin},
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "src/main/kotlin/org/example/Main.kt"))
}
