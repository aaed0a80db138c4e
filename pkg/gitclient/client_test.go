package gitclient

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateKeyPair(t *testing.T) {
	c := NewGoGitClient(nil, "submission-controller")
	priv, pub, err := c.GenerateKeyPair()
	require.NoError(t, err)

	signer, err := ssh.ParsePrivateKey(priv)
	require.NoError(t, err)
	parsed, _, _, _, err := ssh.ParseAuthorizedKey(pub)
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey().Marshal(), parsed.Marshal())
	assert.Equal(t, ssh.KeyAlgoED25519, parsed.Type())

	_, err = c.auth(priv)
	assert.NoError(t, err)
}

func TestIsSSHURL(t *testing.T) {
	testCases := []struct {
		url  string
		want bool
	}{
		{"git@github.com:student/project.git", true},
		{"ssh://git@gitlab.example.com:2222/student/project.git", true},
		{"https://github.com/student/project.git", false},
		{"git@github.com", false},
		{"@github.com:x", false},
		{"", false},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSSHURL(tc.url))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(transport.ErrEmptyRemoteRepository), ErrEmptyRepository)
	other := errors.New("connection refused")
	assert.Equal(t, other, classify(other))
}

// commitFile 在工作副本中写入文件并提交, 返回提交哈希
func commitFile(t *testing.T, repo *git.Repository, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(rel)
	require.NoError(t, err)
	hash, err := wt.Commit("update "+rel, &git.CommitOptions{
		Author: &object.Signature{Name: "Ana Silva", Email: "a1@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestExportRecordedCommit(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	first := commitFile(t, repo, dir, "src/org/example/Helper.java", "// v1")
	commitFile(t, repo, dir, "AUTHORS.txt", "a1;Ana Silva\n")
	second := commitFile(t, repo, dir, "src/org/example/Helper.java", "// v2")

	c := NewGoGitClient(nil, "")
	r, err := c.Open(dir)
	require.NoError(t, err)
	info, err := c.LastCommitInfo(r)
	require.NoError(t, err)
	assert.Equal(t, second, info.Hash)

	out := filepath.Join(t.TempDir(), "export")
	require.NoError(t, c.Export(context.Background(), r, first, out))
	b, err := os.ReadFile(filepath.Join(out, "src", "org", "example", "Helper.java"))
	require.NoError(t, err)
	assert.Equal(t, "// v1", string(b))
	assert.NoFileExists(t, filepath.Join(out, "AUTHORS.txt"))
	assert.NoDirExists(t, filepath.Join(out, ".git"))

	// 工作副本保持在最新提交
	b, err = os.ReadFile(filepath.Join(dir, "src", "org", "example", "Helper.java"))
	require.NoError(t, err)
	assert.Equal(t, "// v2", string(b))

	assert.Error(t, c.Export(context.Background(), r, "0123456789012345678901234567890123456789", t.TempDir()))
}
