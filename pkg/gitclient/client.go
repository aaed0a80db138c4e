package gitclient

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
)

// ErrEmptyRepository 远端仓库为空或没有可拉取的分支
var ErrEmptyRepository = errors.New("gitclient: empty repository or ref not advertised")

// Repo 本地工作副本句柄
type Repo struct {
	Path string
	repo *git.Repository
}

// CommitInfo 最近一次提交的信息
type CommitInfo struct {
	Hash        string
	Date        time.Time
	AuthorName  string
	AuthorEmail string
	Message     string
}

type Client interface {
	// Clone 使用私钥克隆远端仓库到 dest
	Clone(ctx context.Context, url, dest string, privateKey []byte) (*Repo, error)
	// Pull 拉取 dest 处工作副本的远端更新
	Pull(ctx context.Context, dest string, privateKey []byte) (*Repo, error)
	// Open 打开 dest 处已存在的工作副本
	Open(dest string) (*Repo, error)
	// LastCommitInfo 获取 HEAD 的提交信息
	LastCommitInfo(repo *Repo) (CommitInfo, error)
	// Export 将指定提交的文件树写出到 out, 不改动工作副本
	Export(ctx context.Context, repo *Repo, hash, out string) error
	// GenerateKeyPair 生成 ed25519 密钥对, 私钥为 OpenSSH PEM, 公钥为 authorized_keys 格式
	GenerateKeyPair() (privateKey, publicKey []byte, err error)
}

type GoGitClient struct {
	// hostKeyCallback 为空时不校验服务端公钥
	hostKeyCallback ssh.HostKeyCallback
	keyComment      string
}

var _ Client = (*GoGitClient)(nil)

func NewGoGitClient(hostKeyCallback ssh.HostKeyCallback, keyComment string) *GoGitClient {
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return &GoGitClient{hostKeyCallback: hostKeyCallback, keyComment: keyComment}
}

func (c *GoGitClient) auth(privateKey []byte) (transport.AuthMethod, error) {
	keys, err := gitssh.NewPublicKeys("git", privateKey, "")
	if err != nil {
		return nil, fmt.Errorf("parse private key failed: %w", err)
	}
	keys.HostKeyCallback = c.hostKeyCallback
	return keys, nil
}

func (c *GoGitClient) Clone(ctx context.Context, url, dest string, privateKey []byte) (*Repo, error) {
	auth, err := c.auth(privateKey)
	if err != nil {
		return nil, fmt.Errorf("Clone failed at auth: %w", err)
	}
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:  url,
		Auth: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("Clone failed at clone: %w", classify(err))
	}
	return &Repo{Path: dest, repo: repo}, nil
}

func (c *GoGitClient) Pull(ctx context.Context, dest string, privateKey []byte) (*Repo, error) {
	auth, err := c.auth(privateKey)
	if err != nil {
		return nil, fmt.Errorf("Pull failed at auth: %w", err)
	}
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return nil, fmt.Errorf("Pull failed at open: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("Pull failed at worktree: %w", err)
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       auth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("Pull failed at pull: %w", classify(err))
	}
	return &Repo{Path: dest, repo: repo}, nil
}

func (c *GoGitClient) Open(dest string) (*Repo, error) {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return nil, fmt.Errorf("Open failed at open: %w", err)
	}
	return &Repo{Path: dest, repo: repo}, nil
}

func (c *GoGitClient) LastCommitInfo(r *Repo) (CommitInfo, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("LastCommitInfo failed at head: %w", classify(err))
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return CommitInfo{}, fmt.Errorf("LastCommitInfo failed at commit object: %w", err)
	}
	return CommitInfo{
		Hash:        commit.Hash.String(),
		Date:        commit.Committer.When,
		AuthorName:  commit.Author.Name,
		AuthorEmail: commit.Author.Email,
		Message:     strings.TrimSpace(commit.Message),
	}, nil
}

func (c *GoGitClient) Export(ctx context.Context, r *Repo, hash, out string) error {
	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return fmt.Errorf("Export failed at commit object %s: %w", hash, err)
	}
	files, err := commit.Files()
	if err != nil {
		return fmt.Errorf("Export failed at files: %w", err)
	}
	defer files.Close()

	root := filepath.Clean(out)
	err = files.ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Mode == filemode.Symlink || f.Mode == filemode.Submodule {
			return nil
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path %q in tree", f.Name)
		}
		return writeBlob(f, target)
	})
	if err != nil {
		return fmt.Errorf("Export failed at write tree: %w", err)
	}
	return nil
}

func writeBlob(f *object.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rd, err := f.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()
	w, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, rd); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (c *GoGitClient) GenerateKeyPair() ([]byte, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("GenerateKeyPair failed at generate: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, c.keyComment)
	if err != nil {
		return nil, nil, fmt.Errorf("GenerateKeyPair failed at marshal private key: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, nil, fmt.Errorf("GenerateKeyPair failed at public key: %w", err)
	}
	return pem.EncodeToMemory(block), ssh.MarshalAuthorizedKey(sshPub), nil
}

// classify 将空仓库相关错误统一为 ErrEmptyRepository
func classify(err error) error {
	if errors.Is(err, transport.ErrEmptyRemoteRepository) ||
		errors.Is(err, plumbing.ErrReferenceNotFound) ||
		errors.Is(err, git.NoMatchingRefSpecError{}) {
		return fmt.Errorf("%w: %v", ErrEmptyRepository, err)
	}
	return err
}

// IsSSHURL 判断是否为 ssh 形式的仓库地址
func IsSSHURL(url string) bool {
	if strings.HasPrefix(url, "ssh://") {
		return len(url) > len("ssh://")
	}
	// git@host:owner/repo.git
	at := strings.Index(url, "@")
	colon := strings.Index(url, ":")
	return at > 0 && colon > at+1 && colon < len(url)-1 && !strings.Contains(url, " ")
}
