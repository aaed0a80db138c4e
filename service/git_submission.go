package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
	"github.com/to404hanga/submission_controller/pkg/gitclient"
	"github.com/to404hanga/submission_controller/pkg/option"
	"github.com/to404hanga/submission_controller/pkg/redislock"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/storage"
	"github.com/to404hanga/submission_controller/service/validator"
	"gorm.io/gorm"
)

const gitConnectLockKey = "submission_controller:lock:git:%s:%d"

const (
	pullRetryTimes    = 3
	pullRetryInterval = 200 * time.Millisecond
)

type GitSubmissionService interface {
	// Setup 登记仓库地址并生成部署密钥, 对同一 (学生, 作业) 幂等
	Setup(ctx context.Context, param *model.SetupGitSubmissionParam) (*model.GitSubmission, error)
	// Connect 克隆仓库并绑定小组
	Connect(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) (*model.GitSubmission, error)
	// Refresh 拉取远端更新, 不产生提交
	Refresh(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) (*model.RefreshGitSubmissionResponse, error)
	// Reset 删除工作副本与登记记录
	Reset(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) error
	Get(ctx context.Context, operator entity.Operator, assignmentID string) (option.Option[*model.GitSubmission], error)
	// RefreshAll 刷新所有进行中作业的已连接仓库, 返回刷新成功的数量
	RefreshAll(ctx context.Context) (int, error)
}

type GitSubmissionServiceImpl struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	groups      repository.GroupRepository
	gits        repository.GitSubmissionRepository

	locker  *redislock.Client
	lockTTL time.Duration
	git     gitclient.Client
	root    string
	log     loggerv2.Logger
}

var _ GitSubmissionService = (*GitSubmissionServiceImpl)(nil)

func NewGitSubmissionService(db *gorm.DB, rdb redis.Cmdable, git gitclient.Client, store storage.Storage, log loggerv2.Logger) GitSubmissionService {
	return &GitSubmissionServiceImpl{
		db:          db,
		assignments: repository.NewAssignmentRepository(db),
		groups:      repository.NewGroupRepository(db),
		gits:        repository.NewGitSubmissionRepository(db),
		locker:      redislock.NewClient(rdb),
		lockTTL:     10 * time.Second,
		git:         git,
		root:        store.Root(),
		log:         log,
	}
}

func (s *GitSubmissionServiceImpl) Setup(ctx context.Context, param *model.SetupGitSubmissionParam) (*model.GitSubmission, error) {
	if !gitclient.IsSSHURL(param.RepositoryURL) {
		return nil, errs.ValidationError(errs.ReasonInvalidInput,
			"The repository url must use ssh, for example git@github.com:user/project.git")
	}
	aOpt, err := s.assignments.FindByID(ctx, param.AssignmentID)
	if err != nil {
		return nil, err
	}
	a, err := errs.Found(aOpt, "assignment", param.AssignmentID)
	if err != nil {
		return nil, err
	}
	if a.SubmissionMethod != entity.SubmissionMethodGit {
		return nil, errs.PolicyViolation(errs.ReasonWrongMethod, fmt.Sprintf("Assignment %s does not accept git submissions", a.ID))
	}

	opt, err := s.gits.FindByStudent(ctx, a.ID, param.Operator.StudentID)
	if err != nil {
		return nil, err
	}
	gs, exists := opt.Get()
	if exists && gs.Connected {
		return nil, errs.PolicyViolation(errs.ReasonAlreadyConnected, "The repository is already connected, reset it first")
	}
	if !exists {
		gs = &entity.GitSubmission{AssignmentID: a.ID, SubmitterStudentID: param.Operator.StudentID}
	}
	gs.GitRepositoryURL = param.RepositoryURL
	if gs.PublicKey == "" || gs.PrivateKey == "" {
		priv, pub, err := s.git.GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("Setup failed at generate key pair: %w", err)
		}
		gs.PrivateKey, gs.PublicKey = string(priv), string(pub)
	}

	if exists {
		err = s.gits.Save(ctx, gs)
	} else {
		err = s.gits.Create(ctx, gs)
	}
	if err != nil {
		return nil, err
	}
	out := toGitSubmission(gs)
	return &out, nil
}

func (s *GitSubmissionServiceImpl) Connect(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) (*model.GitSubmission, error) {
	gs, err := s.owned(ctx, operator, gitSubmissionID)
	if err != nil {
		return nil, err
	}
	if gs.Connected {
		out := toGitSubmission(gs)
		return &out, nil
	}
	ctx = loggerv2.ContextWithFields(ctx, logger.Uint64("git_submission_id", gs.ID), logger.String("assignment_id", gs.AssignmentID))

	dest := storage.GitWorkingCopy(s.root, gs.AssignmentID, gs.ID)
	if err = fsutil.RemoveAll(dest); err != nil {
		return nil, errs.StorageFailure("clean working copy failed", err)
	}
	repo, err := s.git.Clone(ctx, gs.GitRepositoryURL, dest, []byte(gs.PrivateKey))
	if err != nil {
		s.removeWorkingCopy(ctx, dest)
		return nil, gitFailure("clone", err)
	}
	commit, err := s.git.LastCommitInfo(repo)
	if err != nil {
		s.removeWorkingCopy(ctx, dest)
		return nil, gitFailure("read last commit", err)
	}

	authors, err := validator.ParseAuthors(dest)
	if err != nil {
		s.removeWorkingCopy(ctx, dest)
		return nil, err
	}
	if !containsAuthor(authors, operator.StudentID) {
		s.removeWorkingCopy(ctx, dest)
		return nil, errs.PolicyViolation(errs.ReasonNotGroupMember, "You are not one of the authors listed in AUTHORS.txt")
	}
	group, err := s.groups.FindOrCreate(ctx, authors)
	if err != nil {
		s.removeWorkingCopy(ctx, dest)
		return nil, fmt.Errorf("Connect failed at resolve group: %w", err)
	}

	// 同一小组的组员并发连接时, 只有一个能完成兄弟记录的检查与保存
	lock, err := s.locker.Lock(ctx, fmt.Sprintf(gitConnectLockKey, gs.AssignmentID, group.ID), s.lockTTL, s.lockTTL)
	if errors.Is(err, redislock.ErrNotObtained) {
		s.removeWorkingCopy(ctx, dest)
		return nil, errs.PolicyViolation(errs.ReasonInvalidState, "Another member of your group is connecting a repository, try again later")
	}
	if err != nil {
		s.removeWorkingCopy(ctx, dest)
		return nil, fmt.Errorf("Connect failed at lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.WarnContext(ctx, "unlock git connect failed", logger.Error(err))
		}
	}()

	others := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.StudentID != gs.SubmitterStudentID {
			others = append(others, a.StudentID)
		}
	}
	var dropped []uint64
	err = repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		gits := s.gits.WithTx(tx)
		siblings, err := gits.FindByStudents(ctx, gs.AssignmentID, others)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.Connected {
				return errs.Conflict(errs.ReasonAlreadyConnected,
					fmt.Sprintf("Student %s already connected a repository for this assignment", sib.SubmitterStudentID))
			}
			dropped = append(dropped, sib.ID)
		}
		if err = gits.Delete(ctx, dropped...); err != nil {
			return err
		}
		commitDate := commit.Date
		gs.Connected = true
		gs.GroupID = &group.ID
		gs.LastCommitDate = &commitDate
		return gits.Save(ctx, gs)
	})
	if err != nil {
		s.removeWorkingCopy(ctx, dest)
		gs.Connected, gs.GroupID, gs.LastCommitDate = false, nil, nil
		return nil, err
	}
	for _, id := range dropped {
		s.removeWorkingCopy(ctx, storage.GitWorkingCopy(s.root, gs.AssignmentID, id))
	}
	s.log.InfoContext(ctx, "git repository connected", logger.Uint64("group_id", group.ID), logger.Int("dropped", len(dropped)))

	out := toGitSubmission(gs)
	return &out, nil
}

func (s *GitSubmissionServiceImpl) Refresh(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) (*model.RefreshGitSubmissionResponse, error) {
	opt, err := s.gits.FindByID(ctx, gitSubmissionID)
	if err != nil {
		return nil, err
	}
	gs, err := errs.Found(opt, "git submission", gitSubmissionID)
	if err != nil {
		return nil, err
	}
	if !operator.IsTeacher() {
		if err = s.checkMember(ctx, operator, gs); err != nil {
			return nil, err
		}
	}
	changed, err := s.refresh(ctx, gs)
	if err != nil {
		return nil, err
	}
	return &model.RefreshGitSubmissionResponse{GitSubmission: toGitSubmission(gs), Changed: changed}, nil
}

// refresh 拉取并在最近提交时间变化时更新记录
func (s *GitSubmissionServiceImpl) refresh(ctx context.Context, gs *entity.GitSubmission) (bool, error) {
	if !gs.Connected {
		return false, errs.PolicyViolation(errs.ReasonInvalidState, "The git repository is not connected yet")
	}
	dest := storage.GitWorkingCopy(s.root, gs.AssignmentID, gs.ID)
	var (
		repo    *gitclient.Repo
		pullErr error
	)
	err := retry.Do(ctx, func() error {
		repo, pullErr = s.git.Pull(ctx, dest, []byte(gs.PrivateKey))
		// 空仓库重试也不会成功
		if errors.Is(pullErr, gitclient.ErrEmptyRepository) {
			return nil
		}
		return pullErr
	}, retry.WithRetryTimes(pullRetryTimes), retry.WithBaseInterval(pullRetryInterval))
	if pullErr != nil {
		return false, gitFailure("pull", pullErr)
	}
	if err != nil {
		return false, gitFailure("pull", err)
	}
	commit, err := s.git.LastCommitInfo(repo)
	if err != nil {
		return false, gitFailure("read last commit", err)
	}
	if gs.LastCommitDate != nil && gs.LastCommitDate.Equal(commit.Date) {
		return false, nil
	}
	commitDate := commit.Date
	if err = s.gits.Updates(ctx, gs.ID, map[string]any{
		"last_commit_date":   commitDate,
		"last_submission_id": nil,
	}); err != nil {
		return false, err
	}
	gs.LastCommitDate = &commitDate
	gs.LastSubmissionID = nil
	return true, nil
}

func (s *GitSubmissionServiceImpl) Reset(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) error {
	gs, err := s.owned(ctx, operator, gitSubmissionID)
	if err != nil {
		return err
	}
	if err = s.gits.Delete(ctx, gs.ID); err != nil {
		return err
	}
	s.removeWorkingCopy(ctx, storage.GitWorkingCopy(s.root, gs.AssignmentID, gs.ID))
	return nil
}

func (s *GitSubmissionServiceImpl) Get(ctx context.Context, operator entity.Operator, assignmentID string) (option.Option[*model.GitSubmission], error) {
	none := option.None[*model.GitSubmission]()
	opt, err := s.gits.FindByStudent(ctx, assignmentID, operator.StudentID)
	if err != nil {
		return none, err
	}
	if gs, ok := opt.Get(); ok {
		out := toGitSubmission(gs)
		return option.Some(&out), nil
	}
	// 其他组员连接的仓库同样可见
	groupIDs, err := s.groups.FindIDsByStudent(ctx, operator.StudentID)
	if err != nil {
		return none, err
	}
	for _, gid := range groupIDs {
		opt, err = s.gits.FindConnectedByGroup(ctx, assignmentID, gid)
		if err != nil {
			return none, err
		}
		if gs, ok := opt.Get(); ok {
			out := toGitSubmission(gs)
			return option.Some(&out), nil
		}
	}
	return none, nil
}

func (s *GitSubmissionServiceImpl) RefreshAll(ctx context.Context) (int, error) {
	list, err := s.gits.ListConnectedOfActiveAssignments(ctx)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for i := range list {
		if err = ctx.Err(); err != nil {
			return refreshed, err
		}
		gs := &list[i]
		if _, err = s.refresh(ctx, gs); err != nil {
			s.log.WarnContext(ctx, "refresh git repository failed",
				logger.Uint64("git_submission_id", gs.ID), logger.String("url", gs.GitRepositoryURL), logger.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// owned 仅创建者可以操作的登记记录
func (s *GitSubmissionServiceImpl) owned(ctx context.Context, operator entity.Operator, id uint64) (*entity.GitSubmission, error) {
	opt, err := s.gits.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	gs, err := errs.Found(opt, "git submission", id)
	if err != nil {
		return nil, err
	}
	if gs.SubmitterStudentID != operator.StudentID {
		return nil, errs.PolicyViolation(errs.ReasonAccessDenied, "Only the student who registered the repository can do this")
	}
	return gs, nil
}

func (s *GitSubmissionServiceImpl) checkMember(ctx context.Context, operator entity.Operator, gs *entity.GitSubmission) error {
	if gs.SubmitterStudentID == operator.StudentID {
		return nil
	}
	if gs.GroupID != nil {
		opt, err := s.groups.FindByID(ctx, *gs.GroupID)
		if err != nil {
			return err
		}
		if group, ok := opt.Get(); ok && group.Contains(operator.StudentID) {
			return nil
		}
	}
	return errs.PolicyViolation(errs.ReasonAccessDenied, "You are not a member of this group")
}

func (s *GitSubmissionServiceImpl) removeWorkingCopy(ctx context.Context, dest string) {
	if err := fsutil.RemoveAll(dest); err != nil {
		s.log.WarnContext(ctx, "remove working copy failed", logger.String("folder", dest), logger.Error(err))
	}
}

func gitFailure(step string, err error) error {
	if errors.Is(err, gitclient.ErrEmptyRepository) {
		return errs.GitFailure(errs.ReasonEmptyRepository,
			"The repository is empty or its default branch could not be found", err)
	}
	return errs.GitFailure(errs.ReasonNone, fmt.Sprintf("git %s failed", step), err)
}

func toGitSubmission(gs *entity.GitSubmission) model.GitSubmission {
	return model.GitSubmission{
		ID:                 gs.ID,
		AssignmentID:       gs.AssignmentID,
		SubmitterStudentID: gs.SubmitterStudentID,
		GroupID:            gs.GroupID,
		RepositoryURL:      gs.GitRepositoryURL,
		PublicKey:          gs.PublicKey,
		Connected:          gs.Connected,
		LastCommitDate:     gs.LastCommitDate,
		LastSubmissionID:   gs.LastSubmissionID,
		CreatedAt:          gs.CreatedAt,
	}
}
