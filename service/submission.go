package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/event"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
	"github.com/to404hanga/submission_controller/pkg/gitclient"
	"github.com/to404hanga/submission_controller/pkg/option"
	"github.com/to404hanga/submission_controller/pkg/redislock"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/buildexec"
	"github.com/to404hanga/submission_controller/service/cooloff"
	"github.com/to404hanga/submission_controller/service/mavenizer"
	"github.com/to404hanga/submission_controller/service/report"
	"github.com/to404hanga/submission_controller/service/storage"
	"github.com/to404hanga/submission_controller/service/validator"
	"gorm.io/gorm"
)

const (
	intakeLockKey = "submission_controller:lock:intake:%s:%d"
	buildLockKey  = "submission_controller:lock:build:%d"
)

// deleteAttempts 删除时状态被并发修改的最大重读次数
const deleteAttempts = 3

type SubmissionService interface {
	// UploadSubmission 受理上传的压缩包, 构建异步进行
	UploadSubmission(ctx context.Context, param *model.UploadSubmissionParam) (*model.IntakeResult, error)
	// SubmitFromGit 以已连接的 git 工作副本受理一次提交
	SubmitFromGit(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) (*model.IntakeResult, error)
	// HandleBuildResult 构建完成回调, 唯一能将提交从构建中迁移到终态的入口
	HandleBuildResult(ctx context.Context, result *model.BuildResult) error
	// Rebuild 在已有规范化目录上重新构建
	Rebuild(ctx context.Context, operator entity.Operator, submissionID uint64, changeStatusDate bool) error
	// RebuildFull 复制提交并用当前教师文件重新规范化后构建
	RebuildFull(ctx context.Context, operator entity.Operator, submissionID uint64) (*model.IntakeResult, error)
	// DeleteSubmission 软删除
	DeleteSubmission(ctx context.Context, operator entity.Operator, submissionID uint64) error
	GetSubmission(ctx context.Context, operator entity.Operator, submissionID uint64) (*model.Submission, error)
	// GetLatestSubmission 操作人所在小组在作业下的最新提交
	GetLatestSubmission(ctx context.Context, operator entity.Operator, assignmentID string) (option.Option[*model.Submission], error)
	ListGroupSubmissions(ctx context.Context, operator entity.Operator, assignmentID string, groupID uint64) ([]model.Submission, error)
	// GetSubmissionSummary 由构建输出即时计算的汇总
	GetSubmissionSummary(ctx context.Context, operator entity.Operator, submissionID uint64) (*report.Summary, error)
	// GetNextSubmissionTime 冷却期内返回下一次允许提交的时间
	GetNextSubmissionTime(ctx context.Context, operator entity.Operator, assignmentID string) (option.Option[time.Time], error)
	// GetSubmissionArchive 原始压缩包路径, git 提交没有压缩包
	GetSubmissionArchive(ctx context.Context, operator entity.Operator, submissionID uint64) (string, error)
	// HandleBuildResultMessage kafka 回调入口
	HandleBuildResultMessage(ctx context.Context, msg *event.BuildResultMessage) error
}

// LeaderboardCache 排行榜缓存失效
type LeaderboardCache interface {
	Invalidate(ctx context.Context, assignmentID string) error
}

type SubmissionConfig struct {
	QuickRetry time.Duration
	LockTTL    time.Duration
	LockWait   time.Duration
}

type SubmissionServiceImpl struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	groups      repository.GroupRepository
	submissions repository.SubmissionRepository
	reports     repository.ReportRepository
	gits        repository.GitSubmissionRepository

	locker    *redislock.Client
	storage   storage.Storage
	git       gitclient.Client
	mavenizer *mavenizer.Mavenizer
	facility  buildexec.Facility
	ec        *buildexec.ExecContext
	builder   report.Builder
	cache     LeaderboardCache

	cfg SubmissionConfig
	now func() time.Time
	log loggerv2.Logger
}

var _ SubmissionService = (*SubmissionServiceImpl)(nil)

func NewSubmissionService(db *gorm.DB, rdb redis.Cmdable, store storage.Storage, git gitclient.Client, m *mavenizer.Mavenizer,
	facility buildexec.Facility, ec *buildexec.ExecContext, builder report.Builder, cache LeaderboardCache,
	cfg SubmissionConfig, log loggerv2.Logger) SubmissionService {
	if cfg.QuickRetry <= 0 {
		cfg.QuickRetry = cooloff.DefaultQuickRetry
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	s := &SubmissionServiceImpl{
		db:          db,
		assignments: repository.NewAssignmentRepository(db),
		groups:      repository.NewGroupRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		reports:     repository.NewReportRepository(db),
		gits:        repository.NewGitSubmissionRepository(db),
		locker:      redislock.NewClient(rdb),
		storage:     store,
		git:         git,
		mavenizer:   m,
		facility:    facility,
		ec:          ec,
		builder:     builder,
		cache:       cache,
		cfg:         cfg,
		now:         time.Now,
		log:         log,
	}
	ec.SetFailureHandler(s.onDispatchFailure)
	return s
}

// intakeSource 一次受理的原始来源
type intakeSource struct {
	folder     string
	archive    string
	git        *entity.GitSubmission
	commitHash string
}

func (s *SubmissionServiceImpl) UploadSubmission(ctx context.Context, param *model.UploadSubmissionParam) (*model.IntakeResult, error) {
	a, err := s.findAssignment(ctx, param.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err = s.checkIntakePolicy(ctx, param.Operator, a, entity.SubmissionMethodUpload); err != nil {
		return nil, err
	}

	folder, err := s.storage.Store(ctx, param.ArchivePath)
	if err != nil {
		return nil, err
	}
	return s.intake(ctx, param.Operator, a, intakeSource{folder: folder, archive: storage.ArchiveOf(folder)})
}

func (s *SubmissionServiceImpl) SubmitFromGit(ctx context.Context, operator entity.Operator, gitSubmissionID uint64) (*model.IntakeResult, error) {
	opt, err := s.gits.FindByID(ctx, gitSubmissionID)
	if err != nil {
		return nil, err
	}
	gs, err := errs.Found(opt, "git submission", gitSubmissionID)
	if err != nil {
		return nil, err
	}
	if !gs.Connected || gs.GroupID == nil {
		return nil, errs.PolicyViolation(errs.ReasonInvalidState, "The git repository is not connected yet")
	}
	a, err := s.findAssignment(ctx, gs.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err = s.checkIntakePolicy(ctx, operator, a, entity.SubmissionMethodGit); err != nil {
		return nil, err
	}

	folder := storage.GitWorkingCopy(s.storage.Root(), gs.AssignmentID, gs.ID)
	if fsutil.IsDirEmpty(folder) {
		return nil, errs.StorageFailure("git working copy is missing, refresh the repository first", nil)
	}
	repo, err := s.git.Open(folder)
	if err != nil {
		return nil, gitFailure("open working copy", err)
	}
	commit, err := s.git.LastCommitInfo(repo)
	if err != nil {
		return nil, gitFailure("read last commit", err)
	}
	res, err := s.intake(ctx, operator, a, intakeSource{folder: folder, git: gs, commitHash: commit.Hash})
	if err != nil {
		return nil, err
	}
	if err = s.gits.Updates(ctx, gs.ID, map[string]any{"last_submission_id": res.SubmissionID}); err != nil {
		return nil, fmt.Errorf("SubmitFromGit failed at update git submission: %w", err)
	}
	return res, nil
}

// checkIntakePolicy 受理前的策略检查, 不产生任何副作用
func (s *SubmissionServiceImpl) checkIntakePolicy(ctx context.Context, operator entity.Operator, a *entity.Assignment, method entity.SubmissionMethod) error {
	if a.SubmissionMethod != method {
		return errs.PolicyViolation(errs.ReasonWrongMethod,
			fmt.Sprintf("Assignment %s only accepts %s submissions", a.ID, a.SubmissionMethod))
	}
	if operator.IsTeacher() {
		return nil
	}
	if a.Archived || !a.Active {
		return errs.PolicyViolation(errs.ReasonAssignmentClosed, fmt.Sprintf("Assignment %s is not accepting submissions", a.ID))
	}
	next, err := s.nextSubmissionTime(ctx, operator, a)
	if err != nil {
		return err
	}
	if t, ok := next.Get(); ok {
		return errs.PolicyViolation(errs.ReasonCooloff,
			fmt.Sprintf("You can only submit again after %s", t.Format(time.RFC3339)))
	}
	return nil
}

func (s *SubmissionServiceImpl) nextSubmissionTime(ctx context.Context, operator entity.Operator, a *entity.Assignment) (option.Option[time.Time], error) {
	none := option.None[time.Time]()
	if operator.IsTeacher() || a.CooloffPeriod == nil {
		return none, nil
	}
	opt, err := s.submissions.FindLatestBySubmitter(ctx, a.ID, operator.StudentID)
	if err != nil {
		return none, err
	}
	latest, ok := opt.Get()
	if !ok {
		return none, nil
	}
	reports, err := s.reports.FindBySubmission(ctx, latest.ID)
	if err != nil {
		return none, err
	}
	last := option.Some(cooloff.LastSubmission{SubmissionDate: latest.SubmissionDate, Reports: reports})
	return cooloff.NextAllowedSubmissionTime(last, a, s.now(), s.cfg.QuickRetry), nil
}

// intake 校验作者与结构, 创建提交记录并派发构建
func (s *SubmissionServiceImpl) intake(ctx context.Context, operator entity.Operator, a *entity.Assignment, src intakeSource) (*model.IntakeResult, error) {
	authors, err := validator.ParseAuthors(src.folder)
	if err != nil {
		s.discard(ctx, src)
		return nil, err
	}
	if !operator.IsTeacher() && !containsAuthor(authors, operator.StudentID) {
		s.discard(ctx, src)
		return nil, errs.PolicyViolation(errs.ReasonNotGroupMember, "You are not one of the authors listed in AUTHORS.txt")
	}
	group, err := s.groups.FindOrCreate(ctx, authors)
	if err != nil {
		s.discard(ctx, src)
		return nil, fmt.Errorf("intake failed at resolve group: %w", err)
	}

	ctx = loggerv2.ContextWithFields(ctx, logger.String("assignment_id", a.ID), logger.Uint64("group_id", group.ID))
	now := s.now()
	sub := &entity.Submission{
		AssignmentID:      a.ID,
		GroupID:           group.ID,
		SubmitterID:       operator.StudentID,
		SubmissionDate:    now,
		Status:            entity.StatusSubmitted,
		StatusDate:        now,
		SubmissionFolder:  src.folder,
		SubmissionArchive: src.archive,
	}
	if src.git != nil {
		sub.GitSubmissionID = &src.git.ID
		sub.GitCommitDate = src.git.LastCommitDate
		if src.commitHash != "" {
			hash := src.commitHash
			sub.GitCommitHash = &hash
		}
	}
	if err = s.createPending(ctx, sub); err != nil {
		s.discard(ctx, src)
		return nil, err
	}
	ctx = loggerv2.ContextWithFields(ctx, logger.Uint64("submission_id", sub.ID))

	structureErrors := validator.ValidateStructure(src.folder, a.PackageName, a.Language)
	if len(structureErrors) > 0 {
		if err = s.finishWithStructureErrors(ctx, a, sub, structureErrors); err != nil {
			s.markFailed(ctx, sub.ID)
			return nil, err
		}
		return &model.IntakeResult{
			SubmissionID:    sub.ID,
			Status:          entity.StatusValidated,
			StructureErrors: structureErrors,
		}, nil
	}

	dest, err := s.mavenizer.Mavenize(ctx, mavenizer.Input{
		SubmissionID:  sub.ID,
		RawFolder:     src.folder,
		Assignment:    a,
		TeacherFolder: storage.TeacherFolder(s.storage.Root(), a.ID),
		Variant:       mavenizer.VariantNormal,
		GitBacked:     src.git != nil,
	})
	if err != nil {
		s.markFailed(ctx, sub.ID)
		return nil, fmt.Errorf("intake failed at mavenize: %w", err)
	}
	if err = s.submissions.Updates(ctx, sub.ID, map[string]any{"mavenized_folder": dest}); err != nil {
		s.markFailed(ctx, sub.ID)
		return nil, fmt.Errorf("intake failed at update mavenized folder: %w", err)
	}

	err = s.facility.Submit(ctx, s.ec, buildexec.BuildRequest{
		SubmissionID:  sub.ID,
		AssignmentID:  a.ID,
		MavenizedPath: dest,
		AuthorLabel:   authorLabel(authors),
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		s.markFailed(ctx, sub.ID)
		return nil, errs.ExecutionFault("dispatch build failed", err)
	}
	s.log.InfoContext(ctx, "submission accepted")

	return &model.IntakeResult{SubmissionID: sub.ID, Status: entity.StatusSubmitted}, nil
}

// createPending 在小组锁与事务内检查未完成的提交并创建记录
func (s *SubmissionServiceImpl) createPending(ctx context.Context, sub *entity.Submission) error {
	lock, err := s.locker.Lock(ctx, fmt.Sprintf(intakeLockKey, sub.AssignmentID, sub.GroupID), s.cfg.LockTTL, s.cfg.LockWait)
	if errors.Is(err, redislock.ErrNotObtained) {
		return errs.PolicyViolation(errs.ReasonPendingSubmission, "Another submission of your group is being processed")
	}
	if err != nil {
		return fmt.Errorf("createPending failed at lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.WarnContext(ctx, "unlock intake failed", logger.Error(err))
		}
	}()

	return repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		submissions := s.submissions.WithTx(tx)
		cnt, err := submissions.CountByStatus(ctx, sub.AssignmentID, sub.GroupID, entity.StatusSubmitted)
		if err != nil {
			return err
		}
		if cnt > 0 {
			return errs.PolicyViolation(errs.ReasonPendingSubmission,
				"There is a previous submission of your group still being processed")
		}
		return submissions.Create(ctx, sub)
	})
}

func (s *SubmissionServiceImpl) finishWithStructureErrors(ctx context.Context, a *entity.Assignment, sub *entity.Submission, structureErrors []string) error {
	summary := &report.Summary{StructureErrors: structureErrors}
	return repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		submissions := s.submissions.WithTx(tx)
		ok, err := submissions.CompareAndSetStatus(ctx, sub.ID, []entity.SubmissionStatus{entity.StatusSubmitted},
			repository.StatusColumns(entity.StatusValidated, s.now(), true))
		if err != nil {
			return err
		}
		if !ok {
			return errs.Conflict(errs.ReasonInvalidState, "submission changed during validation")
		}
		if err = submissions.SetStructureErrors(ctx, sub.ID, structureErrors); err != nil {
			return err
		}
		return s.reports.WithTx(tx).Append(ctx, summary.Indicators(a, sub.ID))
	})
}

// discard 丢弃未产生提交记录的上传目录
func (s *SubmissionServiceImpl) discard(ctx context.Context, src intakeSource) {
	if src.git != nil {
		return
	}
	if err := fsutil.RemoveAll(src.folder); err != nil {
		s.log.WarnContext(ctx, "discard upload folder failed", logger.String("folder", src.folder), logger.Error(err))
	}
	if src.archive != "" {
		if err := fsutil.RemoveAll(src.archive); err != nil {
			s.log.WarnContext(ctx, "discard upload archive failed", logger.String("archive", src.archive), logger.Error(err))
		}
	}
}

// markFailed 将构建中的提交标记为 FAILED
func (s *SubmissionServiceImpl) markFailed(ctx context.Context, submissionID uint64) {
	ctx = context.WithoutCancel(ctx)
	_, err := s.submissions.CompareAndSetStatus(ctx, submissionID, entity.InFlightStatuses(),
		repository.StatusColumns(entity.StatusFailed, s.now(), true))
	if err != nil {
		s.log.ErrorContext(ctx, "mark submission failed failed", logger.Uint64("submission_id", submissionID), logger.Error(err))
	}
}

func (s *SubmissionServiceImpl) onDispatchFailure(ctx context.Context, req buildexec.BuildRequest, err error) {
	s.markFailed(ctx, req.SubmissionID)
}

func (s *SubmissionServiceImpl) HandleBuildResultMessage(ctx context.Context, msg *event.BuildResultMessage) error {
	return s.HandleBuildResult(ctx, &model.BuildResult{
		SubmissionID:  msg.SubmissionID,
		CorrelationID: msg.CorrelationID,
		Outcome:       entity.BuildOutcome(msg.Outcome),
		Output:        msg.Output,
	})
}

func (s *SubmissionServiceImpl) HandleBuildResult(ctx context.Context, result *model.BuildResult) error {
	ctx = loggerv2.ContextWithFields(ctx, logger.Uint64("submission_id", result.SubmissionID))
	lock, err := s.locker.Lock(ctx, fmt.Sprintf(buildLockKey, result.SubmissionID), s.cfg.LockTTL, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("HandleBuildResult failed at lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.WarnContext(ctx, "unlock build result failed", logger.Error(err))
		}
	}()

	sub, err := s.findSubmission(ctx, result.SubmissionID)
	if err != nil {
		return err
	}
	if !sub.Status.IsInFlight() {
		s.log.WarnContext(ctx, "ignore build result of settled submission", logger.String("status", string(sub.Status)))
		return nil
	}
	rebuild := sub.Status != entity.StatusSubmitted
	target, ok := result.Outcome.TargetStatus(rebuild)
	if !ok {
		return errs.ValidationError(errs.ReasonInvalidInput, fmt.Sprintf("unknown build outcome %q", result.Outcome))
	}
	a, err := s.findAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return err
	}

	var indicators []entity.SubmissionReport
	if result.Outcome == entity.OutcomeSuccess {
		summary, err := s.builder.Build(result.Output, sub.MavenizedFolder, a, sub)
		if err != nil {
			return fmt.Errorf("HandleBuildResult failed at build report: %w", err)
		}
		indicators = summary.Indicators(a, sub.ID)
	}

	from := make([]entity.SubmissionStatus, 0, 3)
	for _, st := range entity.InFlightStatuses() {
		if entity.CanTransition(st, target) {
			from = append(from, st)
		}
	}
	stale := false
	err = repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		reports := s.reports.WithTx(tx)
		br := &entity.BuildReport{Output: strings.Join(result.Output, "\n")}
		if err := reports.CreateBuildReport(ctx, br); err != nil {
			return err
		}
		cols := repository.StatusColumns(target, s.now(), true)
		cols["build_report_id"] = br.ID
		ok, err := s.submissions.WithTx(tx).CompareAndSetStatus(ctx, sub.ID, from, cols)
		if err != nil {
			return err
		}
		if !ok {
			stale = true
			return errStaleResult
		}
		if len(indicators) == 0 {
			return nil
		}
		return reports.Append(ctx, indicators)
	})
	if stale {
		s.log.WarnContext(ctx, "ignore stale build result", logger.String("target", string(target)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("HandleBuildResult failed at save result: %w", err)
	}
	s.invalidate(ctx, sub.AssignmentID)
	s.log.InfoContext(ctx, "build result saved", logger.String("status", string(target)))
	return nil
}

var errStaleResult = errors.New("stale build result")

func (s *SubmissionServiceImpl) Rebuild(ctx context.Context, operator entity.Operator, submissionID uint64, changeStatusDate bool) error {
	if !operator.IsTeacher() {
		return errs.PolicyViolation(errs.ReasonAccessDenied, "Only teachers can rebuild submissions")
	}
	sub, err := s.findSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.MavenizedFolder == "" || fsutil.IsDirEmpty(sub.MavenizedFolder) {
		return errs.PolicyViolation(errs.ReasonInvalidState, "The submission has no mavenized project to rebuild, use a full rebuild")
	}
	groupOpt, err := s.groups.FindByID(ctx, sub.GroupID)
	if err != nil {
		return err
	}
	group, err := errs.Found(groupOpt, "group", sub.GroupID)
	if err != nil {
		return err
	}

	ok, err := s.submissions.CompareAndSetStatus(ctx, sub.ID, rebuildableStatuses(),
		repository.StatusColumns(entity.StatusSubmittedForRebuild, s.now(), changeStatusDate))
	if err != nil {
		return err
	}
	if !ok {
		return errs.PolicyViolation(errs.ReasonInvalidState, fmt.Sprintf("Submission %d cannot be rebuilt in its current state", sub.ID))
	}
	return s.dispatchRebuild(ctx, sub, sub.MavenizedFolder, authorLabel(group.Authors()), changeStatusDate)
}

// dispatchRebuild 进入 REBUILDING 并派发重建
func (s *SubmissionServiceImpl) dispatchRebuild(ctx context.Context, sub *entity.Submission, dest, label string, changeStatusDate bool) error {
	ok, err := s.submissions.CompareAndSetStatus(ctx, sub.ID, []entity.SubmissionStatus{entity.StatusSubmittedForRebuild},
		repository.StatusColumns(entity.StatusRebuilding, s.now(), changeStatusDate))
	if err != nil {
		s.markFailed(ctx, sub.ID)
		return err
	}
	if !ok {
		return errs.PolicyViolation(errs.ReasonInvalidState, fmt.Sprintf("Submission %d changed before rebuild", sub.ID))
	}
	err = s.facility.Submit(ctx, s.ec, buildexec.BuildRequest{
		SubmissionID:  sub.ID,
		AssignmentID:  sub.AssignmentID,
		MavenizedPath: dest,
		AuthorLabel:   label,
		Rebuild:       true,
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		s.markFailed(ctx, sub.ID)
		return errs.ExecutionFault("dispatch rebuild failed", err)
	}
	return nil
}

func (s *SubmissionServiceImpl) RebuildFull(ctx context.Context, operator entity.Operator, submissionID uint64) (*model.IntakeResult, error) {
	if !operator.IsTeacher() {
		return nil, errs.PolicyViolation(errs.ReasonAccessDenied, "Only teachers can rebuild submissions")
	}
	orig, err := s.findSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	a, err := s.findAssignment(ctx, orig.AssignmentID)
	if err != nil {
		return nil, err
	}
	groupOpt, err := s.groups.FindByID(ctx, orig.GroupID)
	if err != nil {
		return nil, err
	}
	group, err := errs.Found(groupOpt, "group", orig.GroupID)
	if err != nil {
		return nil, err
	}
	raw, cleanup, err := s.retrieveRaw(ctx, orig)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	now := s.now()
	clone := &entity.Submission{
		AssignmentID:      orig.AssignmentID,
		GroupID:           orig.GroupID,
		SubmitterID:       orig.SubmitterID,
		SubmissionDate:    orig.SubmissionDate,
		Status:            entity.StatusSubmittedForRebuild,
		StatusDate:        now,
		SubmissionFolder:  orig.SubmissionFolder,
		SubmissionArchive: orig.SubmissionArchive,
		GitSubmissionID:   orig.GitSubmissionID,
		GitCommitDate:     orig.GitCommitDate,
		GitCommitHash:     orig.GitCommitHash,
		StructureErrors:   orig.StructureErrors,
	}
	if err = s.submissions.Create(ctx, clone); err != nil {
		return nil, err
	}
	ctx = loggerv2.ContextWithFields(ctx, logger.Uint64("submission_id", clone.ID), logger.Uint64("rebuilt_from", orig.ID))

	dest, err := s.mavenizer.Mavenize(ctx, mavenizer.Input{
		SubmissionID:  clone.ID,
		RawFolder:     raw,
		Assignment:    a,
		TeacherFolder: storage.TeacherFolder(s.storage.Root(), a.ID),
		Variant:       mavenizer.VariantRebuild,
		GitBacked:     orig.IsGitBacked(),
	})
	if err != nil {
		s.markFailed(ctx, clone.ID)
		return nil, fmt.Errorf("RebuildFull failed at mavenize: %w", err)
	}
	if err = s.submissions.Updates(ctx, clone.ID, map[string]any{"mavenized_folder": dest}); err != nil {
		s.markFailed(ctx, clone.ID)
		return nil, err
	}
	if err = s.dispatchRebuild(ctx, clone, dest, authorLabel(group.Authors()), false); err != nil {
		return nil, err
	}
	return &model.IntakeResult{SubmissionID: clone.ID, Status: entity.StatusRebuilding}, nil
}

// retrieveRaw 取回提交的原始目录, git 提交按记录的提交哈希导出, 不读取工作副本的当前版本
func (s *SubmissionServiceImpl) retrieveRaw(ctx context.Context, orig *entity.Submission) (string, func(), error) {
	noop := func() {}
	if !orig.IsGitBacked() {
		opt, err := s.storage.Retrieve(ctx, orig)
		if err != nil {
			return "", noop, err
		}
		raw, ok := opt.Get()
		if !ok {
			return "", noop, errs.StorageFailure(fmt.Sprintf("original files of submission %d are no longer available", orig.ID), nil)
		}
		return raw, noop, nil
	}

	if orig.GitCommitHash == nil || *orig.GitCommitHash == "" {
		return "", noop, errs.PolicyViolation(errs.ReasonInvalidState,
			fmt.Sprintf("Submission %d has no recorded commit to rebuild from", orig.ID))
	}
	repo, err := s.git.Open(storage.GitWorkingCopy(s.storage.Root(), orig.AssignmentID, *orig.GitSubmissionID))
	if err != nil {
		return "", noop, errs.StorageFailure(fmt.Sprintf("git working copy of submission %d is no longer available", orig.ID), err)
	}
	out := storage.GitExport(s.storage.Root(), orig.ID)
	cleanup := func() {
		if err := fsutil.RemoveAll(out); err != nil {
			s.log.WarnContext(ctx, "remove git export failed", logger.String("folder", out), logger.Error(err))
		}
	}
	if err = fsutil.RemoveAll(out); err != nil {
		return "", noop, errs.StorageFailure("clean git export failed", err)
	}
	if err = s.git.Export(ctx, repo, *orig.GitCommitHash, out); err != nil {
		cleanup()
		return "", noop, gitFailure("export recorded commit", err)
	}
	return out, cleanup, nil
}

func (s *SubmissionServiceImpl) DeleteSubmission(ctx context.Context, operator entity.Operator, submissionID uint64) error {
	if !operator.IsTeacher() {
		return errs.PolicyViolation(errs.ReasonAccessDenied, "Only teachers can delete submissions")
	}
	sub, err := s.findSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	for i := 0; i < deleteAttempts; i++ {
		if sub.Status == entity.StatusDeleted {
			return nil
		}
		ok, err := s.submissions.CompareAndSetStatus(ctx, sub.ID, []entity.SubmissionStatus{sub.Status},
			repository.StatusColumns(entity.StatusDeleted, s.now(), true))
		if err != nil {
			return err
		}
		if ok {
			s.invalidate(ctx, sub.AssignmentID)
			return nil
		}
		// 读取后状态被构建回调等并发修改, 重新读取
		if sub, err = s.findSubmission(ctx, submissionID); err != nil {
			return err
		}
	}
	return errs.Conflict(errs.ReasonInvalidState, fmt.Sprintf("Submission %d changed while deleting, try again", submissionID))
}

func (s *SubmissionServiceImpl) GetSubmission(ctx context.Context, operator entity.Operator, submissionID uint64) (*model.Submission, error) {
	sub, group, err := s.accessibleSubmission(ctx, operator, submissionID)
	if err != nil {
		return nil, err
	}
	a, err := s.findAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.FindBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	detail := toSubmission(sub, group, a, reports)
	return &detail, nil
}

func (s *SubmissionServiceImpl) GetLatestSubmission(ctx context.Context, operator entity.Operator, assignmentID string) (option.Option[*model.Submission], error) {
	none := option.None[*model.Submission]()
	a, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return none, err
	}
	groupIDs, err := s.groups.FindIDsByStudent(ctx, operator.StudentID)
	if err != nil {
		return none, err
	}
	var latest *entity.Submission
	for _, gid := range groupIDs {
		opt, err := s.submissions.FindLatest(ctx, assignmentID, gid)
		if err != nil {
			return none, err
		}
		if sub, ok := opt.Get(); ok && (latest == nil || sub.SubmissionDate.After(latest.SubmissionDate)) {
			latest = sub
		}
	}
	if latest == nil {
		return none, nil
	}
	groupOpt, err := s.groups.FindByID(ctx, latest.GroupID)
	if err != nil {
		return none, err
	}
	group, err := errs.Found(groupOpt, "group", latest.GroupID)
	if err != nil {
		return none, err
	}
	reports, err := s.reports.FindBySubmission(ctx, latest.ID)
	if err != nil {
		return none, err
	}
	detail := toSubmission(latest, group, a, reports)
	return option.Some(&detail), nil
}

func (s *SubmissionServiceImpl) ListGroupSubmissions(ctx context.Context, operator entity.Operator, assignmentID string, groupID uint64) ([]model.Submission, error) {
	groupOpt, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group, err := errs.Found(groupOpt, "group", groupID)
	if err != nil {
		return nil, err
	}
	if !operator.IsTeacher() && !group.Contains(operator.StudentID) {
		return nil, errs.PolicyViolation(errs.ReasonAccessDenied, "You are not a member of this group")
	}
	a, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	list, err := s.submissions.ListByGroup(ctx, assignmentID, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(list))
	for _, sub := range list {
		ids = append(ids, sub.ID)
	}
	reports, err := s.reports.FindBySubmissions(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.Submission, 0, len(list))
	for i := range list {
		out = append(out, toSubmission(&list[i], group, a, reports[list[i].ID]))
	}
	return out, nil
}

func (s *SubmissionServiceImpl) GetSubmissionSummary(ctx context.Context, operator entity.Operator, submissionID uint64) (*report.Summary, error) {
	sub, _, err := s.accessibleSubmission(ctx, operator, submissionID)
	if err != nil {
		return nil, err
	}
	a, err := s.findAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	summary, err := report.Load(ctx, s.reports, s.builder, a, sub)
	if err != nil {
		return nil, fmt.Errorf("GetSubmissionSummary failed at build report: %w", err)
	}
	return summary, nil
}

func (s *SubmissionServiceImpl) GetNextSubmissionTime(ctx context.Context, operator entity.Operator, assignmentID string) (option.Option[time.Time], error) {
	a, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return option.None[time.Time](), err
	}
	return s.nextSubmissionTime(ctx, operator, a)
}

func (s *SubmissionServiceImpl) GetSubmissionArchive(ctx context.Context, operator entity.Operator, submissionID uint64) (string, error) {
	sub, _, err := s.accessibleSubmission(ctx, operator, submissionID)
	if err != nil {
		return "", err
	}
	if sub.SubmissionArchive == "" {
		return "", errs.NotFound("archive of submission", submissionID)
	}
	return sub.SubmissionArchive, nil
}

// accessibleSubmission 教师可访问全部提交, 学生只能访问自己小组未删除的提交
func (s *SubmissionServiceImpl) accessibleSubmission(ctx context.Context, operator entity.Operator, submissionID uint64) (*entity.Submission, *entity.ProjectGroup, error) {
	sub, err := s.findSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	groupOpt, err := s.groups.FindByID(ctx, sub.GroupID)
	if err != nil {
		return nil, nil, err
	}
	group, err := errs.Found(groupOpt, "group", sub.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if operator.IsTeacher() {
		return sub, group, nil
	}
	if sub.Status == entity.StatusDeleted {
		return nil, nil, errs.NotFound("submission", submissionID)
	}
	if !group.Contains(operator.StudentID) {
		return nil, nil, errs.PolicyViolation(errs.ReasonAccessDenied, "You are not a member of this group")
	}
	return sub, group, nil
}

func (s *SubmissionServiceImpl) findSubmission(ctx context.Context, id uint64) (*entity.Submission, error) {
	opt, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return errs.Found(opt, "submission", id)
}

func (s *SubmissionServiceImpl) findAssignment(ctx context.Context, id string) (*entity.Assignment, error) {
	opt, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return errs.Found(opt, "assignment", id)
}

func (s *SubmissionServiceImpl) invalidate(ctx context.Context, assignmentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, assignmentID); err != nil {
		s.log.WarnContext(ctx, "invalidate leaderboard failed", logger.Error(err))
	}
}

// rebuildableStatuses 可以发起重建的终态
func rebuildableStatuses() []entity.SubmissionStatus {
	out := make([]entity.SubmissionStatus, 0, 6)
	for _, st := range []entity.SubmissionStatus{
		entity.StatusValidated, entity.StatusValidatedRebuilt, entity.StatusFailed,
		entity.StatusAbortedByTimeout, entity.StatusTooMuchOutput, entity.StatusIllegalAccess,
	} {
		if entity.CanTransition(st, entity.StatusSubmittedForRebuild) {
			out = append(out, st)
		}
	}
	return out
}

func containsAuthor(authors []entity.Author, studentID string) bool {
	for _, a := range authors {
		if a.StudentID == studentID {
			return true
		}
	}
	return false
}

// authorLabel 构建设施用于标识作者的标签, 例如 a1_a2
func authorLabel(authors []entity.Author) string {
	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, validator.SanitizeID(a.StudentID))
	}
	return strings.Join(ids, "_")
}

func toSubmission(sub *entity.Submission, group *entity.ProjectGroup, a *entity.Assignment, reports []entity.SubmissionReport) model.Submission {
	out := model.Submission{
		ID:              sub.ID,
		AssignmentID:    sub.AssignmentID,
		GroupID:         sub.GroupID,
		SubmitterID:     sub.SubmitterID,
		SubmissionDate:  sub.SubmissionDate,
		Status:          sub.Status,
		StatusDate:      sub.StatusDate,
		StructureErrors: sub.StructureErrors,
		MarkedAsFinal:   sub.MarkedAsFinal,
		Overdue:         a.IsOverdue(sub.SubmissionDate),
		GitCommitHash:   sub.GitCommitHash,
		GitCommitDate:   sub.GitCommitDate,
		Reports:         make([]model.Report, 0, len(reports)),
	}
	if group != nil {
		out.Authors = group.Authors()
	}
	for _, r := range reports {
		out.Reports = append(out.Reports, model.Report{
			Indicator: r.Indicator,
			Value:     r.Value,
			Progress:  r.Progress,
			Goal:      r.Goal,
		})
	}
	return out
}
