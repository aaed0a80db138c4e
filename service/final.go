package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/redislock"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/exporter"
	"github.com/to404hanga/submission_controller/service/exporter/factory"
	"gorm.io/gorm"
)

const finalLockKey = "submission_controller:lock:final:%s:%d"

type FinalService interface {
	// MarkAsFinal 切换提交的最终标记, 置为 true 时清除同组其他提交的标记
	MarkAsFinal(ctx context.Context, operator entity.Operator, submissionID uint64) (*model.MarkAsFinalResponse, error)
	// Export 导出作业的全部最终提交
	Export(ctx context.Context, param *model.ExportFinalParam, writer io.Writer) error
}

type FinalServiceImpl struct {
	db          *gorm.DB
	locker      *redislock.Client
	submissions repository.SubmissionRepository
	groups      repository.GroupRepository
	factory     *factory.ExporterFactory
	cache       LeaderboardCache
	lockTTL     time.Duration
	log         loggerv2.Logger
}

var _ FinalService = (*FinalServiceImpl)(nil)

func NewFinalService(db *gorm.DB, rdb redis.Cmdable, f *factory.ExporterFactory, cache LeaderboardCache, lockTTL time.Duration, log loggerv2.Logger) FinalService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &FinalServiceImpl{
		db:          db,
		locker:      redislock.NewClient(rdb),
		submissions: repository.NewSubmissionRepository(db),
		groups:      repository.NewGroupRepository(db),
		factory:     f,
		cache:       cache,
		lockTTL:     lockTTL,
		log:         log,
	}
}

func (s *FinalServiceImpl) MarkAsFinal(ctx context.Context, operator entity.Operator, submissionID uint64) (*model.MarkAsFinalResponse, error) {
	ctx = loggerv2.ContextWithFields(ctx, logger.Uint64("submission_id", submissionID))

	opt, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	sub, err := errs.Found(opt, "submission", submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == entity.StatusDeleted {
		return nil, errs.NotFound("submission", submissionID)
	}
	if !operator.IsTeacher() {
		groupOpt, err := s.groups.FindByID(ctx, sub.GroupID)
		if err != nil {
			return nil, err
		}
		group, err := errs.Found(groupOpt, "group", sub.GroupID)
		if err != nil {
			return nil, err
		}
		if !group.Contains(operator.StudentID) {
			return nil, errs.PolicyViolation(errs.ReasonAccessDenied, "You are not a member of this group")
		}
	}

	lock, err := s.locker.Lock(ctx, fmt.Sprintf(finalLockKey, sub.AssignmentID, sub.GroupID), s.lockTTL, s.lockTTL)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, errs.PolicyViolation(errs.ReasonInvalidState, "The final submission of this group is being changed")
	}
	if err != nil {
		return nil, fmt.Errorf("MarkAsFinal failed at lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.WarnContext(ctx, "unlock final failed", logger.Error(err))
		}
	}()

	var marked bool
	err = repository.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		submissions := s.submissions.WithTx(tx)
		// 在锁内重新读取, 以事务内的值为准
		opt, err := submissions.FindByID(ctx, submissionID)
		if err != nil {
			return err
		}
		current, err := errs.Found(opt, "submission", submissionID)
		if err != nil {
			return err
		}
		marked = !current.MarkedAsFinal
		if marked {
			if err = submissions.ClearFinal(ctx, current.AssignmentID, current.GroupID, current.ID); err != nil {
				return err
			}
		}
		return submissions.Updates(ctx, current.ID, map[string]any{"marked_as_final": marked})
	})
	if err != nil {
		return nil, fmt.Errorf("MarkAsFinal failed at toggle: %w", err)
	}

	if err := s.cache.Invalidate(ctx, sub.AssignmentID); err != nil {
		s.log.WarnContext(ctx, "invalidate leaderboard failed", logger.Error(err))
	}
	s.log.InfoContext(ctx, "final flag toggled", logger.Bool("marked_as_final", marked))
	return &model.MarkAsFinalResponse{SubmissionID: submissionID, MarkedAsFinal: marked}, nil
}

func (s *FinalServiceImpl) Export(ctx context.Context, param *model.ExportFinalParam, writer io.Writer) error {
	if !param.Operator.IsTeacher() {
		return errs.PolicyViolation(errs.ReasonAccessDenied, "Only teachers can export final submissions")
	}
	exporterType := factory.ExporterType(param.Type)
	if exporterType == "" {
		exporterType = factory.CSVFinalExporter
	}
	exp := s.factory.GetExporter(exporterType)
	if exp == nil {
		return errs.ValidationError(errs.ReasonInvalidInput, fmt.Sprintf("unsupported export type %q", param.Type))
	}
	if err := exp.Export(ctx, param.AssignmentID, exporter.Options{IncludeElapsed: param.IncludeElapsed}, writer); err != nil {
		return fmt.Errorf("Export failed at %s exporter: %w", exporterType, err)
	}
	return nil
}
