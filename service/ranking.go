package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/gotools/transform"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/model"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/repository"
	"github.com/to404hanga/submission_controller/service/leaderboard"
	"github.com/to404hanga/submission_controller/service/report"
	"gorm.io/gorm"
)

type RankingService interface {
	// GetLeaderboard 获取作业排行榜, 学生仅在作业开放排行榜时可见
	GetLeaderboard(ctx context.Context, operator entity.Operator, assignmentID string) (*model.GetLeaderboardResponse, error)
	// Invalidate 使作业的排行榜缓存失效
	Invalidate(ctx context.Context, assignmentID string) error
}

const (
	LeaderboardKey        = "submission_controller:leaderboard:%s"
	DefaultLeaderboardTTL = 5 * time.Minute
)

// RankingServiceImpl 排行榜由数据库计算, redis 只做缓存
type RankingServiceImpl struct {
	db          *gorm.DB
	rdb         redis.Cmdable
	assignments repository.AssignmentRepository
	groups      repository.GroupRepository
	submissions repository.SubmissionRepository
	reports     repository.ReportRepository
	builder     report.Builder
	ttl         time.Duration
	log         loggerv2.Logger
}

var (
	_ RankingService   = (*RankingServiceImpl)(nil)
	_ LeaderboardCache = (*RankingServiceImpl)(nil)
)

func NewRankingService(db *gorm.DB, rdb redis.Cmdable, builder report.Builder, ttl time.Duration, log loggerv2.Logger) *RankingServiceImpl {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	return &RankingServiceImpl{
		db:          db,
		rdb:         rdb,
		assignments: repository.NewAssignmentRepository(db),
		groups:      repository.NewGroupRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		reports:     repository.NewReportRepository(db),
		builder:     builder,
		ttl:         ttl,
		log:         log,
	}
}

func (s *RankingServiceImpl) GetLeaderboard(ctx context.Context, operator entity.Operator, assignmentID string) (*model.GetLeaderboardResponse, error) {
	opt, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	a, err := errs.Found(opt, "assignment", assignmentID)
	if err != nil {
		return nil, err
	}
	if !a.ShowLeaderBoard && !operator.IsTeacher() {
		return nil, errs.PolicyViolation(errs.ReasonAccessDenied, "The leaderboard of this assignment is not public")
	}

	key := fmt.Sprintf(LeaderboardKey, assignmentID)
	cached, err := s.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var entries []leaderboard.Entry
		if err = json.UnmarshalString(cached, &entries); err == nil {
			return &model.GetLeaderboardResponse{AssignmentID: assignmentID, List: entries}, nil
		}
		s.log.WarnContext(ctx, "unmarshal leaderboard from redis failed", logger.String("key", key), logger.Error(err))
	case !errors.Is(err, redis.Nil):
		// 缓存不可用时直接计算
		s.log.WarnContext(ctx, "get leaderboard from redis failed", logger.String("key", key), logger.Error(err))
	}

	entries, err := s.compute(ctx, a)
	if err != nil {
		return nil, err
	}
	if raw, err := json.MarshalString(entries); err == nil {
		if err = s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.log.WarnContext(ctx, "set leaderboard to redis failed", logger.String("key", key), logger.Error(err))
		}
	}
	return &model.GetLeaderboardResponse{AssignmentID: assignmentID, List: entries}, nil
}

// compute 取每个小组最新的提交并排序
func (s *RankingServiceImpl) compute(ctx context.Context, a *entity.Assignment) ([]leaderboard.Entry, error) {
	latest, err := s.submissions.ListLatestPerGroup(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("compute leaderboard failed at list latest: %w", err)
	}
	ids := transform.SliceFromSlice(latest, func(_ int, sub entity.Submission) uint64 {
		return sub.ID
	})
	groupIDs := transform.SliceFromSlice(latest, func(_ int, sub entity.Submission) uint64 {
		return sub.GroupID
	})
	reports, err := s.reports.FindBySubmissions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("compute leaderboard failed at find reports: %w", err)
	}
	groups, err := s.groups.FindByIDs(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("compute leaderboard failed at find groups: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(latest))
	for i := range latest {
		sub := &latest[i]
		e := leaderboard.Entry{
			SubmissionID:   sub.ID,
			GroupID:        sub.GroupID,
			SubmissionDate: sub.SubmissionDate,
			Status:         sub.Status,
			Reports:        reports[sub.ID],
		}
		if g, ok := groups[sub.GroupID]; ok {
			e.Authors = g.Authors()
		}
		if r, ok := entity.ReportOf(e.Reports, entity.IndicatorTeacherUnitTests); ok && r.Progress != nil {
			e.Progress = *r.Progress
			if r.Goal != nil {
				e.Goal = *r.Goal
			}
		}
		if !leaderboard.Eligible(e) {
			continue
		}
		if a.LeaderboardType == entity.LeaderboardElapsedTime || a.LeaderboardType == entity.LeaderboardCoverage {
			summary, err := report.Load(ctx, s.reports, s.builder, a, sub)
			if err != nil {
				return nil, fmt.Errorf("compute leaderboard failed at load summary: %w", err)
			}
			if v, ok := summary.ElapsedSeconds(); ok {
				e.ElapsedSeconds = &v
			}
			e.Coverage = summary.Coverage
		}
		entries = append(entries, e)
	}
	return leaderboard.Rank(entries, a.LeaderboardType), nil
}

func (s *RankingServiceImpl) Invalidate(ctx context.Context, assignmentID string) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(LeaderboardKey, assignmentID)).Err(); err != nil {
		return fmt.Errorf("Invalidate failed at del key: %w", err)
	}
	return nil
}
