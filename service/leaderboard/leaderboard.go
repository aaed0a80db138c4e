package leaderboard

import (
	"sort"
	"time"

	"github.com/to404hanga/submission_controller/entity"
)

// Entry 排行榜的一行
type Entry struct {
	SubmissionID   uint64                    `json:"submission_id"`
	GroupID        uint64                    `json:"group_id"`
	Authors        []entity.Author           `json:"authors"`
	SubmissionDate time.Time                 `json:"submission_date"`
	Status         entity.SubmissionStatus   `json:"status"`
	Progress       int                       `json:"progress"`
	Goal           int                       `json:"goal"`
	ElapsedSeconds *float64                  `json:"elapsed_seconds,omitempty"`
	Coverage       *int                      `json:"coverage,omitempty"`
	Reports        []entity.SubmissionReport `json:"reports"`
}

// Eligible 最新提交已评测完成且通过至少一个教师测试
func Eligible(e Entry) bool {
	return (e.Status == entity.StatusValidated || e.Status == entity.StatusValidatedRebuilt) && e.Progress > 0
}

// Rank 过滤并排序, 每行只保留教师测试指标
func Rank(entries []Entry, t entity.LeaderboardType) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if Eligible(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], t)
	})
	for i := range out {
		out[i].Reports = teacherOnly(out[i].Reports)
	}
	return out
}

func less(a, b Entry, t entity.LeaderboardType) bool {
	if a.Progress != b.Progress {
		return a.Progress > b.Progress
	}
	switch t {
	case entity.LeaderboardElapsedTime:
		ea, eb := elapsed(a), elapsed(b)
		if ea != eb {
			return ea < eb
		}
	case entity.LeaderboardCoverage:
		ca, cb := coverage(a), coverage(b)
		if ca != cb {
			return ca > cb
		}
	}
	return false
}

func elapsed(e Entry) float64 {
	if e.ElapsedSeconds == nil {
		// 没有耗时的排在最后
		return float64(1 << 53)
	}
	return *e.ElapsedSeconds
}

func coverage(e Entry) int {
	if e.Coverage == nil {
		return 0
	}
	return *e.Coverage
}

func teacherOnly(reports []entity.SubmissionReport) []entity.SubmissionReport {
	out := make([]entity.SubmissionReport, 0, 1)
	for _, r := range reports {
		if r.Indicator == entity.IndicatorTeacherUnitTests {
			out = append(out, r)
		}
	}
	return out
}
