package cooloff

import (
	"time"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
)

// DefaultQuickRetry 结构或编译失败后的快速重试间隔
const DefaultQuickRetry = 5 * time.Minute

// LastSubmission 冷却计算需要的上一次提交信息
type LastSubmission struct {
	SubmissionDate time.Time
	Reports        []entity.SubmissionReport
}

// NextAllowedSubmissionTime 计算下一次允许提交的时间, 无需等待时返回 None
// 教师豁免在调用方处理
func NextAllowedSubmissionTime(last option.Option[LastSubmission], a *entity.Assignment, now time.Time, quickRetry time.Duration) option.Option[time.Time] {
	if a.CooloffPeriod == nil || *a.CooloffPeriod <= 0 {
		return option.None[time.Time]()
	}
	l, ok := last.Get()
	if !ok {
		return option.None[time.Time]()
	}

	applicable := time.Duration(*a.CooloffPeriod) * time.Minute
	if entity.HasStructureOrCompilationFailure(l.Reports) && quickRetry < applicable {
		applicable = quickRetry
	}

	if now.Sub(l.SubmissionDate) < applicable {
		return option.Some(l.SubmissionDate.Add(applicable))
	}
	return option.None[time.Time]()
}
