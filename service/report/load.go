package report

import (
	"context"
	"strings"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
)

// BuildReportFinder 按 id 查询构建输出
type BuildReportFinder interface {
	FindBuildReport(ctx context.Context, id uint64) (option.Option[*entity.BuildReport], error)
}

// Load 读取提交的构建输出并计算汇总, 尚无构建输出时按空输出计算
func Load(ctx context.Context, finder BuildReportFinder, b Builder, a *entity.Assignment, s *entity.Submission) (*Summary, error) {
	var lines []string
	if s.BuildReportID != nil {
		opt, err := finder.FindBuildReport(ctx, *s.BuildReportID)
		if err != nil {
			return nil, err
		}
		if br, ok := opt.Get(); ok && br.Output != "" {
			lines = strings.Split(br.Output, "\n")
		}
	}
	return b.Build(lines, s.MavenizedFolder, a, s)
}
