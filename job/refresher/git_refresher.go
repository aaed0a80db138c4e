package refresher

import (
	"context"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// Refresher 拉取全部已连接仓库
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

type GitRefresher struct {
	svc Refresher
	log loggerv2.Logger
}

func NewGitRefresher(svc Refresher, log loggerv2.Logger) *GitRefresher {
	return &GitRefresher{svc: svc, log: log}
}

func (r *GitRefresher) Run(ctx context.Context) error {
	refreshed, err := r.svc.RefreshAll(ctx)
	if err != nil {
		return err
	}
	r.log.InfoContext(ctx, "git refresh completed", logger.Int("refreshed", refreshed))
	return nil
}
