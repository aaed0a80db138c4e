package exporter

import (
	"context"
	"io"
)

// Options 导出选项
type Options struct {
	// IncludeElapsed 是否输出教师测试耗时列
	IncludeElapsed bool
}

// FinalExporter 导出作业的最终提交
type FinalExporter interface {
	Export(ctx context.Context, assignmentID string, opts Options, writer io.Writer) error
}
