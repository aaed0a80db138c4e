package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/service/exporter"
	"github.com/to404hanga/submission_controller/service/exporter/common"
	"github.com/to404hanga/submission_controller/service/report"
	"gorm.io/gorm"
)

// Separator 导出文件使用分号分隔
const Separator = ';'

type CSVFinalExporter struct {
	log     loggerv2.Logger
	db      *gorm.DB
	builder report.Builder
}

var _ exporter.FinalExporter = (*CSVFinalExporter)(nil)

func NewCSVFinalExporter(db *gorm.DB, builder report.Builder, log loggerv2.Logger) *CSVFinalExporter {
	return &CSVFinalExporter{
		db:      db,
		builder: builder,
		log:     log,
	}
}

func (e *CSVFinalExporter) Export(ctx context.Context, assignmentID string, opts exporter.Options, writer io.Writer) error {
	table, err := common.FetchFinalTable(ctx, e.db, e.builder, assignmentID, opts.IncludeElapsed)
	if err != nil {
		return fmt.Errorf("csv exporter fetch table failed: %w", err)
	}

	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = Separator

	if err = csvWriter.Write(table.Header); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}
	if err = csvWriter.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("write records failed: %w", err)
	}
	return nil
}
