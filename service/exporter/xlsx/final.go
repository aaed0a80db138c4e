package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/service/exporter"
	"github.com/to404hanga/submission_controller/service/exporter/common"
	"github.com/to404hanga/submission_controller/service/report"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// SheetName 导出的工作表名
const SheetName = "Final submissions"

type XLSXFinalExporter struct {
	log     loggerv2.Logger
	db      *gorm.DB
	builder report.Builder
}

var _ exporter.FinalExporter = (*XLSXFinalExporter)(nil)

func NewXLSXFinalExporter(db *gorm.DB, builder report.Builder, log loggerv2.Logger) *XLSXFinalExporter {
	return &XLSXFinalExporter{
		db:      db,
		builder: builder,
		log:     log,
	}
}

func (e *XLSXFinalExporter) Export(ctx context.Context, assignmentID string, opts exporter.Options, writer io.Writer) error {
	table, err := common.FetchFinalTable(ctx, e.db, e.builder, assignmentID, opts.IncludeElapsed)
	if err != nil {
		return fmt.Errorf("xlsx exporter fetch table failed: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.ErrorContext(ctx, "close excel file failed", logger.Error(err))
		}
	}()

	// 新文件自带一个默认工作表, 直接改名使用
	if err = f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet failed: %w", err)
	}

	if err = e.writeHeader(f, table.Header); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("get cell name failed: %w", err)
		}
		values := make([]interface{}, 0, len(row))
		for _, v := range row {
			values = append(values, v)
		}
		if err = f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("set row failed: %w", err)
		}
	}

	if err = f.Write(writer); err != nil {
		return fmt.Errorf("write excel file failed: %w", err)
	}
	return nil
}

// writeHeader 写入表头并设置样式与列宽
func (e *XLSXFinalExporter) writeHeader(f *excelize.File, header []string) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style failed: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("get cell name failed: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, name); err != nil {
			return fmt.Errorf("set header value failed: %w", err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style failed: %w", err)
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("get column name failed: %w", err)
		}
		if err := f.SetColWidth(SheetName, colName, colName, 18); err != nil {
			return fmt.Errorf("set column width failed: %w", err)
		}
	}
	return nil
}
