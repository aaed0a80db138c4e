package factory

import (
	"sync"

	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/service/exporter"
	"github.com/to404hanga/submission_controller/service/exporter/csv"
	"github.com/to404hanga/submission_controller/service/exporter/xlsx"
	"github.com/to404hanga/submission_controller/service/report"
	"gorm.io/gorm"
)

type ExporterType string

const (
	CSVFinalExporter  ExporterType = "csv"
	XLSXFinalExporter ExporterType = "xlsx"
)

var ExporterSuffixMap = map[ExporterType]string{
	CSVFinalExporter:  ".csv",
	XLSXFinalExporter: ".xlsx",
}

var ExporterContentTypeMap = map[ExporterType]string{
	CSVFinalExporter:  "text/csv; charset=utf-8",
	XLSXFinalExporter: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type ExporterFactory struct {
	factory map[ExporterType]exporter.FinalExporter
	db      *gorm.DB
	builder report.Builder
	log     loggerv2.Logger
	mux     sync.RWMutex
}

func NewExporterFactory(db *gorm.DB, builder report.Builder, log loggerv2.Logger) *ExporterFactory {
	return &ExporterFactory{
		factory: make(map[ExporterType]exporter.FinalExporter), // 延迟创建
		db:      db,
		builder: builder,
		log:     log,
	}
}

// GetExporter 未知类型返回 nil
func (f *ExporterFactory) GetExporter(exporterType ExporterType) exporter.FinalExporter {
	f.mux.RLock()
	if exp, exists := f.factory[exporterType]; exists {
		f.mux.RUnlock()
		return exp
	}
	f.mux.RUnlock()

	f.mux.Lock()
	defer f.mux.Unlock()

	// 双重检查, 避免重复创建
	if exp, exists := f.factory[exporterType]; exists {
		return exp
	}

	switch exporterType {
	case CSVFinalExporter:
		f.factory[CSVFinalExporter] = csv.NewCSVFinalExporter(f.db, f.builder, f.log)
		return f.factory[CSVFinalExporter]
	case XLSXFinalExporter:
		f.factory[XLSXFinalExporter] = xlsx.NewXLSXFinalExporter(f.db, f.builder, f.log)
		return f.factory[XLSXFinalExporter]
	}

	return nil
}
