package repository

import (
	"context"
	"fmt"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
	"gorm.io/gorm"
)

type ReportRepository interface {
	// Append 追加指标结果
	Append(ctx context.Context, reports []entity.SubmissionReport) error
	FindBySubmission(ctx context.Context, submissionID uint64) ([]entity.SubmissionReport, error)
	FindBySubmissions(ctx context.Context, submissionIDs []uint64) (map[uint64][]entity.SubmissionReport, error)
	CreateBuildReport(ctx context.Context, br *entity.BuildReport) error
	FindBuildReport(ctx context.Context, id uint64) (option.Option[*entity.BuildReport], error)
	WithTx(tx *gorm.DB) ReportRepository
}

type GormReportRepository struct {
	db *gorm.DB
}

var _ ReportRepository = (*GormReportRepository)(nil)

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &GormReportRepository{db: db}
}

func (r *GormReportRepository) WithTx(tx *gorm.DB) ReportRepository {
	return &GormReportRepository{db: tx}
}

func (r *GormReportRepository) Append(ctx context.Context, reports []entity.SubmissionReport) error {
	if len(reports) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&reports).Error; err != nil {
		return fmt.Errorf("Append failed at insert reports: %w", err)
	}
	return nil
}

func (r *GormReportRepository) FindBySubmission(ctx context.Context, submissionID uint64) ([]entity.SubmissionReport, error) {
	var list []entity.SubmissionReport
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("FindBySubmission failed at query reports: %w", err)
	}
	return list, nil
}

func (r *GormReportRepository) FindBySubmissions(ctx context.Context, submissionIDs []uint64) (map[uint64][]entity.SubmissionReport, error) {
	out := make(map[uint64][]entity.SubmissionReport, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return out, nil
	}
	var list []entity.SubmissionReport
	err := r.db.WithContext(ctx).
		Where("submission_id IN ?", submissionIDs).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("FindBySubmissions failed at query reports: %w", err)
	}
	for _, rep := range list {
		out[rep.SubmissionID] = append(out[rep.SubmissionID], rep)
	}
	return out, nil
}

func (r *GormReportRepository) CreateBuildReport(ctx context.Context, br *entity.BuildReport) error {
	if err := r.db.WithContext(ctx).Create(br).Error; err != nil {
		return fmt.Errorf("CreateBuildReport failed at insert build report: %w", err)
	}
	return nil
}

func (r *GormReportRepository) FindBuildReport(ctx context.Context, id uint64) (option.Option[*entity.BuildReport], error) {
	opt, err := first[entity.BuildReport](r.db.WithContext(ctx).Where("id = ?", id))
	if err != nil {
		return opt, fmt.Errorf("FindBuildReport failed at query build report: %w", err)
	}
	return opt, nil
}
