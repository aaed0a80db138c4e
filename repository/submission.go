package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	FindByID(ctx context.Context, id uint64) (option.Option[*entity.Submission], error)
	Create(ctx context.Context, s *entity.Submission) error
	// Updates 按列更新
	Updates(ctx context.Context, id uint64, columns map[string]any) error
	// SetStructureErrors 保存结构校验错误
	SetStructureErrors(ctx context.Context, id uint64, structureErrors []string) error
	// CompareAndSetStatus 仅当当前状态属于 from 时更新, 返回是否更新成功
	CompareAndSetStatus(ctx context.Context, id uint64, from []entity.SubmissionStatus, columns map[string]any) (bool, error)
	// CountByStatus 统计 (小组, 作业) 下处于某状态的提交数
	CountByStatus(ctx context.Context, assignmentID string, groupID uint64, status entity.SubmissionStatus) (int64, error)
	// FindLatest 小组在作业下最近一次未删除的提交
	FindLatest(ctx context.Context, assignmentID string, groupID uint64) (option.Option[*entity.Submission], error)
	// FindLatestBySubmitter 提交人在作业下最近一次未删除的提交
	FindLatestBySubmitter(ctx context.Context, assignmentID, submitterID string) (option.Option[*entity.Submission], error)
	ListByGroup(ctx context.Context, assignmentID string, groupID uint64) ([]entity.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]entity.Submission, error)
	ListFinal(ctx context.Context, assignmentID string) ([]entity.Submission, error)
	// ListLatestPerGroup 每个小组最近一次未删除的提交
	ListLatestPerGroup(ctx context.Context, assignmentID string) ([]entity.Submission, error)
	// ClearFinal 清除 (小组, 作业) 下除 exceptID 外的最终提交标记
	ClearFinal(ctx context.Context, assignmentID string, groupID, exceptID uint64) error
	// ListFoldersInUse 仍在构建中的提交引用的目录
	ListFoldersInUse(ctx context.Context) ([]string, error)
	// ListFoldersOfAssignments 指定作业下提交引用的目录
	ListFoldersOfAssignments(ctx context.Context, assignmentIDs []string) ([]string, error)
	// CountActive 作业下未删除的提交数
	CountActive(ctx context.Context, assignmentID string) (int64, error)
	WithTx(tx *gorm.DB) SubmissionRepository
}

type GormSubmissionRepository struct {
	db *gorm.DB
}

var _ SubmissionRepository = (*GormSubmissionRepository)(nil)

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &GormSubmissionRepository{db: db}
}

func (r *GormSubmissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	return &GormSubmissionRepository{db: tx}
}

func (r *GormSubmissionRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entity.Submission{}).Where("status <> ?", entity.StatusDeleted)
}

func (r *GormSubmissionRepository) FindByID(ctx context.Context, id uint64) (option.Option[*entity.Submission], error) {
	opt, err := first[entity.Submission](r.db.WithContext(ctx).Where("id = ?", id))
	if err != nil {
		return opt, fmt.Errorf("FindByID failed at query submission: %w", err)
	}
	return opt, nil
}

func (r *GormSubmissionRepository) Create(ctx context.Context, s *entity.Submission) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("Create failed at insert submission: %w", err)
	}
	return nil
}

func (r *GormSubmissionRepository) Updates(ctx context.Context, id uint64, columns map[string]any) error {
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).Where("id = ?", id).Updates(columns).Error
	if err != nil {
		return fmt.Errorf("Updates failed at update submission: %w", err)
	}
	return nil
}

func (r *GormSubmissionRepository) SetStructureErrors(ctx context.Context, id uint64, structureErrors []string) error {
	err := r.db.WithContext(ctx).Model(&entity.Submission{ID: id}).
		Select("structure_errors").
		Updates(&entity.Submission{StructureErrors: structureErrors}).Error
	if err != nil {
		return fmt.Errorf("SetStructureErrors failed at update submission: %w", err)
	}
	return nil
}

func (r *GormSubmissionRepository) CompareAndSetStatus(ctx context.Context, id uint64, from []entity.SubmissionStatus, columns map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Updates(columns)
	if res.Error != nil {
		return false, fmt.Errorf("CompareAndSetStatus failed at update submission: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSubmissionRepository) CountByStatus(ctx context.Context, assignmentID string, groupID uint64, status entity.SubmissionStatus) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Where("group_id = ?", groupID).
		Where("status = ?", status).
		Count(&cnt).Error
	if err != nil {
		return 0, fmt.Errorf("CountByStatus failed at count submissions: %w", err)
	}
	return cnt, nil
}

func (r *GormSubmissionRepository) FindLatest(ctx context.Context, assignmentID string, groupID uint64) (option.Option[*entity.Submission], error) {
	opt, err := first[entity.Submission](r.active(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("group_id = ?", groupID).
		Order("submission_date desc, id desc"))
	if err != nil {
		return opt, fmt.Errorf("FindLatest failed at query submission: %w", err)
	}
	return opt, nil
}

func (r *GormSubmissionRepository) FindLatestBySubmitter(ctx context.Context, assignmentID, submitterID string) (option.Option[*entity.Submission], error) {
	opt, err := first[entity.Submission](r.active(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("submitter_id = ?", submitterID).
		Order("submission_date desc, id desc"))
	if err != nil {
		return opt, fmt.Errorf("FindLatestBySubmitter failed at query submission: %w", err)
	}
	return opt, nil
}

func (r *GormSubmissionRepository) ListByGroup(ctx context.Context, assignmentID string, groupID uint64) ([]entity.Submission, error) {
	var list []entity.Submission
	err := r.active(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("group_id = ?", groupID).
		Order("submission_date desc, id desc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("ListByGroup failed at query submissions: %w", err)
	}
	return list, nil
}

func (r *GormSubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]entity.Submission, error) {
	var list []entity.Submission
	err := r.active(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submission_date desc, id desc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("ListByAssignment failed at query submissions: %w", err)
	}
	return list, nil
}

func (r *GormSubmissionRepository) ListFinal(ctx context.Context, assignmentID string) ([]entity.Submission, error) {
	var list []entity.Submission
	err := r.active(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("marked_as_final = ?", true).
		Order("group_id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("ListFinal failed at query submissions: %w", err)
	}
	return list, nil
}

func (r *GormSubmissionRepository) ListLatestPerGroup(ctx context.Context, assignmentID string) ([]entity.Submission, error) {
	var list []entity.Submission
	err := r.active(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("group_id asc, submission_date desc, id desc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("ListLatestPerGroup failed at query submissions: %w", err)
	}
	latest := make([]entity.Submission, 0)
	seen := make(map[uint64]struct{})
	for _, s := range list {
		if _, ok := seen[s.GroupID]; ok {
			continue
		}
		seen[s.GroupID] = struct{}{}
		latest = append(latest, s)
	}
	return latest, nil
}

func (r *GormSubmissionRepository) ClearFinal(ctx context.Context, assignmentID string, groupID, exceptID uint64) error {
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Where("group_id = ?", groupID).
		Where("id <> ?", exceptID).
		Where("marked_as_final = ?", true).
		Update("marked_as_final", false).Error
	if err != nil {
		return fmt.Errorf("ClearFinal failed at update submissions: %w", err)
	}
	return nil
}

func (r *GormSubmissionRepository) ListFoldersInUse(ctx context.Context) ([]string, error) {
	var folders []string
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("status IN ?", entity.InFlightStatuses()).
		Where("submission_folder <> ''").
		Distinct().
		Pluck("submission_folder", &folders).Error
	if err != nil {
		return nil, fmt.Errorf("ListFoldersInUse failed at query submissions: %w", err)
	}
	return folders, nil
}

func (r *GormSubmissionRepository) ListFoldersOfAssignments(ctx context.Context, assignmentIDs []string) ([]string, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	var folders []string
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("assignment_id IN ?", assignmentIDs).
		Where("submission_folder <> ''").
		Distinct().
		Pluck("submission_folder", &folders).Error
	if err != nil {
		return nil, fmt.Errorf("ListFoldersOfAssignments failed at query submissions: %w", err)
	}
	return folders, nil
}

func (r *GormSubmissionRepository) CountActive(ctx context.Context, assignmentID string) (int64, error) {
	var cnt int64
	if err := r.active(ctx).Where("assignment_id = ?", assignmentID).Count(&cnt).Error; err != nil {
		return 0, fmt.Errorf("CountActive failed at count submissions: %w", err)
	}
	return cnt, nil
}

// StatusColumns 状态变更需要更新的列
func StatusColumns(status entity.SubmissionStatus, now time.Time, touchDate bool) map[string]any {
	cols := map[string]any{"status": status}
	if touchDate {
		cols["status_date"] = now
	}
	return cols
}
