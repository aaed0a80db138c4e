package repository

import (
	"context"
	"fmt"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
	"gorm.io/gorm"
)

type GitSubmissionRepository interface {
	FindByID(ctx context.Context, id uint64) (option.Option[*entity.GitSubmission], error)
	FindByStudent(ctx context.Context, assignmentID, studentID string) (option.Option[*entity.GitSubmission], error)
	// FindByStudents 作业下属于给定学生的全部 git 提交
	FindByStudents(ctx context.Context, assignmentID string, studentIDs []string) ([]entity.GitSubmission, error)
	// FindConnectedByGroup 小组在作业下已连接的 git 提交
	FindConnectedByGroup(ctx context.Context, assignmentID string, groupID uint64) (option.Option[*entity.GitSubmission], error)
	Create(ctx context.Context, g *entity.GitSubmission) error
	Save(ctx context.Context, g *entity.GitSubmission) error
	Updates(ctx context.Context, id uint64, columns map[string]any) error
	Delete(ctx context.Context, ids ...uint64) error
	// ListConnectedOfActiveAssignments 进行中作业的已连接 git 提交
	ListConnectedOfActiveAssignments(ctx context.Context) ([]entity.GitSubmission, error)
	WithTx(tx *gorm.DB) GitSubmissionRepository
}

type GormGitSubmissionRepository struct {
	db *gorm.DB
}

var _ GitSubmissionRepository = (*GormGitSubmissionRepository)(nil)

func NewGitSubmissionRepository(db *gorm.DB) GitSubmissionRepository {
	return &GormGitSubmissionRepository{db: db}
}

func (r *GormGitSubmissionRepository) WithTx(tx *gorm.DB) GitSubmissionRepository {
	return &GormGitSubmissionRepository{db: tx}
}

func (r *GormGitSubmissionRepository) FindByID(ctx context.Context, id uint64) (option.Option[*entity.GitSubmission], error) {
	opt, err := first[entity.GitSubmission](r.db.WithContext(ctx).Where("id = ?", id))
	if err != nil {
		return opt, fmt.Errorf("FindByID failed at query git submission: %w", err)
	}
	return opt, nil
}

func (r *GormGitSubmissionRepository) FindByStudent(ctx context.Context, assignmentID, studentID string) (option.Option[*entity.GitSubmission], error) {
	opt, err := first[entity.GitSubmission](r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("submitter_student_id = ?", studentID))
	if err != nil {
		return opt, fmt.Errorf("FindByStudent failed at query git submission: %w", err)
	}
	return opt, nil
}

func (r *GormGitSubmissionRepository) FindByStudents(ctx context.Context, assignmentID string, studentIDs []string) ([]entity.GitSubmission, error) {
	var list []entity.GitSubmission
	if len(studentIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("submitter_student_id IN ?", studentIDs).
		Order("id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("FindByStudents failed at query git submissions: %w", err)
	}
	return list, nil
}

func (r *GormGitSubmissionRepository) FindConnectedByGroup(ctx context.Context, assignmentID string, groupID uint64) (option.Option[*entity.GitSubmission], error) {
	opt, err := first[entity.GitSubmission](r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("group_id = ?", groupID).
		Where("connected = ?", true))
	if err != nil {
		return opt, fmt.Errorf("FindConnectedByGroup failed at query git submission: %w", err)
	}
	return opt, nil
}

func (r *GormGitSubmissionRepository) Create(ctx context.Context, g *entity.GitSubmission) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("Create failed at insert git submission: %w", err)
	}
	return nil
}

func (r *GormGitSubmissionRepository) Save(ctx context.Context, g *entity.GitSubmission) error {
	if err := r.db.WithContext(ctx).Save(g).Error; err != nil {
		return fmt.Errorf("Save failed at update git submission: %w", err)
	}
	return nil
}

func (r *GormGitSubmissionRepository) Updates(ctx context.Context, id uint64, columns map[string]any) error {
	err := r.db.WithContext(ctx).Model(&entity.GitSubmission{}).Where("id = ?", id).Updates(columns).Error
	if err != nil {
		return fmt.Errorf("Updates failed at update git submission: %w", err)
	}
	return nil
}

func (r *GormGitSubmissionRepository) Delete(ctx context.Context, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.GitSubmission{}).Error; err != nil {
		return fmt.Errorf("Delete failed at delete git submissions: %w", err)
	}
	return nil
}

func (r *GormGitSubmissionRepository) ListConnectedOfActiveAssignments(ctx context.Context) ([]entity.GitSubmission, error) {
	var list []entity.GitSubmission
	err := r.db.WithContext(ctx).
		Joins("JOIN assignment ON assignment.id = git_submission.assignment_id").
		Where("git_submission.connected = ?", true).
		Where("assignment.active = ?", true).
		Where("assignment.archived = ?", false).
		Order("git_submission.id asc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("ListConnectedOfActiveAssignments failed at query git submissions: %w", err)
	}
	return list, nil
}
