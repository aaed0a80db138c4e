package repository

import (
	"context"
	"fmt"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	FindByID(ctx context.Context, id string) (option.Option[*entity.Assignment], error)
	Create(ctx context.Context, a *entity.Assignment) error
	Save(ctx context.Context, a *entity.Assignment) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Assignment, error)
	WithTx(tx *gorm.DB) AssignmentRepository
}

type GormAssignmentRepository struct {
	db *gorm.DB
}

var _ AssignmentRepository = (*GormAssignmentRepository)(nil)

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

func (r *GormAssignmentRepository) WithTx(tx *gorm.DB) AssignmentRepository {
	return &GormAssignmentRepository{db: tx}
}

func (r *GormAssignmentRepository) FindByID(ctx context.Context, id string) (option.Option[*entity.Assignment], error) {
	opt, err := first[entity.Assignment](r.db.WithContext(ctx).Where("id = ?", id))
	if err != nil {
		return opt, fmt.Errorf("FindByID failed at query assignment: %w", err)
	}
	return opt, nil
}

func (r *GormAssignmentRepository) Create(ctx context.Context, a *entity.Assignment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("Create failed at insert assignment: %w", err)
	}
	return nil
}

func (r *GormAssignmentRepository) Save(ctx context.Context, a *entity.Assignment) error {
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("Save failed at update assignment: %w", err)
	}
	return nil
}

func (r *GormAssignmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Assignment, error) {
	var list []entity.Assignment
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("ListByOwner failed at query assignments: %w", err)
	}
	return list, nil
}
