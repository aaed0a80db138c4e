package repository

import (
	"context"
	"fmt"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository interface {
	// FindOrCreate 根据作者集合查找小组, 不存在时创建
	FindOrCreate(ctx context.Context, authors []entity.Author) (*entity.ProjectGroup, error)
	FindByID(ctx context.Context, id uint64) (option.Option[*entity.ProjectGroup], error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*entity.ProjectGroup, error)
	// FindIDsByStudent 学生所在的全部小组
	FindIDsByStudent(ctx context.Context, studentID string) ([]uint64, error)
	WithTx(tx *gorm.DB) GroupRepository
}

type GormGroupRepository struct {
	db *gorm.DB
}

var _ GroupRepository = (*GormGroupRepository)(nil)

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

func (r *GormGroupRepository) WithTx(tx *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: tx}
}

func (r *GormGroupRepository) FindOrCreate(ctx context.Context, authors []entity.Author) (*entity.ProjectGroup, error) {
	key := entity.AuthorsKey(authors)
	var group entity.ProjectGroup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "authors_key"}},
			DoNothing: true,
		}).Create(&entity.ProjectGroup{AuthorsKey: key}).Error
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		if err = tx.Where("authors_key = ?", key).First(&group).Error; err != nil {
			return fmt.Errorf("reread group: %w", err)
		}

		members := make([]entity.GroupMember, 0, len(authors))
		for _, a := range authors {
			members = append(members, entity.GroupMember{GroupID: group.ID, StudentID: a.StudentID, Name: a.Name})
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).Create(&members).Error
		if err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		return tx.Where("group_id = ?", group.ID).Order("student_id").Find(&group.Members).Error
	})
	if err != nil {
		return nil, fmt.Errorf("FindOrCreate failed at transaction: %w", err)
	}
	return &group, nil
}

func (r *GormGroupRepository) FindByID(ctx context.Context, id uint64) (option.Option[*entity.ProjectGroup], error) {
	opt, err := first[entity.ProjectGroup](r.db.WithContext(ctx).Preload("Members").Where("id = ?", id))
	if err != nil {
		return opt, fmt.Errorf("FindByID failed at query group: %w", err)
	}
	return opt, nil
}

func (r *GormGroupRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*entity.ProjectGroup, error) {
	out := make(map[uint64]*entity.ProjectGroup, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var groups []entity.ProjectGroup
	err := r.db.WithContext(ctx).Preload("Members").Where("id IN ?", ids).Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("FindByIDs failed at query groups: %w", err)
	}
	for i := range groups {
		out[groups[i].ID] = &groups[i]
	}
	return out, nil
}

func (r *GormGroupRepository) FindIDsByStudent(ctx context.Context, studentID string) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&entity.GroupMember{}).
		Where("student_id = ?", studentID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("FindIDsByStudent failed at query members: %w", err)
	}
	return ids, nil
}
