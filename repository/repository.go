package repository

import (
	"context"
	"errors"

	"github.com/to404hanga/submission_controller/pkg/option"
	"gorm.io/gorm"
)

// Transaction 在事务中执行 fn
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// first 查询单条记录, 记录不存在时返回 None
func first[T any](q *gorm.DB) (option.Option[*T], error) {
	var v T
	err := q.First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return option.None[*T](), nil
	}
	if err != nil {
		return option.None[*T](), err
	}
	return option.Some(&v), nil
}
