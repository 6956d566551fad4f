// db/repo_swabs_admin.go
package db

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_swab_tracker/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateSwab 新增一支 swab 并预置“在库”状态行
func (r *Repo) CreateSwab(ctx context.Context, sw *models.Swab) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sw).Error; err != nil {
			return err
		}
		return setStateTx(tx, sw.ID, true, nil, time.Now().UTC())
	})
}

// UpdateSwab 管理员修正名称/SKU（SKU 冲突由唯一索引挡住）
func (r *Repo) UpdateSwab(ctx context.Context, id, name, sku string) (*models.Swab, error) {
	var sw models.Swab
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sw, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Swab{}).
			Where("id = ?", id).
			Updates(map[string]any{"name": name, "sku": sku}).Error; err != nil {
			return err
		}
		sw.Name = name
		sw.SKU = sku
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sw, nil
}

// DeleteSwab 被借走的不允许删，先还回来
// 删除时从属行（状态/流水/session/使用日）一并带走
func (r *Repo) DeleteSwab(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sw models.Swab
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sw, "id = ?", id).Error; err != nil {
			return err
		}

		var st models.SwabState
		err := tx.First(&st, "swab_id = ?", id).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && !st.InStock {
			return ErrSwabTaken
		}

		for _, m := range []any{
			&models.SwabState{}, &models.Movement{}, &models.UsageSession{}, &models.UsageDay{},
		} {
			if err := tx.Where("swab_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Swab{}, "id = ?", id).Error
	})
}
