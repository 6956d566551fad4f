package db

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_swab_tracker/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CurrentState 对外的状态快照；没有任何行时给合成默认值（在库、无机器、无时间戳）
type CurrentState struct {
	SwabID    string     `json:"swabId"`
	InStock   bool       `json:"inStock"`
	MachineID *string    `json:"machineId,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ReturnResult RETURN 的结果：新状态 + 本次 session 跨了几天 + 新增了几条唯一使用日
type ReturnResult struct {
	State           CurrentState `json:"state"`
	DaysSession     *int         `json:"daysSession,omitempty"`
	AddedUniqueDays int          `json:"addedUniqueDays"`
}

func (r *Repo) GetState(ctx context.Context, swabID string) (*CurrentState, error) {
	var st models.SwabState
	err := r.DB.WithContext(ctx).First(&st, "swab_id = ?", swabID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CurrentState{SwabID: swabID, InStock: true}, nil
	}
	if err != nil {
		return nil, err
	}
	u := st.UpdatedAt
	return &CurrentState{SwabID: swabID, InStock: st.InStock, MachineID: st.MachineID, UpdatedAt: &u}, nil
}

// 状态行懒创建，所以写入走 upsert
func setStateTx(tx *gorm.DB, swabID string, inStock bool, machineID *string, ts time.Time) error {
	if inStock {
		machineID = nil
	}
	st := models.SwabState{SwabID: swabID, InStock: inStock, MachineID: machineID, UpdatedAt: ts}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "swab_id"}},
		UpdateAll: true,
	}).Create(&st).Error
}

// RecordTake 借出：原子操作 = 锁住 swab 行 → 校验在库 → 写状态 + TAKE 流水 + 开 session
// 已被借走时拒绝（不做静默换机器）
func (r *Repo) RecordTake(ctx context.Context, swabID, machineID string, ts time.Time, note *string) (*CurrentState, error) {
	var out *CurrentState
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 锁住这支 swab，所有转换串行化到这一行上
		var sw models.Swab
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sw, "id = ?", swabID).Error; err != nil {
			return err
		}
		if err := tx.First(&models.Machine{}, "id = ?", machineID).Error; err != nil {
			return err
		}

		// 2) 锁内重读状态：必须在库
		var st models.SwabState
		err := tx.First(&st, "swab_id = ?", swabID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && !st.InStock {
			return ErrInvalidTransition
		}
		var n int64
		if err := tx.Model(&models.UsageSession{}).
			Where("swab_id = ? AND returned_ts IS NULL", swabID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrInvalidTransition
		}

		// 3) 状态 + 流水 + 新 session，一个都不能少
		if err := setStateTx(tx, swabID, false, &machineID, ts); err != nil {
			return err
		}
		mv := models.Movement{SwabID: swabID, Action: models.ActionTake, MachineID: &machineID, Ts: ts, Note: note}
		if err := tx.Create(&mv).Error; err != nil {
			return err
		}
		sess := models.UsageSession{SwabID: swabID, TakenTs: ts}
		if err := tx.Create(&sess).Error; err != nil {
			return err
		}

		out = &CurrentState{SwabID: swabID, InStock: false, MachineID: &machineID, UpdatedAt: &ts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordReturn 归还：原子操作 = 锁住 swab 行 → 校验被借走 → 关最近的 open session
// → 把 [taken, ts] 覆盖的自然日并进 usage_days → 状态回在库 + RETURN 流水
func (r *Repo) RecordReturn(ctx context.Context, swabID string, ts time.Time, note *string) (*ReturnResult, error) {
	var out *ReturnResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sw models.Swab
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sw, "id = ?", swabID).Error; err != nil {
			return err
		}

		var st models.SwabState
		err := tx.First(&st, "swab_id = ?", swabID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && st.InStock) {
			return ErrInvalidTransition
		}
		if err != nil {
			return err
		}

		res := ReturnResult{AddedUniqueDays: 0}

		var sess models.UsageSession
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("swab_id = ? AND returned_ts IS NULL", swabID).
			Order("taken_ts DESC").
			First(&sess).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			if err := tx.Model(&models.UsageSession{}).
				Where("id = ?", sess.ID).
				Update("returned_ts", ts).Error; err != nil {
				return err
			}
			days := calendarDaysBetween(sess.TakenTs, ts)
			if days > 0 {
				res.DaysSession = &days
			}
			added, err := addUsageDaysTx(tx, swabID, sess.TakenTs, ts)
			if err != nil {
				return err
			}
			res.AddedUniqueDays = added
		}

		if err := setStateTx(tx, swabID, true, nil, ts); err != nil {
			return err
		}
		mv := models.Movement{SwabID: swabID, Action: models.ActionReturn, Ts: ts, Note: note}
		if err := tx.Create(&mv).Error; err != nil {
			return err
		}

		res.State = CurrentState{SwabID: swabID, InStock: true, UpdatedAt: &ts}
		out = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
