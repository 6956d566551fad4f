package db

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_swab_tracker/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 防止畸形输入导致逐日插入失控（10 年上限，远超任何 swab 的寿命）
const maxRangeDays = 3650

const dayLayout = "2006-01-02"

func dayKey(t time.Time) string { return t.Format(dayLayout) }

// 只保留年月日；统一挂到 UTC 上，后面做纯 24h 整倍数的差值
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 按自然日数，含两端：同一天 => 1
func calendarDaysBetween(start, end time.Time) int {
	return int(dateOnly(end).Sub(dateOnly(start)).Hours()/24) + 1
}

// OpenTakenTs 当前打开的 session 的 taken_ts，没有则 nil
func (r *Repo) OpenTakenTs(ctx context.Context, swabID string) (*time.Time, error) {
	var sess models.UsageSession
	err := r.DB.WithContext(ctx).
		Where("swab_id = ? AND returned_ts IS NULL", swabID).
		Order("taken_ts DESC").
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess.TakenTs, nil
}

// CurrentDays 连续占用天数：有 open session 时 = (now.date - taken.date) + 1，否则 0
func (r *Repo) CurrentDays(ctx context.Context, swabID string, now time.Time) (int, error) {
	ot, err := r.OpenTakenTs(ctx, swabID)
	if err != nil {
		return 0, err
	}
	if ot == nil {
		return 0, nil
	}
	return calendarDaysBetween(*ot, now), nil
}

// TotalUniqueDays 历史唯一使用日总数（集合大小，跟当天碰了几次无关）
func (r *Repo) TotalUniqueDays(ctx context.Context, swabID string) (int, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.UsageDay{}).
		Where("swab_id = ?", swabID).
		Count(&n).Error
	return int(n), err
}

// 并集语义：重复插入靠 UNIQUE(swab_id, day) + DO NOTHING 吸收，返回真正新增的条数
// end 在 start 之前时循环不进入（插 0 条），范围校验由公开入口负责
func addUsageDaysTx(tx *gorm.DB, swabID string, start, end time.Time) (int, error) {
	a := dateOnly(start)
	b := dateOnly(end)
	if b.Sub(a) > maxRangeDays*24*time.Hour {
		return 0, ErrInvalidRange
	}
	added := 0
	for cur := a; !cur.After(b); cur = cur.AddDate(0, 0, 1) {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UsageDay{SwabID: swabID, Day: dayKey(cur)})
		if res.Error != nil {
			return added, res.Error
		}
		added += int(res.RowsAffected)
	}
	return added, nil
}

// AddUsageDaysForRange 手工补录 [startDate, endDate]（含两端），幂等
// end 在 start 之前按 ErrInvalidRange 拒绝，不再静默当 0 处理
func (r *Repo) AddUsageDaysForRange(ctx context.Context, swabID string, startDate, endDate time.Time) (int, error) {
	if dateOnly(endDate).Before(dateOnly(startDate)) {
		return 0, ErrInvalidRange
	}
	if _, err := r.FindSwabByID(ctx, swabID); err != nil {
		return 0, err
	}
	added := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		added, err = addUsageDaysTx(tx, swabID, startDate, endDate)
		return err
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
