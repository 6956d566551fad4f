// db/repo_overview.go
package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_swab_tracker/models"
)

// OverviewRow 操作台列表的一行：身份 + 当前状态 + 计算指标 + 阈值标记 + 最近动向
type OverviewRow struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	InStock   bool      `json:"inStock"`
	UpdatedAt time.Time `json:"updatedAt"`

	MachineID   *string `json:"machineId,omitempty"`
	MachineName *string `json:"machineName,omitempty"`

	OpenTakenTs  *time.Time `json:"openTakenTs,omitempty" gorm:"-"`
	CurrentDays  int        `json:"currentDays" gorm:"-"`
	TotalDays    int        `json:"totalDays" gorm:"-"`
	Warning      bool       `json:"warning" gorm:"-"`
	Alarm        bool       `json:"alarm" gorm:"-"`
	LastTakeTs   *time.Time `json:"lastTakeTs,omitempty"`
	LastReturnTs *time.Time `json:"lastReturnTs,omitempty"`
}

// ListOverview 先一把查出基础行（状态 + 机器 + 最近 TAKE/RETURN 时间），
// 再逐支算连续天数 / 唯一天数并打阈值标记
// q 非空时按 swab 名或所在机器名做不区分大小写的子串过滤；按名字排序
func (r *Repo) ListOverview(ctx context.Context, q string, now time.Time) ([]OverviewRow, models.Thresholds, error) {
	th, err := r.GetThresholds(ctx)
	if err != nil {
		return nil, models.Thresholds{}, err
	}

	qry := r.DB.WithContext(ctx).
		Table(models.SwabTable+" s").
		Select(`
			s.id, s.sku, s.name,
			COALESCE(st.in_stock, TRUE) AS in_stock,
			COALESCE(st.updated_at, s.created_at) AS updated_at,
			st.machine_id,
			mc.name AS machine_name,
			(SELECT mv.ts FROM `+models.MovementTable+` mv WHERE mv.swab_id = s.id AND mv.action = 'TAKE' ORDER BY mv.ts DESC LIMIT 1) AS last_take_ts,
			(SELECT mv.ts FROM `+models.MovementTable+` mv WHERE mv.swab_id = s.id AND mv.action = 'RETURN' ORDER BY mv.ts DESC LIMIT 1) AS last_return_ts
		`).
		Joins("LEFT JOIN " + models.StateTable + " st ON st.swab_id = s.id").
		Joins("LEFT JOIN " + models.MachineTable + " mc ON mc.id = st.machine_id")

	if s := strings.TrimSpace(q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(s.name) LIKE ? OR LOWER(mc.name) LIKE ?", pat, pat)
	}
	qry = qry.Order("LOWER(s.name)")

	// 没有任何 swab 时序列化成 []，不是 null
	rows := []OverviewRow{}
	if err := qry.Scan(&rows).Error; err != nil {
		return nil, models.Thresholds{}, err
	}

	for i := range rows {
		ot, err := r.OpenTakenTs(ctx, rows[i].ID)
		if err != nil {
			return nil, models.Thresholds{}, err
		}
		rows[i].OpenTakenTs = ot
		if ot != nil {
			rows[i].CurrentDays = calendarDaysBetween(*ot, now)
		}
		total, err := r.TotalUniqueDays(ctx, rows[i].ID)
		if err != nil {
			return nil, models.Thresholds{}, err
		}
		rows[i].TotalDays = total
		rows[i].Warning, rows[i].Alarm = th.Evaluate(rows[i].CurrentDays, total)
	}
	return rows, th, nil
}

// HistoryRow 最近动向流水（带 swab 和机器名）
type HistoryRow struct {
	Ts          time.Time `json:"ts"`
	Action      string    `json:"action"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Note        string    `json:"note"`
	MachineName *string   `json:"machineName,omitempty"`
}

func (r *Repo) ListHistory(ctx context.Context, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = 150
	}
	if limit > 500 {
		limit = 500
	}
	var rows []HistoryRow
	err := r.DB.WithContext(ctx).
		Table(models.MovementTable+" mv").
		Select(`
			mv.ts, mv.action,
			sw.sku, sw.name,
			COALESCE(mv.note, '') AS note,
			mc.name AS machine_name
		`).
		Joins("JOIN "+models.SwabTable+" sw ON sw.id = mv.swab_id").
		Joins("LEFT JOIN "+models.MachineTable+" mc ON mc.id = mv.machine_id").
		Order("mv.ts DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
