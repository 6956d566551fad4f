package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"Gin_postgres_redis_swab_tracker/db"
	"Gin_postgres_redis_swab_tracker/dbtest"
	"Gin_postgres_redis_swab_tracker/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *db.Repo {
	t.Helper()
	g := dbtest.Open(t)
	dbtest.Reset(t, g)
	return db.NewRepo(g)
}

func seedSwab(t *testing.T, r *db.Repo, name, sku string) *models.Swab {
	t.Helper()
	sw := &models.Swab{ID: uuid.NewString(), SKU: sku, Name: name}
	require.NoError(t, r.CreateSwab(context.Background(), sw))
	return sw
}

func seedMachine(t *testing.T, r *db.Repo, name string) *models.Machine {
	t.Helper()
	m := &models.Machine{ID: uuid.NewString(), Name: name}
	require.NoError(t, r.CreateMachine(context.Background(), m))
	return m
}

func TestTakeReturnCycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	sw := seedSwab(t, r, "Tupfer A", "SW-0001")
	m := seedMachine(t, r, "Fräse 3")

	taken := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	st, err := r.RecordTake(ctx, sw.ID, m.ID, taken, nil)
	require.NoError(t, err)
	assert.False(t, st.InStock)
	require.NotNil(t, st.MachineID)
	assert.Equal(t, m.ID, *st.MachineID)

	// 跨两晚归还：3 个自然日，全部首次出现
	res, err := r.RecordReturn(ctx, sw.ID, taken.Add(50*time.Hour), nil)
	require.NoError(t, err)
	assert.True(t, res.State.InStock)
	assert.Nil(t, res.State.MachineID)
	require.NotNil(t, res.DaysSession)
	assert.Equal(t, 3, *res.DaysSession)
	assert.Equal(t, 3, res.AddedUniqueDays)

	total, err := r.TotalUniqueDays(ctx, sw.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// 同一天再走一轮：session 天数 1，但唯一天数不增
	taken2 := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	_, err = r.RecordTake(ctx, sw.ID, m.ID, taken2, nil)
	require.NoError(t, err)
	res, err = r.RecordReturn(ctx, sw.ID, taken2.Add(2*time.Hour), nil)
	require.NoError(t, err)
	require.NotNil(t, res.DaysSession)
	assert.Equal(t, 1, *res.DaysSession)
	assert.Equal(t, 0, res.AddedUniqueDays)

	total, err = r.TotalUniqueDays(ctx, sw.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestInvalidTransitions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	sw := seedSwab(t, r, "Tupfer B", "SW-0002")
	m1 := seedMachine(t, r, "Fräse 1")
	m2 := seedMachine(t, r, "Fräse 2")

	// 在库时归还
	_, err := r.RecordReturn(ctx, sw.ID, time.Now().UTC(), nil)
	assert.ErrorIs(t, err, db.ErrInvalidTransition)

	_, err = r.RecordTake(ctx, sw.ID, m1.ID, time.Now().UTC(), nil)
	require.NoError(t, err)

	// 在外时再次领用：拒绝，不得换机
	_, err = r.RecordTake(ctx, sw.ID, m2.ID, time.Now().UTC(), nil)
	assert.ErrorIs(t, err, db.ErrInvalidTransition)

	st, err := r.GetState(ctx, sw.ID)
	require.NoError(t, err)
	assert.False(t, st.InStock)
	require.NotNil(t, st.MachineID)
	assert.Equal(t, m1.ID, *st.MachineID)

	// 未知 swab
	_, err = r.RecordTake(ctx, uuid.NewString(), m1.ID, time.Now().UTC(), nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConcurrentTakeSingleWinner(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	sw := seedSwab(t, r, "Tupfer C", "SW-0003")
	m := seedMachine(t, r, "Fräse 9")

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.RecordTake(ctx, sw.ID, m.ID, time.Now().UTC(), nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, db.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, wins)

	var open int64
	require.NoError(t, r.DB.Table(models.SessionTable).
		Where("swab_id = ? AND returned_ts IS NULL", sw.ID).Count(&open).Error)
	assert.EqualValues(t, 1, open)
}

func TestBackfillIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	sw := seedSwab(t, r, "Tupfer D", "SW-0004")

	start := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	n, err := r.AddUsageDaysForRange(ctx, sw.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// 重放同一区间：0 新增
	n, err = r.AddUsageDaysForRange(ctx, sw.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// 部分重叠
	n, err = r.AddUsageDaysForRange(ctx, sw.ID, end, end.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := r.TotalUniqueDays(ctx, sw.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	// 区间倒置
	_, err = r.AddUsageDaysForRange(ctx, sw.ID, end, start)
	assert.ErrorIs(t, err, db.ErrInvalidRange)

	// 超过 10 年上限的区间同样拒绝，且不落任何行
	_, err = r.AddUsageDaysForRange(ctx, sw.ID, start, start.AddDate(0, 0, 4000))
	assert.ErrorIs(t, err, db.ErrInvalidRange)
	total, err = r.TotalUniqueDays(ctx, sw.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	// 未知 swab
	_, err = r.AddUsageDaysForRange(ctx, uuid.NewString(), start, end)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListOverview(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := seedSwab(t, r, "Bohrer-Tupfer", "SW-0101")
	b := seedSwab(t, r, "Alpha", "SW-0102")
	seedSwab(t, r, "Zeta", "SW-0103")
	drill := seedMachine(t, r, "Drill Press")

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	_, err := r.RecordTake(ctx, b.ID, drill.ID, now.AddDate(0, 0, -2), nil)
	require.NoError(t, err)

	rows, th, err := r.ListOverview(ctx, "", now)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.DefaultWarnDays, th.WarnDays)
	// 按名字排序
	assert.Equal(t, "Alpha", rows[0].Name)
	assert.Equal(t, "Bohrer-Tupfer", rows[1].Name)
	assert.Equal(t, "Zeta", rows[2].Name)

	assert.False(t, rows[0].InStock)
	require.NotNil(t, rows[0].MachineName)
	assert.Equal(t, "Drill Press", *rows[0].MachineName)
	assert.Equal(t, 3, rows[0].CurrentDays)
	require.NotNil(t, rows[0].LastTakeTs)
	assert.Nil(t, rows[0].LastReturnTs)

	assert.True(t, rows[1].InStock)
	assert.Equal(t, 0, rows[1].CurrentDays)

	// 过滤：swab 名或机器名，不区分大小写
	rows, _, err = r.ListOverview(ctx, "drill", now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0].Name)

	rows, _, err = r.ListOverview(ctx, "TUPFER", now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].ID)
}

func TestOverviewThresholdFlags(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	sw := seedSwab(t, r, "Dauerläufer", "SW-0201")
	m := seedMachine(t, r, "Fräse 7")

	require.NoError(t, r.SetSetting(ctx, models.SettingWarnDays, "5"))
	require.NoError(t, r.SetSetting(ctx, models.SettingAlarmDays, "10"))

	now := time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)
	_, err := r.RecordTake(ctx, sw.ID, m.ID, now.AddDate(0, 0, -6), nil)
	require.NoError(t, err)

	rows, th, err := r.ListOverview(ctx, "", now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, th.WarnDays)
	assert.Equal(t, 7, rows[0].CurrentDays)
	assert.True(t, rows[0].Warning)
	assert.False(t, rows[0].Alarm)
}

func TestSettingsFallback(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	th, err := r.GetThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWarnDays, th.WarnDays)
	assert.Equal(t, models.DefaultAlarmDays, th.AlarmDays)

	// 脏数据回落到默认值
	require.NoError(t, r.SetSetting(ctx, models.SettingWarnDays, "not a number"))
	require.NoError(t, r.SetSetting(ctx, models.SettingAlarmDays, "-5"))
	th, err = r.GetThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWarnDays, th.WarnDays)
	assert.Equal(t, models.DefaultAlarmDays, th.AlarmDays)

	require.NoError(t, r.SetSetting(ctx, models.SettingWarnDays, "30"))
	th, err = r.GetThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, th.WarnDays)
}

func TestDeleteGuards(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	sw := seedSwab(t, r, "Tupfer E", "SW-0301")
	m := seedMachine(t, r, "Fräse 5")

	_, err := r.RecordTake(ctx, sw.ID, m.ID, time.Now().UTC(), nil)
	require.NoError(t, err)

	// 在外期间两边都不许删
	assert.ErrorIs(t, r.DeleteSwab(ctx, sw.ID), db.ErrSwabTaken)
	assert.ErrorIs(t, r.DeleteMachine(ctx, m.ID), db.ErrMachineInUse)

	_, err = r.RecordReturn(ctx, sw.ID, time.Now().UTC(), nil)
	require.NoError(t, err)

	require.NoError(t, r.DeleteMachine(ctx, m.ID))
	require.NoError(t, r.DeleteSwab(ctx, sw.ID))

	_, err = r.FindSwabByID(ctx, sw.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var days int64
	require.NoError(t, r.DB.Table(models.UsageDayTable).
		Where("swab_id = ?", sw.ID).Count(&days).Error)
	assert.Zero(t, days)
}

func TestHistoryLimitClamp(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	sw := seedSwab(t, r, "Tupfer F", "SW-0401")
	m := seedMachine(t, r, "Fräse 6")

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * 48 * time.Hour)
		_, err := r.RecordTake(ctx, sw.ID, m.ID, ts, nil)
		require.NoError(t, err)
		_, err = r.RecordReturn(ctx, sw.ID, ts.Add(time.Hour), nil)
		require.NoError(t, err)
	}

	rows, err := r.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	// 新的在前
	assert.True(t, rows[0].Ts.After(rows[5].Ts))
	assert.Equal(t, "Tupfer F", rows[0].Name)

	rows, err = r.ListHistory(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
