package db

import (
	"Gin_postgres_redis_swab_tracker/models"
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// 校验类错误：调用方决定给用户看什么文案
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidRange      = errors.New("invalid day range")
	ErrSwabTaken         = errors.New("swab is currently taken")
	ErrMachineInUse      = errors.New("machine is associated to a taken swab")
)

// Settings

func (r *Repo) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var s models.Setting
	err := r.DB.WithContext(ctx).First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *Repo) SetSetting(ctx context.Context, key, value string) error {
	return r.DB.WithContext(ctx).Exec(
		"INSERT INTO "+models.SettingTable+" (key, value) VALUES (?, ?) "+
			"ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value,
	).Error
}

// 坏值（缺失/非数字/非正数）一律回退默认，不往外抛
func (r *Repo) positiveIntSetting(ctx context.Context, key string, def int) (int, error) {
	raw, ok, err := r.GetSetting(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	v, convErr := strconv.Atoi(strings.TrimSpace(raw))
	if convErr != nil || v <= 0 {
		return def, nil
	}
	return v, nil
}

func (r *Repo) positiveFloatSetting(ctx context.Context, key string, def float64) (float64, error) {
	raw, ok, err := r.GetSetting(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	v, convErr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if convErr != nil || v <= 0 {
		return def, nil
	}
	return v, nil
}

func (r *Repo) boolSetting(ctx context.Context, key string, def bool) (bool, error) {
	raw, ok, err := r.GetSetting(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return def, nil
}

func (r *Repo) GetThresholds(ctx context.Context) (models.Thresholds, error) {
	warn, err := r.positiveIntSetting(ctx, models.SettingWarnDays, models.DefaultWarnDays)
	if err != nil {
		return models.Thresholds{}, err
	}
	alarm, err := r.positiveIntSetting(ctx, models.SettingAlarmDays, models.DefaultAlarmDays)
	if err != nil {
		return models.Thresholds{}, err
	}
	return models.Thresholds{WarnDays: warn, AlarmDays: alarm}, nil
}

func (r *Repo) GetBarcodeSettings(ctx context.Context) (models.BarcodeSettings, error) {
	def := models.DefaultBarcodeSettings()
	var (
		bs  models.BarcodeSettings
		err error
	)
	if bs.ModuleWidth, err = r.positiveFloatSetting(ctx, models.SettingBarcodeModuleWidth, def.ModuleWidth); err != nil {
		return bs, err
	}
	if bs.ModuleHeight, err = r.positiveFloatSetting(ctx, models.SettingBarcodeModuleHeight, def.ModuleHeight); err != nil {
		return bs, err
	}
	if bs.QuietZone, err = r.positiveFloatSetting(ctx, models.SettingBarcodeQuietZone, def.QuietZone); err != nil {
		return bs, err
	}
	if bs.FontSize, err = r.positiveIntSetting(ctx, models.SettingBarcodeFontSize, def.FontSize); err != nil {
		return bs, err
	}
	if bs.TextDistance, err = r.positiveFloatSetting(ctx, models.SettingBarcodeTextDistance, def.TextDistance); err != nil {
		return bs, err
	}
	if bs.WriteText, err = r.boolSetting(ctx, models.SettingBarcodeWriteText, def.WriteText); err != nil {
		return bs, err
	}
	return bs, nil
}

// GetBarcodeSettingsHash 缺失时现算现存，保证标签缓存始终有指纹可比
func (r *Repo) GetBarcodeSettingsHash(ctx context.Context) (string, error) {
	raw, ok, err := r.GetSetting(ctx, models.SettingBarcodeSettingsHash)
	if err != nil {
		return "", err
	}
	if ok && raw != "" {
		return raw, nil
	}
	bs, err := r.GetBarcodeSettings(ctx)
	if err != nil {
		return "", err
	}
	h := bs.Hash()
	if err := r.SetSetting(ctx, models.SettingBarcodeSettingsHash, h); err != nil {
		return "", err
	}
	return h, nil
}

// Swabs

func (r *Repo) FindSwabByID(ctx context.Context, id string) (*models.Swab, error) {
	var s models.Swab
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) FindSwabBySKU(ctx context.Context, sku string) (*models.Swab, error) {
	var s models.Swab
	if err := r.DB.WithContext(ctx).First(&s, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Machines

func (r *Repo) CreateMachine(ctx context.Context, m *models.Machine) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *Repo) FindMachineByID(ctx context.Context, id string) (*models.Machine, error) {
	var m models.Machine
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) ListMachines(ctx context.Context) ([]models.Machine, error) {
	var ms []models.Machine
	err := r.DB.WithContext(ctx).Order("LOWER(name)").Find(&ms).Error
	return ms, err
}

// 删除机器：仍挂在某支“被借走”swab 上时拒绝
func (r *Repo) DeleteMachine(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Machine
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.SwabState{}).
			Where("machine_id = ? AND in_stock = FALSE", id).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrMachineInUse
		}
		return tx.Delete(&models.Machine{}, "id = ?", id).Error
	})
}
