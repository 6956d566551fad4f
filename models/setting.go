// models/setting.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

const SettingTable = "settings"

// 全局阈值（对所有 swab 一致）
const (
	DefaultWarnDays  = 180
	DefaultAlarmDays = 200

	SettingWarnDays  = "global_warn_days"
	SettingAlarmDays = "global_alarm_days"
)

// 条码参数（标签渲染用，labels 包消费）
const (
	DefaultBarcodeModuleWidth  = 0.30
	DefaultBarcodeModuleHeight = 9.0
	DefaultBarcodeQuietZone    = 6.0
	DefaultBarcodeFontSize     = 9
	DefaultBarcodeTextDistance = 1.5
	DefaultBarcodeWriteText    = false

	SettingBarcodeModuleWidth  = "barcode_module_width"
	SettingBarcodeModuleHeight = "barcode_module_height"
	SettingBarcodeQuietZone    = "barcode_quiet_zone"
	SettingBarcodeFontSize     = "barcode_font_size"
	SettingBarcodeTextDistance = "barcode_text_distance"
	SettingBarcodeWriteText    = "barcode_write_text"
	SettingBarcodeSettingsHash = "barcode_settings_hash"
)

type Setting struct {
	Key   string `gorm:"size:64;primaryKey" json:"key"`
	Value string `gorm:"size:255;not null" json:"value"`
}

func (Setting) TableName() string { return SettingTable }

// Thresholds 当前生效的预警/报警天数（缺失、非数字、非正值都回退默认）
type Thresholds struct {
	WarnDays  int `json:"warnDays"`
	AlarmDays int `json:"alarmDays"`
}

// Evaluate 严格大于才触发；warning 与 alarm 互不抑制，可同时为 true
func (t Thresholds) Evaluate(currentDays, totalDays int) (warning, alarm bool) {
	warning = currentDays > t.WarnDays || totalDays > t.WarnDays
	alarm = currentDays > t.AlarmDays || totalDays > t.AlarmDays
	return
}

// BarcodeSettings 标签渲染参数，labels 包用 hash 判断是否需要重新出图
type BarcodeSettings struct {
	ModuleWidth  float64 `json:"module_width"`
	ModuleHeight float64 `json:"module_height"`
	QuietZone    float64 `json:"quiet_zone"`
	FontSize     int     `json:"font_size"`
	TextDistance float64 `json:"text_distance"`
	WriteText    bool    `json:"write_text"`
}

// Hash 参数的规范化指纹，参数一变 hash 就变，旧标签图随之失效
// map 经 json.Marshal 输出按 key 排序，结果是稳定的
func (b BarcodeSettings) Hash() string {
	payload, _ := json.Marshal(map[string]any{
		"module_width":  b.ModuleWidth,
		"module_height": b.ModuleHeight,
		"quiet_zone":    b.QuietZone,
		"font_size":     b.FontSize,
		"text_distance": b.TextDistance,
		"write_text":    b.WriteText,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func DefaultBarcodeSettings() BarcodeSettings {
	return BarcodeSettings{
		ModuleWidth:  DefaultBarcodeModuleWidth,
		ModuleHeight: DefaultBarcodeModuleHeight,
		QuietZone:    DefaultBarcodeQuietZone,
		FontSize:     DefaultBarcodeFontSize,
		TextDistance: DefaultBarcodeTextDistance,
		WriteText:    DefaultBarcodeWriteText,
	}
}
