// models/movement.go
package models

import "time"

const MovementTable = "movements"
const SessionTable = "usage_sessions"
const UsageDayTable = "usage_days"

const (
	ActionTake   = "TAKE"
	ActionReturn = "RETURN"
)

// Movement 只追加的流水：每次 TAKE/RETURN 插一条，不更新不删除
type Movement struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SwabID    string    `gorm:"type:uuid;index:idx_movements_swab_action_ts;not null" json:"swabId"`
	Action    string    `gorm:"size:10;index:idx_movements_swab_action_ts;not null" json:"action"`
	MachineID *string   `gorm:"type:uuid" json:"machineId,omitempty"`
	Ts        time.Time `gorm:"index:idx_movements_swab_action_ts;not null" json:"ts"`
	Note      *string   `gorm:"size:255" json:"note,omitempty"`
}

// UsageSession 一次 TAKE 到对应 RETURN 的区间
// returned_ts IS NULL 即“打开中”，每支 swab 同时最多一条（部分唯一索引兜底）
type UsageSession struct {
	ID         string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SwabID     string     `gorm:"type:uuid;index;not null" json:"swabId"`
	TakenTs    time.Time  `gorm:"index;not null" json:"takenTs"`
	ReturnedTs *time.Time `gorm:"index" json:"returnedTs,omitempty"`
}

// UsageDay 使用过的自然日集合（同一天借还 10 次也只算 1 天）
// day 格式 YYYY-MM-DD
type UsageDay struct {
	ID     string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SwabID string `gorm:"type:uuid;not null;uniqueIndex:uq_usage_days_swab_day" json:"swabId"`
	Day    string `gorm:"size:10;not null;uniqueIndex:uq_usage_days_swab_day" json:"day"`
}

func (Movement) TableName() string     { return MovementTable }
func (UsageSession) TableName() string { return SessionTable }
func (UsageDay) TableName() string     { return UsageDayTable }
