// models/swab.go
package models

import "time"

const SwabTable = "swabs"
const MachineTable = "machines"
const StateTable = "swab_state"

type Swab struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	SKU       string    `gorm:"size:120;uniqueIndex;not null" json:"sku"` // 唯一编号，条码内容
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Machine struct {
	ID   string `gorm:"type:uuid;primaryKey" json:"id"`
	Name string `gorm:"size:200;uniqueIndex;not null" json:"name"`
}

// SwabState 每支 swab 一行，首次借出时懒创建
// in_stock=true 表示在库，false 表示被机器占用
// machine_id 仅在 in_stock=false 时有值
type SwabState struct {
	SwabID    string    `gorm:"type:uuid;primaryKey" json:"swabId"`
	InStock   bool      `gorm:"not null;default:true" json:"inStock"`
	MachineID *string   `gorm:"type:uuid;index" json:"machineId,omitempty"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Swab) TableName() string      { return SwabTable }
func (Machine) TableName() string   { return MachineTable }
func (SwabState) TableName() string { return StateTable }
