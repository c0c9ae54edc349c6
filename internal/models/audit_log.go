package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionUndo   AuditAction = "undo"
)

// Entity types recorded in the audit log.
const (
	EntityMenuItem = "menu_item"
	EntityTable    = "table"
	EntityCustomer = "customer"
	EntityOrder    = "order"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	UserID   uint   `json:"userId"`
	UserName string `gorm:"size:100" json:"userName"`

	EntityType string `gorm:"size:50;index" json:"entityType"`
	EntityID   uint   `gorm:"index" json:"entityId"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData datatypes.JSON `json:"beforeData"`
	AfterData  datatypes.JSON `json:"afterData"`

	IsUndone bool       `gorm:"not null;default:false" json:"isUndone"`
	UndoneBy *uint      `json:"undoneBy"`
	UndoneAt *time.Time `json:"undoneAt"`
}
