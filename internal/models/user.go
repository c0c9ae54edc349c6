package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User is a staff login. It may be linked to an Employee record.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	EmployeeID   *uint     `gorm:"index"`
	Employee     *Employee `gorm:"constraint:OnDelete:SET NULL"`
	Name         string    `gorm:"size:100;not null"`
	Email        string    `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         UserRole  `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
