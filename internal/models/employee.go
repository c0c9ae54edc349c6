package models

type EmployeeRole struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RoleName string `gorm:"size:50;not null;uniqueIndex" json:"roleName"`
}

type Employee struct {
	ID     uint          `gorm:"primaryKey" json:"id"`
	Name   string        `gorm:"size:100;not null" json:"name"`
	Email  *string       `gorm:"size:100;uniqueIndex" json:"email"`
	Phone  string        `gorm:"size:20;not null" json:"phone"`
	Salary float64       `gorm:"type:decimal(10,2);not null" json:"salary"`
	RoleID *uint         `gorm:"index" json:"roleId"`
	Role   *EmployeeRole `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
