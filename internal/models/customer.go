package models

import "time"

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     *string   `gorm:"size:100;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerVisit is a stay of a customer at a table. A nil EndTime means the
// visit is still in progress.
type CustomerVisit struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID uint       `gorm:"index;not null" json:"customerId"`
	Customer   *Customer  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TableID    uint       `gorm:"index;not null" json:"tableId"`
	Table      *Table     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StartTime  time.Time  `gorm:"not null" json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
}

func (v *CustomerVisit) Open() bool {
	return v.EndTime == nil
}

type TableReservation struct {
	CustomerID      uint      `gorm:"primaryKey;autoIncrement:false" json:"customerId"`
	Customer        *Customer `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TableID         uint      `gorm:"primaryKey;autoIncrement:false" json:"tableId"`
	Table           *Table    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ReservationTime time.Time `gorm:"not null" json:"reservationTime"`
}
