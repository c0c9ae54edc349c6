package models

import "time"

type Table struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Number      int        `gorm:"not null;uniqueIndex" json:"number"`
	Capacity    int        `gorm:"not null" json:"capacity"`
	Occupied    bool       `gorm:"not null;default:false" json:"occupied"`
	CustomerID  *uint      `gorm:"index" json:"customerId"`
	Customer    *Customer  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ArrivalTime *time.Time `json:"arrivalTime"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Seat marks the table as held by a customer. The arrival time is kept while
// the same customer stays at the table and restarts when another one sits.
func (t *Table) Seat(customerID *uint, at time.Time) {
	t.Occupied = true
	if customerID != nil {
		if t.CustomerID != nil && *t.CustomerID != *customerID {
			t.ArrivalTime = nil
		}
		t.CustomerID = customerID
	}
	if t.ArrivalTime == nil {
		t.ArrivalTime = &at
	}
}

// Free releases the table.
func (t *Table) Free() {
	t.Occupied = false
	t.CustomerID = nil
	t.ArrivalTime = nil
}
