package models

import (
	"math"
	"time"
)

type MenuItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string    `gorm:"size:50;not null;index" json:"category"`
	Available   bool      `gorm:"not null" json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RoundMoney rounds an amount to cents, matching the decimal(10,2) columns.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
