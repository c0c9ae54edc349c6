package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed"
)

var nextOrderStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusServed,
	OrderStatusServed:    OrderStatusCompleted,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusServed, OrderStatusCompleted:
		return true
	}
	return false
}

// Next returns the status that follows s in the kitchen workflow. The second
// return value is false for completed or unknown statuses.
func (s OrderStatus) Next() (OrderStatus, bool) {
	n, ok := nextOrderStatus[s]
	return n, ok
}

type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	TableID     uint        `gorm:"index;not null" json:"tableId"`
	Table       *Table      `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CustomerID  *uint       `gorm:"index" json:"customerId"`
	Customer    *Customer   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	EmployeeID  *uint       `gorm:"index" json:"employeeId"`
	Employee    *Employee   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Status      OrderStatus `gorm:"size:50;not null;index" json:"status"`
	Subtotal    float64     `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount    float64     `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	Tax         float64     `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	TotalAmount float64     `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	CreatedAt   time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Recalculate derives TotalAmount from subtotal, tax and discount. The total
// never drops below zero.
func (o *Order) Recalculate() {
	o.Subtotal = RoundMoney(o.Subtotal)
	o.Tax = RoundMoney(o.Tax)
	o.Discount = RoundMoney(o.Discount)
	total := RoundMoney(o.Subtotal + o.Tax - o.Discount)
	if total < 0 {
		total = 0
	}
	o.TotalAmount = total
}

type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"index;not null" json:"orderId"`
	Order      *Order    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MenuItemID uint      `gorm:"index;not null" json:"menuItemId"`
	MenuItem   *MenuItem `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Price      float64   `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (i OrderItem) LineTotal() float64 {
	return RoundMoney(i.Price * float64(i.Quantity))
}

// ItemsSubtotal sums the line totals of items.
func ItemsSubtotal(items []OrderItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.LineTotal()
	}
	return RoundMoney(sum)
}
