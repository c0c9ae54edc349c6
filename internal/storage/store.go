// Package storage is the persistence layer of the POS. Each capability set is
// a small interface so handlers depend only on what they use; GormStore
// implements all of them on top of a single *gorm.DB.
package storage

import (
	"context"
	"errors"
	"time"

	"restoran-pos/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("record already exists")
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrInvalidState     = errors.New("operation not allowed in current state")
)

type MenuFilter struct {
	Category  string
	Available *bool
}

type MenuStore interface {
	ListMenuItems(ctx context.Context, f MenuFilter) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, id uint, apply func(*models.MenuItem) error) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uint) (*models.MenuItem, error)
}

type TableStore interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	GetTable(ctx context.Context, id uint) (*models.Table, error)
	CreateTable(ctx context.Context, t *models.Table) error
	UpdateTable(ctx context.Context, id uint, apply func(*models.Table) error) (*models.Table, error)
	// DeleteTable refuses tables that still have orders.
	DeleteTable(ctx context.Context, id uint) (*models.Table, error)
}

type CustomerStore interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, id uint, apply func(*models.Customer) error) (*models.Customer, error)
	ListCustomerOrders(ctx context.Context, customerID uint) ([]models.Order, error)
	// DeleteCustomer removes the customer with their visits and reservations.
	// Their orders are kept without a customer.
	DeleteCustomer(ctx context.Context, id uint) (*models.Customer, error)
}

type VisitStore interface {
	ListCustomerVisits(ctx context.Context, customerID uint) ([]models.CustomerVisit, error)
	StartVisit(ctx context.Context, customerID, tableID uint, at time.Time) (*models.CustomerVisit, error)
	EndVisit(ctx context.Context, visitID uint, at time.Time) (*models.CustomerVisit, error)
}

// NewOrderItem is a line requested for an order. A nil Price takes the menu
// item's current price.
type NewOrderItem struct {
	MenuItemID uint
	Quantity   int
	Price      *float64
}

type OrderFilter struct {
	Statuses []models.OrderStatus
}

// OrderWithItems is an order together with its lines.
type OrderWithItems struct {
	models.Order
	Items []models.OrderItem `json:"items"`
}

type KitchenItem struct {
	models.OrderItem
	Name string `json:"name"`
}

type KitchenOrder struct {
	models.Order
	TableNumber int           `json:"tableNumber"`
	Items       []KitchenItem `json:"items"`
}

type OrderStore interface {
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error)
	// CreateOrder stores the order, its items and, when the order has a
	// customer, an open visit at the order's table in one transaction.
	CreateOrder(ctx context.Context, o *models.Order, items []NewOrderItem) (*OrderWithItems, error)
	AddOrderItem(ctx context.Context, orderID uint, item NewOrderItem) (*models.OrderItem, *models.Order, error)
	// UpdateOrderItem, AdjustOrderItemQuantity and DeleteOrderItem keep the
	// order's subtotal and total in step with its lines. A quantity adjusted
	// below one removes the line and returns it as nil.
	UpdateOrderItem(ctx context.Context, orderID, itemID uint, apply func(*models.OrderItem) error) (*models.OrderItem, *models.Order, error)
	AdjustOrderItemQuantity(ctx context.Context, orderID, itemID uint, delta int) (*models.OrderItem, *models.Order, error)
	DeleteOrderItem(ctx context.Context, orderID, itemID uint) (*models.OrderItem, *models.Order, error)
	UpdateOrder(ctx context.Context, id uint, apply func(*models.Order) error) (*models.Order, error)
	AdvanceOrder(ctx context.Context, id uint) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uint) (*models.Order, error)
	ListKitchenOrders(ctx context.Context) ([]KitchenOrder, error)
	ListOrdersBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

type StaffStore interface {
	ListEmployeeRoles(ctx context.Context) ([]models.EmployeeRole, error)
	CreateEmployeeRole(ctx context.Context, r *models.EmployeeRole) error
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, e *models.Employee) error
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id uint, apply func(*models.Employee) error) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id uint) (*models.Employee, error)
}

type ReservationStore interface {
	ListReservations(ctx context.Context) ([]models.TableReservation, error)
	ListCustomerReservations(ctx context.Context, customerID uint) ([]models.TableReservation, error)
	CreateReservation(ctx context.Context, r *models.TableReservation) error
}

type UserStore interface {
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuditFilter struct {
	EntityType string
	EntityID   uint
	UserID     uint
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, l *models.AuditLog) error
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error)
	UndoAuditLog(ctx context.Context, id, userID uint, userName string) (*models.AuditLog, error)
}

type PopularItem struct {
	MenuItemID uint   `json:"menuItemId"`
	Name       string `json:"name"`
	Count      int64  `json:"count"`
}

// DashboardSummary holds the dashboard figures. The Today/Week/Month
// variants count rows of the current day and of the last 7 and 30 days.
// Occupied tables per window are those occupied now and last touched within
// it; the occupancy rates are percentages of all tables.
type DashboardSummary struct {
	TotalSales     float64 `json:"totalSales"`
	TotalOrders    int64   `json:"totalOrders"`
	ActiveOrders   int64   `json:"activeOrders"`
	OccupiedTables int64   `json:"occupiedTables"`
	TotalTables    int64   `json:"totalTables"`
	MenuItems      int64   `json:"menuItems"`
	Customers      int64   `json:"customers"`
	Employees      int64   `json:"employees"`

	OrdersToday    int64 `json:"ordersToday"`
	OrdersWeek     int64 `json:"ordersWeek"`
	OrdersMonth    int64 `json:"ordersMonth"`
	CustomersWeek  int64 `json:"customersWeek"`
	CustomersMonth int64 `json:"customersMonth"`

	OccupiedTablesToday int64   `json:"occupiedTablesToday"`
	OccupiedTablesWeek  int64   `json:"occupiedTablesWeek"`
	OccupiedTablesMonth int64   `json:"occupiedTablesMonth"`
	OccupancyRate       float64 `json:"occupancyRate"`
	OccupancyRateWeek   float64 `json:"occupancyRateWeek"`
	OccupancyRateMonth  float64 `json:"occupancyRateMonth"`

	WeeklySales  []float64     `json:"weeklySales"`
	PopularItems []PopularItem `json:"popularItems"`
}

type DashboardStore interface {
	DashboardSummary(ctx context.Context, now time.Time) (*DashboardSummary, error)
}

// Store is the full capability set.
type Store interface {
	MenuStore
	TableStore
	CustomerStore
	VisitStore
	OrderStore
	StaffStore
	ReservationStore
	UserStore
	AuditStore
	DashboardStore
}
