package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"restoran-pos/internal/config"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.Config{
		DBDriver:    config.DriverSQLite,
		DatabaseDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormStore(db)
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	customer *models.Customer
	table    *models.Table
	burger   *models.MenuItem
	soup     *models.MenuItem
}

func seed(t *testing.T, s *GormStore) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		customer: &models.Customer{Name: "Ayşe", Phone: "555-0101", Email: ptr("ayse@example.com")},
		table:    &models.Table{Number: 5, Capacity: 4},
		burger:   &models.MenuItem{Name: "Burger", Description: "beef", Price: 12.5, Category: "mains", Available: true},
		soup:     &models.MenuItem{Name: "Soup", Description: "lentil", Price: 4.25, Category: "starters", Available: true},
	}
	require.NoError(t, s.CreateCustomer(ctx, f.customer))
	require.NoError(t, s.CreateTable(ctx, f.table))
	require.NoError(t, s.CreateMenuItem(ctx, f.burger))
	require.NoError(t, s.CreateMenuItem(ctx, f.soup))
	return f
}

func TestTableNumberIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTable(ctx, &models.Table{Number: 5, Capacity: 4}))
	err := s.CreateTable(ctx, &models.Table{Number: 5, Capacity: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)

	tables, err := s.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 4, tables[0].Capacity)
}

func TestCustomerPhoneIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCustomer(ctx, &models.Customer{Name: "A", Phone: "1"}))
	err := s.CreateCustomer(ctx, &models.Customer{Name: "B", Phone: "1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMenuItemLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := &models.MenuItem{Name: "Tea", Description: "black", Price: 1.999, Category: "drinks", Available: false}
	require.NoError(t, s.CreateMenuItem(ctx, item))
	assert.Equal(t, 2.0, item.Price)

	items, err := s.ListMenuItems(ctx, MenuFilter{Available: ptr(false)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Available)

	updated, err := s.UpdateMenuItem(ctx, item.ID, func(m *models.MenuItem) error {
		m.Price = 2.5
		m.Available = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, updated.Price)
	assert.True(t, updated.Available)

	_, err = s.UpdateMenuItem(ctx, 999, func(*models.MenuItem) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := s.DeleteMenuItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tea", deleted.Name)

	_, err = s.DeleteMenuItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMenuItemInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	_, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, []NewOrderItem{{MenuItemID: f.burger.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = s.DeleteMenuItem(ctx, f.burger.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCreateOrderWithItemsAndVisit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	created, err := s.CreateOrder(ctx, &models.Order{
		TableID:    f.table.ID,
		CustomerID: &f.customer.ID,
		Tax:        1.5,
		Discount:   2,
	}, []NewOrderItem{
		{MenuItemID: f.burger.ID, Quantity: 2},
		{MenuItemID: f.soup.ID, Quantity: 1, Price: ptr(4.0)},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, created.Status)
	assert.Equal(t, 29.0, created.Subtotal)
	assert.Equal(t, 28.5, created.TotalAmount)
	require.Len(t, created.Items, 2)
	assert.Equal(t, 12.5, created.Items[0].Price)
	assert.Equal(t, 4.0, created.Items[1].Price)

	items, err := s.ListOrderItems(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, created.ID, it.OrderID)
	}

	visits, err := s.ListCustomerVisits(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.True(t, visits[0].Open())

	table, err := s.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.True(t, table.Occupied)
	require.NotNil(t, table.CustomerID)
	assert.Equal(t, f.customer.ID, *table.CustomerID)
	assert.NotNil(t, table.ArrivalTime)

	// a second order for the same customer and table reuses the open visit
	_, err = s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, CustomerID: &f.customer.ID}, nil)
	require.NoError(t, err)
	visits, err = s.ListCustomerVisits(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestCreateOrderIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	_, err := s.UpdateMenuItem(ctx, f.soup.ID, func(m *models.MenuItem) error {
		m.Available = false
		return nil
	})
	require.NoError(t, err)

	_, err = s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, CustomerID: &f.customer.ID}, []NewOrderItem{
		{MenuItemID: f.burger.ID, Quantity: 1},
		{MenuItemID: f.soup.ID, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = s.CreateOrder(ctx, &models.Order{TableID: 404}, nil)
	assert.ErrorIs(t, err, ErrInvalidReference)

	orders, err := s.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	visits, err := s.ListCustomerVisits(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestAddOrderItemUpdatesTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	created, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, Tax: 1}, []NewOrderItem{{MenuItemID: f.soup.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 9.5, created.TotalAmount)

	line, order, err := s.AddOrderItem(ctx, created.ID, NewOrderItem{MenuItemID: f.burger.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, created.ID, line.OrderID)
	assert.Equal(t, 21.0, order.Subtotal)
	assert.Equal(t, 22.0, order.TotalAmount)

	_, _, err = s.AddOrderItem(ctx, 999, NewOrderItem{MenuItemID: f.burger.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletingOrderKeepsTotalAndEndsVisit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	created, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, CustomerID: &f.customer.ID}, []NewOrderItem{{MenuItemID: f.burger.ID, Quantity: 3}})
	require.NoError(t, err)

	updated, err := s.UpdateOrder(ctx, created.ID, func(o *models.Order) error {
		o.Status = models.OrderStatusCompleted
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, created.TotalAmount, updated.TotalAmount)

	stored, err := s.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 37.5, stored.TotalAmount)

	visits, err := s.ListCustomerVisits(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	require.NotNil(t, visits[0].EndTime)
	assert.False(t, visits[0].EndTime.Before(visits[0].StartTime))

	table, err := s.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.False(t, table.Occupied)
	assert.Nil(t, table.CustomerID)
}

func TestAdvanceOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	created, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, nil)
	require.NoError(t, err)

	for _, want := range []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusServed, models.OrderStatusCompleted} {
		o, err := s.AdvanceOrder(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, o.Status)
	}

	_, err = s.AdvanceOrder(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.AdvanceOrder(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOrderRemovesItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	created, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, []NewOrderItem{{MenuItemID: f.burger.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = s.DeleteOrder(ctx, created.ID)
	require.NoError(t, err)

	items, err := s.ListOrderItems(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = s.DeleteOrder(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVisitLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)
	start := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)

	visit, err := s.StartVisit(ctx, f.customer.ID, f.table.ID, start)
	require.NoError(t, err)
	assert.True(t, visit.Open())

	_, err = s.StartVisit(ctx, f.customer.ID, f.table.ID, start)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.StartVisit(ctx, 999, f.table.ID, start)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.StartVisit(ctx, f.customer.ID, 999, start)
	assert.ErrorIs(t, err, ErrNotFound)

	// an end time before the start is clamped to the start
	ended, err := s.EndVisit(ctx, visit.ID, start.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, ended.EndTime)
	assert.True(t, ended.EndTime.Equal(start))

	_, err = s.EndVisit(ctx, visit.ID, start)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.EndVisit(ctx, 999, start)
	assert.ErrorIs(t, err, ErrNotFound)

	table, err := s.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.False(t, table.Occupied)
}

func TestReservations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)
	at := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateReservation(ctx, &models.TableReservation{CustomerID: f.customer.ID, TableID: f.table.ID, ReservationTime: at}))
	err := s.CreateReservation(ctx, &models.TableReservation{CustomerID: f.customer.ID, TableID: f.table.ID, ReservationTime: at})
	assert.ErrorIs(t, err, ErrConflict)
	err = s.CreateReservation(ctx, &models.TableReservation{CustomerID: 999, TableID: f.table.ID, ReservationTime: at})
	assert.ErrorIs(t, err, ErrInvalidReference)

	list, err := s.ListCustomerReservations(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.table.ID, list[0].TableID)
}

func TestStaff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	role := &models.EmployeeRole{RoleName: "Chef"}
	require.NoError(t, s.CreateEmployeeRole(ctx, role))
	assert.ErrorIs(t, s.CreateEmployeeRole(ctx, &models.EmployeeRole{RoleName: "Chef"}), ErrConflict)

	require.NoError(t, s.CreateEmployee(ctx, &models.Employee{Name: "Mehmet", Phone: "1", Salary: 1000, RoleID: &role.ID}))
	err := s.CreateEmployee(ctx, &models.Employee{Name: "Ghost", Phone: "2", RoleID: ptr(uint(77))})
	assert.ErrorIs(t, err, ErrInvalidReference)

	employees, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1)
}

func TestKitchenOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	first, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, []NewOrderItem{{MenuItemID: f.burger.ID, Quantity: 2}})
	require.NoError(t, err)
	done, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, Status: models.OrderStatusServed}, nil)
	require.NoError(t, err)

	feed, err := s.ListKitchenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, first.ID, feed[0].ID)
	assert.Equal(t, 5, feed[0].TableNumber)
	require.Len(t, feed[0].Items, 1)
	assert.Equal(t, "Burger", feed[0].Items[0].Name)
	assert.NotEqual(t, done.ID, feed[0].ID)
}

func TestDashboardSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	_, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, CustomerID: &f.customer.ID}, []NewOrderItem{{MenuItemID: f.burger.ID, Quantity: 2}})
	require.NoError(t, err)
	o, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, []NewOrderItem{{MenuItemID: f.soup.ID, Quantity: 1}, {MenuItemID: f.burger.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = s.UpdateOrder(ctx, o.ID, func(o *models.Order) error {
		o.Status = models.OrderStatusCompleted
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.CreateTable(ctx, &models.Table{Number: 6, Capacity: 2}))

	now := time.Now().UTC()
	sum, err := s.DashboardSummary(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, int64(2), sum.TotalOrders)
	assert.Equal(t, int64(1), sum.ActiveOrders)
	assert.Equal(t, int64(1), sum.OccupiedTables)
	assert.Equal(t, int64(2), sum.MenuItems)
	assert.Equal(t, int64(1), sum.Customers)
	assert.Equal(t, 41.75, sum.TotalSales)
	require.Len(t, sum.WeeklySales, 7)
	today := int(now.Sub(WeekStart(now)).Hours() / 24)
	assert.Equal(t, 41.75, sum.WeeklySales[today])
	require.Len(t, sum.PopularItems, 2)
	assert.Equal(t, "Burger", sum.PopularItems[0].Name)
	assert.Equal(t, int64(2), sum.PopularItems[0].Count)

	assert.Equal(t, int64(2), sum.TotalTables)
	assert.Equal(t, int64(2), sum.OrdersToday)
	assert.Equal(t, int64(2), sum.OrdersWeek)
	assert.Equal(t, int64(2), sum.OrdersMonth)
	assert.Equal(t, int64(1), sum.CustomersWeek)
	assert.Equal(t, int64(1), sum.CustomersMonth)
	assert.Equal(t, int64(1), sum.OccupiedTablesToday)
	assert.Equal(t, int64(1), sum.OccupiedTablesMonth)
	assert.Equal(t, 50.0, sum.OccupancyRate)
	assert.Equal(t, 50.0, sum.OccupancyRateWeek)

	later, err := s.DashboardSummary(ctx, now.AddDate(0, 0, 40))
	require.NoError(t, err)
	assert.Equal(t, int64(2), later.TotalOrders)
	assert.Zero(t, later.OrdersToday)
	assert.Zero(t, later.OrdersWeek)
	assert.Zero(t, later.OrdersMonth)
	assert.Zero(t, later.CustomersMonth)
	assert.Zero(t, later.OccupiedTablesMonth)
	assert.Zero(t, later.OccupancyRateMonth)
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2026, 10, 19, 17, 45, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), StartOfDay(at))
	assert.Zero(t, occupancy(3, 0))
	assert.Equal(t, 33.33, occupancy(1, 3))
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), WeekStart(sunday))
	monday := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), WeekStart(monday))
}

func TestUndoAuditLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	before := []byte(fmt.Sprintf(`{"id":%d,"name":"Burger","description":"beef","price":12.5,"category":"mains","available":true}`, f.burger.ID))
	_, err := s.UpdateMenuItem(ctx, f.burger.ID, func(m *models.MenuItem) error {
		m.Price = 99
		return nil
	})
	require.NoError(t, err)

	entry := &models.AuditLog{UserID: 1, UserName: "admin", EntityType: models.EntityMenuItem, EntityID: f.burger.ID, Action: models.AuditActionUpdate, BeforeData: before}
	require.NoError(t, s.CreateAuditLog(ctx, entry))

	undo, err := s.UndoAuditLog(ctx, entry.ID, 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.AuditActionUndo, undo.Action)

	item, err := s.GetMenuItem(ctx, f.burger.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.5, item.Price)

	_, err = s.UndoAuditLog(ctx, entry.ID, 1, "admin")
	assert.ErrorIs(t, err, ErrInvalidState)

	logs, err := s.ListAuditLogs(ctx, AuditFilter{EntityType: models.EntityMenuItem, EntityID: f.burger.ID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[1].IsUndone || logs[0].IsUndone)
}

func TestUndoCreateDeletesEntity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	table := &models.Table{Number: 9, Capacity: 2}
	require.NoError(t, s.CreateTable(ctx, table))

	entry := &models.AuditLog{EntityType: models.EntityTable, EntityID: table.ID, Action: models.AuditActionCreate}
	require.NoError(t, s.CreateAuditLog(ctx, entry))
	_, err := s.UndoAuditLog(ctx, entry.ID, 1, "admin")
	require.NoError(t, err)

	_, err = s.GetTable(ctx, table.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrConflict)
	assert.ErrorIs(t, translate(errors.New(`ERROR: duplicate key value violates unique constraint "idx_tables_number"`)), ErrConflict)
	assert.ErrorIs(t, translate(errors.New("Error 1062: Duplicate entry '5' for key 'idx_tables_number'")), ErrConflict)
	assert.ErrorIs(t, translate(errors.New("FOREIGN KEY constraint failed")), ErrInvalidReference)
	boom := errors.New("boom")
	assert.Equal(t, boom, translate(boom))
}

func openVisits(t *testing.T, s *GormStore, customerID uint) []models.CustomerVisit {
	t.Helper()
	visits, err := s.ListCustomerVisits(context.Background(), customerID)
	require.NoError(t, err)
	open := make([]models.CustomerVisit, 0)
	for _, v := range visits {
		if v.Open() {
			open = append(open, v)
		}
	}
	return open
}

func TestCreateCompletedOrderEndsVisit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	o, err := s.CreateOrder(ctx, &models.Order{
		TableID:    f.table.ID,
		CustomerID: &f.customer.ID,
		Status:     models.OrderStatusCompleted,
	}, []NewOrderItem{{MenuItemID: f.soup.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 8.5, o.TotalAmount)

	visits, err := s.ListCustomerVisits(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.False(t, visits[0].Open())

	table, err := s.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.False(t, table.Occupied)
	assert.Nil(t, table.CustomerID)
}

func TestMovingOrderMovesVisit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)
	other := &models.Table{Number: 10, Capacity: 2}
	require.NoError(t, s.CreateTable(ctx, other))

	o, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, CustomerID: &f.customer.ID}, nil)
	require.NoError(t, err)

	_, err = s.UpdateOrder(ctx, o.ID, func(o *models.Order) error {
		o.TableID = other.ID
		return nil
	})
	require.NoError(t, err)

	old, err := s.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.False(t, old.Occupied)
	moved, err := s.GetTable(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, moved.Occupied)
	require.NotNil(t, moved.CustomerID)
	assert.Equal(t, f.customer.ID, *moved.CustomerID)

	open := openVisits(t, s, f.customer.ID)
	require.Len(t, open, 1)
	assert.Equal(t, other.ID, open[0].TableID)

	_, err = s.UpdateOrder(ctx, o.ID, func(o *models.Order) error {
		o.Status = models.OrderStatusCompleted
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, openVisits(t, s, f.customer.ID))
	for _, id := range []uint{f.table.ID, other.ID} {
		table, err := s.GetTable(ctx, id)
		require.NoError(t, err)
		assert.False(t, table.Occupied, "table %d", table.Number)
	}
}

func TestMovingCompletedOrderOpensNoVisit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)
	other := &models.Table{Number: 11, Capacity: 2}
	require.NoError(t, s.CreateTable(ctx, other))

	o, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, CustomerID: &f.customer.ID, Status: models.OrderStatusCompleted}, nil)
	require.NoError(t, err)
	_, err = s.UpdateOrder(ctx, o.ID, func(o *models.Order) error {
		o.TableID = other.ID
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, openVisits(t, s, f.customer.ID))
	table, err := s.GetTable(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, table.Occupied)
}

func TestEditOrderItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	o, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, Tax: 1}, []NewOrderItem{
		{MenuItemID: f.burger.ID, Quantity: 1},
		{MenuItemID: f.soup.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 22.0, o.TotalAmount)
	burgerLine, soupLine := o.Items[0], o.Items[1]

	line, order, err := s.AdjustOrderItemQuantity(ctx, o.ID, burgerLine.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 34.5, order.TotalAmount)

	line, order, err = s.UpdateOrderItem(ctx, o.ID, soupLine.ID, func(it *models.OrderItem) error {
		it.Quantity = 1
		it.Price = 3.999
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, line.Price)
	assert.Equal(t, 29.0, order.Subtotal)
	assert.Equal(t, 30.0, order.TotalAmount)

	line, order, err = s.AdjustOrderItemQuantity(ctx, o.ID, soupLine.ID, -1)
	require.NoError(t, err)
	assert.Nil(t, line)
	assert.Equal(t, 26.0, order.TotalAmount)

	removed, order, err := s.DeleteOrderItem(ctx, o.ID, burgerLine.ID)
	require.NoError(t, err)
	assert.Equal(t, burgerLine.ID, removed.ID)
	assert.Equal(t, 0.0, order.Subtotal)
	assert.Equal(t, 1.0, order.TotalAmount)

	items, err := s.ListOrderItems(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	stored, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stored.TotalAmount)

	_, _, err = s.DeleteOrderItem(ctx, o.ID, burgerLine.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderItemMustBelongToOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	a, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, []NewOrderItem{{MenuItemID: f.soup.ID, Quantity: 1}})
	require.NoError(t, err)
	b, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, nil)
	require.NoError(t, err)

	_, _, err = s.AdjustOrderItemQuantity(ctx, b.ID, a.Items[0].ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.DeleteOrderItem(ctx, 9999, a.Items[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)
	free := &models.Table{Number: 12, Capacity: 2}
	require.NoError(t, s.CreateTable(ctx, free))
	require.NoError(t, s.CreateReservation(ctx, &models.TableReservation{
		CustomerID: f.customer.ID, TableID: free.ID, ReservationTime: time.Now().Add(time.Hour),
	}))

	_, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID}, nil)
	require.NoError(t, err)
	_, err = s.DeleteTable(ctx, f.table.ID)
	assert.ErrorIs(t, err, ErrConflict)

	deleted, err := s.DeleteTable(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, deleted.Number)
	_, err = s.GetTable(ctx, free.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	res, err := s.ListCustomerReservations(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = s.DeleteTable(ctx, free.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCustomerKeepsOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	o, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, CustomerID: &f.customer.ID}, []NewOrderItem{{MenuItemID: f.burger.ID, Quantity: 1}})
	require.NoError(t, err)

	deleted, err := s.DeleteCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ayşe", deleted.Name)

	order, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, order.CustomerID)
	assert.Equal(t, 12.5, order.TotalAmount)

	table, err := s.GetTable(ctx, f.table.ID)
	require.NoError(t, err)
	assert.False(t, table.Occupied)
	visits, err := s.ListCustomerVisits(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, visits)

	_, err = s.DeleteCustomer(ctx, f.customer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDeleteEmployee(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seed(t, s)

	role := &models.EmployeeRole{RoleName: "Waiter"}
	require.NoError(t, s.CreateEmployeeRole(ctx, role))
	e := &models.Employee{Name: "Mert", Phone: "555-0200", Salary: 2000}
	require.NoError(t, s.CreateEmployee(ctx, e))

	updated, err := s.UpdateEmployee(ctx, e.ID, func(e *models.Employee) error {
		e.Salary = 2100.556
		e.RoleID = &role.ID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2100.56, updated.Salary)
	require.NotNil(t, updated.RoleID)

	_, err = s.UpdateEmployee(ctx, e.ID, func(e *models.Employee) error {
		e.RoleID = ptr(uint(404))
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	o, err := s.CreateOrder(ctx, &models.Order{TableID: f.table.ID, EmployeeID: &e.ID}, nil)
	require.NoError(t, err)
	u := &models.User{Name: "Mert", Email: "mert@example.com", PasswordHash: "x", Role: models.RoleStaff, EmployeeID: &e.ID}
	require.NoError(t, s.CreateUser(ctx, u))

	_, err = s.DeleteEmployee(ctx, e.ID)
	require.NoError(t, err)
	_, err = s.GetEmployee(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	order, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, order.EmployeeID)
	user, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, user.EmployeeID)
}
