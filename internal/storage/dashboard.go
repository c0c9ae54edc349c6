package storage

import (
	"context"
	"time"

	"restoran-pos/internal/models"

	"golang.org/x/sync/errgroup"
)

const popularItemsLimit = 4

// WeekStart returns midnight of the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfDay returns midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func occupancy(occupied, total int64) float64 {
	if total == 0 {
		return 0
	}
	return models.RoundMoney(float64(occupied) / float64(total) * 100)
}

func (s *GormStore) DashboardSummary(ctx context.Context, now time.Time) (*DashboardSummary, error) {
	sum := &DashboardSummary{
		WeeklySales:  make([]float64, 7),
		PopularItems: make([]PopularItem, 0, popularItemsLimit),
	}
	g, ctx := errgroup.WithContext(ctx)

	count := func(model any, dst *int64, where ...any) {
		g.Go(func() error {
			q := s.conn(ctx).Model(model)
			if len(where) > 0 {
				q = q.Where(where[0], where[1:]...)
			}
			return q.Count(dst).Error
		})
	}
	count(&models.Order{}, &sum.TotalOrders)
	count(&models.Order{}, &sum.ActiveOrders, "status <> ?", models.OrderStatusCompleted)
	count(&models.Table{}, &sum.OccupiedTables, "occupied = ?", true)
	count(&models.MenuItem{}, &sum.MenuItems)
	count(&models.Customer{}, &sum.Customers)
	count(&models.Employee{}, &sum.Employees)
	count(&models.Table{}, &sum.TotalTables)

	today := StartOfDay(now)
	weekAgo, monthAgo := today.AddDate(0, 0, -7), today.AddDate(0, 0, -30)
	count(&models.Order{}, &sum.OrdersToday, "created_at >= ?", today)
	count(&models.Order{}, &sum.OrdersWeek, "created_at >= ?", weekAgo)
	count(&models.Order{}, &sum.OrdersMonth, "created_at >= ?", monthAgo)
	count(&models.Customer{}, &sum.CustomersWeek, "created_at >= ?", weekAgo)
	count(&models.Customer{}, &sum.CustomersMonth, "created_at >= ?", monthAgo)
	count(&models.Table{}, &sum.OccupiedTablesToday, "occupied = ? AND updated_at >= ?", true, today)
	count(&models.Table{}, &sum.OccupiedTablesWeek, "occupied = ? AND updated_at >= ?", true, weekAgo)
	count(&models.Table{}, &sum.OccupiedTablesMonth, "occupied = ? AND updated_at >= ?", true, monthAgo)

	g.Go(func() error {
		var total struct{ Total float64 }
		err := s.conn(ctx).Model(&models.Order{}).
			Select("COALESCE(SUM(total_amount), 0) AS total").
			Scan(&total).Error
		sum.TotalSales = models.RoundMoney(total.Total)
		return err
	})

	g.Go(func() error {
		start := WeekStart(now)
		var orders []models.Order
		err := s.conn(ctx).
			Select("created_at", "total_amount").
			Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 0, 7)).
			Find(&orders).Error
		if err != nil {
			return err
		}
		for _, o := range orders {
			day := int(o.CreatedAt.In(now.Location()).Sub(start).Hours() / 24)
			if day >= 0 && day < 7 {
				sum.WeeklySales[day] = models.RoundMoney(sum.WeeklySales[day] + o.TotalAmount)
			}
		}
		return nil
	})

	g.Go(func() error {
		return s.conn(ctx).Table("order_items").
			Select("order_items.menu_item_id AS menu_item_id, menu_items.name AS name, COUNT(order_items.id) AS count").
			Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
			Group("order_items.menu_item_id, menu_items.name").
			Order("count desc, menu_items.name asc").
			Limit(popularItemsLimit).
			Scan(&sum.PopularItems).Error
	})

	if err := g.Wait(); err != nil {
		return nil, translate(err)
	}
	sum.OccupancyRate = occupancy(sum.OccupiedTablesToday, sum.TotalTables)
	sum.OccupancyRateWeek = occupancy(sum.OccupiedTablesWeek, sum.TotalTables)
	sum.OccupancyRateMonth = occupancy(sum.OccupiedTablesMonth, sum.TotalTables)
	if sum.PopularItems == nil {
		sum.PopularItems = []PopularItem{}
	}
	return sum, nil
}
