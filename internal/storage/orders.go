package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := s.conn(ctx).Model(&models.Order{})
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	orders := make([]models.Order, 0)
	if err := q.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

func (s *GormStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.conn(ctx).First(&o, id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0)
	if err := s.conn(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (s *GormStore) CreateOrder(ctx context.Context, o *models.Order, items []NewOrderItem) (*OrderWithItems, error) {
	result := &OrderWithItems{Items: make([]models.OrderItem, 0, len(items))}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireRef(tx, &models.Table{}, o.TableID, "table"); err != nil {
			return err
		}
		if o.CustomerID != nil {
			if err := requireRef(tx, &models.Customer{}, *o.CustomerID, "customer"); err != nil {
				return err
			}
		}
		if o.EmployeeID != nil {
			if err := requireRef(tx, &models.Employee{}, *o.EmployeeID, "employee"); err != nil {
				return err
			}
		}

		lines := make([]models.OrderItem, 0, len(items))
		for _, in := range items {
			line, err := priceLine(tx, in)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		if o.Status == "" {
			o.Status = models.OrderStatusPending
		}
		if len(lines) > 0 {
			o.Subtotal = models.ItemsSubtotal(lines)
		}
		o.Recalculate()
		if err := tx.Create(o).Error; err != nil {
			return err
		}

		for i := range lines {
			lines[i].OrderID = o.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}

		if o.CustomerID != nil {
			open, err := openVisit(tx, *o.CustomerID, o.TableID)
			if err != nil {
				return err
			}
			if open == nil {
				if _, err := startVisit(tx, *o.CustomerID, o.TableID, o.CreatedAt); err != nil {
					return err
				}
			}
			if o.Status == models.OrderStatusCompleted {
				if err := completeOrder(tx, o); err != nil {
					return err
				}
			}
		}

		result.Order = *o
		result.Items = lines
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// priceLine resolves the menu item of a requested line and snapshots its
// current price when none was given.
func priceLine(tx *gorm.DB, in NewOrderItem) (models.OrderItem, error) {
	var menuItem models.MenuItem
	if err := tx.First(&menuItem, in.MenuItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.OrderItem{}, fmt.Errorf("%w: menu item %d", ErrInvalidReference, in.MenuItemID)
		}
		return models.OrderItem{}, err
	}
	if !menuItem.Available {
		return models.OrderItem{}, fmt.Errorf("%w: menu item %d is not available", ErrInvalidReference, in.MenuItemID)
	}

	price := menuItem.Price
	if in.Price != nil {
		price = *in.Price
	}
	return models.OrderItem{
		MenuItemID: in.MenuItemID,
		Quantity:   in.Quantity,
		Price:      models.RoundMoney(price),
	}, nil
}

func (s *GormStore) AddOrderItem(ctx context.Context, orderID uint, in NewOrderItem) (*models.OrderItem, *models.Order, error) {
	var (
		order models.Order
		line  models.OrderItem
	)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		var err error
		if line, err = priceLine(tx, in); err != nil {
			return err
		}
		line.OrderID = order.ID
		if err := tx.Create(&line).Error; err != nil {
			return err
		}

		order.Subtotal += line.LineTotal()
		order.Recalculate()
		return tx.Model(&order).Updates(map[string]any{
			"subtotal":     order.Subtotal,
			"total_amount": order.TotalAmount,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &line, &order, nil
}

func (s *GormStore) UpdateOrderItem(ctx context.Context, orderID, itemID uint, apply func(*models.OrderItem) error) (*models.OrderItem, *models.Order, error) {
	return s.changeLine(ctx, orderID, itemID, func(line *models.OrderItem) (bool, error) {
		if err := apply(line); err != nil {
			return false, err
		}
		line.Price = models.RoundMoney(line.Price)
		return true, nil
	})
}

func (s *GormStore) AdjustOrderItemQuantity(ctx context.Context, orderID, itemID uint, delta int) (*models.OrderItem, *models.Order, error) {
	return s.changeLine(ctx, orderID, itemID, func(line *models.OrderItem) (bool, error) {
		line.Quantity += delta
		return line.Quantity > 0, nil
	})
}

func (s *GormStore) DeleteOrderItem(ctx context.Context, orderID, itemID uint) (*models.OrderItem, *models.Order, error) {
	var removed models.OrderItem
	_, order, err := s.changeLine(ctx, orderID, itemID, func(line *models.OrderItem) (bool, error) {
		removed = *line
		return false, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &removed, order, nil
}

// changeLine loads a line of an order, lets edit modify it and either saves
// or deletes it depending on keep. The order's subtotal and total move by the
// difference of the line totals. A deleted line is returned as nil.
func (s *GormStore) changeLine(ctx context.Context, orderID, itemID uint, edit func(*models.OrderItem) (keep bool, err error)) (*models.OrderItem, *models.Order, error) {
	var (
		order models.Order
		line  models.OrderItem
		kept  bool
	)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", orderID).First(&line, itemID).Error; err != nil {
			return err
		}
		oldTotal := line.LineTotal()

		var err error
		if kept, err = edit(&line); err != nil {
			return err
		}
		line.ID, line.OrderID = itemID, orderID

		newTotal := 0.0
		if kept {
			if err := tx.Save(&line).Error; err != nil {
				return err
			}
			newTotal = line.LineTotal()
		} else if err := tx.Delete(&models.OrderItem{}, itemID).Error; err != nil {
			return err
		}

		order.Subtotal = max(order.Subtotal-oldTotal+newTotal, 0)
		order.Recalculate()
		return tx.Model(&order).Updates(map[string]any{
			"subtotal":     order.Subtotal,
			"total_amount": order.TotalAmount,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	if !kept {
		return nil, &order, nil
	}
	return &line, &order, nil
}

func (s *GormStore) UpdateOrder(ctx context.Context, id uint, apply func(*models.Order) error) (*models.Order, error) {
	var o models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return err
		}
		before := o
		if err := apply(&o); err != nil {
			return err
		}
		o.ID = id

		if o.TableID != before.TableID {
			if err := requireRef(tx, &models.Table{}, o.TableID, "table"); err != nil {
				return err
			}
		}
		if o.CustomerID != nil && (before.CustomerID == nil || *before.CustomerID != *o.CustomerID) {
			if err := requireRef(tx, &models.Customer{}, *o.CustomerID, "customer"); err != nil {
				return err
			}
		}
		if o.EmployeeID != nil && (before.EmployeeID == nil || *before.EmployeeID != *o.EmployeeID) {
			if err := requireRef(tx, &models.Employee{}, *o.EmployeeID, "employee"); err != nil {
				return err
			}
		}

		if err := tx.Save(&o).Error; err != nil {
			return err
		}
		if o.TableID != before.TableID || !sameID(o.CustomerID, before.CustomerID) {
			if err := moveVisit(tx, &before, &o); err != nil {
				return err
			}
		}
		if before.Status != models.OrderStatusCompleted && o.Status == models.OrderStatusCompleted {
			return completeOrder(tx, &o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *GormStore) AdvanceOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return err
		}
		next, ok := o.Status.Next()
		if !ok {
			return fmt.Errorf("%w: order %d is %s", ErrInvalidState, id, o.Status)
		}
		o.Status = next
		if err := tx.Model(&o).Update("status", next).Error; err != nil {
			return err
		}
		if next == models.OrderStatusCompleted {
			return completeOrder(tx, &o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// moveVisit follows an order to its new table or customer: the visit opened
// for the old pair ends and, unless the order is already completed, one is
// opened for the new pair.
func moveVisit(tx *gorm.DB, before, after *models.Order) error {
	now := tx.NowFunc()
	if before.CustomerID != nil {
		open, err := openVisit(tx, *before.CustomerID, before.TableID)
		if err != nil {
			return err
		}
		if open != nil {
			if err := endVisit(tx, open, now); err != nil {
				return err
			}
		}
	}
	if after.CustomerID == nil || after.Status == models.OrderStatusCompleted {
		return nil
	}
	open, err := openVisit(tx, *after.CustomerID, after.TableID)
	if err != nil || open != nil {
		return err
	}
	_, err = startVisit(tx, *after.CustomerID, after.TableID, now)
	return err
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// completeOrder ends the customer's open visit at the order's table.
func completeOrder(tx *gorm.DB, o *models.Order) error {
	if o.CustomerID == nil {
		return nil
	}
	open, err := openVisit(tx, *o.CustomerID, o.TableID)
	if err != nil || open == nil {
		return err
	}
	return endVisit(tx, open, tx.NowFunc())
}

func (s *GormStore) DeleteOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *GormStore) ListKitchenOrders(ctx context.Context) ([]KitchenOrder, error) {
	db := s.conn(ctx)

	var orders []models.Order
	err := db.Where("status IN ?", []models.OrderStatus{models.OrderStatusPending, models.OrderStatusPreparing}).
		Order("created_at asc, id asc").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err)
	}
	result := make([]KitchenOrder, 0, len(orders))
	if len(orders) == 0 {
		return result, nil
	}

	orderIDs := make([]uint, 0, len(orders))
	tableIDs := make([]uint, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		tableIDs = append(tableIDs, o.TableID)
	}

	var rows []struct {
		ID         uint
		OrderID    uint
		MenuItemID uint
		Quantity   int
		Price      float64
		Name       string
	}
	err = db.Table("order_items").
		Select("order_items.id, order_items.order_id, order_items.menu_item_id, order_items.quantity, order_items.price, menu_items.name AS name").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("order_items.order_id IN ?", orderIDs).
		Order("order_items.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	itemsByOrder := make(map[uint][]KitchenItem, len(orders))
	for _, r := range rows {
		itemsByOrder[r.OrderID] = append(itemsByOrder[r.OrderID], KitchenItem{
			OrderItem: models.OrderItem{ID: r.ID, OrderID: r.OrderID, MenuItemID: r.MenuItemID, Quantity: r.Quantity, Price: r.Price},
			Name:      r.Name,
		})
	}

	var tables []models.Table
	if err := db.Where("id IN ?", tableIDs).Find(&tables).Error; err != nil {
		return nil, translate(err)
	}
	numbers := make(map[uint]int, len(tables))
	for _, t := range tables {
		numbers[t.ID] = t.Number
	}

	for _, o := range orders {
		items := itemsByOrder[o.ID]
		if items == nil {
			items = []KitchenItem{}
		}
		result = append(result, KitchenOrder{Order: o, TableNumber: numbers[o.TableID], Items: items})
	}
	return result, nil
}

func (s *GormStore) ListOrdersBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := s.conn(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at asc, id asc").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err)
	}
	return orders, nil
}
