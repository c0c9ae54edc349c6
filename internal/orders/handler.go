package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/events"
	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const IdempotencyHeader = "Idempotency-Key"

// Guard deduplicates order submissions carrying the same idempotency key.
type Guard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Deps struct {
	Store       storage.OrderStore
	Audit       *audit.Recorder
	Events      events.Publisher
	Idempotency Guard
}

type OrderItemRequest struct {
	MenuItemID uint     `json:"menuItemId" validate:"required"`
	Quantity   int      `json:"quantity" validate:"required,gte=1"`
	Price      *float64 `json:"price" validate:"omitempty,gte=0"`
}

func (r OrderItemRequest) toNew() storage.NewOrderItem {
	return storage.NewOrderItem{MenuItemID: r.MenuItemID, Quantity: r.Quantity, Price: r.Price}
}

type CreateOrderRequest struct {
	TableID    uint               `json:"tableId" validate:"required"`
	CustomerID *uint              `json:"customerId"`
	EmployeeID *uint              `json:"employeeId"`
	Status     models.OrderStatus `json:"status" validate:"omitempty,oneof=pending preparing served completed"`
	Subtotal   *float64           `json:"subtotal" validate:"omitempty,gte=0"`
	Tax        *float64           `json:"tax" validate:"omitempty,gte=0"`
	Discount   *float64           `json:"discount" validate:"omitempty,gte=0"`
	Items      []OrderItemRequest `json:"items" validate:"dive"`
}

type UpdateOrderRequest struct {
	TableID    *uint               `json:"tableId" validate:"omitempty,gte=1"`
	CustomerID *uint               `json:"customerId"`
	EmployeeID *uint               `json:"employeeId"`
	Status     *models.OrderStatus `json:"status" validate:"omitempty,oneof=pending preparing served completed"`
	Subtotal   *float64            `json:"subtotal" validate:"omitempty,gte=0"`
	Tax        *float64            `json:"tax" validate:"omitempty,gte=0"`
	Discount   *float64            `json:"discount" validate:"omitempty,gte=0"`
}

func (r UpdateOrderRequest) touchesMoney() bool {
	return r.Subtotal != nil || r.Tax != nil || r.Discount != nil
}

func valueOr(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// GET /api/orders?status=pending,preparing
func ListOrdersHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f storage.OrderFilter
		if raw := c.Query("status"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				status := models.OrderStatus(strings.TrimSpace(s))
				if !status.Valid() {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown status %q", s))
				}
				f.Statuses = append(f.Statuses, status)
			}
		}

		orders, err := d.Store.ListOrders(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(orders)
	}
}

// GET /api/orders/:id
func GetOrderHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		order, err := d.Store.GetOrder(c.UserContext(), id)
		if err != nil {
			return err
		}
		items, err := d.Store.ListOrderItems(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(storage.OrderWithItems{Order: *order, Items: items})
	}
}

// POST /api/orders
// A repeated Idempotency-Key is answered with 409 while the first claim holds.
func CreateOrderHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		ctx := c.UserContext()
		key := strings.TrimSpace(c.Get(IdempotencyHeader))
		if key != "" && d.Idempotency != nil {
			ok, err := d.Idempotency.Claim(ctx, key)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency check unavailable")
			} else if !ok {
				return fiber.NewError(fiber.StatusConflict, "duplicate order submission")
			}
		}

		order := models.Order{
			TableID:    body.TableID,
			CustomerID: body.CustomerID,
			EmployeeID: body.EmployeeID,
			Status:     body.Status,
			Subtotal:   valueOr(body.Subtotal),
			Tax:        valueOr(body.Tax),
			Discount:   valueOr(body.Discount),
		}
		items := make([]storage.NewOrderItem, 0, len(body.Items))
		for _, it := range body.Items {
			items = append(items, it.toNew())
		}

		created, err := d.Store.CreateOrder(ctx, &order, items)
		if err != nil {
			if key != "" && d.Idempotency != nil {
				if rerr := d.Idempotency.Release(ctx, key); rerr != nil {
					log.Warn().Err(rerr).Msg("idempotency key not released")
				}
			}
			return err
		}

		d.Audit.Record(c, models.EntityOrder, created.ID, models.AuditActionCreate,
			fmt.Sprintf("order created for table %d", created.TableID), nil, created)
		events.Emit(ctx, d.Events, events.FromOrder(events.OrderCreated, &created.Order, time.Now()))
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// POST /api/orders/:id/items
func AddOrderItemHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body OrderItemRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		item, order, err := d.Store.AddOrderItem(c.UserContext(), id, body.toNew())
		if err != nil {
			return err
		}
		d.Audit.Record(c, models.EntityOrder, order.ID, models.AuditActionUpdate,
			fmt.Sprintf("item %d added to order %d", item.MenuItemID, order.ID), nil, item)
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

type UpdateOrderItemRequest struct {
	Quantity *int     `json:"quantity" validate:"omitempty,gte=1"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
}

// ItemChange answers line edits. Item is null once the line is gone.
type ItemChange struct {
	Item  *models.OrderItem `json:"item"`
	Order *models.Order     `json:"order"`
}

// PATCH /api/orders/:id/items/:itemId
func UpdateOrderItemHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, itemID, err := lineParams(c)
		if err != nil {
			return err
		}
		var body UpdateOrderItemRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		var before models.OrderItem
		item, order, err := d.Store.UpdateOrderItem(c.UserContext(), orderID, itemID, func(l *models.OrderItem) error {
			before = *l
			if body.Quantity != nil {
				l.Quantity = *body.Quantity
			}
			if body.Price != nil {
				l.Price = *body.Price
			}
			return nil
		})
		if err != nil {
			return err
		}
		d.Audit.Record(c, models.EntityOrder, order.ID, models.AuditActionUpdate,
			fmt.Sprintf("item %d of order %d updated", item.ID, order.ID), before, item)
		return c.JSON(ItemChange{Item: item, Order: order})
	}
}

// POST /api/orders/:id/items/:itemId/increase
// POST /api/orders/:id/items/:itemId/decrease
// Decreasing a line of quantity 1 removes it.
func AdjustOrderItemHandler(d Deps, delta int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, itemID, err := lineParams(c)
		if err != nil {
			return err
		}
		item, order, err := d.Store.AdjustOrderItemQuantity(c.UserContext(), orderID, itemID, delta)
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("item %d of order %d changed by %+d", itemID, order.ID, delta)
		if item == nil {
			desc = fmt.Sprintf("item %d removed from order %d", itemID, order.ID)
		}
		d.Audit.Record(c, models.EntityOrder, order.ID, models.AuditActionUpdate, desc, nil, item)
		return c.JSON(ItemChange{Item: item, Order: order})
	}
}

// DELETE /api/orders/:id/items/:itemId
func DeleteOrderItemHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, itemID, err := lineParams(c)
		if err != nil {
			return err
		}
		item, order, err := d.Store.DeleteOrderItem(c.UserContext(), orderID, itemID)
		if err != nil {
			return err
		}
		d.Audit.Record(c, models.EntityOrder, order.ID, models.AuditActionUpdate,
			fmt.Sprintf("item %d removed from order %d", item.ID, order.ID), item, nil)
		return c.JSON(ItemChange{Order: order})
	}
}

func lineParams(c *fiber.Ctx) (orderID, itemID uint, err error) {
	if orderID, err = httpx.ParseID(c, "id"); err != nil {
		return 0, 0, err
	}
	if itemID, err = httpx.ParseID(c, "itemId"); err != nil {
		return 0, 0, err
	}
	return orderID, itemID, nil
}

// PATCH /api/orders/:id
// A status-only patch leaves subtotal, tax, discount and total untouched.
func UpdateOrderHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateOrderRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		var before models.Order
		order, err := d.Store.UpdateOrder(c.UserContext(), id, func(o *models.Order) error {
			before = *o
			if body.TableID != nil {
				o.TableID = *body.TableID
			}
			if body.CustomerID != nil {
				o.CustomerID = body.CustomerID
			}
			if body.EmployeeID != nil {
				o.EmployeeID = body.EmployeeID
			}
			if body.Status != nil {
				o.Status = *body.Status
			}
			if body.touchesMoney() {
				if body.Subtotal != nil {
					o.Subtotal = *body.Subtotal
				}
				if body.Tax != nil {
					o.Tax = *body.Tax
				}
				if body.Discount != nil {
					o.Discount = *body.Discount
				}
				o.Recalculate()
			}
			return nil
		})
		if err != nil {
			return err
		}

		d.Audit.Record(c, models.EntityOrder, order.ID, models.AuditActionUpdate,
			fmt.Sprintf("order %d updated", order.ID), before, order)
		if before.Status != order.Status {
			events.Emit(c.UserContext(), d.Events, events.FromOrder(events.OrderStatusChanged, order, time.Now()))
		}
		return c.JSON(order)
	}
}

// POST /api/orders/:id/advance
// Moves the order to the next kitchen status. Completed orders answer 409.
func AdvanceOrderHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		order, err := d.Store.AdvanceOrder(c.UserContext(), id)
		if err != nil {
			return err
		}

		d.Audit.Record(c, models.EntityOrder, order.ID, models.AuditActionUpdate,
			fmt.Sprintf("order %d moved to %s", order.ID, order.Status), nil, order)
		events.Emit(c.UserContext(), d.Events, events.FromOrder(events.OrderStatusChanged, order, time.Now()))
		return c.JSON(order)
	}
}

func DeleteOrderHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		order, err := d.Store.DeleteOrder(c.UserContext(), id)
		if err != nil {
			return err
		}

		d.Audit.Record(c, models.EntityOrder, order.ID, models.AuditActionDelete,
			fmt.Sprintf("order %d deleted", order.ID), order, nil)
		events.Emit(c.UserContext(), d.Events, events.FromOrder(events.OrderDeleted, order, time.Now()))
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/kitchen/orders
func KitchenOrdersHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		feed, err := d.Store.ListKitchenOrders(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(feed)
	}
}
