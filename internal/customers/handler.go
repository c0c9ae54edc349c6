package customers

import (
	"fmt"
	"strings"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type CreateCustomerRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=100"`
	Phone string  `json:"phone" validate:"required,max=20"`
}

type UpdateCustomerRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=100"`
	Phone *string `json:"phone" validate:"omitempty,min=1,max=20"`
}

type StartVisitRequest struct {
	TableID uint `json:"tableId" validate:"required"`
}

// normalizeEmail turns a blank address into "no email" so the unique index
// only applies to real addresses.
func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.TrimSpace(strings.ToLower(*email))
	if e == "" {
		return nil
	}
	return &e
}

func ListCustomersHandler(store storage.CustomerStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		customers, err := store.ListCustomers(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(customers)
	}
}

func GetCustomerHandler(store storage.CustomerStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		customer, err := store.GetCustomer(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(customer)
	}
}

func CreateCustomerHandler(store storage.CustomerStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		customer := models.Customer{
			Name:  strings.TrimSpace(body.Name),
			Email: normalizeEmail(body.Email),
			Phone: strings.TrimSpace(body.Phone),
		}
		if err := store.CreateCustomer(c.UserContext(), &customer); err != nil {
			return err
		}

		rec.Record(c, models.EntityCustomer, customer.ID, models.AuditActionCreate,
			fmt.Sprintf("customer added: %s", customer.Name), nil, customer)
		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

func UpdateCustomerHandler(store storage.CustomerStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateCustomerRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		var before models.Customer
		customer, err := store.UpdateCustomer(c.UserContext(), id, func(m *models.Customer) error {
			before = *m
			if body.Name != nil {
				m.Name = strings.TrimSpace(*body.Name)
			}
			if body.Email != nil {
				m.Email = normalizeEmail(body.Email)
			}
			if body.Phone != nil {
				m.Phone = strings.TrimSpace(*body.Phone)
			}
			return nil
		})
		if err != nil {
			return err
		}

		rec.Record(c, models.EntityCustomer, customer.ID, models.AuditActionUpdate,
			fmt.Sprintf("customer updated: %s", customer.Name), before, customer)
		return c.JSON(customer)
	}
}

// requireCustomer answers 404 for unknown customers on the nested list routes.
func requireCustomer(c *fiber.Ctx, store storage.CustomerStore) (uint, error) {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		return 0, err
	}
	if _, err := store.GetCustomer(c.UserContext(), id); err != nil {
		return 0, err
	}
	return id, nil
}

// GET /api/customers/:id/visits
func ListVisitsHandler(customers storage.CustomerStore, visits storage.VisitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := requireCustomer(c, customers)
		if err != nil {
			return err
		}
		list, err := visits.ListCustomerVisits(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/customers/:id/orders
func ListOrdersHandler(customers storage.CustomerStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := requireCustomer(c, customers)
		if err != nil {
			return err
		}
		orders, err := customers.ListCustomerOrders(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(orders)
	}
}

// GET /api/customers/:id/reservations
func ListReservationsHandler(customers storage.CustomerStore, reservations storage.ReservationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := requireCustomer(c, customers)
		if err != nil {
			return err
		}
		list, err := reservations.ListCustomerReservations(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/customers/:id/visits
func StartVisitHandler(visits storage.VisitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body StartVisitRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		visit, err := visits.StartVisit(c.UserContext(), id, body.TableID, time.Now())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(visit)
	}
}

// PATCH /api/customer-visits/:id/end
func EndVisitHandler(visits storage.VisitStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		visit, err := visits.EndVisit(c.UserContext(), id, time.Now())
		if err != nil {
			return err
		}
		return c.JSON(visit)
	}
}

// DELETE /api/customers/:id
// The customer's orders stay and lose the customer link.
func DeleteCustomerHandler(store storage.CustomerStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		customer, err := store.DeleteCustomer(c.UserContext(), id)
		if err != nil {
			return err
		}

		rec.Record(c, models.EntityCustomer, customer.ID, models.AuditActionDelete,
			fmt.Sprintf("customer deleted: %s", customer.Name), customer, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
