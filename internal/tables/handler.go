package tables

import (
	"fmt"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type CreateTableRequest struct {
	Number     int   `json:"number" validate:"required,gte=1"`
	Capacity   int   `json:"capacity" validate:"required,gte=1"`
	Occupied   *bool `json:"occupied"`
	CustomerID *uint `json:"customerId"`
}

type UpdateTableRequest struct {
	Number      *int       `json:"number" validate:"omitempty,gte=1"`
	Capacity    *int       `json:"capacity" validate:"omitempty,gte=1"`
	Occupied    *bool      `json:"occupied"`
	CustomerID  *uint      `json:"customerId"`
	ArrivalTime *time.Time `json:"arrivalTime"`
}

func ListTablesHandler(store storage.TableStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tables, err := store.ListTables(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(tables)
	}
}

func GetTableHandler(store storage.TableStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		t, err := store.GetTable(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(t)
	}
}

func CreateTableHandler(store storage.TableStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTableRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		t := models.Table{Number: body.Number, Capacity: body.Capacity}
		if body.CustomerID != nil {
			t.Seat(body.CustomerID, time.Now())
		} else if body.Occupied != nil && *body.Occupied {
			t.Seat(nil, time.Now())
		}
		if err := store.CreateTable(c.UserContext(), &t); err != nil {
			return err
		}

		rec.Record(c, models.EntityTable, t.ID, models.AuditActionCreate,
			fmt.Sprintf("table %d added", t.Number), nil, t)
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// PATCH /api/tables/:id
// Setting occupied=false frees the table; assigning a customer seats them.
func UpdateTableHandler(store storage.TableStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateTableRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		var before models.Table
		t, err := store.UpdateTable(c.UserContext(), id, func(t *models.Table) error {
			before = *t
			if body.Number != nil {
				t.Number = *body.Number
			}
			if body.Capacity != nil {
				t.Capacity = *body.Capacity
			}
			switch {
			case body.Occupied != nil && !*body.Occupied:
				t.Free()
			case body.CustomerID != nil:
				t.Seat(body.CustomerID, time.Now())
			case body.Occupied != nil:
				t.Seat(nil, time.Now())
			}
			if body.ArrivalTime != nil && t.Occupied {
				at := *body.ArrivalTime
				t.ArrivalTime = &at
			}
			return nil
		})
		if err != nil {
			return err
		}

		rec.Record(c, models.EntityTable, t.ID, models.AuditActionUpdate,
			fmt.Sprintf("table %d updated", t.Number), before, t)
		return c.JSON(t)
	}
}

// DELETE /api/tables/:id
// Tables that still carry orders answer 409.
func DeleteTableHandler(store storage.TableStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		t, err := store.DeleteTable(c.UserContext(), id)
		if err != nil {
			return err
		}

		rec.Record(c, models.EntityTable, t.ID, models.AuditActionDelete,
			fmt.Sprintf("table %d deleted", t.Number), t, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
