package menu

import (
	"fmt"
	"strconv"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type CreateMenuItemRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required,max=50"`
	Available   *bool    `json:"available"`
}

type UpdateMenuItemRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,min=1,max=50"`
	Available   *bool    `json:"available"`
}

// GET /api/menu-items?category=drinks&available=true
func ListMenuItemsHandler(store storage.MenuStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := storage.MenuFilter{Category: c.Query("category")}
		if v := c.Query("available"); v != "" {
			avail, err := strconv.ParseBool(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "available must be true or false")
			}
			f.Available = &avail
		}

		items, err := store.ListMenuItems(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

func GetMenuItemHandler(store storage.MenuStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		item, err := store.GetMenuItem(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

func CreateMenuItemHandler(store storage.MenuStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuItemRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		item := models.MenuItem{
			Name:        body.Name,
			Description: body.Description,
			Price:       *body.Price,
			Category:    body.Category,
			Available:   true,
		}
		if body.Available != nil {
			item.Available = *body.Available
		}
		if err := store.CreateMenuItem(c.UserContext(), &item); err != nil {
			return err
		}

		rec.Record(c, models.EntityMenuItem, item.ID, models.AuditActionCreate,
			fmt.Sprintf("menu item added: %s", item.Name), nil, item)
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// PATCH /api/menu-items/:id
func UpdateMenuItemHandler(store storage.MenuStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateMenuItemRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		var before models.MenuItem
		item, err := store.UpdateMenuItem(c.UserContext(), id, func(m *models.MenuItem) error {
			before = *m
			if body.Name != nil {
				m.Name = *body.Name
			}
			if body.Description != nil {
				m.Description = *body.Description
			}
			if body.Price != nil {
				m.Price = *body.Price
			}
			if body.Category != nil {
				m.Category = *body.Category
			}
			if body.Available != nil {
				m.Available = *body.Available
			}
			return nil
		})
		if err != nil {
			return err
		}

		rec.Record(c, models.EntityMenuItem, item.ID, models.AuditActionUpdate,
			fmt.Sprintf("menu item updated: %s", item.Name), before, item)
		return c.JSON(item)
	}
}

func DeleteMenuItemHandler(store storage.MenuStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		item, err := store.DeleteMenuItem(c.UserContext(), id)
		if err != nil {
			return err
		}

		rec.Record(c, models.EntityMenuItem, item.ID, models.AuditActionDelete,
			fmt.Sprintf("menu item deleted: %s", item.Name), item, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
