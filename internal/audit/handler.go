package audit

import (
	"context"
	"strconv"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entityType=menu_item&entityId=1&userId=2
func ListAuditLogsHandler(store storage.AuditStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := storage.AuditFilter{
			EntityType: c.Query("entityType"),
			EntityID:   queryUint(c, "entityId"),
			UserID:     queryUint(c, "userId"),
		}
		logs, err := store.ListAuditLogs(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(logs)
	}
}

// UndoHook runs after a change was undone, with the appended undo entry.
type UndoHook func(ctx context.Context, undo *models.AuditLog)

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler(store storage.AuditStore, hooks ...UndoHook) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		p, ok := auth.CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "missing user")
		}

		undo, err := store.UndoAuditLog(c.UserContext(), id, p.UserID, p.Name)
		if err != nil {
			return err
		}
		for _, h := range hooks {
			h(c.UserContext(), undo)
		}
		return c.JSON(undo)
	}
}

func queryUint(c *fiber.Ctx, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
