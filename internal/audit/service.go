// Package audit records entity changes with before/after snapshots and
// exposes them for review and undo.
package audit

import (
	"context"
	"encoding/json"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Recorder struct {
	store storage.AuditStore
}

func NewRecorder(store storage.AuditStore) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Write(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	return r.store.CreateAuditLog(ctx, &entry)
}

// Record writes an entry attributed to the request's user. Failures are
// logged and never fail the request.
func (r *Recorder) Record(c *fiber.Ctx, entityType string, entityID uint, action models.AuditAction, description string, before, after any) {
	if r == nil {
		return
	}
	p, _ := auth.CurrentUser(c)
	err := r.Write(c.UserContext(), LogOptions{
		UserID:      p.UserID,
		UserName:    p.Name,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("entity_type", entityType).
			Uint("entity_id", entityID).
			Msg("audit log not written")
	}
}

func snapshot(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
