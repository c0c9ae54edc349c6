package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"restoran-pos/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *GormStore) CreateAuditLog(ctx context.Context, l *models.AuditLog) error {
	if len(l.BeforeData) == 0 {
		l.BeforeData = datatypes.JSON("null")
	}
	if len(l.AfterData) == 0 {
		l.AfterData = datatypes.JSON("null")
	}
	return translate(s.conn(ctx).Create(l).Error)
}

func (s *GormStore) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	q := s.conn(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}

	logs := make([]models.AuditLog, 0)
	if err := q.Order("created_at desc, id desc").Find(&logs).Error; err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

// UndoAuditLog reverts the change recorded by a log entry: a create is
// deleted, an update is restored to its before state and a delete is
// recreated. The entry is marked undone and an undo entry is appended.
func (s *GormStore) UndoAuditLog(ctx context.Context, id, userID uint, userName string) (*models.AuditLog, error) {
	var undo models.AuditLog
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, id).Error; err != nil {
			return err
		}
		if entry.IsUndone {
			return fmt.Errorf("%w: change already undone", ErrInvalidState)
		}

		var err error
		switch entry.Action {
		case models.AuditActionCreate:
			err = deleteEntity(tx, entry.EntityType, entry.EntityID)
		case models.AuditActionUpdate:
			err = saveEntity(tx, entry.EntityType, entry.BeforeData)
		case models.AuditActionDelete:
			err = saveEntity(tx, entry.EntityType, entry.BeforeData)
		default:
			err = fmt.Errorf("%w: %s entries cannot be undone", ErrInvalidState, entry.Action)
		}
		if err != nil {
			return err
		}

		now := tx.NowFunc()
		entry.IsUndone = true
		entry.UndoneBy = &userID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		undo = models.AuditLog{
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: truncate("Undone: "+entry.Description, 255),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}
		return tx.Create(&undo).Error
	})
	if err != nil {
		return nil, err
	}
	return &undo, nil
}

func entityModel(entityType string) (any, error) {
	switch entityType {
	case models.EntityMenuItem:
		return &models.MenuItem{}, nil
	case models.EntityTable:
		return &models.Table{}, nil
	case models.EntityCustomer:
		return &models.Customer{}, nil
	}
	return nil, fmt.Errorf("%w: %s changes cannot be undone", ErrInvalidState, entityType)
}

func deleteEntity(tx *gorm.DB, entityType string, id uint) error {
	m, err := entityModel(entityType)
	if err != nil {
		return err
	}
	res := tx.Delete(m, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, entityType, id)
	}
	return nil
}

// saveEntity writes the snapshot back, inserting the row again when it is
// gone.
func saveEntity(tx *gorm.DB, entityType string, data datatypes.JSON) error {
	m, err := entityModel(entityType)
	if err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: no snapshot recorded", ErrInvalidState)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	return tx.Save(m).Error
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
