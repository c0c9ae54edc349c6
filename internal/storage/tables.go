package storage

import (
	"context"
	"fmt"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ListTables(ctx context.Context) ([]models.Table, error) {
	tables := make([]models.Table, 0)
	if err := s.conn(ctx).Order("number asc").Find(&tables).Error; err != nil {
		return nil, translate(err)
	}
	return tables, nil
}

func (s *GormStore) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var t models.Table
	if err := s.conn(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) CreateTable(ctx context.Context, t *models.Table) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if t.CustomerID != nil {
			if err := requireRef(tx, &models.Customer{}, *t.CustomerID, "customer"); err != nil {
				return err
			}
		}
		return tx.Create(t).Error
	})
}

func (s *GormStore) UpdateTable(ctx context.Context, id uint, apply func(*models.Table) error) (*models.Table, error) {
	var t models.Table
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}
		if err := apply(&t); err != nil {
			return err
		}
		t.ID = id
		if t.CustomerID != nil {
			if err := requireRef(tx, &models.Customer{}, *t.CustomerID, "customer"); err != nil {
				return err
			}
		}
		return tx.Save(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GormStore) DeleteTable(ctx context.Context, id uint) (*models.Table, error) {
	var t models.Table
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&t, id).Error; err != nil {
			return err
		}
		var orders int64
		if err := tx.Model(&models.Order{}).Where("table_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return fmt.Errorf("%w: table %d has %d orders", ErrConflict, t.Number, orders)
		}
		if err := tx.Where("table_id = ?", id).Delete(&models.CustomerVisit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", id).Delete(&models.TableReservation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Table{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
