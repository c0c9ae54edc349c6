package storage

import (
	"context"
	"fmt"
	"time"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ListCustomerVisits(ctx context.Context, customerID uint) ([]models.CustomerVisit, error) {
	visits := make([]models.CustomerVisit, 0)
	err := s.conn(ctx).
		Where("customer_id = ?", customerID).
		Order("start_time desc, id desc").
		Find(&visits).Error
	if err != nil {
		return nil, translate(err)
	}
	return visits, nil
}

func (s *GormStore) StartVisit(ctx context.Context, customerID, tableID uint, at time.Time) (*models.CustomerVisit, error) {
	var visit *models.CustomerVisit
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if ok, err := exists(tx, &models.Customer{}, customerID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		if ok, err := exists(tx, &models.Table{}, tableID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: table %d", ErrNotFound, tableID)
		}

		open, err := openVisit(tx, customerID, tableID)
		if err != nil {
			return err
		}
		if open != nil {
			return fmt.Errorf("%w: visit %d is still open", ErrConflict, open.ID)
		}

		visit, err = startVisit(tx, customerID, tableID, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *GormStore) EndVisit(ctx context.Context, visitID uint, at time.Time) (*models.CustomerVisit, error) {
	var visit models.CustomerVisit
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&visit, visitID).Error; err != nil {
			return err
		}
		if !visit.Open() {
			return fmt.Errorf("%w: visit %d already ended", ErrInvalidState, visitID)
		}
		return endVisit(tx, &visit, at)
	})
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

func openVisit(tx *gorm.DB, customerID, tableID uint) (*models.CustomerVisit, error) {
	var visits []models.CustomerVisit
	err := tx.Where("customer_id = ? AND table_id = ? AND end_time IS NULL", customerID, tableID).
		Order("start_time desc").
		Limit(1).
		Find(&visits).Error
	if err != nil || len(visits) == 0 {
		return nil, err
	}
	return &visits[0], nil
}

// startVisit records the visit and seats the customer at the table.
func startVisit(tx *gorm.DB, customerID, tableID uint, at time.Time) (*models.CustomerVisit, error) {
	visit := models.CustomerVisit{
		CustomerID: customerID,
		TableID:    tableID,
		StartTime:  at,
	}
	if err := tx.Create(&visit).Error; err != nil {
		return nil, err
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		return nil, err
	}
	table.Seat(&customerID, at)
	if err := tx.Save(&table).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

// endVisit closes the visit and frees the table when the visiting customer
// still holds it.
func endVisit(tx *gorm.DB, visit *models.CustomerVisit, at time.Time) error {
	if at.Before(visit.StartTime) {
		at = visit.StartTime
	}
	visit.EndTime = &at
	if err := tx.Model(visit).Update("end_time", at).Error; err != nil {
		return err
	}

	var table models.Table
	if err := tx.First(&table, visit.TableID).Error; err != nil {
		return err
	}
	if table.CustomerID != nil && *table.CustomerID == visit.CustomerID {
		table.Free()
		return tx.Save(&table).Error
	}
	return nil
}
