package storage

import (
	"context"
	"fmt"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ListReservations(ctx context.Context) ([]models.TableReservation, error) {
	reservations := make([]models.TableReservation, 0)
	if err := s.conn(ctx).Order("reservation_time asc").Find(&reservations).Error; err != nil {
		return nil, translate(err)
	}
	return reservations, nil
}

func (s *GormStore) ListCustomerReservations(ctx context.Context, customerID uint) ([]models.TableReservation, error) {
	reservations := make([]models.TableReservation, 0)
	err := s.conn(ctx).
		Where("customer_id = ?", customerID).
		Order("reservation_time desc").
		Find(&reservations).Error
	if err != nil {
		return nil, translate(err)
	}
	return reservations, nil
}

func (s *GormStore) CreateReservation(ctx context.Context, r *models.TableReservation) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireRef(tx, &models.Customer{}, r.CustomerID, "customer"); err != nil {
			return err
		}
		if err := requireRef(tx, &models.Table{}, r.TableID, "table"); err != nil {
			return err
		}
		var n int64
		err := tx.Model(&models.TableReservation{}).
			Where("customer_id = ? AND table_id = ?", r.CustomerID, r.TableID).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: customer %d already holds table %d", ErrConflict, r.CustomerID, r.TableID)
		}
		return tx.Create(r).Error
	})
}
