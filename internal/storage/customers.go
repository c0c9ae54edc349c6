package storage

import (
	"context"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers := make([]models.Customer, 0)
	if err := s.conn(ctx).Order("name asc").Find(&customers).Error; err != nil {
		return nil, translate(err)
	}
	return customers, nil
}

func (s *GormStore) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return translate(s.conn(ctx).Create(c).Error)
}

func (s *GormStore) UpdateCustomer(ctx context.Context, id uint, apply func(*models.Customer) error) (*models.Customer, error) {
	var c models.Customer
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		if err := apply(&c); err != nil {
			return err
		}
		c.ID = id
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) ListCustomerOrders(ctx context.Context, customerID uint) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := s.conn(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

func (s *GormStore) DeleteCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		var held []models.Table
		if err := tx.Where("customer_id = ?", id).Find(&held).Error; err != nil {
			return err
		}
		for i := range held {
			held[i].Free()
			if err := tx.Save(&held[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Order{}).Where("customer_id = ?", id).Update("customer_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.CustomerVisit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.TableReservation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
