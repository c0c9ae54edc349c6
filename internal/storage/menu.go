package storage

import (
	"context"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ListMenuItems(ctx context.Context, f MenuFilter) ([]models.MenuItem, error) {
	q := s.conn(ctx).Model(&models.MenuItem{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Available != nil {
		q = q.Where("available = ?", *f.Available)
	}

	items := make([]models.MenuItem, 0)
	if err := q.Order("category asc, name asc").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (s *GormStore) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.conn(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *GormStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	item.Price = models.RoundMoney(item.Price)
	return translate(s.conn(ctx).Create(item).Error)
}

func (s *GormStore) UpdateMenuItem(ctx context.Context, id uint, apply func(*models.MenuItem) error) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		if err := apply(&item); err != nil {
			return err
		}
		item.ID = id
		item.Price = models.RoundMoney(item.Price)
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) DeleteMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrInvalidState
		}
		return tx.Delete(&models.MenuItem{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
