package storage

import (
	"context"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

func (s *GormStore) ListEmployeeRoles(ctx context.Context) ([]models.EmployeeRole, error) {
	roles := make([]models.EmployeeRole, 0)
	if err := s.conn(ctx).Order("role_name asc").Find(&roles).Error; err != nil {
		return nil, translate(err)
	}
	return roles, nil
}

func (s *GormStore) CreateEmployeeRole(ctx context.Context, r *models.EmployeeRole) error {
	return translate(s.conn(ctx).Create(r).Error)
}

func (s *GormStore) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	employees := make([]models.Employee, 0)
	if err := s.conn(ctx).Order("name asc").Find(&employees).Error; err != nil {
		return nil, translate(err)
	}
	return employees, nil
}

func (s *GormStore) CreateEmployee(ctx context.Context, e *models.Employee) error {
	e.Salary = models.RoundMoney(e.Salary)
	return s.tx(ctx, func(tx *gorm.DB) error {
		if e.RoleID != nil {
			if err := requireRef(tx, &models.EmployeeRole{}, *e.RoleID, "employee role"); err != nil {
				return err
			}
		}
		return tx.Create(e).Error
	})
}

func (s *GormStore) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var e models.Employee
	if err := s.conn(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) UpdateEmployee(ctx context.Context, id uint, apply func(*models.Employee) error) (*models.Employee, error) {
	var e models.Employee
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&e, id).Error; err != nil {
			return err
		}
		if err := apply(&e); err != nil {
			return err
		}
		e.ID = id
		e.Salary = models.RoundMoney(e.Salary)
		if e.RoleID != nil {
			if err := requireRef(tx, &models.EmployeeRole{}, *e.RoleID, "employee role"); err != nil {
				return err
			}
		}
		return tx.Save(&e).Error
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEmployee detaches the employee from orders and logins before removing
// the record.
func (s *GormStore) DeleteEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var e models.Employee
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&e, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("employee_id = ?", id).Update("employee_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("employee_id = ?", id).Update("employee_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Employee{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}
