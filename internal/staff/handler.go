package staff

import (
	"strings"

	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type CreateRoleRequest struct {
	RoleName string `json:"roleName" validate:"required,max=50"`
}

type CreateEmployeeRequest struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Email  *string  `json:"email" validate:"omitempty,email,max=100"`
	Phone  string   `json:"phone" validate:"required,max=20"`
	Salary *float64 `json:"salary" validate:"required,gte=0"`
	RoleID *uint    `json:"roleId"`
}

func ListRolesHandler(store storage.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, err := store.ListEmployeeRoles(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(roles)
	}
}

func CreateRoleHandler(store storage.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRoleRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		role := models.EmployeeRole{RoleName: strings.TrimSpace(body.RoleName)}
		if err := store.CreateEmployeeRole(c.UserContext(), &role); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(role)
	}
}

func ListEmployeesHandler(store storage.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		employees, err := store.ListEmployees(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(employees)
	}
}

func CreateEmployeeHandler(store storage.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		e := models.Employee{
			Name:   strings.TrimSpace(body.Name),
			Phone:  strings.TrimSpace(body.Phone),
			Salary: *body.Salary,
			RoleID: body.RoleID,
		}
		if body.Email != nil && strings.TrimSpace(*body.Email) != "" {
			email := strings.ToLower(strings.TrimSpace(*body.Email))
			e.Email = &email
		}
		if err := store.CreateEmployee(c.UserContext(), &e); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

type UpdateEmployeeRequest struct {
	Name   *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Email  *string  `json:"email" validate:"omitempty,email,max=100"`
	Phone  *string  `json:"phone" validate:"omitempty,min=1,max=20"`
	Salary *float64 `json:"salary" validate:"omitempty,gte=0"`
	RoleID *uint    `json:"roleId"`
}

func GetEmployeeHandler(store storage.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		e, err := store.GetEmployee(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

// An empty email clears it. Role changes must name an existing role.
func UpdateEmployeeHandler(store storage.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateEmployeeRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		e, err := store.UpdateEmployee(c.UserContext(), id, func(m *models.Employee) error {
			if body.Name != nil {
				m.Name = strings.TrimSpace(*body.Name)
			}
			if body.Email != nil {
				m.Email = nil
				if email := strings.ToLower(strings.TrimSpace(*body.Email)); email != "" {
					m.Email = &email
				}
			}
			if body.Phone != nil {
				m.Phone = strings.TrimSpace(*body.Phone)
			}
			if body.Salary != nil {
				m.Salary = *body.Salary
			}
			if body.RoleID != nil {
				m.RoleID = body.RoleID
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

func DeleteEmployeeHandler(store storage.StaffStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c, "id")
		if err != nil {
			return err
		}
		if _, err := store.DeleteEmployee(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
