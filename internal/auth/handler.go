package auth

import (
	"errors"
	"strings"
	"time"

	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterAdminRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name       string          `json:"name" validate:"required,max=100"`
	Email      string          `json:"email" validate:"required,email,max=100"`
	Password   string          `json:"password" validate:"required,min=8"`
	Role       models.UserRole `json:"role" validate:"omitempty,oneof=admin staff"`
	EmployeeID *uint           `json:"employeeId"`
}

type UserResponse struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	EmployeeID *uint           `json:"employeeId"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, EmployeeID: u.EmployeeID}
}

// RegisterAdminHandler creates the first admin account. It is refused once an
// admin exists.
func RegisterAdminHandler(users storage.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		count, err := users.CountUsersByRole(c.UserContext(), models.RoleAdmin)
		if err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}

		user, err := newUser(body.Name, body.Email, body.Password, models.RoleAdmin, nil)
		if err != nil {
			return err
		}
		if err := users.CreateUser(c.UserContext(), user); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func LoginHandler(users storage.UserStore, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		user, err := users.GetUserByEmail(c.UserContext(), normalizeEmail(body.Email))
		if errors.Is(err, storage.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		token, err := GenerateToken(secret, user, time.Now())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func MeHandler(users storage.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}
		user, err := users.GetUser(c.UserContext(), p.UserID)
		if err != nil {
			return err
		}
		return c.JSON(toUserResponse(user))
	}
}

// CreateUserHandler lets an admin add staff logins.
func CreateUserHandler(users storage.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if body.Role == "" {
			body.Role = models.RoleStaff
		}

		user, err := newUser(body.Name, body.Email, body.Password, body.Role, body.EmployeeID)
		if err != nil {
			return err
		}
		if err := users.CreateUser(c.UserContext(), user); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func newUser(name, email, password string, role models.UserRole, employeeID *uint) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		EmployeeID:   employeeID,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
