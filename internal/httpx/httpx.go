// Package httpx holds the request helpers and the error handler shared by the
// fiber handlers.
package httpx

import (
	"errors"
	"strconv"
	"strings"

	"restoran-pos/internal/storage"
	"restoran-pos/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler renders every error returned by a handler as {"error": msg}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		fe   *fiber.Error
		verr *validation.Error
	)
	switch {
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": message(err, "not found")})
	case errors.Is(err, storage.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": message(err, "already exists")})
	case errors.Is(err, storage.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": message(err, "not allowed")})
	case errors.Is(err, storage.ErrInvalidReference):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message(err, "invalid reference")})
	}

	log.Error().Err(err).
		Str("request_id", RequestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

// message keeps the sentinel text plus the first detail the store attached,
// without leaking raw driver errors.
func message(err error, fallback string) string {
	msg := err.Error()
	if msg == "" {
		return fallback
	}
	if i := strings.Index(msg, ": "); i >= 0 {
		detail := msg[i+2:]
		if j := strings.Index(detail, ": "); j >= 0 {
			detail = detail[:j]
		}
		return msg[:i] + ": " + detail
	}
	return msg
}

// ParseID reads a positive numeric route parameter.
func ParseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// Bind parses the request body into dst and validates it.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validation.Struct(dst)
}

const requestIDKey = "request_id"

func SetRequestID(c *fiber.Ctx, id string) {
	c.Locals(requestIDKey, id)
}

func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
