package reservations

import (
	"time"

	"restoran-pos/internal/httpx"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type CreateReservationRequest struct {
	CustomerID      uint       `json:"customerId" validate:"required"`
	TableID         uint       `json:"tableId" validate:"required"`
	ReservationTime *time.Time `json:"reservationTime" validate:"required"`
}

func ListReservationsHandler(store storage.ReservationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := store.ListReservations(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

func CreateReservationHandler(store storage.ReservationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReservationRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}

		r := models.TableReservation{
			CustomerID:      body.CustomerID,
			TableID:         body.TableID,
			ReservationTime: body.ReservationTime.UTC(),
		}
		if err := store.CreateReservation(c.UserContext(), &r); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}
