package dashboard

import (
	"time"

	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/summary
// weeklySales holds the totals of Monday through Sunday of the current week.
func SummaryHandler(store storage.DashboardStore, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		sum, err := store.DashboardSummary(c.UserContext(), now().UTC())
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}
