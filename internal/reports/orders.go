package reports

import (
	"fmt"
	"time"

	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const (
	dateLayout   = "2006-01-02"
	ordersSheet  = "Orders"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultRange = 30 * 24 * time.Hour
)

var orderColumns = []any{"ID", "Created At", "Table", "Customer", "Employee", "Status", "Subtotal", "Tax", "Discount", "Total"}

// ParseRange reads the inclusive from/to dates of a report. Missing bounds
// default to the last 30 days ending today. The returned end is exclusive.
func ParseRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.UTC().Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be YYYY-MM-DD")
		}
		to = t.AddDate(0, 0, 1)
	}
	from := to.Add(-defaultRange)
	if fromStr != "" {
		f, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be YYYY-MM-DD")
		}
		from = f
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must not be after to")
	}
	return from, to, nil
}

// GET /api/reports/orders.xlsx?from=2026-01-01&to=2026-01-31
func OrdersXLSXHandler(store storage.OrderStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := ParseRange(c.Query("from"), c.Query("to"), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		orders, err := store.ListOrdersBetween(c.UserContext(), from, to)
		if err != nil {
			return err
		}

		book, err := BuildOrdersWorkbook(orders)
		if err != nil {
			return err
		}
		defer book.Close()
		buf, err := book.WriteToBuffer()
		if err != nil {
			return err
		}

		name := fmt.Sprintf("orders-%s-%s.xlsx", from.Format(dateLayout), to.AddDate(0, 0, -1).Format(dateLayout))
		c.Set(fiber.HeaderContentType, xlsxMIME)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Send(buf.Bytes())
	}
}

// BuildOrdersWorkbook lays out one row per order followed by a totals row.
func BuildOrdersWorkbook(orders []models.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := orderColumns
	if err := f.SetSheetRow(ordersSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	var subtotal, tax, discount, total float64
	for i, o := range orders {
		row := []any{
			o.ID,
			o.CreatedAt.UTC().Format("2006-01-02 15:04"),
			o.TableID,
			optional(o.CustomerID),
			optional(o.EmployeeID),
			string(o.Status),
			o.Subtotal,
			o.Tax,
			o.Discount,
			o.TotalAmount,
		}
		if err := f.SetSheetRow(ordersSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			f.Close()
			return nil, err
		}
		subtotal += o.Subtotal
		tax += o.Tax
		discount += o.Discount
		total += o.TotalAmount
	}

	totals := []any{"Total", "", "", "", "", fmt.Sprintf("%d orders", len(orders)),
		models.RoundMoney(subtotal), models.RoundMoney(tax), models.RoundMoney(discount), models.RoundMoney(total)}
	if err := f.SetSheetRow(ordersSheet, fmt.Sprintf("A%d", len(orders)+2), &totals); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func optional(id *uint) any {
	if id == nil {
		return ""
	}
	return *id
}
