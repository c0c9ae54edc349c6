package menu

import (
	"fmt"
	"strconv"
	"strings"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"
	"restoran-pos/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created []models.MenuItem `json:"created"`
	Errors  []RowError        `json:"errors"`
}

// POST /api/menu-items/import
// Reads name, description, price, category and available from the first sheet
// of an .xlsx upload.
func ImportMenuItemsHandler(store storage.MenuStore, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file upload missing")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return err
		}
		defer file.Close()

		book, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read spreadsheet")
		}
		defer book.Close()

		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "spreadsheet has no sheets")
		}
		rows, err := book.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read sheet")
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "spreadsheet is empty")
		}

		items, rowErrs := ParseRows(rows)
		result := ImportResult{Created: make([]models.MenuItem, 0, len(items)), Errors: rowErrs}
		for _, it := range items {
			item := it.MenuItem
			if err := store.CreateMenuItem(c.UserContext(), &item); err != nil {
				result.Errors = append(result.Errors, RowError{Row: it.Row, Message: err.Error()})
				continue
			}
			rec.Record(c, models.EntityMenuItem, item.ID, models.AuditActionCreate,
				fmt.Sprintf("menu item imported: %s", item.Name), nil, item)
			result.Created = append(result.Created, item)
		}

		status := fiber.StatusCreated
		if len(result.Created) == 0 {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(result)
	}
}

type ParsedRow struct {
	Row int
	models.MenuItem
}

// ParseRows converts sheet rows into menu items. A first row whose first cell
// reads "name" is treated as a header. Row numbers are 1-based as shown in
// spreadsheet software.
func ParseRows(rows [][]string) ([]ParsedRow, []RowError) {
	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && isHeader(rows[0][0]) {
		start = 1
	}

	var (
		items []ParsedRow
		errs  = make([]RowError, 0)
	)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		item, err := parseRow(row)
		if err != nil {
			errs = append(errs, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		items = append(items, ParsedRow{Row: i + 1, MenuItem: item})
	}
	return items, errs
}

func isHeader(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "name", "item", "menu item", "product", "product name":
		return true
	}
	return false
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseRow(row []string) (models.MenuItem, error) {
	raw := cell(row, 2)
	price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("invalid price %q", raw)
	}

	available := true
	if v := cell(row, 4); v != "" {
		switch strings.ToLower(v) {
		case "yes", "y", "1", "true", "evet":
			available = true
		case "no", "n", "0", "false", "hayır":
			available = false
		default:
			return models.MenuItem{}, fmt.Errorf("invalid available value %q", v)
		}
	}

	req := CreateMenuItemRequest{
		Name:        cell(row, 0),
		Description: cell(row, 1),
		Price:       &price,
		Category:    cell(row, 3),
		Available:   &available,
	}
	if err := validation.Struct(&req); err != nil {
		return models.MenuItem{}, err
	}
	return models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Available:   available,
	}, nil
}
