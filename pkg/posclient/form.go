package posclient

import (
	"fmt"

	"restoran-pos/internal/models"
)

// FormLine is one row of the order form.
type FormLine struct {
	MenuItemID uint `json:"menuItemId"`
	Quantity   int  `json:"quantity"`
}

// FormTotal prices the order form against the menu the way the server will:
// the sum of price × quantity, rounded to cents.
func FormTotal(menu []models.MenuItem, lines []FormLine) (float64, error) {
	prices := make(map[uint]float64, len(menu))
	for _, m := range menu {
		prices[m.ID] = m.Price
	}

	var total float64
	for _, l := range lines {
		price, ok := prices[l.MenuItemID]
		if !ok {
			return 0, fmt.Errorf("menu item %d is not on the menu", l.MenuItemID)
		}
		if l.Quantity < 1 {
			return 0, fmt.Errorf("menu item %d: quantity must be at least 1", l.MenuItemID)
		}
		total += models.RoundMoney(price * float64(l.Quantity))
	}
	return models.RoundMoney(total), nil
}
