// Package seed loads reference data (roles, menu, tables) from YAML.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"gopkg.in/yaml.v3"
)

type MenuItem struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Category    string  `yaml:"category"`
	Available   *bool   `yaml:"available"`
}

type Table struct {
	Number   int `yaml:"number"`
	Capacity int `yaml:"capacity"`
}

type File struct {
	Roles     []string   `yaml:"roles"`
	MenuItems []MenuItem `yaml:"menuItems"`
	Tables    []Table    `yaml:"tables"`
}

type Store interface {
	storage.StaffStore
	storage.MenuStore
	storage.TableStore
}

type Result struct {
	Roles     int
	MenuItems int
	Tables    int
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	for i, m := range f.MenuItems {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Category) == "" {
			return fmt.Errorf("menuItems[%d]: name and category are required", i)
		}
		if m.Price < 0 {
			return fmt.Errorf("menuItems[%d]: price must not be negative", i)
		}
	}
	for i, t := range f.Tables {
		if t.Number < 1 || t.Capacity < 1 {
			return fmt.Errorf("tables[%d]: number and capacity must be positive", i)
		}
	}
	return nil
}

// Apply inserts the rows of f that are not stored yet. Roles match by name,
// menu items by name and category, tables by number.
func Apply(ctx context.Context, store Store, f *File) (Result, error) {
	var res Result

	roles, err := store.ListEmployeeRoles(ctx)
	if err != nil {
		return res, err
	}
	haveRole := make(map[string]bool, len(roles))
	for _, r := range roles {
		haveRole[strings.ToLower(r.RoleName)] = true
	}
	for _, name := range f.Roles {
		name = strings.TrimSpace(name)
		if name == "" || haveRole[strings.ToLower(name)] {
			continue
		}
		if err := store.CreateEmployeeRole(ctx, &models.EmployeeRole{RoleName: name}); err != nil {
			return res, fmt.Errorf("role %q: %w", name, err)
		}
		haveRole[strings.ToLower(name)] = true
		res.Roles++
	}

	items, err := store.ListMenuItems(ctx, storage.MenuFilter{})
	if err != nil {
		return res, err
	}
	menuKey := func(name, category string) string {
		return strings.ToLower(name) + "\x00" + strings.ToLower(category)
	}
	haveItem := make(map[string]bool, len(items))
	for _, it := range items {
		haveItem[menuKey(it.Name, it.Category)] = true
	}
	for _, m := range f.MenuItems {
		key := menuKey(m.Name, m.Category)
		if haveItem[key] {
			continue
		}
		item := models.MenuItem{
			Name:        m.Name,
			Description: m.Description,
			Price:       m.Price,
			Category:    m.Category,
			Available:   m.Available == nil || *m.Available,
		}
		if err := store.CreateMenuItem(ctx, &item); err != nil {
			return res, fmt.Errorf("menu item %q: %w", m.Name, err)
		}
		haveItem[key] = true
		res.MenuItems++
	}

	tables, err := store.ListTables(ctx)
	if err != nil {
		return res, err
	}
	haveTable := make(map[int]bool, len(tables))
	for _, t := range tables {
		haveTable[t.Number] = true
	}
	for _, t := range f.Tables {
		if haveTable[t.Number] {
			continue
		}
		if err := store.CreateTable(ctx, &models.Table{Number: t.Number, Capacity: t.Capacity}); err != nil {
			return res, fmt.Errorf("table %d: %w", t.Number, err)
		}
		haveTable[t.Number] = true
		res.Tables++
	}
	return res, nil
}
