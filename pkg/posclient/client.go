// Package posclient is a typed client for the restaurant POS REST API. Reads
// are cached per URL until a mutation invalidates them.
package posclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

// APIError is a non 2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	timeout time.Duration

	mu    sync.Mutex
	token string
	cache map[string][]byte
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		cache:   make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invalidate drops every cached response whose path starts with one of the
// given prefixes. Without prefixes the whole cache is cleared.
func (c *Client) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(prefixes) == 0 {
		clear(c.cache)
		return
	}
	for key := range c.cache {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				delete(c.cache, key)
				break
			}
		}
	}
}

func (c *Client) cached(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.cache[path]
	return body, ok
}

func (c *Client) store(path string, body []byte) {
	c.mu.Lock()
	c.cache[path] = body
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// query serves GET requests, from the cache when possible.
func (c *Client) query(ctx context.Context, path string, dst any) error {
	if body, ok := c.cached(path); ok {
		return json.Unmarshal(body, dst)
	}
	body, err := c.do(ctx, fiber.MethodGet, path, nil)
	if err != nil {
		return err
	}
	c.store(path, body)
	return json.Unmarshal(body, dst)
}

// mutate sends a write request and drops the cached reads it affects.
func (c *Client) mutate(ctx context.Context, method, path string, in, dst any, invalidate ...string) error {
	body, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	c.Invalidate(invalidate...)
	if dst == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if tok := c.bearer(); tok != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	}
	if in != nil {
		a.JSON(in)
	}
	a.Timeout(timeout)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s %s: %w", method, path, errs[0])
	}
	if status < 200 || status > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(body))
		}
		return nil, &APIError{Status: status, Message: e.Error}
	}
	return body, nil
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	EmployeeID *uint           `json:"employeeId"`
}

// Login exchanges credentials for a token and uses it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.mutate(ctx, fiber.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	c.Invalidate()
	return &out, nil
}

// Menu

type MenuItemInput struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    string   `json:"category,omitempty"`
	Available   *bool    `json:"available,omitempty"`
}

func (c *Client) MenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.query(ctx, "/api/menu-items", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := c.mutate(ctx, fiber.MethodPost, "/api/menu-items", in, &item, "/api/menu-items"); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateMenuItem(ctx context.Context, id uint, in MenuItemInput) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := c.mutate(ctx, fiber.MethodPatch, fmt.Sprintf("/api/menu-items/%d", id), in, &item, "/api/menu-items"); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteMenuItem(ctx context.Context, id uint) error {
	return c.mutate(ctx, fiber.MethodDelete, fmt.Sprintf("/api/menu-items/%d", id), nil, nil, "/api/menu-items")
}

// Tables

func (c *Client) Tables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := c.query(ctx, "/api/tables", &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *Client) CreateTable(ctx context.Context, number, capacity int) (*models.Table, error) {
	var t models.Table
	in := map[string]int{"number": number, "capacity": capacity}
	if err := c.mutate(ctx, fiber.MethodPost, "/api/tables", in, &t, "/api/tables", "/api/dashboard"); err != nil {
		return nil, err
	}
	return &t, nil
}

// SetTableOccupied seats or frees a table.
func (c *Client) SetTableOccupied(ctx context.Context, id uint, occupied bool) (*models.Table, error) {
	var t models.Table
	in := map[string]bool{"occupied": occupied}
	if err := c.mutate(ctx, fiber.MethodPatch, fmt.Sprintf("/api/tables/%d", id), in, &t, "/api/tables", "/api/dashboard"); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTable(ctx context.Context, id uint) error {
	return c.mutate(ctx, fiber.MethodDelete, fmt.Sprintf("/api/tables/%d", id), nil, nil, "/api/tables", "/api/dashboard")
}

// Customers

// visitReads are the cached reads seating or releasing a customer changes.
var visitReads = []string{"/api/customers", "/api/tables", "/api/dashboard"}

type CustomerInput struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone string  `json:"phone"`
}

func (c *Client) Customers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := c.query(ctx, "/api/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	var cu models.Customer
	if err := c.mutate(ctx, fiber.MethodPost, "/api/customers", in, &cu, "/api/customers", "/api/dashboard"); err != nil {
		return nil, err
	}
	return &cu, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id uint) error {
	return c.mutate(ctx, fiber.MethodDelete, fmt.Sprintf("/api/customers/%d", id), nil, nil,
		"/api/customers", "/api/orders", "/api/tables", "/api/table-reservations", "/api/dashboard")
}

func (c *Client) CustomerVisits(ctx context.Context, customerID uint) ([]models.CustomerVisit, error) {
	var visits []models.CustomerVisit
	if err := c.query(ctx, fmt.Sprintf("/api/customers/%d/visits", customerID), &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// StartVisit seats the customer at a table.
func (c *Client) StartVisit(ctx context.Context, customerID, tableID uint) (*models.CustomerVisit, error) {
	var v models.CustomerVisit
	in := map[string]uint{"tableId": tableID}
	if err := c.mutate(ctx, fiber.MethodPost, fmt.Sprintf("/api/customers/%d/visits", customerID), in, &v, visitReads...); err != nil {
		return nil, err
	}
	return &v, nil
}

// EndVisit closes a visit and frees its table.
func (c *Client) EndVisit(ctx context.Context, visitID uint) (*models.CustomerVisit, error) {
	var v models.CustomerVisit
	if err := c.mutate(ctx, fiber.MethodPatch, fmt.Sprintf("/api/customer-visits/%d/end", visitID), nil, &v, visitReads...); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) CustomerOrders(ctx context.Context, customerID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := c.query(ctx, fmt.Sprintf("/api/customers/%d/orders", customerID), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CustomerReservations(ctx context.Context, customerID uint) ([]models.TableReservation, error) {
	var list []models.TableReservation
	if err := c.query(ctx, fmt.Sprintf("/api/customers/%d/reservations", customerID), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Reservations

func (c *Client) Reservations(ctx context.Context) ([]models.TableReservation, error) {
	var list []models.TableReservation
	if err := c.query(ctx, "/api/table-reservations", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateReservation(ctx context.Context, customerID, tableID uint, at time.Time) (*models.TableReservation, error) {
	var r models.TableReservation
	in := map[string]any{"customerId": customerID, "tableId": tableID, "reservationTime": at}
	if err := c.mutate(ctx, fiber.MethodPost, "/api/table-reservations", in, &r, "/api/table-reservations", "/api/customers"); err != nil {
		return nil, err
	}
	return &r, nil
}

// Orders

// orderReads are the cached reads an order mutation can change.
var orderReads = []string{"/api/orders", "/api/kitchen", "/api/tables", "/api/customers", "/api/dashboard"}

type OrderInput struct {
	TableID    uint       `json:"tableId"`
	CustomerID *uint      `json:"customerId,omitempty"`
	EmployeeID *uint      `json:"employeeId,omitempty"`
	Tax        *float64   `json:"tax,omitempty"`
	Discount   *float64   `json:"discount,omitempty"`
	Items      []FormLine `json:"items"`
}

func (c *Client) Orders(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error) {
	path := "/api/orders"
	if len(statuses) > 0 {
		parts := make([]string, len(statuses))
		for i, s := range statuses {
			parts[i] = string(s)
		}
		path += "?status=" + url.QueryEscape(strings.Join(parts, ","))
	}
	var orders []models.Order
	if err := c.query(ctx, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Order(ctx context.Context, id uint) (*storage.OrderWithItems, error) {
	var o storage.OrderWithItems
	if err := c.query(ctx, fmt.Sprintf("/api/orders/%d", id), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*storage.OrderWithItems, error) {
	var o storage.OrderWithItems
	if err := c.mutate(ctx, fiber.MethodPost, "/api/orders", in, &o, orderReads...); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	var o models.Order
	in := map[string]models.OrderStatus{"status": status}
	if err := c.mutate(ctx, fiber.MethodPatch, fmt.Sprintf("/api/orders/%d", id), in, &o, orderReads...); err != nil {
		return nil, err
	}
	return &o, nil
}

// AdvanceOrder moves an order to the next kitchen status.
func (c *Client) AdvanceOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := c.mutate(ctx, fiber.MethodPost, fmt.Sprintf("/api/orders/%d/advance", id), nil, &o, orderReads...); err != nil {
		return nil, err
	}
	return &o, nil
}

// AddOrderItem adds a line to an existing order.
func (c *Client) AddOrderItem(ctx context.Context, orderID uint, line FormLine) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := c.mutate(ctx, fiber.MethodPost, fmt.Sprintf("/api/orders/%d/items", orderID), line, &item, orderReads...); err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemChange is the answer to a line edit. Item is nil once the line is gone.
type ItemChange struct {
	Item  *models.OrderItem `json:"item"`
	Order models.Order      `json:"order"`
}

// OrderItemInput changes the quantity or the unit price of a line.
type OrderItemInput struct {
	Quantity *int     `json:"quantity,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

func (c *Client) UpdateOrderItem(ctx context.Context, orderID, itemID uint, in OrderItemInput) (*ItemChange, error) {
	return c.changeLine(ctx, fiber.MethodPatch, orderLine(orderID, itemID, ""), in)
}

func (c *Client) IncreaseOrderItem(ctx context.Context, orderID, itemID uint) (*ItemChange, error) {
	return c.changeLine(ctx, fiber.MethodPost, orderLine(orderID, itemID, "/increase"), nil)
}

// DecreaseOrderItem lowers the quantity by one. A line at quantity 1 is
// removed and the answer carries a nil Item.
func (c *Client) DecreaseOrderItem(ctx context.Context, orderID, itemID uint) (*ItemChange, error) {
	return c.changeLine(ctx, fiber.MethodPost, orderLine(orderID, itemID, "/decrease"), nil)
}

func (c *Client) DeleteOrderItem(ctx context.Context, orderID, itemID uint) (*ItemChange, error) {
	return c.changeLine(ctx, fiber.MethodDelete, orderLine(orderID, itemID, ""), nil)
}

func (c *Client) changeLine(ctx context.Context, method, path string, in any) (*ItemChange, error) {
	var change ItemChange
	if err := c.mutate(ctx, method, path, in, &change, orderReads...); err != nil {
		return nil, err
	}
	return &change, nil
}

func orderLine(orderID, itemID uint, suffix string) string {
	return fmt.Sprintf("/api/orders/%d/items/%d%s", orderID, itemID, suffix)
}

// KitchenOrders always goes to the server; the feed changes without this
// client mutating anything.
func (c *Client) KitchenOrders(ctx context.Context) ([]storage.KitchenOrder, error) {
	body, err := c.do(ctx, fiber.MethodGet, "/api/kitchen/orders", nil)
	if err != nil {
		return nil, err
	}
	var feed []storage.KitchenOrder
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

func (c *Client) DashboardSummary(ctx context.Context) (*storage.DashboardSummary, error) {
	var sum storage.DashboardSummary
	if err := c.query(ctx, "/api/dashboard/summary", &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Staff

// staffReads are the cached reads an employee or role change affects.
var staffReads = []string{"/api/employees", "/api/employee-roles", "/api/dashboard"}

type EmployeeInput struct {
	Name   *string  `json:"name,omitempty"`
	Email  *string  `json:"email,omitempty"`
	Phone  *string  `json:"phone,omitempty"`
	Salary *float64 `json:"salary,omitempty"`
	RoleID *uint    `json:"roleId,omitempty"`
}

func (c *Client) EmployeeRoles(ctx context.Context) ([]models.EmployeeRole, error) {
	var roles []models.EmployeeRole
	if err := c.query(ctx, "/api/employee-roles", &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *Client) CreateEmployeeRole(ctx context.Context, name string) (*models.EmployeeRole, error) {
	var role models.EmployeeRole
	in := map[string]string{"roleName": name}
	if err := c.mutate(ctx, fiber.MethodPost, "/api/employee-roles", in, &role, staffReads...); err != nil {
		return nil, err
	}
	return &role, nil
}

func (c *Client) Employees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := c.query(ctx, "/api/employees", &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (c *Client) CreateEmployee(ctx context.Context, in EmployeeInput) (*models.Employee, error) {
	var e models.Employee
	if err := c.mutate(ctx, fiber.MethodPost, "/api/employees", in, &e, staffReads...); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id uint, in EmployeeInput) (*models.Employee, error) {
	var e models.Employee
	if err := c.mutate(ctx, fiber.MethodPatch, fmt.Sprintf("/api/employees/%d", id), in, &e, staffReads...); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEmployee also drops cached orders, which lose the employee link.
func (c *Client) DeleteEmployee(ctx context.Context, id uint) error {
	return c.mutate(ctx, fiber.MethodDelete, fmt.Sprintf("/api/employees/%d", id), nil, nil,
		append(staffReads, "/api/orders", "/api/kitchen")...)
}
