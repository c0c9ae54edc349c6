// Package server assembles the fiber application: middleware, routes and the
// stores behind them.
package server

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/cache"
	"restoran-pos/internal/config"
	"restoran-pos/internal/customers"
	"restoran-pos/internal/dashboard"
	"restoran-pos/internal/events"
	"restoran-pos/internal/httpx"
	"restoran-pos/internal/menu"
	"restoran-pos/internal/models"
	"restoran-pos/internal/orders"
	"restoran-pos/internal/ratelimit"
	"restoran-pos/internal/reports"
	"restoran-pos/internal/reservations"
	"restoran-pos/internal/staff"
	"restoran-pos/internal/storage"
	"restoran-pos/internal/tables"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/time/rate"
)

type Deps struct {
	Config *config.Config
	Store  storage.Store
	// Redis enables the menu cache and order idempotency keys. Optional.
	Redis  *redis.Client
	Events events.Publisher
	Now    func() time.Time
}

func New(d Deps) *fiber.App {
	cfg := d.Config
	if d.Events == nil {
		d.Events = events.Noop{}
	}

	app := fiber.New(fiber.Config{
		AppName:      "restoran-pos",
		ErrorHandler: httpx.ErrorHandler,
		BodyLimit:    8 * 1024 * 1024,
	})

	app.Use(requestLogger())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	if cfg.RateLimitRPS > 0 {
		app.Use(ratelimit.New(ratelimit.Config{
			Rate:  rate.Limit(cfg.RateLimitRPS),
			Burst: cfg.RateLimitBurst,
		}))
	}

	var (
		menuStore storage.MenuStore = d.Store
		guard     orders.Guard
		undoHooks []audit.UndoHook
	)
	if d.Redis != nil {
		cached := cache.NewMenuStore(d.Store, d.Redis, cfg.MenuCacheTTL)
		menuStore = cached
		guard = cache.NewIdempotencyGuard(d.Redis)
		undoHooks = append(undoHooks, func(ctx context.Context, undo *models.AuditLog) {
			if undo.EntityType == models.EntityMenuItem {
				cached.Invalidate(ctx)
			}
		})
	}

	rec := audit.NewRecorder(d.Store)
	od := orders.Deps{Store: d.Store, Audit: rec, Events: d.Events, Idempotency: guard}
	admin := auth.RequireRole(models.RoleAdmin)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(d.Store))
	api.Post("/auth/login", auth.LoginHandler(d.Store, cfg.JWTSecret))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(d.Store))
	protected.Post("/users", admin, auth.CreateUserHandler(d.Store))

	// Menu
	protected.Get("/menu-items", menu.ListMenuItemsHandler(menuStore))
	protected.Get("/menu-items/:id", menu.GetMenuItemHandler(menuStore))
	protected.Post("/menu-items", admin, menu.CreateMenuItemHandler(menuStore, rec))
	protected.Post("/menu-items/import", admin, menu.ImportMenuItemsHandler(menuStore, rec))
	protected.Patch("/menu-items/:id", admin, menu.UpdateMenuItemHandler(menuStore, rec))
	protected.Delete("/menu-items/:id", admin, menu.DeleteMenuItemHandler(menuStore, rec))

	// Tables
	protected.Get("/tables", tables.ListTablesHandler(d.Store))
	protected.Post("/tables", tables.CreateTableHandler(d.Store, rec))
	protected.Get("/tables/:id", tables.GetTableHandler(d.Store))
	protected.Patch("/tables/:id", tables.UpdateTableHandler(d.Store, rec))
	protected.Delete("/tables/:id", admin, tables.DeleteTableHandler(d.Store, rec))

	// Customers and visits
	protected.Get("/customers", customers.ListCustomersHandler(d.Store))
	protected.Post("/customers", customers.CreateCustomerHandler(d.Store, rec))
	protected.Get("/customers/:id", customers.GetCustomerHandler(d.Store))
	protected.Patch("/customers/:id", customers.UpdateCustomerHandler(d.Store, rec))
	protected.Delete("/customers/:id", admin, customers.DeleteCustomerHandler(d.Store, rec))
	protected.Get("/customers/:id/visits", customers.ListVisitsHandler(d.Store, d.Store))
	protected.Post("/customers/:id/visits", customers.StartVisitHandler(d.Store))
	protected.Get("/customers/:id/orders", customers.ListOrdersHandler(d.Store))
	protected.Get("/customers/:id/reservations", customers.ListReservationsHandler(d.Store, d.Store))
	protected.Patch("/customer-visits/:id/end", customers.EndVisitHandler(d.Store))

	// Orders
	protected.Get("/orders", orders.ListOrdersHandler(od))
	protected.Post("/orders", orders.CreateOrderHandler(od))
	protected.Get("/orders/:id", orders.GetOrderHandler(od))
	protected.Patch("/orders/:id", orders.UpdateOrderHandler(od))
	protected.Delete("/orders/:id", admin, orders.DeleteOrderHandler(od))
	protected.Post("/orders/:id/items", orders.AddOrderItemHandler(od))
	protected.Patch("/orders/:id/items/:itemId", orders.UpdateOrderItemHandler(od))
	protected.Delete("/orders/:id/items/:itemId", orders.DeleteOrderItemHandler(od))
	protected.Post("/orders/:id/items/:itemId/increase", orders.AdjustOrderItemHandler(od, 1))
	protected.Post("/orders/:id/items/:itemId/decrease", orders.AdjustOrderItemHandler(od, -1))
	protected.Post("/orders/:id/advance", orders.AdvanceOrderHandler(od))
	protected.Get("/kitchen/orders", orders.KitchenOrdersHandler(od))

	// Staff
	protected.Get("/employee-roles", admin, staff.ListRolesHandler(d.Store))
	protected.Post("/employee-roles", admin, staff.CreateRoleHandler(d.Store))
	protected.Get("/employees", admin, staff.ListEmployeesHandler(d.Store))
	protected.Post("/employees", admin, staff.CreateEmployeeHandler(d.Store))
	protected.Get("/employees/:id", admin, staff.GetEmployeeHandler(d.Store))
	protected.Patch("/employees/:id", admin, staff.UpdateEmployeeHandler(d.Store))
	protected.Delete("/employees/:id", admin, staff.DeleteEmployeeHandler(d.Store))

	// Reservations
	protected.Get("/table-reservations", reservations.ListReservationsHandler(d.Store))
	protected.Post("/table-reservations", reservations.CreateReservationHandler(d.Store))

	// Dashboard and reports
	protected.Get("/dashboard/summary", dashboard.SummaryHandler(d.Store, d.Now))
	protected.Get("/reports/orders.xlsx", reports.OrdersXLSXHandler(d.Store))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(d.Store))
	protected.Post("/audit-logs/:id/undo", admin, audit.UndoAuditLogHandler(d.Store, undoHooks...))

	if cfg.StaticDir != "" {
		serveFrontend(app, cfg.StaticDir)
	}
	return app
}

// serveFrontend hosts a prebuilt single page app and falls back to its
// index.html for client side routes.
func serveFrontend(app *fiber.App, dir string) {
	app.Static("/", dir)
	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api") {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}
