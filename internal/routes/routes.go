package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bloomdesk/internal/config"
	"github.com/example/bloomdesk/internal/handlers"
	"github.com/example/bloomdesk/internal/middleware"
	"github.com/example/bloomdesk/internal/services"
	"github.com/example/bloomdesk/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, st store.Store, auth *services.AuthService, cfg *config.Config) {
	// Notifications are posted only when a bot token and chat are configured.
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	calendar := services.FixedOffsetCalendar(cfg.BusinessOffset)

	ledger := services.NewLoyaltyLedger(st)
	validator := services.NewVoucherValidator(st)

	authHandler := handlers.NewAuthHandler(auth)
	customerHandler := handlers.NewCustomerHandler(services.NewCustomerService(st), ledger)
	orderHandler := handlers.NewOrderHandler(
		services.NewOrderService(st, ledger, validator, calendar, telegramService),
		calendar,
	)
	voucherHandler := handlers.NewVoucherHandler(services.NewVoucherService(st, calendar), validator)
	reportHandler := handlers.NewReportHandler(services.NewReportService(st, calendar))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	// Auth routes
	api.Post("/auth/login", authHandler.Login)

	// Everything below requires an operator session
	protected := api.Group("", middleware.AuthMiddleware(auth))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	customers := protected.Group("/customers")
	customers.Get("/", customerHandler.ListCustomers)
	customers.Post("/", customerHandler.CreateCustomer)
	customers.Post("/sync", customerHandler.SyncCustomers)
	customers.Get("/:id", customerHandler.GetCustomer)
	customers.Put("/:id", customerHandler.UpdateCustomer)
	customers.Delete("/:id", customerHandler.DeleteCustomer)
	customers.Get("/:id/orders", customerHandler.ListCustomerOrders)
	customers.Get("/:id/points", customerHandler.ListPointTransactions)
	customers.Post("/:id/points/deduct", customerHandler.DeductPoints)

	orders := protected.Group("/orders")
	orders.Get("/", orderHandler.ListOrders)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/today", orderHandler.TodayOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id", orderHandler.UpdateOrder)
	orders.Patch("/:id/status", orderHandler.UpdateOrderStatus)
	orders.Delete("/:id", orderHandler.DeleteOrder)

	vouchers := protected.Group("/vouchers")
	vouchers.Get("/", voucherHandler.ListVouchers)
	vouchers.Post("/", voucherHandler.CreateVoucher)
	vouchers.Post("/validate", voucherHandler.ValidateVoucher)
	vouchers.Put("/:id", voucherHandler.UpdateVoucher)
	vouchers.Delete("/:id", voucherHandler.DeleteVoucher)

	reports := protected.Group("/reports")
	reports.Get("/stats", reportHandler.Stats)
	reports.Get("/monthly", reportHandler.MonthlyRevenue)
	reports.Get("/yearly", reportHandler.YearlyBreakup)
	reports.Get("/overview", reportHandler.SalesOverview)
}
