package main

import (
	"log"
	"strings"

	"restoran-pos/internal/admin"
	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/catalog"
	"restoran-pos/internal/config"
	"restoran-pos/internal/dashboard"
	"restoran-pos/internal/database"
	"restoran-pos/internal/loyalty"
	"restoran-pos/internal/models"
	"restoran-pos/internal/notify"
	"restoran-pos/internal/order"
	"restoran-pos/internal/promotion"
	"restoran-pos/internal/reservation"
	"restoran-pos/internal/settlement"
	"restoran-pos/internal/shift"
	"restoran-pos/internal/table"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)
	notifier := notify.New(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Şube yönetimi
	adminRoutes.Post("/branches", admin.CreateBranchHandler())
	adminRoutes.Get("/branches", admin.ListBranchesHandler())
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler())
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler())
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler())
	adminRoutes.Post("/branches/:id/admin", admin.CreateBranchAdminHandler())
	adminRoutes.Get("/branches/:id/admins", admin.ListBranchAdminsHandler())

	// Yönetici route'ları (şube admini + super admin)
	manage := protected.Group("")
	manage.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin))

	// Personel
	manage.Post("/staff", auth.CreateStaffHandler())

	// Menü yönetimi
	manage.Post("/categories", catalog.CreateCategoryHandler())
	manage.Post("/dishes", catalog.CreateDishHandler())
	manage.Put("/dishes/:id", catalog.UpdateDishHandler())
	manage.Delete("/dishes/:id", catalog.DeleteDishHandler())
	manage.Post("/dishes/:id/modifiers", catalog.CreateModifierHandler())
	manage.Post("/dishes/import", catalog.ImportMenuHandler())

	// Fiyat listeleri
	manage.Post("/price-lists", catalog.CreatePriceListHandler())
	manage.Get("/price-lists", catalog.ListPriceListsHandler())
	manage.Put("/price-lists/:id/items", catalog.SetPriceListItemHandler())
	manage.Post("/price-lists/:id/activate", catalog.ActivatePriceListHandler())

	// Sadakat yönetimi
	manage.Post("/loyalty-levels", loyalty.CreateLevelHandler())
	manage.Put("/bonus-settings", loyalty.UpdateBonusSettingHandler())
	manage.Put("/loyalty-settings", loyalty.SetLoyaltySettingHandler())

	// Promosyon yönetimi
	manage.Post("/promotions", promotion.CreatePromotionHandler())
	manage.Put("/promotions/:id", promotion.UpdatePromotionHandler())
	manage.Delete("/promotions/:id", promotion.DeletePromotionHandler())

	// Masa yönetimi
	manage.Post("/tables", table.CreateTableHandler())
	manage.Put("/tables/:id", table.UpdateTableHandler())
	manage.Delete("/tables/:id", table.DeleteTableHandler())

	// Dashboard ve denetim
	manage.Get("/dashboard/sales-chart", dashboard.SalesChartHandler())
	manage.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Ortak (auth gerektiren) route'lar

	// Menü
	protected.Get("/categories", catalog.ListCategoriesHandler())
	protected.Get("/dishes", catalog.ListDishesHandler())

	// Sadakat
	protected.Get("/loyalty-levels", loyalty.ListLevelsHandler())
	protected.Post("/customers", loyalty.CreateCustomerHandler())
	protected.Get("/customers", loyalty.ListCustomersHandler())
	protected.Get("/customers/:id", loyalty.GetCustomerHandler())
	protected.Put("/customers/:id", loyalty.UpdateCustomerHandler())
	protected.Get("/customers/:id/bonus-transactions", loyalty.ListBonusTransactionsHandler())

	// Promosyonlar
	protected.Get("/promotions", promotion.ListPromotionsHandler())

	// Masalar
	protected.Get("/tables", table.ListTablesHandler())
	protected.Patch("/tables/:id/status", table.UpdateTableStatusHandler(notifier))

	// Rezervasyonlar
	protected.Post("/reservations", reservation.CreateReservationHandler())
	protected.Get("/reservations", reservation.ListReservationsHandler())
	protected.Patch("/reservations/:id/status", reservation.UpdateReservationStatusHandler())
	protected.Post("/reservations/:id/deposit", reservation.CollectDepositHandler())
	protected.Post("/reservations/:id/deposit-refund", reservation.RefundDepositHandler())

	// Siparişler
	protected.Post("/orders", order.CreateOrderHandler(notifier))
	protected.Get("/orders", order.ListOrdersHandler())
	protected.Get("/orders/:id", order.GetOrderHandler())
	protected.Delete("/orders/:id", order.DeleteOrderHandler())
	protected.Patch("/orders/:id/status", order.UpdateOrderStatusHandler(notifier))
	protected.Put("/orders/:id/customer", order.AttachCustomerHandler())
	protected.Post("/orders/:id/promo-code", order.ApplyPromoCodeHandler())
	protected.Post("/orders/:id/recalculate", order.RecalculateHandler())
	protected.Post("/orders/:id/tables", order.MergeTablesHandler())
	protected.Post("/orders/:id/items", order.AddItemsHandler())
	protected.Patch("/orders/:id/items/:itemID", order.UpdateItemHandler())
	protected.Delete("/orders/:id/items/:itemID", order.CancelItemHandler())
	protected.Patch("/orders/:id/items/:itemID/status", order.UpdateItemStatusHandler())

	// Tahsilat ve iade
	protected.Post("/orders/:id/pay", settlement.PayOrderHandler(cfg, notifier))
	manage.Post("/orders/:id/refund", settlement.RefundOrderHandler(cfg, notifier))

	// Kasa vardiyası
	protected.Post("/shifts/open", shift.OpenShiftHandler())
	protected.Post("/shifts/close", shift.CloseShiftHandler())
	protected.Get("/shifts/current", shift.GetCurrentShiftHandler())
	protected.Post("/shifts/withdrawal", shift.CreateWithdrawalHandler())
	protected.Get("/shifts/summary", shift.DaySummaryHandler())
	protected.Get("/shifts/:id/operations", shift.ListOperationsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
