package handler

import (
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler mounted under /api/v1.
type Handlers struct {
	Auth      *AuthHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	Report    *ReportHandler
	User      *UserHandler
}

// Register mounts the API routes on api. throttle guards the public
// credential endpoints.
func (h Handlers) Register(api fiber.Router, auth service.AuthService, throttle fiber.Handler) {
	requireAuth := middleware.RequireAuth(auth)
	can := middleware.RequirePermission

	// ============ PUBLIC ROUTES ============
	authGroup := api.Group("/auth")
	authGroup.Post("/login", throttle, h.Auth.Login)
	authGroup.Post("/reset-password", throttle, h.Auth.ResetPassword)
	authGroup.Post("/validate-token", h.Auth.ValidateToken)
	authGroup.Post("/heartbeat", requireAuth, h.Auth.Heartbeat)
	authGroup.Post("/logout", requireAuth, h.Auth.Logout)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/me", h.Auth.Me)

	protected.Get("/dashboard/stats", h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", h.Dashboard.GetStockMovement)
	protected.Get("/dashboard/recent", h.Dashboard.GetRecentTransactions)

	protected.Get("/products", h.Inventory.GetProducts)
	protected.Get("/products/:id", h.Inventory.GetProduct)
	protected.Post("/products", can(permission.AddOrEditProduct), h.Inventory.CreateProduct)
	protected.Put("/products/:id", can(permission.AddOrEditProduct), h.Inventory.UpdateProduct)
	protected.Delete("/products/:id", can(permission.DeleteProduct), h.Inventory.DeleteProduct)
	protected.Post("/products/:id/movements", can(permission.RecordTransaction), h.Inventory.RecordMovement)
	protected.Post("/products/:id/reconcile", can(permission.ReconcileStock), h.Inventory.ReconcileProduct)
	protected.Post("/stock/reconcile", can(permission.ReconcileStock), h.Inventory.ReconcileAll)

	protected.Get("/transactions", can(permission.ViewReports), h.Inventory.GetTransactions)
	protected.Get("/transactions/:id", can(permission.ViewReports), h.Inventory.GetTransaction)
	protected.Post("/transactions", can(permission.RecordTransaction), h.Inventory.CreateTransaction)

	protected.Get("/reports", can(permission.ViewReports), h.Report.GetReport)
	protected.Get("/reports/export", can(permission.ViewReports), h.Report.Export)

	users := protected.Group("/users", can(permission.ManageUsers))
	users.Get("", h.User.GetUsers)
	users.Post("", h.User.CreateUser)
	users.Get("/:id", h.User.GetUser)
	users.Put("/:id/permissions", h.User.UpdatePermissions)
	users.Delete("/:id", h.User.DeleteUser)
}
