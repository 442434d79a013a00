package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/handler"
	"weddingplan/internal/middleware"
	"weddingplan/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Vendor *handler.VendorHandler
	Import *handler.ImportHandler
	Health *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	h Handlers,
	corsOrigins []string,
	log *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.Logger(log))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT for a planner or the couple
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))
	protected.Use(middleware.RequireRole(domain.RolePlanner, domain.RoleCouple))

	vendors := protected.Group("/vendors")
	vendors.GET("", h.Vendor.List)
	vendors.POST("", h.Vendor.Create)
	vendors.GET("/:id", h.Vendor.GetByID)
	vendors.PUT("/:id", h.Vendor.Update)
	vendors.DELETE("/:id", h.Vendor.Delete)
	vendors.PUT("/:id/payments/:payment_id/amount", h.Vendor.UpdatePaymentAmount)

	protected.GET("/payments/upcoming", h.Vendor.Upcoming)

	imports := protected.Group("/imports")
	imports.POST("", h.Import.Create)
	imports.GET("/:id", h.Import.GetByID)
	imports.DELETE("/:id", h.Import.Cancel)
	imports.POST("/:id/input", h.Import.Submit)
	imports.POST("/:id/clarifications/:cid/answer", h.Import.Answer)
	imports.POST("/:id/clarifications/:cid/skip", h.Import.Skip)
	imports.PUT("/:id/operations/:index", h.Import.UpdateOperation)
	imports.DELETE("/:id/operations/:index", h.Import.RemoveOperation)
	imports.POST("/:id/execute", h.Import.Execute)

	return r
}
