package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/remitwave/settlement_engine/internal/core/services"
	"github.com/remitwave/settlement_engine/internal/middleware"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(r *gin.Engine, container *services.Container) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, container)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(r *gin.Engine, container *services.Container) {
	v1 := r.Group("/api/v1", middleware.IdentityMiddleware())

	registerUserRoutes(v1, container.User)
	registerRateRoutes(v1, container.Rate)
	registerOrderRoutes(v1, container.Order)
	registerWalletRoutes(v1, container.Wallet)
	registerSettingRoutes(v1, container.Settings)
}
