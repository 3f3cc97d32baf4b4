package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/dto"
	"github.com/remitwave/settlement_engine/internal/middleware"
)

// rateHandler handles HTTP requests related to the rate pipeline.
type rateHandler struct {
	rateService portssvc.RateSvcFacade
}

func newRateHandler(rs portssvc.RateSvcFacade) *rateHandler {
	return &rateHandler{rateService: rs}
}

// registerRateRoutes registers routes related to rates.
func registerRateRoutes(rg *gin.RouterGroup, rateService portssvc.RateSvcFacade) {
	h := newRateHandler(rateService)

	rates := rg.Group("/rates")
	{
		rates.GET("/active", h.getActiveVersion)
		rates.GET("/:versionID", h.getVersion)
		rates.GET("/:versionID/prices", h.listCountryPrices)
		rates.GET("/:versionID/routes", h.listRoutes)
		rates.GET("/:versionID/routes/:origin/:dest", h.getRouteRate)
	}

	admin := rg.Group("/admin/rates")
	{
		admin.POST("/generate", h.generate)
	}
}

func (h *rateHandler) generate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.GenerateRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Generate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.rateService.Generate(c.Request.Context(), domain.RateVersionKind(req.Kind), req.Reason, actorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error generating rates", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrInsufficientCoverage):
			logger.Warn("Rate generation aborted on insufficient coverage", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to generate rates", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate rates"})
		}
		return
	}

	logger.Info("Rate version generated",
		slog.String("version_id", result.Version.VersionID),
		slog.Int("priced_countries", len(result.PricedCountries)),
		slog.Int("routes", result.RouteCount),
	)
	c.JSON(http.StatusCreated, result)
}

func (h *rateHandler) getActiveVersion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	version, err := h.rateService.GetActiveVersion(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveRate) {
			logger.Warn("No active rate version")
			c.JSON(http.StatusNotFound, gin.H{"error": "No active rate version"})
		} else {
			logger.Error("Failed to get active rate version", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve active rate version"})
		}
		return
	}

	c.JSON(http.StatusOK, version)
}

func (h *rateHandler) getVersion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	versionID := c.Param("versionID")

	version, err := h.rateService.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Rate version not found", slog.String("version_id", versionID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Rate version not found"})
		} else {
			logger.Error("Failed to get rate version", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rate version"})
		}
		return
	}

	c.JSON(http.StatusOK, version)
}

func (h *rateHandler) listCountryPrices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	versionID := c.Param("versionID")

	prices, err := h.rateService.ListCountryPrices(c.Request.Context(), versionID)
	if err != nil {
		logger.Error("Failed to list country prices", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list country prices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versionID": versionID, "prices": prices})
}

func (h *rateHandler) getRouteRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	versionID := c.Param("versionID")
	origin := c.Param("origin")
	dest := c.Param("dest")

	route, err := h.rateService.GetRouteRate(c.Request.Context(), versionID, origin, dest)
	if err != nil {
		if errors.Is(err, apperrors.ErrRouteUnavailable) {
			logger.Warn("Route not priced", slog.String("version_id", versionID), slog.String("origin", origin), slog.String("dest", dest))
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not priced in this version"})
		} else {
			logger.Error("Failed to get route rate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve route rate"})
		}
		return
	}

	c.JSON(http.StatusOK, route)
}

func (h *rateHandler) listRoutes(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	versionID := c.Param("versionID")

	routes, err := h.rateService.ListRoutes(c.Request.Context(), versionID)
	if err != nil {
		logger.Error("Failed to list routes", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list routes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versionID": versionID, "routes": routes})
}
