package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/services"
	"github.com/remitwave/settlement_engine/internal/middleware"
)

// settingHandler handles administrative configuration reads and writes.
type settingHandler struct {
	settings *services.SettingCache
}

func newSettingHandler(settings *services.SettingCache) *settingHandler {
	return &settingHandler{settings: settings}
}

// registerSettingRoutes registers the administrative settings routes.
func registerSettingRoutes(rg *gin.RouterGroup, settings *services.SettingCache) {
	h := newSettingHandler(settings)

	admin := rg.Group("/admin/settings")
	{
		admin.GET("/:key", h.getSetting)
		admin.PUT("/:key", h.putSetting)
	}
}

func (h *settingHandler) getSetting(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Param("key")

	value, err := h.settings.GetJSON(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Setting not found"})
		} else {
			logger.Error("Failed to read setting", slog.String("key", key), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read setting"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// putSetting stores the request body verbatim as the setting's JSON value.
func (h *settingHandler) putSetting(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Param("key")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Setting value must be valid JSON"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.settings.SaveJSON(c.Request.Context(), key, body, actorUserID); err != nil {
		logger.Error("Failed to save setting", slog.String("key", key), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save setting"})
		return
	}

	logger.Info("Setting updated", slog.String("key", key), slog.String("actor", actorUserID))
	c.Status(http.StatusNoContent)
}
