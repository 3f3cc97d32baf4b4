package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/dto"
	"github.com/remitwave/settlement_engine/internal/middleware"
)

// orderHandler handles HTTP requests related to transfer orders.
type orderHandler struct {
	orderService portssvc.OrderSvcFacade
}

func newOrderHandler(os portssvc.OrderSvcFacade) *orderHandler {
	return &orderHandler{orderService: os}
}

// registerOrderRoutes registers routes related to orders.
func registerOrderRoutes(rg *gin.RouterGroup, orderService portssvc.OrderSvcFacade) {
	h := newOrderHandler(orderService)

	orders := rg.Group("/orders")
	{
		orders.POST("", h.createOrder)
		orders.GET("/:id", h.getOrder)
		orders.GET("/number/:publicID", h.getOrderByPublicID)
		orders.GET("", h.listOrders)
		orders.POST("/:id/advance", h.advanceStatus)
		orders.POST("/:id/claim", h.claimAwaitingProof)
		orders.POST("/:id/paid", h.markPaid)
		orders.POST("/:id/cancel", h.cancelOrder)
		orders.POST("/:id/execution-prices", h.recordExecutionPrices)
	}
}

func (h *orderHandler) createOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateOrder", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	operatorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Operator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("operator_id", operatorID))

	order, err := h.orderService.CreateOrder(c.Request.Context(), req, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating order", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNoActiveRate), errors.Is(err, apperrors.ErrRouteUnavailable):
			logger.Warn("No rate available for order", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create order in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	logger.Info("Order created successfully", slog.String("order_id", order.OrderID), slog.Int64("public_id", order.PublicID))
	c.JSON(http.StatusCreated, dto.ToOrderResponse(*order))
}

func (h *orderHandler) getOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("id")

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Order not found", slog.String("order_id", orderID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			logger.Error("Failed to get order from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(*order))
}

func (h *orderHandler) getOrderByPublicID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	publicID, err := strconv.ParseInt(c.Param("publicID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order number"})
		return
	}

	order, err := h.orderService.GetOrderByPublicID(c.Request.Context(), publicID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Order not found", slog.Int64("public_id", publicID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			logger.Error("Failed to get order from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(*order))
}

func (h *orderHandler) listOrders(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	operatorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Operator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	orders, err := h.orderService.ListOrdersByOperator(c.Request.Context(), operatorID, limit)
	if err != nil {
		logger.Error("Failed to list orders from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	responses := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, dto.ToOrderResponse(order))
	}
	c.JSON(http.StatusOK, gin.H{"orders": responses})
}

func (h *orderHandler) advanceStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("id")

	var req dto.AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AdvanceStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.orderService.AdvanceStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Target), actorUserID)
	if err != nil {
		h.respondTransitionError(c, logger, orderID, err)
		return
	}

	logger.Info("Order advanced", slog.String("order_id", orderID), slog.String("target", req.Target))
	c.Status(http.StatusNoContent)
}

func (h *orderHandler) claimAwaitingProof(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("id")

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.orderService.ClaimAwaitingProof(c.Request.Context(), orderID, actorUserID)
	if err != nil {
		h.respondTransitionError(c, logger, orderID, err)
		return
	}

	logger.Info("Order claimed for closing", slog.String("order_id", orderID))
	c.Status(http.StatusNoContent)
}

func (h *orderHandler) markPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("id")

	var req dto.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for MarkPaid", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := h.orderService.MarkPaid(c.Request.Context(), orderID, req.PaidProofRef, actorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			logger.Warn("Settlement failed on insufficient funds", slog.String("order_id", orderID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.respondTransitionError(c, logger, orderID, err)
		}
		return
	}

	logger.Info("Order marked paid and settled", slog.String("order_id", orderID))
	c.JSON(http.StatusOK, dto.ToOrderResponse(*order))
}

func (h *orderHandler) cancelOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("id")

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CancelOrder", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.orderService.CancelOrder(c.Request.Context(), orderID, req.Reason, actorUserID)
	if err != nil {
		h.respondTransitionError(c, logger, orderID, err)
		return
	}

	logger.Info("Order cancelled", slog.String("order_id", orderID))
	c.Status(http.StatusNoContent)
}

func (h *orderHandler) recordExecutionPrices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("id")

	var req dto.ExecutionPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordExecutionPrices", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	realProfit, err := h.orderService.RecordExecutionPrices(c.Request.Context(), orderID, req.BuyPrice, req.SellPrice, actorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error recording execution prices", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrInvalidTransition):
			logger.Warn("Execution prices rejected for unpaid order", slog.String("order_id", orderID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Order not found", slog.String("order_id", orderID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		default:
			logger.Error("Failed to record execution prices", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record execution prices"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"realProfit": realProfit})
}

// respondTransitionError maps state-machine failures onto HTTP statuses shared
// by the mutation endpoints.
func (h *orderHandler) respondTransitionError(c *gin.Context, logger *slog.Logger, orderID string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Order not found", slog.String("order_id", orderID))
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error on order mutation", slog.String("order_id", orderID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		logger.Warn("Illegal order transition", slog.String("order_id", orderID), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		logger.Warn("Concurrent order mutation lost the race", slog.String("order_id", orderID))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Order mutation failed in service", slog.String("order_id", orderID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
	}
}
