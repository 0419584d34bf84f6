package controllers

import (
	"net/http"
	"strconv"
	"time"

	cerrors "commerce-core/common/errors"
	"commerce-core/order-service/models"
	"commerce-core/order-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

// CreateOrder snapshots a checkout request into a new PENDING order.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	order, serr := oc.service.CreateOrder(c.Request.Context(), &req)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder returns an order by ID; with a user_id query the lookup is
// ownership-scoped.
func (oc *OrderController) GetOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if userParam := c.Query("user_id"); userParam != "" {
		userID, err := uuid.Parse(userParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID format"})
			return
		}
		order, serr := oc.service.GetOrderByIDAndUserID(c.Request.Context(), id, userID)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, order)
		return
	}

	order, serr := oc.service.GetOrderByID(c.Request.Context(), id)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderByNumber looks an order up by its generated order number.
func (oc *OrderController) GetOrderByNumber(c *gin.Context) {
	order, serr := oc.service.GetOrderByOrderNumber(c.Request.Context(), c.Param("order_number"))
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders serves the query surface: by user (paginated), by status, by
// user+status, and by creation-date range.
func (oc *OrderController) ListOrders(c *gin.Context) {
	userParam := c.Query("user_id")
	statusParam := c.Query("status")
	startParam := c.Query("start")
	endParam := c.Query("end")

	ctx := c.Request.Context()

	switch {
	case startParam != "" && endParam != "":
		start, err1 := time.Parse(time.RFC3339, startParam)
		end, err2 := time.Parse(time.RFC3339, endParam)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be RFC3339 timestamps"})
			return
		}
		orders, serr := oc.service.GetOrdersBetweenDates(ctx, start, end)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})

	case userParam != "" && statusParam != "":
		userID, err := uuid.Parse(userParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID format"})
			return
		}
		orders, serr := oc.service.GetOrdersByUserIDAndStatus(ctx, userID, models.OrderStatus(statusParam))
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})

	case userParam != "":
		userID, err := uuid.Parse(userParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID format"})
			return
		}
		page, limit := parsePaginationParams(c)
		result, serr := oc.service.GetOrdersByUserID(ctx, userID, page, limit)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, result)

	case statusParam != "":
		orders, serr := oc.service.GetOrdersByStatus(ctx, models.OrderStatus(statusParam))
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, status, or start/end is required"})
	}
}

// CountOrders returns the number of orders for a user in a given status.
func (oc *OrderController) CountOrders(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID format"})
		return
	}
	status := models.OrderStatus(c.Query("status"))

	count, serr := oc.service.CountOrdersByUserIDAndStatus(c.Request.Context(), userID, status)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// UpdateStatus sets the order status.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	order, serr := oc.service.UpdateOrderStatus(c.Request.Context(), id, body.Status)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateShipping records a tracking number and marks the order shipped.
func (oc *OrderController) UpdateShipping(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		TrackingNumber string `json:"tracking_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tracking_number is required"})
		return
	}

	order, serr := oc.service.UpdateShippingInfo(c.Request.Context(), id, body.TrackingNumber)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, order)
}

// RecordPayment stores a successful payment outcome on the order.
func (oc *OrderController) RecordPayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		TransactionID string `json:"transaction_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction_id is required"})
		return
	}

	order, serr := oc.service.RecordPayment(c.Request.Context(), id, body.TransactionID)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, order)
}

// MarkDelivered sets status DELIVERED and stamps the delivery time.
func (oc *OrderController) MarkDelivered(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, serr := oc.service.MarkDelivered(c.Request.Context(), id)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder hard-deletes an order.
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if serr := oc.service.DeleteOrder(c.Request.Context(), id); serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func parsePaginationParams(c *gin.Context) (int, int) {
	const maxLimit = 100

	page, limit := 1, 10
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limit = l
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	return page, limit
}
