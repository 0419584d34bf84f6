package controllers

import (
	"net/http"
	"strconv"
	"time"

	cerrors "commerce-core/common/errors"
	"commerce-core/payment-service/models"
	"commerce-core/payment-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentController struct {
	service *services.PaymentService
}

func NewPaymentController(service *services.PaymentService) *PaymentController {
	return &PaymentController{service: service}
}

// CreatePayment registers a PENDING payment against an order.
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	var req services.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	payment, serr := pc.service.CreatePayment(c.Request.Context(), &req)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// ProcessPayment executes the gateway charge for a pending payment.
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	payment, serr := pc.service.ProcessPayment(c.Request.Context(), id)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// RefundPayment reverses a completed payment.
func (pc *PaymentController) RefundPayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	payment, serr := pc.service.RefundPayment(c.Request.Context(), id)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GetPayment returns a payment by ID.
func (pc *PaymentController) GetPayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	payment, serr := pc.service.GetPaymentByID(c.Request.Context(), id)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ListPayments serves the query surface: by order, by user (paginated), by
// status, by user+status, by transaction ID, and by creation-date range.
func (pc *PaymentController) ListPayments(c *gin.Context) {
	orderParam := c.Query("order_id")
	userParam := c.Query("user_id")
	statusParam := c.Query("status")
	txParam := c.Query("transaction_id")
	intentParam := c.Query("payment_intent_id")
	startParam := c.Query("start")
	endParam := c.Query("end")

	ctx := c.Request.Context()

	switch {
	case txParam != "":
		payment, serr := pc.service.GetPaymentByTransactionID(ctx, txParam)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, payment)

	case intentParam != "":
		payment, serr := pc.service.GetPaymentByPaymentIntentID(ctx, intentParam)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, payment)

	case orderParam != "":
		orderID, err := uuid.Parse(orderParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID format"})
			return
		}
		payments, serr := pc.service.GetPaymentsByOrderID(ctx, orderID)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})

	case startParam != "" && endParam != "":
		start, err1 := time.Parse(time.RFC3339, startParam)
		end, err2 := time.Parse(time.RFC3339, endParam)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be RFC3339 timestamps"})
			return
		}
		payments, serr := pc.service.GetPaymentsBetweenDates(ctx, start, end)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})

	case userParam != "" && statusParam != "":
		userID, err := uuid.Parse(userParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID format"})
			return
		}
		payments, serr := pc.service.GetPaymentsByUserIDAndStatus(ctx, userID, models.PaymentStatus(statusParam))
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})

	case userParam != "":
		userID, err := uuid.Parse(userParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID format"})
			return
		}
		page, limit := parsePaginationParams(c)
		result, serr := pc.service.GetPaymentsByUserID(ctx, userID, page, limit)
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, result)

	case statusParam != "":
		payments, serr := pc.service.GetPaymentsByStatus(ctx, models.PaymentStatus(statusParam))
		if serr != nil {
			cerrors.Respond(c, serr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": payments})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id, user_id, status, transaction_id, payment_intent_id, or start/end is required"})
	}
}

// UpdateStatus sets the payment status directly.
func (pc *PaymentController) UpdateStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		Status models.PaymentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	payment, serr := pc.service.UpdatePaymentStatus(c.Request.Context(), id, body.Status)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// DeletePayment hard-deletes a payment record.
func (pc *PaymentController) DeletePayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if serr := pc.service.DeletePayment(c.Request.Context(), id); serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment ID format"})
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
