package controllers

import (
	"net/http"
	"strconv"

	"commerce-core/cart-service/services"
	cerrors "commerce-core/common/errors"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	service *services.CartService
}

func NewCartController(service *services.CartService) *CartController {
	return &CartController{service: service}
}

// GetCart returns the current cart for a user, creating it on first access.
func (cc *CartController) GetCart(c *gin.Context) {
	userID := c.Param("user_id")

	cart, err := cc.service.GetOrCreateCart(c.Request.Context(), userID)
	if err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds or merges an item into the cart.
func (cc *CartController) AddItem(c *gin.Context) {
	userID := c.Param("user_id")

	var req services.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}

	cart, err := cc.service.AddItem(c.Request.Context(), userID, &req)
	if err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateItemQuantity sets the quantity of a cart line.
func (cc *CartController) UpdateItemQuantity(c *gin.Context) {
	userID := c.Param("user_id")
	productID := c.Param("product_id")

	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be an integer"})
		return
	}

	cart, serr := cc.service.UpdateItemQuantity(c.Request.Context(), userID, productID, quantity)
	if serr != nil {
		cerrors.Respond(c, serr)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem removes a specific item from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	userID := c.Param("user_id")
	productID := c.Param("product_id")

	cart, err := cc.service.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart removes all items from the cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	userID := c.Param("user_id")

	if err := cc.service.ClearCart(c.Request.Context(), userID); err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

// DeleteCart removes the stored cart entirely.
func (cc *CartController) DeleteCart(c *gin.Context) {
	userID := c.Param("user_id")

	if err := cc.service.DeleteCart(c.Request.Context(), userID); err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ItemCount returns the number of lines in the cart.
func (cc *CartController) ItemCount(c *gin.Context) {
	userID := c.Param("user_id")

	count, err := cc.service.ItemCount(c.Request.Context(), userID)
	if err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ContainsProduct reports whether the cart holds a line for the product.
func (cc *CartController) ContainsProduct(c *gin.Context) {
	userID := c.Param("user_id")
	productID := c.Param("product_id")

	ok, err := cc.service.ContainsProduct(c.Request.Context(), userID, productID)
	if err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contains": ok})
}

// Checkout publishes the cart snapshot for order creation and clears it.
func (cc *CartController) Checkout(c *gin.Context) {
	userID := c.Param("user_id")

	if err := cc.service.Checkout(c.Request.Context(), userID); err != nil {
		cerrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checkout initiated"})
}
