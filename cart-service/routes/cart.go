package routes

import (
	"commerce-core/cart-service/controllers"
	"commerce-core/cart-service/services"

	"github.com/gin-gonic/gin"
)

func RegisterCartRoutes(r *gin.Engine, service *services.CartService) {
	controller := controllers.NewCartController(service)

	api := r.Group("/carts")
	{
		api.GET("/:user_id", controller.GetCart)
		api.DELETE("/:user_id", controller.DeleteCart)
		api.POST("/:user_id/items", controller.AddItem)
		api.PUT("/:user_id/items/:product_id", controller.UpdateItemQuantity)
		api.DELETE("/:user_id/items/:product_id", controller.RemoveItem)
		api.DELETE("/:user_id/items", controller.ClearCart)
		api.GET("/:user_id/count", controller.ItemCount)
		api.GET("/:user_id/contains/:product_id", controller.ContainsProduct)
		api.POST("/:user_id/checkout", controller.Checkout)
	}
}
