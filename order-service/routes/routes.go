package routes

import (
	"commerce-core/order-service/controllers"
	"commerce-core/order-service/services"

	"github.com/gin-gonic/gin"
)

func RegisterOrderRoutes(r *gin.Engine, service *services.OrderService) {
	controller := controllers.NewOrderController(service)

	orders := r.Group("/orders")
	{
		orders.POST("", controller.CreateOrder)
		orders.GET("", controller.ListOrders)
		orders.GET("/count", controller.CountOrders)
		orders.GET("/number/:order_number", controller.GetOrderByNumber)
		orders.GET("/:id", controller.GetOrder)
		orders.PUT("/:id/status", controller.UpdateStatus)
		orders.PUT("/:id/shipping", controller.UpdateShipping)
		orders.PUT("/:id/payment", controller.RecordPayment)
		orders.PUT("/:id/delivered", controller.MarkDelivered)
		orders.DELETE("/:id", controller.DeleteOrder)
	}
}
