package routes

import (
	"commerce-core/payment-service/controllers"
	"commerce-core/payment-service/services"

	"github.com/gin-gonic/gin"
)

func RegisterPaymentRoutes(r *gin.Engine, service *services.PaymentService) {
	controller := controllers.NewPaymentController(service)

	payments := r.Group("/payments")
	{
		payments.POST("", controller.CreatePayment)
		payments.GET("", controller.ListPayments)
		payments.GET("/:id", controller.GetPayment)
		payments.POST("/:id/process", controller.ProcessPayment)
		payments.POST("/:id/refund", controller.RefundPayment)
		payments.PUT("/:id/status", controller.UpdateStatus)
		payments.DELETE("/:id", controller.DeletePayment)
	}
}
