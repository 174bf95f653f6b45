package routes

import (
	"github.com/Govind-619/LinkSphere/controllers"
	"github.com/Govind-619/LinkSphere/middleware"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
)

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter(h *controllers.Handlers, auth *middleware.Authenticator) *gin.Engine {
	router := gin.New()
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.MetricsMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	router.GET("/healthz", controllers.Health)
	router.GET("/metrics", utils.MetricsHandler())

	// API version group
	api := router.Group("/v1")
	{
		// Signed by the payment processor, not by a workspace credential
		api.POST("/webhooks/razorpay", h.RazorpayWebhook)

		protected := api.Group("")
		protected.Use(auth.AuthMiddleware())
		initProgramRoutes(protected, h)
		initCommissionRoutes(protected, h)
	}

	return router
}

// initProgramRoutes registers the discount registry
func initProgramRoutes(router *gin.RouterGroup, h *controllers.Handlers) {
	discounts := router.Group("/programs/:programId/discounts")
	{
		discounts.GET("", h.ListDiscounts)
		discounts.POST("", h.CreateDiscount)
		discounts.GET("/partners", h.ListDiscountPartners)
		discounts.PATCH("/:discountId", h.UpdateDiscount)
		discounts.DELETE("/:discountId", h.DeleteDiscount)
	}
}

func initCommissionRoutes(router *gin.RouterGroup, h *controllers.Handlers) {
	commissions := router.Group("/commissions")
	{
		commissions.GET("", h.ListCommissions)
		commissions.GET("/count", h.CountCommissions)
		commissions.GET("/export", h.ExportCommissions)
	}
}
