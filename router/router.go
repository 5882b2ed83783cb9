package router

import (
	"log"

	"maritaca/controllers"
	"maritaca/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares.
// Três superfícies: webhooks (header de tenant, sem bearer), rotas de
// tenant (header + bearer do tenant) e admin (bearer do servidor).
func Initialize(r *gin.Engine) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	api := r.Group("/api")

	// Webhooks do conector (e verify handshake do Meta)
	api.GET("/webhooks/verify", Logger(), controllers.WebhookVerify)

	webhooks := api.Group("/webhooks")
	webhooks.Use(controllers.TenantFromHeader())
	webhooks.POST("/incoming-message", Logger(), controllers.WebhookIncomingMessage)
	webhooks.POST("/status-update", Logger(), controllers.WebhookStatusUpdate)

	// Rotas autenticadas do tenant (X-Tenant-ID + bearer)
	auth := api.Group("")
	auth.Use(controllers.TenantRequired())

	auth.POST("/sessions/initialize", Logger(), controllers.InitializeSession)
	auth.GET("/sessions/status", Logger(), controllers.GetSessionStatus)
	auth.DELETE("/sessions/disconnect", Logger(), controllers.DisconnectSession)
	auth.GET("/sessions", Logger(), controllers.GetActiveSessions)

	auth.POST("/messages/text", Logger(), controllers.SendTextMessage)
	auth.POST("/messages/media", Logger(), controllers.SendMediaMessage)
	auth.POST("/messages/location", Logger(), controllers.SendLocationMessage)
	auth.POST("/messages/audio", Logger(), controllers.SendAudioMessage)
	auth.GET("/messages", Logger(), controllers.GetMessages)

	// Admin (token do servidor)
	admin := api.Group("/tenants")
	admin.Use(controllers.AdminRequired())
	admin.POST("", Logger(), controllers.CreateTenant)
	admin.GET("/:id", Logger(), controllers.GetTenantByID)
	admin.PUT("/:id", Logger(), controllers.UpdateTenant)
	admin.DELETE("/:id", Logger(), controllers.DeleteTenant)

	log.Printf("Routes initialized")
}
