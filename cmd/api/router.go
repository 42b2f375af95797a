package api

import (
	"net/http"

	authDelivery "mail-assistant/internal/auth/delivery"
	emailDelivery "mail-assistant/internal/email/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, authHandler *authDelivery.AuthHandler, emailHandler *emailDelivery.EmailHandler) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	register(&r.RouterGroup, authHandler, emailHandler)

	// Same routes under /api for the web client
	register(r.Group("/api"), authHandler, emailHandler)
}

func register(g *gin.RouterGroup, authHandler *authDelivery.AuthHandler, emailHandler *emailDelivery.EmailHandler) {
	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g.POST("/sync", emailHandler.Sync)
	g.GET("/sync/:user_id", emailHandler.SyncStatus)
	g.POST("/search", emailHandler.Search)

	auth := g.Group("/auth")
	{
		auth.GET("/login", authHandler.Login)
		auth.GET("/callback", authHandler.Callback)
	}

	g.DELETE("/tokens/:user_id", authHandler.ResetToken)
}
