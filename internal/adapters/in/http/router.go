package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
)

type Controller interface {
	RegisterRoutes(api *gin.RouterGroup)
}

// RegisterRoutes: /health без авторизации, /api/v1 под basic auth
func RegisterRoutes(router *gin.Engine, cfg *config.Config, controllers ...Controller) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": cfg.App.Version,
		})
	})

	api := router.Group("/api/v1")
	api.Use(basicAuth(cfg.Auth.BasicClients))
	for _, controller := range controllers {
		controller.RegisterRoutes(api)
	}
}
