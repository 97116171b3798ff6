package message

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the subscribe route at the configured stream path
// (default /api/sse) and the publish and stats routes under /api.
func RegisterRoutes(router gin.IRouter, h *Handler) {
	router.GET(h.cfg.Path, h.Subscribe)

	api := router.Group("/api")
	api.POST("/message", h.Send)
	api.GET("/stats", h.Stats)
}
