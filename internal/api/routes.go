package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the query endpoints and the live WebSocket endpoint.
func NewRouter(env *Env) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", env.health)
		apiGroup.GET("/posts", env.getPosts)
		apiGroup.GET("/analytics", env.getAnalytics)
		apiGroup.GET("/alerts", env.getAlerts)
	}

	router.GET("/ws/sentiment", env.serveWS)

	return router
}
