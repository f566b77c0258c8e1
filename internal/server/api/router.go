package api

import (
	"github.com/gin-gonic/gin"

	"finassist/pkg/ratelimiter"
)

// SetupRouter configures and returns a Gin engine with all assistant routes.
func SetupRouter(a *API, limiter ratelimiter.RateLimiter) *gin.Engine {
	r := gin.Default()

	apiV1 := r.Group("/api/v1")
	{
		chat := apiV1.Group("/chat")
		chat.Use(RateLimit(a.log, limiter))
		{
			chat.POST("", a.ChatHandler)
		}

		apiV1.POST("/pdf", a.PdfHandler)
		apiV1.GET("/videos", a.VideosHandler)
	}

	return r
}
