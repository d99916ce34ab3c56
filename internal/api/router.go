package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every route. /healthz and /metrics are public; everything under /api
// goes through authMW.
func NewRouter(app App, authMW gin.HandlerFunc, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(app.Logger()))
	if len(corsOrigins) > 0 {
		r.Use(cors.New(corsConfig(corsOrigins)))
	}
	if m := app.Metrics(); m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := r.Group("/api", authMW)
	protected.GET("/species", ListSpecies(app))
	protected.GET("/species/:species", GetSpeciesInfo(app))
	protected.GET("/guide", GetGuide(app))

	protected.POST("/batch", StartBatch(app))
	protected.GET("/batch", GetBatch(app))
	protected.DELETE("/batch", ClearBatch(app))
	protected.GET("/batch/progress", GetProgress(app))
	protected.POST("/batch/complete", CompleteBatch(app))
	protected.GET("/completed", ListCompleted(app))

	protected.POST("/feedback", PostFeedback(app))
	protected.GET("/feedback", ListFeedback(app))

	protected.POST("/advice", PostAdvice(app))
	protected.POST("/chat", PostChat(app))
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
