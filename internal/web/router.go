package web

import (
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	ChatHandler    *ChatHandler
	HealthHandler  *HealthHandler
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	if cfg.ChatHandler != nil {
		r.GET("/", cfg.ChatHandler.Index)

		api := r.Group("/api")
		{
			api.GET("/messages", cfg.ChatHandler.ListMessages)
			api.POST("/messages", cfg.ChatHandler.PostMessage)
		}
	}

	return r
}
