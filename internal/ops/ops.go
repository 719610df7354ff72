// Package ops exposes a small HTTP surface next to the TCP listener
// for health checks and liveness dashboards.
package ops

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AnnaAnvok/chat/internal/server"
)

func Router(chat *server.Server) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		stats := chat.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": stats.Uptime.Round(time.Second).String(),
		})
	})

	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, chat.Stats())
	})

	return r
}

func Serve(addr string, chat *server.Server) error {
	return Router(chat).Run(addr)
}
