package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"
)

func (srv HTTPServer) mapHandlers() {
	srv.registerMiddlewares()
	srv.registerSystemRoutes()
}

func (srv HTTPServer) registerMiddlewares() {
	srv.gin.Use(gin.Recovery())
}

func (srv HTTPServer) registerSystemRoutes() {
	ctx := context.Background()

	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)
	srv.gin.GET("/live", srv.liveCheck)

	if srv.status != nil {
		srv.gin.GET("/status", srv.statusCheck)
		srv.l.Infof(ctx, "Status route registered at GET /status")
	} else {
		srv.l.Infof(ctx, "Status provider not configured, skipping status route")
	}
}
