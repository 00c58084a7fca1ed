package httpserver

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"hoursync/internal/model"
	"hoursync/pkg/log"
)

// StatusProvider supplies the read-only state shown at /status.
type StatusProvider interface {
	Snapshot() model.StatusSnapshot
}

// HTTPServer holds all dependencies for the ops HTTP server.
type HTTPServer struct {
	gin         *gin.Engine
	l           log.Logger
	port        int
	mode        string
	environment string
	status      StatusProvider
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger      log.Logger
	Port        int
	Mode        string
	Environment string
	Status      StatusProvider
}

// New creates a new HTTPServer instance.
func New(logger log.Logger, cfg Config) (*HTTPServer, error) {
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		l:           logger,
		gin:         gin.Default(),
		port:        cfg.Port,
		mode:        cfg.Mode,
		environment: cfg.Environment,
		status:      cfg.Status,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	return srv, nil
}

func (srv HTTPServer) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	return nil
}

// Run registers routes and serves until the process exits.
func (srv HTTPServer) Run() error {
	srv.mapHandlers()
	return srv.gin.Run(fmt.Sprintf(":%d", srv.port))
}
