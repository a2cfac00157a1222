// Package rest exposes the docdrive services over an HTTP/JSON API built on gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/config"
	"github.com/dmitrijs2005/docdrive/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Services groups the application services the handlers call into.
type Services struct {
	Users    *services.UserService
	Admins   *services.AdminService
	Drive    *services.DriveService
	Files    *services.FileService
	Comments *services.CommentService
}

type Server struct {
	address       string
	engine        *gin.Engine
	svc           Services
	logger        logging.Logger
	chunkSize     int
	maxUploadSize int64
}

func NewServer(cfg *config.Config, l logging.Logger, svc Services) *Server {
	s := &Server{
		address:       cfg.EndpointAddrHTTP,
		svc:           svc,
		logger:        l.With("module", "rest_server"),
		chunkSize:     cfg.DownloadChunkSize,
		maxUploadSize: cfg.MaxUploadSize,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	s.routes(r)
	s.engine = r
	return s
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
