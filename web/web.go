// Package web assembles and runs the user-center HTTP server: router,
// middleware, controllers and scheduled jobs.
package web

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"user-center/caching"
	"user-center/config"
	"user-center/logger"
	"user-center/web/controller"
	"user-center/web/job"
	"user-center/web/middleware"
	"user-center/web/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Server is the user-center web server with its controllers, services and
// scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	cache *caching.Cache
	cron  *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// initRouter initializes gin, registers middleware and controllers and
// returns the configured engine.
func (s *Server) initRouter() *gin.Engine {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = config.GetCORSOrigins()
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsConfig))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "version": config.GetVersion()})
	})

	tokenService := service.NewTokenService()
	userService := service.NewUserService()

	api := engine.Group("/api")
	authed := api.Group("")
	authed.Use(middleware.AuthRequired(tokenService, userService))
	admin := authed.Group("")
	admin.Use(middleware.AdminRequired())

	loginLimiter := middleware.RateLimit(s.cache, middleware.DefaultLoginRateLimit())
	controller.NewAuthController(api, authed, loginLimiter)
	controller.NewUserController(authed)
	controller.NewActivityController(authed, admin)
	controller.NewDashboardController(authed, service.NewDashboardService(s.cache))
	controller.NewServerController(admin, service.NewServerService(s.cache))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	})

	return engine
}

// startTask schedules the background maintenance jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@daily", job.NewActivityCleanupJob()); err != nil {
		logger.Warning("failed to schedule activity cleanup job:", err)
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cache = caching.NewCache()
	s.cron = cron.New()
	s.cron.Start()
	s.startTask()

	engine := s.initRouter()

	listenAddr := net.JoinHostPort(config.GetListen(), fmt.Sprintf("%d", config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler: engine,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server error:", err)
		}
	}()

	logger.Infof("%s %s listening on %s", config.GetName(), config.GetVersion(), listenAddr)
	return nil
}

// Stop gracefully shuts down the server, jobs and cache.
func (s *Server) Stop() error {
	s.cancel()

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.cache != nil {
		s.cache.Flush()
	}

	var err error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	return err
}
