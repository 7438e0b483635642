// Command devserver exposes the simulated booking backend over the
// widget's wire contract, so host pages can be developed without a
// live server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotform/slotform-core/config"
	"github.com/slotform/slotform-core/internal/backend"
	"github.com/slotform/slotform-core/internal/handlers"
	"github.com/slotform/slotform-core/internal/middleware"
	"github.com/slotform/slotform-core/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting slotform devserver",
		zap.String("environment", cfg.Server.AppEnv),
	)

	// The devserver always serves the simulated backend; the live/mock
	// switch applies to the widget side.
	engine := backend.NewMock(cfg.Mock, time.Now().UnixNano())

	slotsHandler := handlers.NewSlotsHandler(engine)
	submitHandler := handlers.NewSubmitHandler(engine)
	logsHandler := handlers.NewLogsHandler()
	healthHandler := handlers.NewHealthHandler(config.BackendModeMock)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// The widget embeds cross-origin, so only configured host origins
	// may call the API.
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	submitRateLimiter := middleware.NewRateLimiter(5, 10)     // 5 req/sec, burst of 10 (prevent spam)
	defer generalRateLimiter.Stop()
	defer submitRateLimiter.Stop()

	router.GET("/health", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	router.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/appointments/slots", generalRateLimiter.Middleware(), slotsHandler.GetSlots)
	v1.POST("/submit", submitRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), submitHandler.Submit)
	v1.POST("/logs", generalRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(1*1024*1024), logsHandler.ReceiveWidgetLogs)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
