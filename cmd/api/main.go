package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardattend/internal/attendance"
	"cardattend/internal/auth"
	"cardattend/internal/config"
	"cardattend/internal/handler"
	"cardattend/internal/httpmiddleware"
	"cardattend/internal/logging"
	"cardattend/internal/notify"
	"cardattend/internal/scan"
	"cardattend/internal/schedule"
	"cardattend/internal/store"
	"cardattend/internal/students"
	"cardattend/internal/teachers"
)

func main() {
	cfg := config.Load()

	level := slog.LevelDebug
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
		level = slog.LevelInfo
	}
	logger := logging.New(os.Stdout, level).With("service", "cardattend-api")

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error(context.Background(), "http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(cfg.DatabaseURL)
	defer db.Close()
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var broker notify.Broker
	if cfg.BrokerBackend == "memory" {
		broker = notify.NewInMemory(logger, 64)
	} else {
		broker = notify.NewRedis(redisClient.Client, "", logger)
	}
	defer broker.Close()

	loc := cfg.Location()
	teacherSvc := teachers.NewService(teachers.NewRepository(db.Client))
	studentSvc := students.NewService(students.NewRepository(db.Client))
	scheduleSvc := schedule.NewService(schedule.NewRepository(db.Client), loc)
	attendanceSvc := attendance.NewService(
		attendance.NewRepository(db.Client),
		studentSvc,
		attendance.FixedLesson(cfg.ScanLessonID),
		broker,
		logger,
		loc,
	)
	authSvc := auth.NewService(auth.NewRepository(db.Client), auth.Options{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, broker, logger)

	h := handler.New(handler.Deps{
		Auth:       authSvc,
		Teachers:   teacherSvc,
		Students:   studentSvc,
		Schedule:   scheduleSvc,
		Attendance: attendanceSvc,
		Sessions:   scan.NewSessions(),
		Broker:     broker,
		Log:        logger,
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.RequestLog {
		r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			SkipPaths: []string{"/healthz", "/metrics"},
		}))
	}
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy || (!redisHealthy && cfg.BrokerBackend != "memory") {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "redis": redisHealthy, "db": dbHealthy})
	})

	h.Routes(r)

	// no WriteTimeout: the notification stream stays open
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting server", "addr", srv.Addr, "broker", cfg.BrokerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info(context.Background(), "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "server forced shutdown", "error", err)
	}
	logger.Info(shutdownCtx, "server exited")
	return nil
}
