package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"datacatalog/internal/config"
	apphttp "datacatalog/internal/http"
	"datacatalog/internal/repository"
	"datacatalog/internal/repository/memory"
	"datacatalog/internal/repository/sqlite"
	"datacatalog/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		userRepo    repository.UserRepository
		datasetRepo repository.DatasetRepository
	)

	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using in-memory storage, records will not survive a restart")
		userRepo = memory.NewUserRepository()
		datasetRepo = memory.NewDatasetRepository()
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatalf("open database: %v", err)
		}
		defer db.Close()
		userRepo = sqlite.NewUserRepository(db)
		datasetRepo = sqlite.NewDatasetRepository(db)
	default:
		logger.Fatalf("unknown database driver %q", cfg.Database.Driver)
	}

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := datasetRepo.Init(ctx); err != nil {
		logger.Fatalf("init dataset repository: %v", err)
	}

	userService := service.NewUserService(userRepo)
	datasetService := service.NewDatasetService(datasetRepo)

	tokens := apphttp.NewTokenManager(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	authLimiter := apphttp.NewRateLimiter(cfg.RateLimit.AuthMax, window)
	defer authLimiter.Stop()
	generalLimiter := apphttp.NewRateLimiter(cfg.RateLimit.GeneralMax, window)
	defer generalLimiter.Stop()

	debug := cfg.Server.Mode == "debug"
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		datasetService,
		tokens,
		authLimiter,
		generalLimiter,
		cfg.CORS.Origin,
		debug,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
