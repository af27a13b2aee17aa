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

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/config"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/database"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/server"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @title SocialEyes API
// @version 1.0
// @description Community groups, venues, events and attendance.

// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token or API key. Format: "Bearer {token}"

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := httpx.NewLogger(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	auth.Configure(cfg.JWTSecret, cfg.TokenTTL)

	if err := database.Connect(cfg.DBPath); err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("database migrations completed", "path", cfg.DBPath)

	if cfg.SeedAdmin {
		if err := ensureAdminExists(database.GetDB(), cfg, log); err != nil {
			log.Error("failed to ensure admin user exists", "error", err)
			os.Exit(1)
		}
	}

	router := server.NewRouter(database.GetDB(), log)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.WithCORS(router, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting socialeyes server", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown http server", "error", err)
			os.Exit(1)
		}
		log.Info("server stopped")
	}
}

// ensureAdminExists creates the configured admin user if no admin exists in the database.
func ensureAdminExists(db *gorm.DB, cfg config.Config, log *slog.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	adminUser := models.User{
		Email:        cfg.AdminEmail,
		Username:     "admin",
		FirstName:    "Admin",
		LastName:     "User",
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Warn("created default admin user; change its password", "email", adminUser.Email)
	return nil
}
