package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ignite/emailpro/internal/api"
	"github.com/ignite/emailpro/internal/auth"
	"github.com/ignite/emailpro/internal/config"
	"github.com/ignite/emailpro/internal/pkg/logger"
	"github.com/ignite/emailpro/internal/repository/postgres"
	"github.com/ignite/emailpro/internal/service/campaign"
	"github.com/ignite/emailpro/internal/service/contact"
	"github.com/ignite/emailpro/internal/service/template"
	"github.com/ignite/emailpro/internal/transport"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.RedactEnabled())

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("Database unreachable: %v", err)
	}
	cancelPing()
	logger.Info("database connected")

	// Repositories
	campaignStore := postgres.NewCampaignStore(db)
	contactRepo := postgres.NewContactRepo(db)
	templateRepo := postgres.NewTemplateRepo(db)

	// Transport: SES when configured, a logging no-op otherwise, with an
	// optional Redis rate limiter wrapped around either.
	var sender transport.Sender
	if cfg.SES.Enabled && cfg.SES.AccessKey != "" {
		sesSender, err := transport.NewSESSender(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region)
		if err != nil {
			log.Fatalf("Failed to initialize SES: %v", err)
		}
		sender = sesSender
		logger.Info("ses transport enabled", "region", cfg.SES.Region)
	} else {
		sender = transport.NewLogSender()
		logger.Warn("ses not configured, using log-only transport")
	}

	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		limited, err := transport.NewRateLimitedSenderFromURL(sender, cfg.Redis.URL, transport.RateLimit{
			PerSecond: cfg.Dispatch.RatePerSecond,
			PerMinute: cfg.Dispatch.RatePerMinute,
		})
		if err != nil {
			log.Fatalf("Failed to connect rate limiter: %v", err)
		}
		defer limited.Close()
		sender = limited
		logger.Info("redis rate limiter enabled",
			"per_second", cfg.Dispatch.RatePerSecond, "per_minute", cfg.Dispatch.RatePerMinute)
	}

	// Services
	renderer := template.NewRenderer()
	coordinator := campaign.NewCoordinator(campaignStore, sender, renderer, campaign.CoordinatorConfig{
		FromName:    cfg.Sender.FromName,
		FromEmail:   cfg.Sender.FromEmail,
		Workers:     cfg.Dispatch.Workers,
		SendTimeout: cfg.Dispatch.SendTimeout(),
	})

	contactSvc := contact.NewService(contactRepo)
	templateSvc := template.NewService(templateRepo)
	campaignSvc := campaign.NewService(campaignStore, contactRepo, coordinator, cfg.Dispatch.MaxAttempts)

	// Auth
	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := os.Getenv("PUBLIC_BASE_URL")
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://%s:%d", host, port)
		}
		authManager = auth.NewManager(&cfg.Auth, baseURL)
		authManager.CleanupExpiredSessions()
		logger.Info("google oauth enabled")
	} else {
		logger.Warn("auth disabled, owner resolved from X-Owner-ID header")
	}

	handlers := api.NewHandlers(contactSvc, templateSvc, campaignSvc)
	server := api.NewServer(cfg.Server, handlers, authManager)

	addr := fmt.Sprintf("%s:%d", host, port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err.Error())
	}
	logger.Info("server stopped")
}
