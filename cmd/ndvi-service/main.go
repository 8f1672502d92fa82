package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/ndvi-service/internal/api/http"
	"github.com/i474232898/ndvi-service/internal/config"
	"github.com/i474232898/ndvi-service/internal/ndvi"
	"github.com/i474232898/ndvi-service/internal/ndvi/stac"
	"github.com/i474232898/ndvi-service/internal/raster"
	"github.com/i474232898/ndvi-service/internal/raster/gdal"
	"github.com/i474232898/ndvi-service/internal/scheduler"
	"github.com/i474232898/ndvi-service/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for catalog and token calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	catalog := stac.NewClient(httpClient, cfg.STACAPIURL, cfg.SearchMaxPages)

	// Asset signer backed by a token cache: Redis when configured, memory otherwise.
	var signer ndvi.AssetSigner
	if cfg.SignAssets {
		var tokens ndvi.TokenStore
		if cfg.RedisAddr != "" {
			rs, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				log.Fatalf("failed to open token cache: %v", err)
			}
			defer rs.Close()
			tokens = rs
		} else {
			mem := store.NewMemoryStore(256)
			tokens = mem

			sched := scheduler.New(cfg.TokenPruneInterval, mem)
			if err := sched.Start(); err != nil {
				log.Fatalf("failed to start scheduler: %v", err)
			}
			defer sched.Stop()
		}
		signer = stac.NewSigner(httpClient, cfg.SASTokenURL, cfg.SubscriptionKey, tokens)
	}

	bands := raster.NewReader(gdal.NewOpener(cfg.HTTPTimeout), cfg.BoundsDensify)

	// Core service running the query pipeline.
	service := ndvi.NewService(catalog, signer, bands, cfg.PipelineOptions())

	app := fiber.New(fiber.Config{
		AppName:               "ndvi-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.RequestTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
