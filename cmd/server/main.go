package main

import (
	"log"

	"github.com/dnhan1707/livebet/internal/api"
	"github.com/dnhan1707/livebet/internal/auth"
	"github.com/dnhan1707/livebet/internal/cache"
	"github.com/dnhan1707/livebet/internal/config"
	"github.com/dnhan1707/livebet/internal/feed"
	"github.com/dnhan1707/livebet/internal/live"
	"github.com/dnhan1707/livebet/internal/oddsapi"
	"github.com/dnhan1707/livebet/internal/recs"
	"github.com/dnhan1707/livebet/internal/storage"
	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg := config.Load()

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect to postgres: ", err)
	}
	defer db.Close()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.CacheTTL)
	defer cacheClient.Close()

	streamSvc := storage.NewStreamService(db)
	statsSvc := storage.NewStatsService(db)

	registry := live.NewRegistry()
	liveSvc := live.NewService(registry, streamSvc, statsSvc)

	oddsClient := oddsapi.New(cfg.OddsAPIBase, cfg.OddsAPIKey)
	recsClient := recs.New(cfg.OpenAIBase, cfg.OpenAIKey)
	handler := api.New(cacheClient, oddsClient, recsClient, liveSvc)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Live broadcast endpoint: viewers subscribe, producers push updates.
	app.Get("/ws/live", live.NewHandler(registry, liveSvc))

	// Viewer-facing reads
	app.Get("/api/events/:id/stream", handler.GetEventStream)
	app.Get("/api/events/:id/stats", handler.GetEventStats)
	app.Get("/api/streams", handler.ListStreams)
	app.Get("/api/odds/sports", handler.GetOddsSports)
	app.Get("/api/odds/:sport", handler.GetOdds)
	app.Get("/api/recommendations/:sport", handler.GetRecommendations)

	// Producer routes: stream lifecycle and stats pushes over REST
	producer := app.Group("/api", auth.Middleware(cfg.JWTSecret), auth.RequireProducer())
	producer.Post("/streams", handler.CreateStream)
	producer.Patch("/streams/:id", handler.UpdateStream)
	producer.Put("/events/:id/stats", handler.UpdateEventStats)

	// Optional external stats feed
	if cfg.FeedURL != "" {
		go feed.Listen(cfg.FeedURL, cfg.FeedKey, liveSvc)
	}

	log.Fatal(app.Listen(":" + cfg.Port))
}
