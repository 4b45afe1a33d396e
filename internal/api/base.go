package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dnhan1707/livebet/internal/cache"
	"github.com/dnhan1707/livebet/internal/live"
	"github.com/dnhan1707/livebet/internal/oddsapi"
	"github.com/dnhan1707/livebet/internal/recs"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	cache *cache.Cache
	odds  *oddsapi.Client
	recs  *recs.Client
	live  *live.Service
}

func New(c *cache.Cache, odds *oddsapi.Client, recsClient *recs.Client, liveSvc *live.Service) *Handler {
	return &Handler{
		cache: c,
		odds:  odds,
		recs:  recsClient,
		live:  liveSvc,
	}
}

// cachedJSON: unified cache -> fetch -> async set -> respond flow
func (h *Handler) cachedJSON(c *fiber.Ctx, cacheKey string, fetch func() (interface{}, error)) error {
	if cached, err := h.cache.Get(context.Background(), cacheKey); err == nil {
		return c.Type("json").SendString(cached)
	}

	data, err := fetch()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to marshal response"})
	}

	// fire-and-forget cache write
	go func(k, v string) {
		if err := h.cache.Set(context.Background(), k, v); err != nil {
			fmt.Println("Redis set error:", err)
		}
	}(cacheKey, string(jsonData))

	return c.Type("json").SendString(string(jsonData))
}
