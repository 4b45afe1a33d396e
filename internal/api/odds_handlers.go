package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// GetOddsSports lists the sports available from the odds upstream.
func (h *Handler) GetOddsSports(c *fiber.Ctx) error {
	return h.cachedJSON(c, "odds:sports", func() (interface{}, error) {
		return h.odds.GetSports(context.Background())
	})
}

// GetOdds returns upcoming fixtures and bookmaker odds for one sport key.
func (h *Handler) GetOdds(c *fiber.Ctx) error {
	sportKey := c.Params("sport")
	regions := c.Query("regions", "eu")
	markets := c.Query("markets", "h2h")

	cacheKey := fmt.Sprintf("odds:%s:regions=%s:markets=%s", sportKey, regions, markets)
	return h.cachedJSON(c, cacheKey, func() (interface{}, error) {
		return h.odds.GetOdds(context.Background(), sportKey, regions, markets)
	})
}
