package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// GetRecommendations generates betting recommendations for the upcoming
// fixtures of one sport. The odds feed provides the event context; results
// are cached since generation is slow and expensive.
func (h *Handler) GetRecommendations(c *fiber.Ctx) error {
	sportKey := c.Params("sport")

	cacheKey := fmt.Sprintf("recs:%s", sportKey)
	return h.cachedJSON(c, cacheKey, func() (interface{}, error) {
		events, err := h.odds.GetOdds(context.Background(), sportKey, "eu", "h2h")
		if err != nil {
			return nil, fmt.Errorf("fetch events for %s: %w", sportKey, err)
		}
		return h.recs.GenerateRecommendations(context.Background(), events)
	})
}
