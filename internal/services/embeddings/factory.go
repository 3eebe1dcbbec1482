package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"golang.org/x/time/rate"
)

// NewFromConfig selects the embedding provider from configuration.
func NewFromConfig(ctx context.Context, config *common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	switch config.Provider {
	case "gemini":
		return NewGeminiService(ctx, config, logger)
	case "openai":
		return NewOpenAIService(config, logger)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", config.Provider)
	}
}

// newLimiter builds a limiter from a minimum-interval duration string.
// An empty or invalid interval means no throttling.
func newLimiter(interval string) *rate.Limiter {
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}
