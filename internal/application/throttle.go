package application

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdidvp/shelfready/internal/domain"
)

// ThrottledGenerator caps calls to a content generator with a token bucket
// so that concurrent batches stay under the provider's per-minute ceiling.
type ThrottledGenerator struct {
	next    domain.ContentGenerator
	limiter *rate.Limiter
}

// NewThrottledGenerator allows perMinute calls per minute with a burst of
// one. A non-positive perMinute defaults to 60.
func NewThrottledGenerator(next domain.ContentGenerator, perMinute int) *ThrottledGenerator {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &ThrottledGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (g *ThrottledGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generated, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return domain.Generated{}, fmt.Errorf("generation rate limit: %w", err)
	}
	return g.next.Generate(ctx, req)
}
