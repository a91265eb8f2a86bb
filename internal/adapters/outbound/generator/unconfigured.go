package generator

import (
	"context"
	"errors"

	"github.com/abdidvp/shelfready/internal/domain"
)

var errNotConfigured = errors.New("generator.endpoint is not set")

// Unconfigured stands in for a client when no endpoint is configured. Every
// call fails, so AI fixes report an error instead of mutating anything.
type Unconfigured struct{}

func (Unconfigured) Generate(context.Context, domain.GenerationRequest) (domain.Generated, error) {
	return domain.Generated{}, domain.NewUserError("AI generation is not configured", errNotConfigured)
}
