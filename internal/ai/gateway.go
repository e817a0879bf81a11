package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

var ErrNoBackend = errors.New("no llm backend configured")

// Gateway fronts a primary and a secondary backend. A call goes to the
// primary first; a classified transient failure gets exactly one retry
// against the secondary with the same input. Anything else propagates.
type Gateway struct {
	primary   Backend
	secondary Backend
	logger    zerolog.Logger
}

func NewGateway(primary, secondary Backend, logger zerolog.Logger) *Gateway {
	return &Gateway{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (g *Gateway) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if g.primary == nil {
		return "", ErrNoBackend
	}
	answer, err := g.primary.Chat(ctx, messages)
	if err == nil {
		return answer, nil
	}
	if g.secondary == nil || !Retryable(err) {
		return "", err
	}
	g.logger.Warn().Err(err).Msg("primary chat backend failed, falling back")
	return g.secondary.Chat(ctx, messages)
}

func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.primary == nil {
		return nil, ErrNoBackend
	}
	vec, err := g.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	if g.secondary == nil || !Retryable(err) {
		return nil, err
	}
	g.logger.Warn().Err(err).Msg("primary embedding backend failed, falling back")
	return g.secondary.Embed(ctx, text)
}
