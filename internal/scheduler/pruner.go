package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/metrics"
	"github.com/robfig/cron/v3"
)

// RevocationPruner is satisfied by *usecase.AuthUsecase.
type RevocationPruner interface {
	PruneRevoked(ctx context.Context) (removed, remaining int, err error)
}

// ConversationPruner is satisfied by *usecase.ChatbotUsecase.
type ConversationPruner interface {
	PruneIdle(ctx context.Context) (removed, remaining int, err error)
}

// Pruner drops revoked token IDs once the tokens they block have expired,
// and idle chatbot conversations when one is attached, on a cron schedule.
type Pruner struct {
	auth   RevocationPruner
	chats  ConversationPruner
	sched  cron.Schedule
	expr   string
	logger *slog.Logger
	now    func() time.Time
}

type PrunerOption func(*Pruner)

func WithConversations(chats ConversationPruner) PrunerOption {
	return func(p *Pruner) { p.chats = chats }
}

// NewPruner accepts standard five-field cron expressions and descriptors
// such as "@every 10m".
func NewPruner(auth RevocationPruner, expr string, logger *slog.Logger, opts ...PrunerOption) (*Pruner, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse prune schedule %q: %w", expr, err)
	}
	p := &Pruner{
		auth:   auth,
		sched:  sched,
		expr:   expr,
		logger: logger.With("component", "pruner"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start blocks until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	p.logger.Info("pruner started", "schedule", p.expr)

	for {
		next := p.sched.Next(p.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("pruner shut down")
			return
		case <-timer.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce runs a single pass and updates the revoked_tokens and
// chat_conversations gauges. A failing step leaves its gauge untouched.
func (p *Pruner) PruneOnce(ctx context.Context) {
	removed, remaining, err := p.auth.PruneRevoked(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "prune revoked tokens", "error", err)
	} else {
		metrics.RevokedTokens.Set(float64(remaining))
		if removed > 0 {
			p.logger.InfoContext(ctx, "pruned revoked tokens", "removed", removed, "remaining", remaining)
		}
	}

	if p.chats == nil {
		return
	}
	removed, remaining, err = p.chats.PruneIdle(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "prune idle conversations", "error", err)
		return
	}
	metrics.ChatConversations.Set(float64(remaining))
	if removed > 0 {
		p.logger.InfoContext(ctx, "pruned idle conversations", "removed", removed, "remaining", remaining)
	}
}
