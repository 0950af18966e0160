// Package ai is the boundary to the hosted generative model. The rest of the
// backend talks to it through Client and never sees provider types.
package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/metrics"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

// Operation labels used for logs and metrics.
const (
	OpConverse  = "converse"
	OpTitle     = "title"
	OpTherapist = "therapists"
)

// Client exposes the three model operations the backend depends on.
type Client interface {
	// Converse answers text (and attachment) given the prior turns.
	Converse(ctx context.Context, history []chat.Message, text string, attachment *chat.Attachment) (string, error)
	// TitleFor summarizes the first message of a chat into a short title.
	TitleFor(ctx context.Context, firstMessage string) (string, error)
	// NearbyTherapists returns the raw model answer for a therapist search
	// around the coordinates. Parsing is left to the caller.
	NearbyTherapists(ctx context.Context, lat, lng float64) (string, error)
}

// New builds the client for the configured provider.
func New(ctx context.Context, cfg config.AIConfig, logger *zap.Logger, m *metrics.Metrics) (Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("ai provider %q is not configured", cfg.Provider)
	}

	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err = NewGemini(ctx, cfg)
	case config.ProviderArk:
		client, err = NewArk(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(client, cfg.Provider, logger, m), nil
}

// Instrument wraps client so every call is logged and measured.
func Instrument(client Client, provider string, logger *zap.Logger, m *metrics.Metrics) Client {
	return &instrumented{
		next:     client,
		provider: provider,
		logger:   logging.OrNop(logger),
		metrics:  m,
	}
}

type instrumented struct {
	next     Client
	provider string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func (c *instrumented) Converse(ctx context.Context, history []chat.Message, text string, attachment *chat.Attachment) (string, error) {
	started := time.Now()
	reply, err := c.next.Converse(ctx, history, text, attachment)
	c.observe(OpConverse, started, err, zap.Int("history", len(history)), zap.Bool("attachment", attachment != nil), zap.Int("reply_len", len(reply)))
	return reply, err
}

func (c *instrumented) TitleFor(ctx context.Context, firstMessage string) (string, error) {
	started := time.Now()
	title, err := c.next.TitleFor(ctx, firstMessage)
	c.observe(OpTitle, started, err)
	return title, err
}

func (c *instrumented) NearbyTherapists(ctx context.Context, lat, lng float64) (string, error) {
	started := time.Now()
	raw, err := c.next.NearbyTherapists(ctx, lat, lng)
	c.observe(OpTherapist, started, err, zap.Int("response_len", len(raw)))
	return raw, err
}

func (c *instrumented) observe(op string, started time.Time, err error, fields ...zap.Field) {
	c.metrics.ObserveAI(op, started, err)
	fields = append(fields,
		zap.String("provider", c.provider),
		zap.String("operation", op),
		zap.Duration("elapsed", time.Since(started)),
	)
	if err != nil {
		c.logger.Warn("ai call failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("ai call finished", fields...)
}
