package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
	"github.com/zhouzirui/mindbloom/backend/internal/metrics"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

type stubClient struct {
	err error
}

func (s stubClient) Converse(context.Context, []chat.Message, string, *chat.Attachment) (string, error) {
	return "ok", s.err
}

func (s stubClient) TitleFor(context.Context, string) (string, error) { return "t", s.err }

func (s stubClient) NearbyTherapists(context.Context, float64, float64) (string, error) {
	return "[]", s.err
}

func TestInstrumentRecordsOutcome(t *testing.T) {
	m := metrics.New()
	core, logs := observer.New(zapcore.WarnLevel)

	ok := Instrument(stubClient{}, "fake", zap.New(core), m)
	_, err := ok.Converse(context.Background(), nil, "hi", nil)
	require.NoError(t, err)

	failing := Instrument(stubClient{err: errors.New("boom")}, "fake", zap.New(core), m)
	_, err = failing.TitleFor(context.Background(), "hi")
	require.Error(t, err)

	reg := m.Registry()
	count, err := testutil.GatherAndCount(reg, "mindbloom_ai_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, logs.FilterMessage("ai call failed").Len())
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), config.AIConfig{Provider: config.ProviderGemini}, nil, nil)
	assert.Error(t, err)
}
