package mood

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	moodanalysis "github.com/zhouzirui/mindbloom/backend/internal/analysis/mood"
	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/storage"
)

type failingKV struct {
	storage.KV
	failSet bool
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.KV.Set(ctx, key, value)
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestRecordUpsertsByCalendarDay(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := now
	store := NewStore(kv, WithLocation(time.UTC), WithClock(func() time.Time { return clock }))

	_, err := store.Record(ctx, 2, "  morning  ")
	require.NoError(t, err)

	clock = now.Add(8 * time.Hour)
	_, err = store.Record(ctx, 4, "")
	require.NoError(t, err)

	logs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 4, logs[0].Level)
	assert.Empty(t, logs[0].Note)
	assert.True(t, logs[0].Date.Equal(clock))

	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "note")
}

func TestRecordKeepsOneEntryPerDaySorted(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory(), WithLocation(time.UTC))

	days := []time.Time{
		time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 22, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		require.NoError(t, store.Upsert(ctx, moodmodel.Log{Date: day, Level: i}))
	}

	logs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for i := 1; i < len(logs); i++ {
		assert.True(t, logs[i-1].Date.Before(logs[i].Date))
		assert.False(t, moodanalysis.SameDay(logs[i-1].Date, logs[i].Date, time.UTC))
	}
	assert.Equal(t, 3, logs[0].Level)
}

func TestRecordRejectsInvalidLevel(t *testing.T) {
	store := NewStore(storage.NewMemory())
	_, err := store.Record(context.Background(), 5, "")
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = store.Record(context.Background(), -1, "")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestLoadCorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, StorageKey, []byte("{not json")))

	core, logs := observer.New(zapcore.WarnLevel)
	store := NewStore(kv, WithLogger(zap.New(core)))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Equal(t, 1, logs.FilterMessage("mood logs unreadable, starting empty").Len())
}

func TestLoadNormalizesStoredData(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	stored := []moodmodel.Log{
		{Date: time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC), Level: 1},
		{Date: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Level: 2},
		{Date: time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC), Level: 4},
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, StorageKey, raw))

	loaded, err := NewStore(kv, WithLocation(time.UTC)).Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 2, loaded[0].Level)
	assert.Equal(t, 1, loaded[1].Level)
}

func TestFailedPersistLeavesJournalUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: storage.NewMemory()}
	store := NewStore(kv, WithLocation(time.UTC), WithClock(fixedClock(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))))

	_, err := store.Record(ctx, 3, "first")
	require.NoError(t, err)

	kv.failSet = true
	store.now = fixedClock(time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC))
	_, err = store.Record(ctx, 1, "second")
	require.Error(t, err)

	logs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "first", logs[0].Note)
}

func TestDemoSeedEndsYesterday(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	store := NewStore(kv,
		WithLocation(time.UTC),
		WithClock(fixedClock(now)),
		WithDemoSeed(true),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)

	logs, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, logs, demoDays)
	assert.True(t, moodanalysis.SameDay(logs[len(logs)-1].Date, now.AddDate(0, 0, -1), time.UTC))
	assert.True(t, moodanalysis.SameDay(logs[0].Date, now.AddDate(0, 0, -demoDays), time.UTC))
	for _, log := range logs {
		assert.True(t, moodmodel.ValidLevel(log.Level))
	}

	_, err = kv.Get(ctx, StorageKey)
	assert.NoError(t, err, "seed should be persisted")
}

func TestNoSeedWithoutFlag(t *testing.T) {
	logs, err := NewStore(storage.NewMemory()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory(), WithLocation(time.UTC))
	_, err := store.Record(ctx, 2, "")
	require.NoError(t, err)

	logs, err := store.List(ctx)
	require.NoError(t, err)
	logs[0].Level = 0

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].Level)
}
