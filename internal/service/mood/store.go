// Package mood persists the mood journal as a single JSON document.
package mood

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	moodanalysis "github.com/zhouzirui/mindbloom/backend/internal/analysis/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/metrics"
	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/storage"
)

// StorageKey is the durable key holding the whole journal.
const StorageKey = "mindbloom_mood_logs"

// ErrInvalidLevel is returned when a level is outside 0..4.
var ErrInvalidLevel = errors.New("mood: level must be between 0 and 4")

// Store 管理心情日志，每个自然日最多一条。
type Store struct {
	kv       storage.KV
	loc      *time.Location
	seedDemo bool
	now      func() time.Time
	rng      *rand.Rand
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	logs   []moodmodel.Log
	loaded bool
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the time zone used for calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDemoSeed fills an empty journal with sample entries on first load.
func WithDemoSeed(enabled bool) Option {
	return func(s *Store) { s.seedDemo = enabled }
}

// WithRand sets the random source used for the demo seed.
func WithRand(rng *rand.Rand) Option {
	return func(s *Store) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(logger) }
}

// WithMetrics attaches metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store backed by kv.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		loc:    time.Local,
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d696e64)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone of calendar days.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Load reads the journal from storage, replacing the cached copy.
func (s *Store) Load(ctx context.Context) ([]moodmodel.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	return cloneLogs(s.logs), nil
}

// List returns the sorted journal, loading it on first use.
func (s *Store) List(ctx context.Context) ([]moodmodel.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return cloneLogs(s.logs), nil
}

// Record stamps a new entry for today and upserts it.
func (s *Store) Record(ctx context.Context, level int, note string) (moodmodel.Log, error) {
	if !moodmodel.ValidLevel(level) {
		return moodmodel.Log{}, ErrInvalidLevel
	}
	entry := moodmodel.Log{
		Date:  s.now(),
		Level: level,
		Note:  strings.TrimSpace(note),
	}
	if err := s.Upsert(ctx, entry); err != nil {
		return moodmodel.Log{}, err
	}
	return entry, nil
}

// Upsert replaces the entry for entry's calendar day, or appends one.
func (s *Store) Upsert(ctx context.Context, entry moodmodel.Log) error {
	if !moodmodel.ValidLevel(entry.Level) {
		return ErrInvalidLevel
	}
	err := s.Mutate(ctx, func(logs []moodmodel.Log) []moodmodel.Log {
		for i := range logs {
			if moodanalysis.SameDay(logs[i].Date, entry.Date, s.loc) {
				logs[i] = entry
				return logs
			}
		}
		return append(logs, entry)
	})
	if err != nil {
		return err
	}
	s.metrics.MoodSaved()
	return nil
}

// Mutate applies fn to a copy of the journal, persists the normalized result
// and only then makes it current. On a persist failure the journal is left
// unchanged.
func (s *Store) Mutate(ctx context.Context, fn func([]moodmodel.Log) []moodmodel.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	next := normalize(fn(cloneLogs(s.logs)), s.loc)
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.logs = next
	return nil
}

func (s *Store) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logs = nil
		if s.seedDemo {
			s.seedLocked(ctx)
		}
		s.loaded = true
		return nil
	case err != nil:
		return fmt.Errorf("load mood logs: %w", err)
	}

	var logs []moodmodel.Log
	if err := json.Unmarshal(raw, &logs); err != nil {
		s.logger.Warn("mood logs unreadable, starting empty", zap.Error(err))
		logs = nil
	}
	s.logs = normalize(logs, s.loc)
	s.loaded = true
	return nil
}

func (s *Store) persistLocked(ctx context.Context, logs []moodmodel.Log) error {
	if logs == nil {
		logs = []moodmodel.Log{}
	}
	raw, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("encode mood logs: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("save mood logs: %w", err)
	}
	return nil
}

// normalize sorts ascending and keeps the most recent entry per calendar day.
func normalize(logs []moodmodel.Log, loc *time.Location) []moodmodel.Log {
	sorted := cloneLogs(logs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := sorted[:0]
	for _, log := range sorted {
		if n := len(out); n > 0 && moodanalysis.SameDay(out[n-1].Date, log.Date, loc) {
			out[n-1] = log
			continue
		}
		out = append(out, log)
	}
	return out
}

func cloneLogs(logs []moodmodel.Log) []moodmodel.Log {
	if logs == nil {
		return nil
	}
	return append([]moodmodel.Log(nil), logs...)
}
