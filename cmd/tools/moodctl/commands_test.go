package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
	moodservice "github.com/zhouzirui/mindbloom/backend/internal/service/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/storage"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func memoryOpener(kv storage.KV) storeOpener {
	return func(rootOptions) (*moodservice.Store, func() error, error) {
		store := moodservice.NewStore(kv,
			moodservice.WithLocation(time.UTC),
			moodservice.WithClock(func() time.Time { return fixedNow }),
		)
		return store, func() error { return nil }, nil
	}
}

func execute(t *testing.T, kv storage.KV, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(memoryOpener(kv))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T, kv storage.KV, logs ...moodmodel.Log) {
	t.Helper()
	store, _, _ := memoryOpener(kv)(rootOptions{})
	for _, entry := range logs {
		require.NoError(t, store.Upsert(context.Background(), entry))
	}
}

func TestLogThenExport(t *testing.T) {
	kv := storage.NewMemory()

	out, err := execute(t, kv, "log", "--level", "3", "--note", "long walk")
	require.NoError(t, err)
	assert.Contains(t, out, "logged good (3) for 2024-03-10")

	out, err = execute(t, kv, "export")
	require.NoError(t, err)

	var logs []moodmodel.Log
	require.NoError(t, json.Unmarshal([]byte(out), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "long walk", logs[0].Note)
}

func TestLogRejectsInvalidLevel(t *testing.T) {
	kv := storage.NewMemory()

	_, err := execute(t, kv, "log", "--level", "7")
	assert.ErrorIs(t, err, moodservice.ErrInvalidLevel)

	_, err = execute(t, kv, "log")
	assert.Error(t, err)
}

func TestListFiltersMonth(t *testing.T) {
	kv := storage.NewMemory()
	seed(t, kv,
		moodmodel.Log{Date: time.Date(2024, time.February, 28, 9, 0, 0, 0, time.UTC), Level: 1},
		moodmodel.Log{Date: time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC), Level: 4, Note: "sunny"},
	)

	out, err := execute(t, kv, "list", "--month", "2024-03")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-02")
	assert.Contains(t, out, "rad")
	assert.NotContains(t, out, "2024-02-28")

	_, err = execute(t, kv, "list", "--month", "March")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	kv := storage.NewMemory()
	seed(t, kv,
		moodmodel.Log{Date: time.Date(2024, time.March, 9, 9, 0, 0, 0, time.UTC), Level: 2},
		moodmodel.Log{Date: time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC), Level: 4},
	)

	out, err := execute(t, kv, "stats")
	require.NoError(t, err)
	assert.Regexp(t, `current streak\s+2`, out)
	assert.Regexp(t, `best streak\s+2`, out)
	assert.Regexp(t, `total\s+2`, out)
	assert.Regexp(t, `meh\s+1`, out)
}
