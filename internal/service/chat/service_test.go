package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatmodel "github.com/zhouzirui/mindbloom/backend/internal/model/chat"
	chat "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	id := chat.NewSessionID()
	prior, created, err := svc.AppendUserMessage(ctx, id, chatmodel.Message{Text: "Hello"})
	if err != nil {
		t.Fatalf("AppendUserMessage err: %v", err)
	}
	if !created || len(prior) != 0 {
		t.Fatalf("expected new session with empty history, got created=%v prior=%d", created, len(prior))
	}

	got, err := svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.ID != id {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, id)
	}
	if got.Title != "Hello" {
		t.Fatalf("unexpected title: %q", got.Title)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestSeedTitleFallbacks(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	long := strings.Repeat("a", 45)
	_, _, err := svc.AppendUserMessage(ctx, "long", chatmodel.Message{Text: long})
	require.NoError(t, err)
	_, _, err = svc.AppendUserMessage(ctx, "file", chatmodel.Message{Attachment: &chatmodel.Attachment{Name: "journal.pdf"}})
	require.NoError(t, err)
	_, _, err = svc.AppendUserMessage(ctx, "blank", chatmodel.Message{Attachment: &chatmodel.Attachment{}})
	require.NoError(t, err)

	titles := map[string]string{}
	for _, summary := range svc.List(ctx) {
		titles[summary.ID] = summary.Title
	}
	assert.Equal(t, long[:30], titles["long"])
	assert.Equal(t, "journal.pdf", titles["file"])
	assert.Equal(t, chat.DefaultTitle, titles["blank"])
}

func TestAppendReturnsPriorHistory(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	_, _, err := svc.AppendUserMessage(ctx, "s", chatmodel.Message{Text: "one"})
	require.NoError(t, err)
	_, err = svc.AppendModelMessage(ctx, "s", chatmodel.Message{Text: "reply"})
	require.NoError(t, err)

	prior, created, err := svc.AppendUserMessage(ctx, "s", chatmodel.Message{Text: "two"})
	require.NoError(t, err)
	assert.False(t, created)
	require.Len(t, prior, 2)
	assert.Equal(t, chatmodel.RoleUser, prior[0].Role)
	assert.Equal(t, chatmodel.RoleModel, prior[1].Role)

	transcript, err := svc.LoadTranscript(ctx, "s")
	require.NoError(t, err)
	require.Len(t, transcript, 3)
	assert.Equal(t, "two", transcript[2].Text)
	assert.Equal(t, "s", transcript[2].SessionID)
	assert.NotEmpty(t, transcript[2].ID)
}

func TestAppendRejectsEmptyMessage(t *testing.T) {
	svc := chat.NewService()
	_, _, err := svc.AppendUserMessage(context.Background(), "s", chatmodel.Message{Text: "   "})
	assert.ErrorIs(t, err, chat.ErrEmptyMessage)
	assert.Empty(t, svc.List(context.Background()))
}

func TestAppendModelMessageUnknownSession(t *testing.T) {
	svc := chat.NewService()
	_, err := svc.AppendModelMessage(context.Background(), "ghost", chatmodel.Message{Text: "hi"})
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestHeldTranscriptIsNotMutated(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	_, _, err := svc.AppendUserMessage(ctx, "s", chatmodel.Message{Text: "one"})
	require.NoError(t, err)
	held, err := svc.LoadTranscript(ctx, "s")
	require.NoError(t, err)

	_, err = svc.AppendModelMessage(ctx, "s", chatmodel.Message{Text: "two"})
	require.NoError(t, err)

	assert.Len(t, held, 1)
	held[0].Text = "changed"
	again, err := svc.LoadTranscript(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "one", again[0].Text)
}

func TestStartOrContinue(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.StartOrContinue(ctx, "unknown"), chat.ErrSessionNotFound)

	_, _, err := svc.AppendUserMessage(ctx, "s", chatmodel.Message{Text: "hi"})
	require.NoError(t, err)
	require.NoError(t, svc.StartOrContinue(ctx, "s"))
	assert.Equal(t, "s", svc.Current())

	require.NoError(t, svc.StartOrContinue(ctx, ""))
	assert.Equal(t, "", svc.Current())
}

func TestRetitleToleratesMissingSession(t *testing.T) {
	svc := chat.NewService()
	assert.False(t, svc.Retitle(context.Background(), "missing", "Title"))
}

func TestListKeepsCreationOrder(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		_, _, err := svc.AppendUserMessage(ctx, id, chatmodel.Message{Text: id})
		require.NoError(t, err)
	}

	list := svc.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
	assert.Equal(t, 1, list[0].MessageCount)
}

func TestSubscribeReceivesAppends(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	feed, cancel := svc.Subscribe("s")
	defer cancel()

	_, _, err := svc.AppendUserMessage(ctx, "s", chatmodel.Message{Text: "hi"})
	require.NoError(t, err)
	_, _, err = svc.AppendUserMessage(ctx, "other", chatmodel.Message{Text: "elsewhere"})
	require.NoError(t, err)

	select {
	case msg := <-feed:
		assert.Equal(t, "hi", msg.Text)
	case <-time.After(time.Second):
		t.Fatal("expected a message on the feed")
	}

	select {
	case msg := <-feed:
		t.Fatalf("unexpected message %q", msg.Text)
	default:
	}
}

func TestSubscribeSlowConsumerDoesNotBlock(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	_, cancel := svc.Subscribe("s")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_, _, _ = svc.AppendUserMessage(ctx, "s", chatmodel.Message{Text: "spam"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("appends blocked on a slow subscriber")
	}
}

func TestNewSessionIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := chat.NewSessionID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
