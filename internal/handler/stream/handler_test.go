package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
)

// readEvent returns the next "event:" name and its data line.
func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read sse: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestStreamDeliversAppendedMessages(t *testing.T) {
	sessions := chatservice.NewService()
	handler := New(sessions, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/stream/s1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if event, _ := readEvent(t, reader); event != "ready" {
		t.Fatalf("expected ready event, got %s", event)
	}

	if _, _, err := sessions.AppendUserMessage(ctx, "s1", chat.Message{Text: "Hello"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	event, data := readEvent(t, reader)
	if event != "message" {
		t.Fatalf("expected message event, got %s", event)
	}
	var payload StreamEvent
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Message == nil || payload.Message.DisplayText != "Hello" {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestStreamHeartbeat(t *testing.T) {
	handler := New(chatservice.NewService(), nil)
	handler.heartbeat = 10 * time.Millisecond

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/stream/s1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader)
	if event, _ := readEvent(t, reader); event != "heartbeat" {
		t.Fatalf("expected heartbeat, got %s", event)
	}
}
