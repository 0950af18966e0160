package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chathandler "github.com/zhouzirui/mindbloom/backend/internal/handler/chat"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	chatservice "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

const defaultHeartbeat = 15 * time.Second

// Handler pushes messages appended to a session via Server-Sent Events, so a
// late reply reaches the client even after it navigated away and back.
type Handler struct {
	sessions  *chatservice.Service
	logger    *zap.Logger
	heartbeat time.Duration
}

// New creates a new stream handler
func New(sessions *chatservice.Service, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		logger:    logging.OrNop(logger),
		heartbeat: defaultHeartbeat,
	}
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamEvent represents one SSE payload.
type StreamEvent struct {
	Event     string                   `json:"event"`
	SessionID string                   `json:"sessionId,omitempty"`
	Message   *chathandler.MessageView `json:"message,omitempty"`
	Time      string                   `json:"time,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// 先订阅再回复 ready，客户端收到 ready 之后追加的消息都不会丢
	feed, cancel := h.sessions.Subscribe(sessionID)
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	h.logger.Debug("sse stream opened", zap.String("session_id", sessionID))
	defer h.logger.Debug("sse stream closed", zap.String("session_id", sessionID))

	if err := utils.SendSSEEvent(w, flusher, "ready", StreamEvent{Event: "ready", SessionID: sessionID}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-feed:
			if !ok {
				return
			}
			view := chathandler.NewMessageView(msg)
			if err := utils.SendSSEEvent(w, flusher, "message", StreamEvent{
				Event:     "message",
				SessionID: sessionID,
				Message:   &view,
			}); err != nil {
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, "heartbeat", StreamEvent{
				Event: "heartbeat",
				Time:  t.UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}
