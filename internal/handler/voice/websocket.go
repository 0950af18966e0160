package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	voiceanalysis "github.com/zhouzirui/mindbloom/backend/internal/analysis/voice"
	chathandler "github.com/zhouzirui/mindbloom/backend/internal/handler/chat"
	chatservice "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
)

const (
	defaultReadTimeout = 60 * time.Second
	pingInterval       = 54 * time.Second
	writeWait          = 10 * time.Second
)

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// ResultMessage 识别结果，interim 结果会被同 index 的后续结果覆盖
type ResultMessage struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	sessionID  string
	listening  bool
	transcript voiceanalysis.Transcript
}

func newConnectionState(sessionID string) *connectionState {
	return &connectionState{sessionID: sessionID}
}

// release drops whatever was recognized so far.
func (s *connectionState) release() {
	s.listening = false
	s.transcript.Reset()
}

// handleWebSocket 处理语音输入连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID != "" {
		if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	state := newConnectionState(sessionID)
	// 任何退出路径都释放识别缓冲
	defer state.release()

	h.logger.Info("voice channel opened", zap.String("session_id", sessionID))
	defer h.logger.Info("voice channel closed", zap.String("session_id", state.sessionID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]any{"type": "connected"})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// 每次读之前重置超时，stop 可能阻塞到 AI 回复为止
			conn.SetReadDeadline(time.Now().Add(h.readTimeout))

			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn("websocket read failed", zap.Error(err))
				}
				return
			}

			if msg.SessionID != "" && state.sessionID != "" && msg.SessionID != state.sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, state, &msg)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "start":
		state.release()
		state.listening = true
		h.sendInfo(conn, state.sessionID, map[string]any{"type": "listening"})
	case "result":
		h.handleResult(conn, state, msg.Data)
	case "stop":
		h.handleStop(ctx, conn, state)
	case "reset":
		state.release()
		h.sendInfo(conn, state.sessionID, map[string]any{"type": "reset"})
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleResult(conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	if !state.listening {
		h.sendError(conn, "not listening")
		return
	}

	var result ResultMessage
	if err := json.Unmarshal(raw, &result); err != nil || !state.transcript.Update(result.Index, result.Text, result.IsFinal) {
		h.sendError(conn, "invalid result payload")
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":    "transcript",
		"text":    state.transcript.Text(),
		"isFinal": result.IsFinal,
	})
}

// handleStop 结束识别：分析转写，套上语音模板后按普通消息发送
func (h *Handler) handleStop(ctx context.Context, conn *websocket.Conn, state *connectionState) {
	text, empty := state.transcript.Text(), state.transcript.Empty()
	state.release()

	if empty {
		h.sendInfo(conn, state.sessionID, map[string]any{"type": "stopped", "text": ""})
		return
	}

	wrapped, analysis := voiceanalysis.WrapTranscript(text)
	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":   "analysis",
		"text":   text,
		"intent": analysis.Intent,
		"tone":   analysis.Tone,
	})

	sessionID := state.sessionID
	if sessionID == "" {
		sessionID = h.sessions.Current()
	}

	result, err := h.dispatcher.Send(ctx, chatservice.SendRequest{SessionID: sessionID, Text: wrapped})
	if err != nil {
		if errors.Is(err, chatservice.ErrSendInFlight) {
			h.sendError(conn, err.Error())
			return
		}
		h.logger.Error("voice send failed", zap.String("session_id", sessionID), zap.Error(err))
		h.sendError(conn, "send failed")
		return
	}

	state.sessionID = result.SessionID
	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":    "reply",
		"created": result.Created,
		"reply":   chathandler.NewMessageView(result.Reply),
	})
}

func (h *Handler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("write info failed", zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("write error failed", zap.Error(err))
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
