package chat

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
	"github.com/zhouzirui/mindbloom/backend/internal/service/attachment"
	chatservice "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	sessions   *chatservice.Service
	dispatcher *chatservice.Dispatcher
	drafts     *attachment.Stager
	logger     *zap.Logger
}

// New 创建聊天处理器
func New(sessions *chatservice.Service, dispatcher *chatservice.Dispatcher, drafts *attachment.Stager, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:   sessions,
		dispatcher: dispatcher,
		drafts:     drafts,
		logger:     logging.OrNop(logger),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{id}", h.handleGetSession)
	r.Post("/sessions/current", h.handleSetCurrent)
	r.Post("/chat/send", h.handleSend)
}

// handleListSessions 会话列表，按创建顺序
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessions": h.sessions.List(r.Context()),
		"current":  h.sessions.Current(),
	})
}

// handleGetSession 返回会话和可展示的消息
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, SessionView{
		ID:        session.ID,
		Title:     session.Title,
		Messages:  newMessageViews(session.Messages),
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339Nano),
		Current:   h.sessions.Current() == session.ID,
	})
}

// handleSetCurrent 切换当前会话；空 sessionId 表示开始新对话
func (h *Handler) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.StartOrContinue(r.Context(), payload.SessionID); err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"current": h.sessions.Current()})
}

type sendResponse struct {
	SessionID string      `json:"sessionId"`
	Created   bool        `json:"created"`
	Reply     MessageView `json:"reply"`
}

// handleSend 发送一条消息并等待模型回复
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
		DraftID   string `json:"draftId"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = h.sessions.Current()
	}

	var staged *chat.Attachment
	if payload.DraftID != "" && h.drafts != nil {
		if att, ok := h.drafts.Peek(payload.DraftID); ok {
			staged = &att
		}
	}

	result, err := h.dispatcher.Send(r.Context(), chatservice.SendRequest{
		SessionID:  sessionID,
		Text:       payload.Text,
		Attachment: staged,
	})
	switch {
	case errors.Is(err, chatservice.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "message is empty")
		return
	case errors.Is(err, chatservice.ErrSendInFlight):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("send failed", zap.String("session_id", sessionID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "send failed")
		return
	}

	// 发送成功后才清空草稿附件
	if staged != nil {
		h.drafts.Detach(payload.DraftID)
	}

	utils.RespondJSON(w, http.StatusOK, sendResponse{
		SessionID: result.SessionID,
		Created:   result.Created,
		Reply:     NewMessageView(result.Reply),
	})
}
