// Package voice exposes transcript analysis and the voice input channel.
package voice

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	voiceanalysis "github.com/zhouzirui/mindbloom/backend/internal/analysis/voice"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	chatservice "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

// Handler 语音输入处理器
type Handler struct {
	sessions    *chatservice.Service
	dispatcher  *chatservice.Dispatcher
	logger      *zap.Logger
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// New 创建语音处理器
func New(sessions *chatservice.Service, dispatcher *chatservice.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:    sessions,
		dispatcher:  dispatcher,
		logger:      logging.OrNop(logger),
		readTimeout: defaultReadTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册语音路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/voice/analyze", h.handleAnalyze)
	r.Get("/voice/ws", h.handleWebSocket)
}

type analyzeResponse struct {
	voiceanalysis.Context
	Wrapped string `json:"wrapped"`
}

// handleAnalyze 对一段转写文本做意图/情绪分类，并给出发送用的模板文本
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	wrapped, ctx := voiceanalysis.WrapTranscript(payload.Text)
	utils.RespondJSON(w, http.StatusOK, analyzeResponse{Context: ctx, Wrapped: wrapped})
}
