// Package mood serves the mood journal and the analytics derived from it.
package mood

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	moodanalysis "github.com/zhouzirui/mindbloom/backend/internal/analysis/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
	moodservice "github.com/zhouzirui/mindbloom/backend/internal/service/mood"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

// Handler 心情日志的HTTP处理器
type Handler struct {
	store  *moodservice.Store
	logger *zap.Logger
}

// New 创建心情处理器
func New(store *moodservice.Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logging.OrNop(logger)}
}

// RegisterRoutes 注册心情相关路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/mood/logs", h.handleList)
	r.Post("/mood/logs", h.handleRecord)
	r.Get("/mood/stats", h.handleStats)
	r.Get("/mood/chart", h.handleChart)
}

type listResponse struct {
	Logs  []moodmodel.Log `json:"logs"`
	Today *moodmodel.Log  `json:"today,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.List(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	resp := listResponse{Logs: logs}
	now := h.store.Now()
	for i := range logs {
		if moodanalysis.SameDay(logs[i].Date, now, h.store.Location()) {
			today := logs[i]
			resp.Today = &today
		}
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleRecord 记录今天的心情，同一天重复提交会覆盖
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Level *int   `json:"level"`
		Note  string `json:"note"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Level == nil {
		utils.RespondError(w, http.StatusBadRequest, "level is required")
		return
	}

	entry, err := h.store.Record(r.Context(), *payload.Level, payload.Note)
	if err != nil {
		if errors.Is(err, moodservice.ErrInvalidLevel) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, entry)
}

type levelCount struct {
	moodmodel.Label
	Count int `json:"count"`
}

type statsResponse struct {
	moodanalysis.Stats
	Distribution []levelCount `json:"distribution"`
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.List(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	counts := moodanalysis.Distribution(logs)
	dist := make([]levelCount, 0, len(moodmodel.Labels))
	for _, label := range moodmodel.Labels {
		dist = append(dist, levelCount{Label: label, Count: counts[label.Level]})
	}

	utils.RespondJSON(w, http.StatusOK, statsResponse{
		Stats:        moodanalysis.Summarize(logs, h.store.Now(), h.store.Location()),
		Distribution: dist,
	})
}

type chartResponse struct {
	moodanalysis.Month
	Plot moodanalysis.Plot `json:"plot"`
}

// handleChart 默认当月；year/month 可选
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	now := h.store.Now().In(h.store.Location())
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 9999 {
			utils.RespondError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = v
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			utils.RespondError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(v)
	}

	logs, err := h.store.List(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	data := moodanalysis.Monthly(logs, year, month, h.store.Location())
	utils.RespondJSON(w, http.StatusOK, chartResponse{
		Month: data,
		Plot:  data.Plot(moodanalysis.DefaultDims),
	})
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	h.logger.Error("mood store failed", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, "mood journal unavailable")
}
