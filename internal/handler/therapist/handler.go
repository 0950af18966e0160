// Package therapist serves the nearby professional search.
package therapist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	therapistmodel "github.com/zhouzirui/mindbloom/backend/internal/model/therapist"
	therapistservice "github.com/zhouzirui/mindbloom/backend/internal/service/therapist"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

// User-visible notices.
const (
	MsgLocationUnavailable = "Unable to retrieve your location. Please allow location access to find nearby therapists."
	MsgNoResults           = "No therapists found nearby. Please try again or check your permission settings."
)

// Handler 附近咨询师搜索
type Handler struct {
	svc    *therapistservice.Service
	logger *zap.Logger
}

// New 创建处理器
func New(svc *therapistservice.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logging.OrNop(logger)}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/therapists/nearby", h.handleNearby)
}

type therapistView struct {
	therapistmodel.Therapist
	Availability string `json:"availability"`
}

type nearbyResponse struct {
	Therapists []therapistView `json:"therapists"`
	Message    string          `json:"message,omitempty"`
}

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil || payload.Latitude == nil || payload.Longitude == nil {
		utils.RespondError(w, http.StatusBadRequest, MsgLocationUnavailable)
		return
	}

	list, err := h.svc.Nearby(r.Context(), *payload.Latitude, *payload.Longitude)
	if err != nil {
		if errors.Is(err, therapistservice.ErrInvalidCoordinates) {
			utils.RespondError(w, http.StatusBadRequest, MsgLocationUnavailable)
			return
		}
		h.logger.Error("therapist search failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, MsgNoResults)
		return
	}

	resp := nearbyResponse{Therapists: make([]therapistView, 0, len(list))}
	for _, t := range list {
		resp.Therapists = append(resp.Therapists, therapistView{Therapist: t, Availability: t.Availability()})
	}
	if len(resp.Therapists) == 0 {
		resp.Message = MsgNoResults
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}
