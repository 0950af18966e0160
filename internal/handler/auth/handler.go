// Package auth handles Google sign-in.
package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/model/user"
	chatservice "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
	"github.com/zhouzirui/mindbloom/backend/internal/service/identity"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

// Handler 登录相关
type Handler struct {
	identity *identity.Service
	sessions *chatservice.Service
	logger   *zap.Logger
}

// New 创建登录处理器
func New(identitySvc *identity.Service, sessions *chatservice.Service, logger *zap.Logger) *Handler {
	return &Handler{identity: identitySvc, sessions: sessions, logger: logging.OrNop(logger)}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/google", h.handleSignIn)
	r.Get("/auth/me", h.handleMe)
	r.Post("/auth/signout", h.handleSignOut)
}

type meResponse struct {
	SignedIn bool          `json:"signedIn"`
	Enabled  bool          `json:"enabled"`
	User     *user.Profile `json:"user,omitempty"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Credential string `json:"credential"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil || payload.Credential == "" {
		utils.RespondError(w, http.StatusBadRequest, "credential is required")
		return
	}

	profile, err := h.identity.SignIn(r.Context(), payload.Credential)
	switch {
	case errors.Is(err, identity.ErrDisabled):
		utils.RespondError(w, http.StatusServiceUnavailable, "sign-in is not configured")
		return
	case errors.Is(err, identity.ErrInvalidCredential):
		utils.RespondError(w, http.StatusUnauthorized, "invalid credential")
		return
	case err != nil:
		h.logger.Error("sign in failed", zap.Error(err))
		utils.RespondError(w, http.StatusBadGateway, "sign-in failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, meResponse{SignedIn: true, Enabled: true, User: &profile})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, ok, err := h.identity.Current(r.Context())
	if err != nil {
		h.logger.Error("load profile failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}

	resp := meResponse{SignedIn: ok, Enabled: h.identity.Enabled()}
	if ok {
		resp.User = &profile
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleSignOut 清除登录信息，并回到新对话
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context()); err != nil {
		h.logger.Error("sign out failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "sign-out failed")
		return
	}
	if h.sessions != nil {
		_ = h.sessions.StartOrContinue(r.Context(), "")
	}
	w.WriteHeader(http.StatusNoContent)
}
