// Package attachment exposes draft staging of chat attachments.
package attachment

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
	attachmentservice "github.com/zhouzirui/mindbloom/backend/internal/service/attachment"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

// User-visible notices.
const (
	MsgTooLarge      = "File is too large! Please choose a file smaller than 5MB."
	MsgCameraFailure = "Could not access camera. Please check permissions."
)

// multipart framing overhead allowed on top of the payload limit
const formOverhead = 64 << 10

// Handler 附件草稿的HTTP处理器
type Handler struct {
	encoder  *attachmentservice.Encoder
	stager   *attachmentservice.Stager
	previews *attachmentservice.PreviewRegistry
	logger   *zap.Logger
}

// New 创建附件处理器
func New(encoder *attachmentservice.Encoder, stager *attachmentservice.Stager, previews *attachmentservice.PreviewRegistry, logger *zap.Logger) *Handler {
	return &Handler{
		encoder:  encoder,
		stager:   stager,
		previews: previews,
		logger:   logging.OrNop(logger),
	}
}

// RegisterRoutes 注册附件相关路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/drafts/{draftID}/attachment", h.handleUpload)
	r.Post("/drafts/{draftID}/camera", h.handleCamera)
	r.Delete("/drafts/{draftID}/attachment", h.handleDiscard)
	r.Get("/previews/{id}", h.handlePreview)
}

type stagedResponse struct {
	DraftID    string          `json:"draftId"`
	Attachment chat.Attachment `json:"attachment"`
	Replaced   bool            `json:"replaced"`
}

// handleUpload 读取 multipart 的 file 字段并暂存
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	// 声明大小超限时不读取内容
	if r.ContentLength > h.encoder.MaxBytes()+formOverhead {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, MsgTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.encoder.MaxBytes()+formOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, MsgTooLarge)
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// 浏览器给不出类型时会填 octet-stream，交给内容嗅探
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}

	att, err := h.encoder.Encode(attachmentservice.Source{
		Name:     header.Filename,
		MIMEType: mimeType,
		Size:     header.Size,
		Reader:   file,
	})
	if err != nil {
		h.respondEncodeError(w, err)
		return
	}

	h.stage(w, draftID, att)
}

// handleCamera 请求体是一帧 PNG/JPEG 原图
func (h *Handler) handleCamera(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	frame, err := io.ReadAll(io.LimitReader(r.Body, h.encoder.MaxBytes()+1))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, MsgCameraFailure)
		return
	}
	if int64(len(frame)) > h.encoder.MaxBytes() {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, MsgTooLarge)
		return
	}

	att, err := h.encoder.Capture(r.Context(), attachmentservice.NewFrameCamera(frame, h.encoder.MaxFramePixels()))
	if err != nil {
		if errors.Is(err, attachmentservice.ErrTooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, MsgTooLarge)
			return
		}
		h.logger.Warn("camera capture failed", zap.String("draft_id", draftID), zap.Error(err))
		utils.RespondError(w, http.StatusBadRequest, MsgCameraFailure)
		return
	}

	h.stage(w, draftID, att)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	h.stager.Discard(chi.URLParam(r, "draftID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, mimeType, ok := h.previews.Open(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "preview not found")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Debug("write preview failed", zap.Error(err))
	}
}

func (h *Handler) stage(w http.ResponseWriter, draftID string, att chat.Attachment) {
	replaced := h.stager.Stage(draftID, att)
	utils.RespondJSON(w, http.StatusCreated, stagedResponse{
		DraftID:    draftID,
		Attachment: att,
		Replaced:   replaced,
	})
}

func (h *Handler) respondEncodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attachmentservice.ErrTooLarge):
		utils.RespondError(w, http.StatusRequestEntityTooLarge, MsgTooLarge)
	case errors.Is(err, attachmentservice.ErrInvalidData):
		utils.RespondError(w, http.StatusBadRequest, "invalid attachment")
	default:
		h.logger.Error("encode attachment failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not read attachment")
	}
}
