// Package attachment turns uploads, pasted data and camera frames into chat
// attachments and tracks the preview handles they hold.
package attachment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
	"github.com/zhouzirui/mindbloom/backend/internal/metrics"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

var (
	ErrTooLarge    = errors.New("attachment exceeds the size limit")
	ErrInvalidData = errors.New("attachment data is not valid base64 data URL")
)

// Default names for unnamed sources.
const (
	DefaultImageName = "pasted-image.png"
	DefaultFileName  = "pasted-file"
	octetStream      = "application/octet-stream"
)

// Source is a file-like input. Size is the declared length, or a negative
// value when unknown.
type Source struct {
	Name     string
	MIMEType string
	Size     int64
	Reader   io.Reader
}

// Encoder validates and encodes attachments.
type Encoder struct {
	maxBytes  int64
	maxPixels int64
	previews  *PreviewRegistry
	metrics   *metrics.Metrics
	now       func() time.Time
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithMetrics attaches metrics.
func WithMetrics(m *metrics.Metrics) EncoderOption {
	return func(e *Encoder) { e.metrics = m }
}

// WithMaxFramePixels caps the pixel count of captured frames.
func WithMaxFramePixels(n int64) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.maxPixels = n
		}
	}
}

// WithClock overrides time.Now for generated names.
func WithClock(now func() time.Time) EncoderOption {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEncoder creates an encoder enforcing maxBytes. A non-positive limit uses
// the 5 MiB default.
func NewEncoder(maxBytes int64, previews *PreviewRegistry, opts ...EncoderOption) *Encoder {
	if maxBytes <= 0 {
		maxBytes = config.DefaultAttachmentMaxBytes
	}
	e := &Encoder{
		maxBytes:  maxBytes,
		maxPixels: config.DefaultMaxFramePixels,
		previews:  previews,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxBytes returns the size limit.
func (e *Encoder) MaxBytes() int64 {
	return e.maxBytes
}

// MaxFramePixels returns the frame pixel cap.
func (e *Encoder) MaxFramePixels() int64 {
	return e.maxPixels
}

// Encode reads src and returns the encoded attachment. An oversized source is
// rejected before anything is stored, and without reading when its declared
// size is already too large.
func (e *Encoder) Encode(src Source) (chat.Attachment, error) {
	if src.Size > e.maxBytes {
		return chat.Attachment{}, e.reject("too_large", ErrTooLarge)
	}
	if src.Reader == nil {
		return chat.Attachment{}, e.reject("invalid", ErrInvalidData)
	}

	data, err := io.ReadAll(io.LimitReader(src.Reader, e.maxBytes+1))
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return chat.Attachment{}, e.reject("too_large", ErrTooLarge)
	}

	return e.build(src.Name, src.MIMEType, data, ""), nil
}

// EncodeDataURL accepts a "data:<mime>;base64,<payload>" string, e.g. pasted
// from the clipboard.
func (e *Encoder) EncodeDataURL(name, dataURL string) (chat.Attachment, error) {
	mimeType, data, err := e.decodeDataURL(dataURL)
	if err != nil {
		return chat.Attachment{}, err
	}
	return e.build(name, mimeType, data, ""), nil
}

func (e *Encoder) decodeDataURL(dataURL string) (string, []byte, error) {
	mimeType, payload, err := splitDataURL(dataURL)
	if err != nil {
		return "", nil, e.reject("invalid", err)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > e.maxBytes+2 {
		return "", nil, e.reject("too_large", ErrTooLarge)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, e.reject("invalid", fmt.Errorf("%w: %v", ErrInvalidData, err))
	}
	if int64(len(data)) > e.maxBytes {
		return "", nil, e.reject("too_large", ErrTooLarge)
	}
	return mimeType, data, nil
}

// Capture takes one frame from cam, draws it onto a canvas at the frame's
// native size and encodes it as PNG. cam is closed on every path.
func (e *Encoder) Capture(ctx context.Context, cam Camera) (att chat.Attachment, err error) {
	defer func() {
		if closeErr := cam.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("release camera: %w", closeErr)
			att = chat.Attachment{}
		}
	}()

	if err := ctx.Err(); err != nil {
		return chat.Attachment{}, err
	}

	frame, err := cam.Frame(ctx)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			err = e.reject("too_large", err)
		}
		return chat.Attachment{}, fmt.Errorf("capture frame: %w", err)
	}

	bounds := frame.Bounds()
	if exceedsPixels(bounds.Dx(), bounds.Dy(), e.maxPixels) {
		return chat.Attachment{}, e.reject("too_large", ErrTooLarge)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), frame, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return chat.Attachment{}, fmt.Errorf("encode frame: %w", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	mimeType, data, err := e.decodeDataURL(dataURL)
	if err != nil {
		return chat.Attachment{}, err
	}
	name := "camera-capture-" + strconv.FormatInt(e.now().UnixMilli(), 10) + ".png"
	return e.build(name, mimeType, data, dataURL), nil
}

func (e *Encoder) build(name, mimeType string, data []byte, preview string) chat.Attachment {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = sniff(data)
	}

	att := chat.Attachment{
		Name:       strings.TrimSpace(name),
		MIMEType:   mimeType,
		Data:       base64.StdEncoding.EncodeToString(data),
		PreviewURL: preview,
	}
	if att.Name == "" {
		att.Name = DefaultFileName
		if att.IsImage() {
			att.Name = DefaultImageName
		}
	}
	if att.IsImage() && att.PreviewURL == "" && e.previews != nil {
		att.PreviewURL = e.previews.Create(data, mimeType)
	}
	return att
}

func (e *Encoder) reject(reason string, err error) error {
	e.metrics.AttachmentRejected(reason)
	return err
}

func sniff(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || kind.MIME.Value == "" {
		return octetStream
	}
	return kind.MIME.Value
}

func splitDataURL(dataURL string) (string, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return "", "", ErrInvalidData
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", ErrInvalidData
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", ErrInvalidData
	}
	return mimeType, payload, nil
}
