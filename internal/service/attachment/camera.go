package attachment

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
)

// Camera is a device handle that yields frames. It must be closed once the
// capture is done, whatever the outcome.
type Camera interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// FrameCamera serves a single frame that was uploaded by the client, so the
// server-side capture path is the same as for a live device.
type FrameCamera struct {
	data      []byte
	maxPixels int64

	mu     sync.Mutex
	closed bool
}

// NewFrameCamera wraps an encoded PNG or JPEG frame. Frames whose header
// declares more than maxPixels pixels are refused before decoding; a
// non-positive maxPixels uses the default cap.
func NewFrameCamera(data []byte, maxPixels int64) *FrameCamera {
	if maxPixels <= 0 {
		maxPixels = config.DefaultMaxFramePixels
	}
	return &FrameCamera{data: data, maxPixels: maxPixels}
}

// Frame decodes the frame.
func (c *FrameCamera) Frame(ctx context.Context) (image.Image, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("camera already released")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 先读图像头，像素数超限时不解码
	header, _, err := image.DecodeConfig(bytes.NewReader(c.data))
	if err != nil {
		return nil, fmt.Errorf("decode frame header: %w", err)
	}
	if exceedsPixels(header.Width, header.Height, c.maxPixels) {
		return nil, fmt.Errorf("frame is %dx%d: %w", header.Width, header.Height, ErrTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(c.data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// Close releases the frame buffer.
func (c *FrameCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.data = nil
	return nil
}

// Closed reports whether Close was called.
func (c *FrameCamera) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func exceedsPixels(width, height int, maxPixels int64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	// 分步比较避免乘法溢出
	return int64(width) > maxPixels || int64(height) > maxPixels/int64(width)
}
