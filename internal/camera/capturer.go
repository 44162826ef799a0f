// Package camera provides rate-limited frame capture for visual checks.
// Frames are downscaled and JPEG-encoded so they stay cheap to ship to
// the AI.
package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

const (
	// DefaultCooldown is the minimum spacing between successful captures.
	DefaultCooldown = 6 * time.Second
	// DefaultMaxWidth bounds the encoded frame width in pixels.
	DefaultMaxWidth = 640
	// DefaultJPEGQuality balances detail against payload size.
	DefaultJPEGQuality = 80
)

// FrameSource produces raw frames for the capturer.
type FrameSource interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// CapturerOption configures the Capturer.
type CapturerOption func(*Capturer)

// WithCooldown sets the minimum interval between captures.
func WithCooldown(d time.Duration) CapturerOption {
	return func(c *Capturer) { c.cooldown = d }
}

// WithMaxWidth sets the maximum encoded frame width.
func WithMaxWidth(w int) CapturerOption {
	return func(c *Capturer) {
		if w > 0 {
			c.maxWidth = w
		}
	}
}

// WithJPEGQuality sets the JPEG encoding quality (1-100).
func WithJPEGQuality(q int) CapturerOption {
	return func(c *Capturer) {
		if q > 0 && q <= 100 {
			c.quality = q
		}
	}
}

// WithClock overrides the time source. Tests use this to step through
// the cooldown deterministically.
func WithClock(now func() time.Time) CapturerOption {
	return func(c *Capturer) { c.now = now }
}

// Compile-time interface check.
var _ domain.FrameCapturer = (*Capturer)(nil)

// Capturer grabs frames from a source, enforcing a cooldown between
// captures. Failed captures don't consume the cooldown; only a frame that
// was actually delivered starts the clock.
type Capturer struct {
	source   FrameSource
	log      *logger.Logger
	cooldown time.Duration
	maxWidth int
	quality  int
	now      func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// NewCapturer creates a capturer over source. source may be nil when no
// camera is configured; captures then fail with ErrDeviceUnsupported.
func NewCapturer(source FrameSource, log *logger.Logger, opts ...CapturerOption) *Capturer {
	c := &Capturer{
		source:   source,
		log:      log,
		cooldown: DefaultCooldown,
		maxWidth: DefaultMaxWidth,
		quality:  DefaultJPEGQuality,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CooldownRemaining reports how long until the next capture is allowed.
// Zero means a capture may proceed now.
func (c *Capturer) CooldownRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastCapture.IsZero() {
		return 0
	}
	remaining := c.cooldown - c.now().Sub(c.lastCapture)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CaptureFrame grabs one frame, downscales it to the width bound, and
// returns JPEG bytes. Captures inside the cooldown window fail with
// ErrCaptureTooSoon.
func (c *Capturer) CaptureFrame(ctx context.Context) ([]byte, error) {
	if c.source == nil {
		return nil, domain.ErrDeviceUnsupported
	}

	c.mu.Lock()
	if !c.lastCapture.IsZero() {
		if elapsed := c.now().Sub(c.lastCapture); elapsed < c.cooldown {
			remaining := c.cooldown - elapsed
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: %s remaining", domain.ErrCaptureTooSoon, remaining.Round(time.Millisecond))
		}
	}
	c.mu.Unlock()

	img, err := c.source.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing frame: %w", err)
	}

	img = c.scaleDown(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}

	c.mu.Lock()
	c.lastCapture = c.now()
	c.mu.Unlock()

	c.log.Debug("camera: captured %dx%d frame, %d bytes",
		img.Bounds().Dx(), img.Bounds().Dy(), buf.Len())
	return buf.Bytes(), nil
}

// scaleDown resizes img to at most maxWidth wide, preserving aspect ratio.
// Smaller frames pass through untouched; upscaling adds nothing.
func (c *Capturer) scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= c.maxWidth || w == 0 {
		return img
	}

	scaled := image.NewRGBA(image.Rect(0, 0, c.maxWidth, h*c.maxWidth/w))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)
	return scaled
}
