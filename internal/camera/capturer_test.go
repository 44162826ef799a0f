package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

type stubSource struct {
	img image.Image
	err error
}

func (s *stubSource) Frame(context.Context) (image.Image, error) {
	return s.img, s.err
}

func (s *stubSource) Close() error { return nil }

// stubClock is a manually advanced time source.
type stubClock struct {
	t time.Time
}

func (c *stubClock) now() time.Time          { return c.t }
func (c *stubClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding captured frame: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestCaptureCooldown(t *testing.T) {
	clock := &stubClock{t: time.Unix(1000, 0)}
	c := NewCapturer(
		&stubSource{img: testImage(320, 240)},
		logger.New(logger.LevelOff, nil),
		WithClock(clock.now),
	)

	if _, err := c.CaptureFrame(context.Background()); err != nil {
		t.Fatalf("first capture: %v", err)
	}

	if _, err := c.CaptureFrame(context.Background()); !errors.Is(err, domain.ErrCaptureTooSoon) {
		t.Fatalf("immediate recapture err = %v, want ErrCaptureTooSoon", err)
	}

	clock.advance(DefaultCooldown - time.Second)
	if _, err := c.CaptureFrame(context.Background()); !errors.Is(err, domain.ErrCaptureTooSoon) {
		t.Fatalf("capture inside cooldown err = %v, want ErrCaptureTooSoon", err)
	}

	clock.advance(2 * time.Second)
	if _, err := c.CaptureFrame(context.Background()); err != nil {
		t.Fatalf("capture after cooldown: %v", err)
	}
}

func TestCaptureFailureDoesNotStartCooldown(t *testing.T) {
	src := &stubSource{err: domain.ErrNoFrame}
	clock := &stubClock{t: time.Unix(1000, 0)}
	c := NewCapturer(src, logger.New(logger.LevelOff, nil), WithClock(clock.now))

	if _, err := c.CaptureFrame(context.Background()); !errors.Is(err, domain.ErrNoFrame) {
		t.Fatalf("err = %v, want ErrNoFrame", err)
	}

	// A frame becomes available; no cooldown should block it.
	src.err = nil
	src.img = testImage(100, 100)
	if _, err := c.CaptureFrame(context.Background()); err != nil {
		t.Fatalf("capture after source recovery: %v", err)
	}
}

func TestCaptureBoundsWidth(t *testing.T) {
	c := NewCapturer(
		&stubSource{img: testImage(1920, 1080)},
		logger.New(logger.LevelOff, nil),
	)

	data, err := c.CaptureFrame(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	w, h := decodeDims(t, data)
	if w != DefaultMaxWidth {
		t.Errorf("width = %d, want %d", w, DefaultMaxWidth)
	}
	if h != 360 { // 1080 * 640 / 1920
		t.Errorf("height = %d, want 360 (aspect preserved)", h)
	}
}

func TestCaptureDoesNotUpscale(t *testing.T) {
	c := NewCapturer(
		&stubSource{img: testImage(320, 240)},
		logger.New(logger.LevelOff, nil),
	)

	data, err := c.CaptureFrame(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if w, h := decodeDims(t, data); w != 320 || h != 240 {
		t.Errorf("dims = %dx%d, want 320x240 untouched", w, h)
	}
}

func TestCaptureWithoutSource(t *testing.T) {
	c := NewCapturer(nil, logger.New(logger.LevelOff, nil))

	if _, err := c.CaptureFrame(context.Background()); !errors.Is(err, domain.ErrDeviceUnsupported) {
		t.Fatalf("err = %v, want ErrDeviceUnsupported", err)
	}
}

func TestCooldownRemaining(t *testing.T) {
	clock := &stubClock{t: time.Unix(1000, 0)}
	c := NewCapturer(
		&stubSource{img: testImage(100, 100)},
		logger.New(logger.LevelOff, nil),
		WithClock(clock.now),
	)

	if got := c.CooldownRemaining(); got != 0 {
		t.Fatalf("initial remaining = %s, want 0", got)
	}

	if _, err := c.CaptureFrame(context.Background()); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got := c.CooldownRemaining(); got != DefaultCooldown {
		t.Fatalf("remaining = %s, want %s", got, DefaultCooldown)
	}

	clock.advance(4 * time.Second)
	if got := c.CooldownRemaining(); got != 2*time.Second {
		t.Fatalf("remaining = %s, want 2s", got)
	}

	clock.advance(3 * time.Second)
	if got := c.CooldownRemaining(); got != 0 {
		t.Fatalf("remaining = %s, want 0", got)
	}
}
