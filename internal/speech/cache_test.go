package speech

import (
	"context"
	"errors"
	"testing"

	"github.com/nrehmani/souschef/internal/logger"
)

type countingSynth struct {
	calls int
	fail  map[string]bool
}

func (s *countingSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.calls++
	if s.fail[text] {
		return nil, errors.New("synthesis refused")
	}
	return []byte("pcm:" + text), nil
}

func TestPrefetchWarmsCache(t *testing.T) {
	inner := &countingSynth{}
	cache := NewCachingSynthesizer(inner, "test-voice", "", logger.New(logger.LevelOff, nil))

	texts := []string{"One second.", "Let me think.", "Go ahead."}
	cache.Prefetch(context.Background(), texts...)

	if inner.calls != len(texts) {
		t.Fatalf("inner synth calls = %d, want %d", inner.calls, len(texts))
	}

	for _, text := range texts {
		audio, err := cache.Synthesize(context.Background(), text)
		if err != nil {
			t.Fatalf("Synthesize(%q): %v", text, err)
		}
		if string(audio) != "pcm:"+text {
			t.Fatalf("audio = %q", audio)
		}
	}
	if inner.calls != len(texts) {
		t.Errorf("inner synth calls after warm lookups = %d, want still %d", inner.calls, len(texts))
	}

	hits, misses := cache.Stats()
	if hits != int64(len(texts)) || misses != int64(len(texts)) {
		t.Errorf("stats = %d hits / %d misses, want %d / %d", hits, misses, len(texts), len(texts))
	}
}

func TestPrefetchSkipsFailedTexts(t *testing.T) {
	inner := &countingSynth{fail: map[string]bool{"Hang on.": true}}
	cache := NewCachingSynthesizer(inner, "test-voice", "", logger.New(logger.LevelOff, nil))

	cache.Prefetch(context.Background(), "Hang on.", "One second.")

	if inner.calls != 2 {
		t.Fatalf("inner synth calls = %d, want 2", inner.calls)
	}

	// The failed text must not be cached; the good one must be.
	inner.fail = nil
	if _, err := cache.Synthesize(context.Background(), "One second."); err != nil {
		t.Fatalf("Synthesize cached text: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("cached text hit the inner synth, calls = %d", inner.calls)
	}
	if _, err := cache.Synthesize(context.Background(), "Hang on."); err != nil {
		t.Fatalf("Synthesize retried text: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("failed prefetch should not cache, calls = %d, want 3", inner.calls)
	}
}
