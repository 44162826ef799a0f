package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/nrehmani/souschef/internal/logger"
)

// Compile-time interface check.
var _ Synthesizer = (*CachingSynthesizer)(nil)

// CachingSynthesizer wraps another Synthesizer with a two-tier audio cache:
// an in-memory map backed by an optional on-disk directory. Step narration
// repeats a lot ("repeat", going back and forth between steps), so cached
// audio saves both latency and TTS quota.
//
// The cache key is sha256(voice + ":" + text); switching voices invalidates
// nothing but misses until the same voice is used again. The disk layer is
// always read when configured, so previous runs give a warm start.
type CachingSynthesizer struct {
	inner Synthesizer
	voice string
	dir   string // empty disables the disk layer
	log   *logger.Logger

	mu      sync.RWMutex
	entries map[string][]byte
	hits    int64
	misses  int64
}

// NewCachingSynthesizer wraps inner. voice is baked into every cache key;
// dir is the on-disk cache directory, empty for memory-only.
func NewCachingSynthesizer(inner Synthesizer, voice, dir string, log *logger.Logger) *CachingSynthesizer {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("audio cache: cannot create %s, disk layer disabled: %v", dir, err)
			dir = ""
		}
	}
	return &CachingSynthesizer{
		inner:   inner,
		voice:   voice,
		dir:     dir,
		log:     log,
		entries: make(map[string][]byte),
	}
}

// Synthesize returns cached audio when available, otherwise delegates to the
// wrapped synthesizer and stores the result.
func (c *CachingSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := c.hashKey(text)

	if audio, ok := c.lookup(key); ok {
		return audio, nil
	}

	audio, err := c.inner.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(key, audio)
	return audio, nil
}

// Prefetch synthesizes texts ahead of need so later playback hits the
// cache. Best effort: a failed text is logged and skipped.
func (c *CachingSynthesizer) Prefetch(ctx context.Context, texts ...string) {
	for _, text := range texts {
		if _, err := c.Synthesize(ctx, text); err != nil {
			c.log.Warn("audio cache: prefetch of %q failed: %v", text, err)
		}
	}
}

// Stats returns hit and miss counts.
func (c *CachingSynthesizer) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// lookup checks memory first, then the disk layer. Disk hits are promoted
// to memory.
func (c *CachingSynthesizer) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	audio, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return audio, true
	}

	if c.dir != "" {
		if data, err := os.ReadFile(c.diskPath(key)); err == nil {
			c.mu.Lock()
			c.entries[key] = data
			c.hits++
			c.mu.Unlock()
			c.log.Debug("audio cache: disk hit %s (%d bytes)", key[:12], len(data))
			return data, true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

func (c *CachingSynthesizer) store(key string, audio []byte) {
	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.dir != "" {
		path := c.diskPath(key)
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			c.log.Error("audio cache: disk write failed for %s: %v", path, err)
		}
	}
}

func (c *CachingSynthesizer) hashKey(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *CachingSynthesizer) diskPath(key string) string {
	return filepath.Join(c.dir, key+".wav")
}
