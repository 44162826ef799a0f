package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for snapshot files
	_ "image/png"  // register decoder for snapshot files
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

// Compile-time interface check.
var _ FrameSource = (*FileSource)(nil)

// FileSource serves the most recent frame written to a snapshot file on
// disk. An external capture tool (a webcam daemon, a phone sync folder)
// keeps overwriting the file; fsnotify tells us when a fresh frame landed
// so Frame never has to hit the filesystem on the hot path.
type FileSource struct {
	path string
	log  *logger.Logger

	watcher *fsnotify.Watcher

	mu     sync.RWMutex
	latest image.Image
}

// NewFileSource watches the snapshot file at path. The file doesn't need
// to exist yet; its directory does.
func NewFileSource(path string, log *logger.Logger) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving snapshot path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: watching %s", domain.ErrPermissionDenied, filepath.Dir(abs))
		}
		return nil, fmt.Errorf("watching snapshot dir: %w", err)
	}

	s := &FileSource{
		path:    abs,
		log:     log,
		watcher: watcher,
	}

	// Pick up a frame left over from a previous run.
	s.reload()

	go s.watch()
	log.Info("camera: watching snapshot file %s", abs)
	return s, nil
}

// Frame returns the most recent snapshot, or ErrNoFrame when nothing has
// been written yet.
func (s *FileSource) Frame(ctx context.Context) (image.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	img := s.latest
	s.mu.RUnlock()

	if img == nil {
		return nil, domain.ErrNoFrame
	}
	return img, nil
}

// Close stops watching the snapshot file.
func (s *FileSource) Close() error {
	return s.watcher.Close()
}

// watch reloads the snapshot whenever the file is written or replaced.
func (s *FileSource) watch() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.reload()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("camera: watcher error: %v", err)
		}
	}
}

// reload decodes the snapshot file and swaps it in. Partial writes decode
// badly; those are logged and the previous frame kept.
func (s *FileSource) reload() {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("camera: cannot open snapshot: %v", err)
		}
		return
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		s.log.Debug("camera: snapshot decode failed (partial write?): %v", err)
		return
	}

	s.mu.Lock()
	s.latest = img
	s.mu.Unlock()
	s.log.Debug("camera: fresh %s snapshot, %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
}
