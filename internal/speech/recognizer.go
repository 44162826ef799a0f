package speech

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

// envAnnotation matches whisper environmental annotations like
// "(keyboard clicking)", "[laughter]", "(speaking French)".
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z\s]*[\)\]]`)

// RecognizerOption configures the WhisperRecognizer.
type RecognizerOption func(*WhisperRecognizer)

// WithChunkDuration sets how long each recording chunk lasts.
func WithChunkDuration(d time.Duration) RecognizerOption {
	return func(r *WhisperRecognizer) { r.chunkDuration = d }
}

// WithListenTimeout caps how long one listening session lasts before the
// recognizer gives up and toggles itself off.
func WithListenTimeout(d time.Duration) RecognizerOption {
	return func(r *WhisperRecognizer) { r.listenTimeout = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) RecognizerOption {
	return func(r *WhisperRecognizer) { r.tempDir = dir }
}

// Compile-time interface check.
var _ Recognizer = (*WhisperRecognizer)(nil)

// WhisperRecognizer transcribes microphone input with a local Whisper
// model. Listening is explicitly toggled: one Toggle opens the microphone,
// another closes it. A session also ends on its own after sustained
// silence or the listen timeout, whichever comes first; the accumulated
// transcript is then delivered on C.
type WhisperRecognizer struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger

	chunkDuration time.Duration
	listenTimeout time.Duration

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	textCh chan string
}

// NewWhisperRecognizer validates the whisper binary and creates a
// recognizer. A missing binary wraps domain.ErrDeviceUnsupported so the
// caller can run without voice input.
func NewWhisperRecognizer(whisperBin, modelPath string, log *logger.Logger, opts ...RecognizerOption) (*WhisperRecognizer, error) {
	if _, err := exec.LookPath(whisperBin); err != nil {
		return nil, fmt.Errorf("%w: whisper binary %q: %v", domain.ErrDeviceUnsupported, whisperBin, err)
	}

	r := &WhisperRecognizer{
		whisperBin:    whisperBin,
		modelPath:     modelPath,
		tempDir:       ".souschef-stt",
		log:           log,
		chunkDuration: 2 * time.Second,
		listenTimeout: 20 * time.Second,
		textCh:        make(chan string, 8),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// C delivers finished transcripts, one per listening session.
func (r *WhisperRecognizer) C() <-chan string {
	return r.textCh
}

// Active reports whether a listening session is in progress.
func (r *WhisperRecognizer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Toggle starts a listening session when idle and stops the current one
// when active. Returns the new listening state.
func (r *WhisperRecognizer) Toggle(ctx context.Context) bool {
	r.mu.Lock()
	if r.active {
		cancel := r.cancel
		r.active = false
		r.cancel = nil
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		r.log.Info("recognizer: listening stopped")
		return false
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	r.active = true
	r.cancel = cancel
	r.mu.Unlock()

	go r.listen(sessionCtx)
	r.log.Info("recognizer: listening started")
	return true
}

// deactivate clears the active flag when a session ends on its own.
func (r *WhisperRecognizer) deactivate() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.active = false
	r.mu.Unlock()
}

// listen records chunks until silence, timeout, or cancellation, then
// emits whatever was heard.
func (r *WhisperRecognizer) listen(ctx context.Context) {
	defer r.deactivate()

	deadline := time.After(r.listenTimeout)
	var parts []string
	emptyRuns := 0
	heardSpeech := false
	// Tolerate more silence before the user starts talking; once they
	// have, a shorter gap means they're done.
	const graceEmpty = 4
	const postSpeechEmpty = 2

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline:
			r.log.Debug("recognizer: listen timeout reached")
			break loop
		default:
		}

		chunk := cleanTranscription(r.recordChunk(ctx, r.chunkDuration))
		if chunk == "" {
			emptyRuns++
			maxEmpty := graceEmpty
			if heardSpeech {
				maxEmpty = postSpeechEmpty
			}
			if emptyRuns >= maxEmpty {
				r.log.Debug("recognizer: silence, ending session (heard_speech=%v)", heardSpeech)
				break loop
			}
			continue
		}

		emptyRuns = 0
		heardSpeech = true
		r.log.Debug("recognizer: chunk %q", chunk)
		parts = append(parts, chunk)
	}

	combined := strings.TrimSpace(strings.Join(parts, " "))
	if combined == "" {
		r.log.Debug("recognizer: session ended with no input")
		return
	}

	r.log.Info("recognizer: heard %q", combined)
	select {
	case r.textCh <- combined:
	default:
		r.log.Warn("recognizer: transcript channel full, dropping %q", combined)
	}
}

// recordChunk performs one record-transcribe cycle of the given duration.
func (r *WhisperRecognizer) recordChunk(ctx context.Context, duration time.Duration) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := r.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		r.whisperBin,
		r.modelPath,
		r.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		r.log.Error("recognizer: transcriber init failed: %v", err)
		time.Sleep(2 * time.Second)
		return ""
	}

	if err := t.Start(); err != nil {
		r.log.Error("recognizer: recording start failed: %v", err)
		time.Sleep(2 * time.Second)
		return ""
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		t.Stop()
		wg.Wait()
		return ""
	}

	t.Stop()
	wg.Wait()

	return result
}

// cleanTranscription normalizes whitespace and strips whisper artifacts:
// blank-audio markers, environmental annotations, timestamp prefixes, and
// the model's well-known silence hallucinations.
func cleanTranscription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)

	junk := []string{
		"[BLANK_AUDIO]",
		"[BLANK AUDIO]",
		"(silence)",
		"[silence]",
		"(no speech)",
		"[no speech]",
		"[Music]",
		"(music)",
		"(inaudible)",
		"(unintelligible)",
		"(background noise)",
		"(static)",
	}
	for _, j := range junk {
		s = strings.ReplaceAll(s, j, "")
		s = strings.ReplaceAll(s, strings.ToLower(j), "")
		s = strings.ReplaceAll(s, strings.ToUpper(j), "")
	}

	s = envAnnotation.ReplaceAllString(s, "")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimSpace(s)

	// Whisper emits these on silent audio.
	hallucinations := []string{
		"...",
		"you",
		"thank you.",
		"thanks for watching!",
		"thank you for watching.",
		"bye.",
		"bye!",
		"the end.",
	}
	lower := strings.ToLower(s)
	for _, h := range hallucinations {
		if lower == h {
			return ""
		}
	}

	// Timestamp prefixes like "[00:00:00.000 --> 00:00:05.000]".
	if strings.HasPrefix(s, "[") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 {
			s = strings.TrimSpace(s[idx+1:])
		}
	}

	return s
}
