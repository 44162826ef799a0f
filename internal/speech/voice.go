// Package speech provides the voice facade: text-to-speech with a FIFO
// utterance queue, and toggle-based speech-to-text input.
package speech

import (
	"context"
	"sync"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

// State is the facade's externally visible mode.
type State int

const (
	StateIdle State = iota
	StateListening
	StateSpeaking
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Synthesizer converts text to playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioPlayer plays synthesized audio. Play blocks until playback finishes
// or Stop is called; Stop is safe to call concurrently and when idle.
type AudioPlayer interface {
	Play(audio []byte) error
	Stop()
}

// Recognizer is a toggleable speech-to-text input. Transcripts arrive on C.
type Recognizer interface {
	// Toggle starts listening when stopped and stops it when active.
	// Returns the new listening state.
	Toggle(ctx context.Context) bool
	// Active reports whether the recognizer is currently listening.
	Active() bool
	// C delivers finished transcripts.
	C() <-chan string
}

// Compile-time interface check.
var _ domain.Speaker = (*Voice)(nil)

// Voice is the speech facade. It owns a strict FIFO utterance queue; only
// one utterance plays at a time. Speaking identical text while mid-utterance
// is suppressed; different text interrupts the current utterance.
type Voice struct {
	synth  Synthesizer
	player AudioPlayer
	rec    Recognizer // nil when voice input is unavailable
	log    *logger.Logger

	mu          sync.Mutex
	queue       []string
	current     string
	speaking    bool
	interrupted bool
	notify      chan struct{}
}

// NewVoice creates the facade. rec may be nil when speech input is disabled.
func NewVoice(synth Synthesizer, player AudioPlayer, rec Recognizer, log *logger.Logger) *Voice {
	return &Voice{
		synth:  synth,
		player: player,
		rec:    rec,
		log:    log,
		notify: make(chan struct{}, 16),
	}
}

// Start begins the playback goroutine. Non-blocking.
func (v *Voice) Start(ctx context.Context) {
	go v.loop(ctx)
	v.log.Info("voice: started")
}

// State returns the facade state. Speaking wins over listening: the
// microphone is never considered open while the assistant talks.
func (v *Voice) State() State {
	v.mu.Lock()
	speaking := v.speaking || len(v.queue) > 0
	v.mu.Unlock()
	if speaking {
		return StateSpeaking
	}
	if v.rec != nil && v.rec.Active() {
		return StateListening
	}
	return StateIdle
}

// Speak speaks text now. If the identical text is already mid-utterance the
// call is a no-op; any other text interrupts the current utterance, clears
// the queue, and starts the new one.
func (v *Voice) Speak(text string) {
	if text == "" {
		return
	}
	v.mu.Lock()
	if v.speaking {
		if text == v.current {
			v.mu.Unlock()
			v.log.Debug("voice: suppressed duplicate utterance")
			return
		}
		v.queue = append(v.queue[:0], text)
		v.interrupted = true
		v.mu.Unlock()
		v.player.Stop()
		v.signal()
		v.log.Debug("voice: interrupted for new utterance")
		return
	}
	v.queue = append(v.queue, text)
	v.mu.Unlock()
	v.signal()
}

// QueueSpeech appends text if something is playing, else speaks it now.
// Queued utterances drain strictly FIFO, one at a time.
func (v *Voice) QueueSpeech(text string) {
	if text == "" {
		return
	}
	v.mu.Lock()
	v.queue = append(v.queue, text)
	v.mu.Unlock()
	v.signal()
}

// StopSpeaking stops playback and clears the whole queue — no partial drain.
func (v *Voice) StopSpeaking() {
	v.mu.Lock()
	v.queue = v.queue[:0]
	v.interrupted = true
	v.mu.Unlock()
	v.player.Stop()
	v.log.Debug("voice: stopped, queue cleared")
}

// StartListening toggles voice input: idle starts listening, a second call
// stops it. Starting to listen silences the assistant first so the
// microphone doesn't pick up its own speech. Returns the new listening
// state; false with an error when no recognizer is available.
func (v *Voice) StartListening(ctx context.Context) (bool, error) {
	if v.rec == nil {
		return false, domain.ErrDeviceUnsupported
	}
	if !v.rec.Active() {
		v.StopSpeaking()
	}
	return v.rec.Toggle(ctx), nil
}

// Transcripts returns the recognizer channel, or nil when voice input is
// disabled (receiving on a nil channel blocks forever, which select
// handles gracefully).
func (v *Voice) Transcripts() <-chan string {
	if v.rec == nil {
		return nil
	}
	return v.rec.C()
}

// signal wakes the playback goroutine.
func (v *Voice) signal() {
	select {
	case v.notify <- struct{}{}:
	default: // already signaled
	}
}

// loop waits for queued utterances and drains them one at a time.
func (v *Voice) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			v.log.Info("voice: stopped")
			return
		case <-v.notify:
			v.drain(ctx)
		}
	}
}

// drain plays queued utterances in FIFO order until the queue is empty.
func (v *Voice) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		v.mu.Lock()
		if len(v.queue) == 0 {
			v.speaking = false
			v.current = ""
			v.mu.Unlock()
			return
		}
		text := v.queue[0]
		v.queue = v.queue[1:]
		v.current = text
		v.speaking = true
		v.interrupted = false
		v.mu.Unlock()

		v.speakOne(ctx, text)
	}
}

// speakOne synthesizes and plays a single utterance.
func (v *Voice) speakOne(ctx context.Context, text string) {
	audio, err := v.synth.Synthesize(ctx, text)
	if err != nil {
		v.log.Error("voice: synthesis failed: %v", err)
		return
	}

	v.mu.Lock()
	aborted := v.interrupted
	v.mu.Unlock()
	if aborted {
		v.log.Debug("voice: skipping playback (interrupted during synthesis)")
		return
	}

	if err := v.player.Play(audio); err != nil {
		v.log.Error("voice: playback failed: %v", err)
	}
}
