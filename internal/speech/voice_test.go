package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

// fakeSynth returns the text itself as "audio" so the fake player can
// observe which utterance it was given.
type fakeSynth struct{}

func (fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

// fakePlayer blocks in Play until the test releases it or Stop aborts it.
type fakePlayer struct {
	mu        sync.Mutex
	completed []string

	started chan string
	release chan struct{}
	stopped chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		started: make(chan string, 16),
		release: make(chan struct{}),
		stopped: make(chan struct{}, 16),
	}
}

func (p *fakePlayer) Play(audio []byte) error {
	text := string(audio)
	p.started <- text
	select {
	case <-p.release:
		p.mu.Lock()
		p.completed = append(p.completed, text)
		p.mu.Unlock()
	case <-p.stopped:
	}
	return nil
}

func (p *fakePlayer) Stop() {
	select {
	case p.stopped <- struct{}{}:
	default:
	}
}

func (p *fakePlayer) completedTexts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.completed))
	copy(out, p.completed)
	return out
}

type fakeRecognizer struct {
	active bool
	ch     chan string
}

func (r *fakeRecognizer) Toggle(_ context.Context) bool {
	r.active = !r.active
	return r.active
}

func (r *fakeRecognizer) Active() bool     { return r.active }
func (r *fakeRecognizer) C() <-chan string { return r.ch }

func newTestVoice(t *testing.T, rec Recognizer) (*Voice, *fakePlayer) {
	t.Helper()
	player := newFakePlayer()
	v := NewVoice(fakeSynth{}, player, rec, logger.New(logger.LevelOff, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	v.Start(ctx)
	return v, player
}

func waitStarted(t *testing.T, p *fakePlayer) string {
	t.Helper()
	select {
	case text := <-p.started:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playback to start")
		return ""
	}
}

func expectNoPlayback(t *testing.T, p *fakePlayer) {
	t.Helper()
	select {
	case text := <-p.started:
		t.Fatalf("unexpected playback of %q", text)
	case <-time.After(150 * time.Millisecond):
	}
}

func waitIdle(t *testing.T, v *Voice) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v.State() == StateIdle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("voice never returned to idle, state=%s", v.State())
}

func TestQueueDrainsFIFO(t *testing.T) {
	v, player := newTestVoice(t, nil)

	v.QueueSpeech("first")
	if got := waitStarted(t, player); got != "first" {
		t.Fatalf("started %q, want %q", got, "first")
	}
	v.QueueSpeech("second")
	v.QueueSpeech("third")

	player.release <- struct{}{}
	if got := waitStarted(t, player); got != "second" {
		t.Fatalf("started %q, want %q", got, "second")
	}
	player.release <- struct{}{}
	if got := waitStarted(t, player); got != "third" {
		t.Fatalf("started %q, want %q", got, "third")
	}
	player.release <- struct{}{}

	waitIdle(t, v)

	want := []string{"first", "second", "third"}
	got := player.completedTexts()
	if len(got) != len(want) {
		t.Fatalf("completed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("completed[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSpeakDuplicateIsSuppressed(t *testing.T) {
	v, player := newTestVoice(t, nil)

	v.Speak("stir the sauce")
	if got := waitStarted(t, player); got != "stir the sauce" {
		t.Fatalf("started %q", got)
	}

	// Identical text mid-utterance must be a no-op: no interrupt, no queue.
	v.Speak("stir the sauce")

	player.release <- struct{}{}
	expectNoPlayback(t, player)
	waitIdle(t, v)

	if got := player.completedTexts(); len(got) != 1 {
		t.Fatalf("completed %v, want exactly one utterance", got)
	}
}

func TestSpeakDifferentTextInterrupts(t *testing.T) {
	v, player := newTestVoice(t, nil)

	v.Speak("old announcement")
	if got := waitStarted(t, player); got != "old announcement" {
		t.Fatalf("started %q", got)
	}
	v.QueueSpeech("stale queued text")

	v.Speak("new announcement")

	// The interrupted utterance is abandoned and the queue replaced, so
	// the next playback is the new text, not the stale queued one.
	if got := waitStarted(t, player); got != "new announcement" {
		t.Fatalf("started %q, want %q", got, "new announcement")
	}
	player.release <- struct{}{}
	waitIdle(t, v)

	completed := player.completedTexts()
	if len(completed) != 1 || completed[0] != "new announcement" {
		t.Fatalf("completed %v, want only the new announcement", completed)
	}
}

func TestStopSpeakingClearsQueue(t *testing.T) {
	v, player := newTestVoice(t, nil)

	v.Speak("step one")
	if got := waitStarted(t, player); got != "step one" {
		t.Fatalf("started %q", got)
	}
	v.QueueSpeech("step two")
	v.QueueSpeech("step three")

	v.StopSpeaking()

	expectNoPlayback(t, player)
	waitIdle(t, v)

	if got := player.completedTexts(); len(got) != 0 {
		t.Fatalf("completed %v, want none after stop", got)
	}
}

func TestStartListeningToggles(t *testing.T) {
	rec := &fakeRecognizer{ch: make(chan string)}
	v, _ := newTestVoice(t, rec)

	listening, err := v.StartListening(context.Background())
	if err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	if !listening {
		t.Fatal("first toggle should start listening")
	}
	if got := v.State(); got != StateListening {
		t.Fatalf("state = %s, want listening", got)
	}

	listening, err = v.StartListening(context.Background())
	if err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	if listening {
		t.Fatal("second toggle should stop listening")
	}
	waitIdle(t, v)
}

func TestStartListeningWithoutRecognizer(t *testing.T) {
	v, _ := newTestVoice(t, nil)

	if _, err := v.StartListening(context.Background()); !errors.Is(err, domain.ErrDeviceUnsupported) {
		t.Fatalf("err = %v, want ErrDeviceUnsupported", err)
	}
}
