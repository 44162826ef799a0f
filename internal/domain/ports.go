package domain

import "context"

// Assistant is the generative-AI backend the orchestrator talks to.
// Implementations wrap one remote text/vision endpoint; retry and timeout
// policy live inside the implementation, never in callers.
type Assistant interface {
	// CookingReply answers a user utterance given the full cooking context.
	// frame is an optional JPEG snapshot; nil means text-only.
	CookingReply(ctx context.Context, input string, frame []byte, convo []Entry, recipe *Recipe, session *Session) (string, error)

	// ExtractRecipe turns a free-form utterance into a structured recipe.
	// Never fails: parse failures fall back internally and the caller always
	// receives a usable recipe.
	ExtractRecipe(ctx context.Context, utterance string) *Recipe
}

// Speaker plays text aloud. Implementations own the utterance queue; only
// one utterance plays at a time.
type Speaker interface {
	// Speak interrupts the current utterance (identical text is a no-op)
	// and speaks text.
	Speak(text string)
	// QueueSpeech appends text if currently speaking, else speaks it now.
	QueueSpeech(text string)
	// StopSpeaking stops playback and clears the queue.
	StopSpeaking()
}

// FrameCapturer produces rate-limited encoded camera snapshots.
type FrameCapturer interface {
	// CaptureFrame returns a JPEG-encoded frame, or ErrCaptureTooSoon when
	// called within the cooldown window of the previous successful capture.
	CaptureFrame(ctx context.Context) ([]byte, error)
}
