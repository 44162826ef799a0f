// Package speech — lines.go centralises every spoken string.
// Edit this file to change the assistant's personality. Keep lines short
// and direct; the TTS engine handles inflection.
package speech

import (
	"fmt"
	"math/rand"
	"strings"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Hi. Tell me what you'd like to cook."
}

func LineBye() string {
	return "Bye. Enjoy your meal."
}

func LineNoSession() string {
	return "We're not cooking anything yet. Tell me what you'd like to make."
}

func LinePaused() string {
	return "Paused. Say resume when you're ready."
}

func LineIsPaused() string {
	return "We're paused. Say resume first."
}

func LineNotPaused() string {
	return "We're not paused."
}

func LineResumed() string {
	return "Resumed. Let's keep going."
}

func LineStopped(recipeName string) string {
	return fmt.Sprintf("Okay, stopping %s. Nice work.", recipeName)
}

// ── Recipe intake ────────────────────────────────────────────────

// LineRecipeReady is spoken after a recipe has been extracted. It reads
// the ingredient list so the user can gather everything.
func LineRecipeReady(name string, ingredients []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Let's make %s. You'll need: ", name)
	for i, ing := range ingredients {
		if i > 0 && i == len(ingredients)-1 {
			b.WriteString(", and ")
		} else if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ing)
	}
	b.WriteString(". Say ready when you are.")
	return b.String()
}

// ── Step narration ───────────────────────────────────────────────

// LineStep builds the spoken text for a single recipe step.
func LineStep(order, total int, instruction string) string {
	return fmt.Sprintf("Step %d of %d. %s", order, total, instruction)
}

func LineLastStep() string {
	return "That's the last step. You're all done."
}

func LineAtFirstStep() string {
	return "We're already on the first step."
}

func LineIngredientChecked(name string) string {
	return fmt.Sprintf("Checked off %s.", name)
}

func LineIngredientNotFound(name string) string {
	if name == "" {
		return "Which ingredient should I check off?"
	}
	return fmt.Sprintf("I don't see %s on the list.", name)
}

// ── Camera ───────────────────────────────────────────────────────

func LineCameraOn() string {
	return "Camera's on. I can take a look when you ask."
}

func LineCameraOff() string {
	return "Camera's off."
}

func LineCameraCooldown() string {
	return "Give the camera a few seconds before the next look."
}

func LineCameraUnavailable() string {
	return "I can't see anything right now. The camera isn't available."
}

// ── AI failures ──────────────────────────────────────────────────

func LineAIError() string {
	return "Sorry, I couldn't reach my brain just now. Try again in a moment."
}

func LineAIRateLimited() string {
	return "I'm being asked to slow down. Give me a few seconds and ask again."
}

// ── Thinking fillers ─────────────────────────────────────────────
// Spoken while waiting for the AI to respond. Randomized to avoid
// repetition.

var thinkingFillers = []string{
	"Let me think about that.",
	"Hmm, one moment.",
	"Hang on, thinking.",
	"Let me take a look.",
	"One second.",
	"Give me a beat.",
	"Okay, let me check.",
}

// LineThinking returns a random filler for when the AI is working.
func LineThinking() string {
	return thinkingFillers[rand.Intn(len(thinkingFillers))]
}

// ThinkingFillers returns every filler string so they can be prefetched
// into the TTS cache at startup.
func ThinkingFillers() []string {
	out := make([]string, len(thinkingFillers))
	copy(out, thinkingFillers)
	return out
}

// ── Listening acknowledgment ─────────────────────────────────────

var listeningFillers = []string{
	"I'm listening.",
	"Listening.",
	"Go ahead.",
	"Yes?",
}

// LineListening returns a random acknowledgment for when listening starts.
func LineListening() string {
	return listeningFillers[rand.Intn(len(listeningFillers))]
}

// ListeningFillers returns all listening acknowledgment strings so they
// can be prefetched into the TTS cache at startup.
func ListeningFillers() []string {
	out := make([]string, len(listeningFillers))
	copy(out, listeningFillers)
	return out
}
