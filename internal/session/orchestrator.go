// Package session sequences user turns: local commands, visual checks,
// AI calls, narration, and the recipe step cursor.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
	"github.com/nrehmani/souschef/internal/speech"
)

// completionKeywords signal that a step is finished. The step cursor
// advances only when both the user and the assistant use one while a
// confirmation is pending.
var completionKeywords = []string{
	"done",
	"finished",
	"complete",
	"ready",
	"move on",
	"next step",
}

// visualKeywords in the user's utterance or the current step suggest the
// assistant should look at the food.
var visualKeywords = []string{
	"look",
	"see this",
	"check on",
	"how does",
	"is this",
	"golden",
	"brown",
	"burnt",
	"color",
	"colour",
	"consistency",
	"thicken",
}

// cooldownReporter is an optional interface a FrameCapturer can satisfy
// to expose its remaining capture cooldown for the status bar.
type cooldownReporter interface {
	CooldownRemaining() time.Duration
}

// Status is a point-in-time snapshot for the UI.
type Status struct {
	SessionID      string
	RecipeName     string
	Cooking        bool
	Paused         bool
	Waiting        bool
	StepIndex      int
	StepCount      int
	CameraEnabled  bool
	CameraCooldown time.Duration
}

// historyWindow is how many recent conversation turns travel with each
// assistant request.
const historyWindow = 8

// Orchestrator owns the conversation, recipe, and session state for one
// user. Dependencies are interfaces, so it is fully testable with fakes.
type Orchestrator struct {
	assistant domain.Assistant
	voice     domain.Speaker
	camera    domain.FrameCapturer // nil when no camera is configured

	log *logger.Logger

	// turnMu serializes user turns so a second utterance arriving while
	// an AI request is in flight waits its turn instead of racing the
	// state update.
	turnMu sync.Mutex

	// stateMu guards the fields below. It is never held across an
	// assistant or camera call, so Status and History stay responsive
	// while a turn is in flight.
	stateMu       sync.Mutex
	convo         *domain.Conversation
	recipe        *domain.Recipe
	sess          *domain.Session
	cameraEnabled bool
}

// New creates an orchestrator. camera may be nil.
func New(assistant domain.Assistant, voice domain.Speaker, camera domain.FrameCapturer, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		assistant:     assistant,
		voice:         voice,
		camera:        camera,
		log:           log,
		convo:         domain.NewConversation(),
		cameraEnabled: camera != nil,
	}
}

// command pairs an exact-substring trigger with its local action. Commands
// never reach the AI client. Longer phrases are listed first so "stop
// cooking" wins over any shorter overlap.
type command struct {
	phrase string
	run    func(o *Orchestrator, ctx context.Context, input string) string
}

var commands = []command{
	{"stop cooking", (*Orchestrator).cmdStop},
	{"camera off", (*Orchestrator).cmdCameraOff},
	{"camera on", (*Orchestrator).cmdCameraOn},
	{"check off", (*Orchestrator).cmdCheckIngredient},
	{"previous", (*Orchestrator).cmdPrevious},
	{"go back", (*Orchestrator).cmdPrevious},
	{"repeat", (*Orchestrator).cmdRepeat},
	{"resume", (*Orchestrator).cmdResume},
	{"pause", (*Orchestrator).cmdPause},
	{"ready", (*Orchestrator).cmdReady},
	{"next", (*Orchestrator).cmdNext},
}

// Greet speaks the opening line.
func (o *Orchestrator) Greet() {
	o.stateMu.Lock()
	o.say(speech.LineWelcome())
	o.stateMu.Unlock()
}

// Status returns a snapshot for the UI.
func (o *Orchestrator) Status() Status {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	s := Status{CameraEnabled: o.cameraEnabled}
	if o.recipe != nil {
		s.RecipeName = o.recipe.Name
		s.StepCount = o.recipe.StepCount()
	}
	if o.sess != nil {
		s.SessionID = o.sess.ID
		s.Cooking = o.sess.Cooking
		s.Paused = o.sess.Paused
		s.Waiting = o.sess.WaitingForConfirmation
		s.StepIndex = o.sess.CurrentStepIndex
	}
	if r, ok := o.camera.(cooldownReporter); ok && o.cameraEnabled {
		s.CameraCooldown = r.CooldownRemaining()
	}
	return s
}

// History returns the conversation so far.
func (o *Orchestrator) History() []domain.Entry {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.convo.Entries()
}

// ProcessUserMessage handles one user turn and returns the assistant's
// reply text. Local commands short-circuit without an AI call; everything
// else goes to the assistant, optionally with a camera frame attached.
// AI failures degrade: state is kept, the failure becomes a system entry
// and a spoken apology.
func (o *Orchestrator) ProcessUserMessage(ctx context.Context, input string) (string, error) {
	norm := strings.ToLower(strings.TrimSpace(input))
	if norm == "" {
		return "", nil
	}

	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	o.stateMu.Lock()
	history := o.convo.Tail(historyWindow)
	o.convo.Append(domain.RoleUser, input)

	for _, c := range commands {
		if strings.Contains(norm, c.phrase) {
			o.log.Debug("session: command %q matched in %q", c.phrase, norm)
			reply := c.run(o, ctx, norm)
			o.say(reply)
			o.stateMu.Unlock()
			return reply, nil
		}
	}

	cooking := o.sess != nil && o.sess.Cooking
	if cooking && o.sess.Paused {
		reply := speech.LineIsPaused()
		o.say(reply)
		o.stateMu.Unlock()
		return reply, nil
	}
	o.stateMu.Unlock()

	if !cooking {
		return o.startCooking(ctx, input), nil
	}
	return o.askAssistant(ctx, input, norm, history), nil
}

// startCooking treats the utterance as a dish request: extract a recipe
// (the extractor never fails outright), open a session, and read out the
// ingredient list. The session then waits for "ready".
func (o *Orchestrator) startCooking(ctx context.Context, input string) string {
	// A filler keeps the kitchen from going silent while the model works;
	// the real reply interrupts it.
	o.voice.Speak(speech.LineThinking())
	recipe := o.assistant.ExtractRecipe(ctx, input)

	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	o.recipe = recipe
	o.sess = &domain.Session{
		ID:                     uuid.NewString(),
		Cooking:                true,
		WaitingForConfirmation: true,
		StartedAt:              time.Now(),
	}

	names := make([]string, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		if ing.Quantity != "" {
			names[i] = ing.Quantity + " " + ing.Name
		} else {
			names[i] = ing.Name
		}
	}

	o.log.Info("session %s: cooking %q (%d steps)", o.sess.ID, recipe.Name, recipe.StepCount())

	reply := speech.LineRecipeReady(recipe.Name, names)
	o.say(reply)
	return reply
}

// askAssistant runs the AI turn: best-effort frame capture when a visual
// check is warranted, the request itself, then the completion-keyword
// step advance. The state lock is released for the duration of the
// camera and assistant calls.
func (o *Orchestrator) askAssistant(ctx context.Context, input, norm string, history []domain.Entry) string {
	o.stateMu.Lock()
	recipe, sess := o.recipe, o.sess
	wantFrame := o.wantsVisualCheck(norm) && o.cameraEnabled && o.camera != nil
	o.stateMu.Unlock()

	// A filler keeps the kitchen from going silent while the model works;
	// the real reply interrupts it.
	o.voice.Speak(speech.LineThinking())

	var frame []byte
	var throttled bool
	if wantFrame {
		frame, throttled = o.captureFrame(ctx)
	}

	reply, err := o.assistant.CookingReply(ctx, input, frame, history, recipe, sess)
	if err != nil {
		return o.degrade(err)
	}

	o.stateMu.Lock()
	o.say(reply)
	o.advanceOnCompletion(norm, strings.ToLower(reply))
	o.stateMu.Unlock()

	if throttled {
		o.voice.QueueSpeech(speech.LineCameraCooldown())
	}
	return reply
}

// advanceOnCompletion applies the confirmation protocol: a pending
// confirmation plus completion keywords from both sides advances the
// cursor one step, clamped at the last step. An assistant reply that
// prompts for completion arms the confirmation flag for the next turn.
func (o *Orchestrator) advanceOnCompletion(norm, reply string) {
	userDone := containsAny(norm, completionKeywords)
	replyDone := containsAny(reply, completionKeywords)

	switch {
	case o.sess.WaitingForConfirmation && userDone && replyDone:
		advanced := o.sess.AdvanceStep(o.recipe.StepCount())
		o.sess.WaitingForConfirmation = false
		o.log.Debug("session: step confirmed, advanced=%v index=%d", advanced, o.sess.CurrentStepIndex)
	case replyDone:
		o.sess.WaitingForConfirmation = true
	}
}

// degrade keeps the session alive on AI failure: the error becomes a
// system entry and a spoken apology matched to the failure kind.
func (o *Orchestrator) degrade(err error) string {
	o.log.Error("session: assistant call failed: %v", err)

	line := speech.LineAIError()
	if errors.Is(err, domain.ErrRateLimited) {
		line = speech.LineAIRateLimited()
	}

	o.stateMu.Lock()
	o.convo.Append(domain.RoleSystem, fmt.Sprintf("assistant error: %v", err))
	o.say(line)
	o.stateMu.Unlock()
	return line
}

// wantsVisualCheck reports whether the utterance or the current step text
// suggests looking at the food.
func (o *Orchestrator) wantsVisualCheck(norm string) bool {
	if containsAny(norm, visualKeywords) {
		return true
	}
	if o.recipe != nil && o.sess != nil {
		step := strings.ToLower(o.recipe.Step(o.sess.CurrentStepIndex))
		return containsAny(step, visualKeywords)
	}
	return false
}

// captureFrame grabs a frame best-effort. No frame is not an error for
// the turn; the AI just answers without eyes. The second return reports
// whether the capture was refused by the cooldown, so the caller can
// mention it.
func (o *Orchestrator) captureFrame(ctx context.Context) ([]byte, bool) {
	frame, err := o.camera.CaptureFrame(ctx)
	if err != nil {
		o.log.Debug("session: no frame for this turn: %v", err)
		return nil, errors.Is(err, domain.ErrCaptureTooSoon)
	}
	return frame, false
}

// say records an assistant entry and speaks it. Every reply funnels
// through here so the conversation log matches what was heard.
func (o *Orchestrator) say(text string) {
	if text == "" {
		return
	}
	o.convo.Append(domain.RoleAssistant, text)
	o.voice.Speak(text)
}

// narrateStep builds the spoken line for the step at the current cursor.
func (o *Orchestrator) narrateStep() string {
	idx := o.sess.CurrentStepIndex
	return speech.LineStep(idx+1, o.recipe.StepCount(), o.recipe.Step(idx))
}

// ── Command handlers ─────────────────────────────────────────────
// All run with stateMu held. Each returns the reply text;
// ProcessUserMessage records and speaks it.

func (o *Orchestrator) cmdReady(_ context.Context, _ string) string {
	if o.sess == nil || !o.sess.Cooking {
		return speech.LineNoSession()
	}
	if o.sess.Paused {
		return speech.LineIsPaused()
	}
	if o.sess.WaitingForConfirmation {
		o.sess.WaitingForConfirmation = false
		return o.narrateStep()
	}
	return o.narrateStep()
}

func (o *Orchestrator) cmdNext(_ context.Context, _ string) string {
	if o.sess == nil || !o.sess.Cooking {
		return speech.LineNoSession()
	}
	if o.sess.Paused {
		return speech.LineIsPaused()
	}
	if !o.sess.AdvanceStep(o.recipe.StepCount()) {
		return speech.LineLastStep()
	}
	o.sess.WaitingForConfirmation = false
	return o.narrateStep()
}

func (o *Orchestrator) cmdPrevious(_ context.Context, _ string) string {
	if o.sess == nil || !o.sess.Cooking {
		return speech.LineNoSession()
	}
	if o.sess.Paused {
		return speech.LineIsPaused()
	}
	if !o.sess.PreviousStep() {
		return speech.LineAtFirstStep()
	}
	o.sess.WaitingForConfirmation = false
	return o.narrateStep()
}

func (o *Orchestrator) cmdRepeat(_ context.Context, _ string) string {
	if o.sess == nil || !o.sess.Cooking {
		return speech.LineNoSession()
	}
	return o.narrateStep()
}

func (o *Orchestrator) cmdPause(_ context.Context, _ string) string {
	if o.sess == nil || !o.sess.Cooking {
		return speech.LineNoSession()
	}
	if o.sess.Paused {
		return speech.LineIsPaused()
	}
	o.sess.Paused = true
	return speech.LinePaused()
}

func (o *Orchestrator) cmdResume(_ context.Context, _ string) string {
	if o.sess == nil || !o.sess.Cooking {
		return speech.LineNoSession()
	}
	if !o.sess.Paused {
		return speech.LineNotPaused()
	}
	o.sess.Paused = false
	return speech.LineResumed()
}

func (o *Orchestrator) cmdStop(_ context.Context, _ string) string {
	if o.sess == nil || !o.sess.Cooking {
		return speech.LineNoSession()
	}
	name := o.recipe.Name
	o.log.Info("session %s: stopped at step %d", o.sess.ID, o.sess.CurrentStepIndex)
	o.reset()
	return speech.LineStopped(name)
}

func (o *Orchestrator) cmdCameraOn(_ context.Context, _ string) string {
	if o.camera == nil {
		return speech.LineCameraUnavailable()
	}
	o.cameraEnabled = true
	return speech.LineCameraOn()
}

func (o *Orchestrator) cmdCameraOff(_ context.Context, _ string) string {
	o.cameraEnabled = false
	return speech.LineCameraOff()
}

// cmdCheckIngredient marks an ingredient as gathered: "check off the
// garlic" matches the first ingredient whose name contains "garlic".
func (o *Orchestrator) cmdCheckIngredient(_ context.Context, norm string) string {
	if o.recipe == nil {
		return speech.LineNoSession()
	}

	pos := strings.Index(norm, "check off")
	target := strings.TrimSpace(norm[pos+len("check off"):])
	target = strings.TrimPrefix(target, "the ")
	if target == "" {
		return speech.LineIngredientNotFound(target)
	}

	for i, ing := range o.recipe.Ingredients {
		name := strings.ToLower(ing.Name)
		if strings.Contains(name, target) || strings.Contains(target, name) {
			o.recipe.CheckIngredient(i, true)
			return speech.LineIngredientChecked(ing.Name)
		}
	}
	return speech.LineIngredientNotFound(target)
}

// reset discards the recipe and session; the conversation survives so the
// next recipe keeps its context.
func (o *Orchestrator) reset() {
	o.recipe = nil
	o.sess = nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
