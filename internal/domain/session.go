package domain

import "time"

// Session tracks progress through a recipe. It is created at "start
// cooking", mutated through the session, and discarded on reset. The step
// cursor invariant holds throughout: 0 <= CurrentStepIndex < step count
// while cooking — clamped, never negative, never beyond the last step.
type Session struct {
	ID                     string
	CurrentStepIndex       int
	Cooking                bool
	Paused                 bool
	WaitingForConfirmation bool
	StartedAt              time.Time
}

// AdvanceStep moves the cursor forward by one, clamped to the last step.
// Returns true if the cursor actually moved.
func (s *Session) AdvanceStep(stepCount int) bool {
	if stepCount <= 0 {
		return false
	}
	if s.CurrentStepIndex >= stepCount-1 {
		s.CurrentStepIndex = stepCount - 1
		return false
	}
	s.CurrentStepIndex++
	return true
}

// PreviousStep moves the cursor backward by one, clamped to zero.
// Returns true if the cursor actually moved.
func (s *Session) PreviousStep() bool {
	if s.CurrentStepIndex <= 0 {
		s.CurrentStepIndex = 0
		return false
	}
	s.CurrentStepIndex--
	return true
}

// OnLastStep reports whether the cursor sits on the final step.
func (s *Session) OnLastStep(stepCount int) bool {
	return stepCount > 0 && s.CurrentStepIndex >= stepCount-1
}
