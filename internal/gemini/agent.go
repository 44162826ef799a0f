package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
	"github.com/nrehmani/souschef/internal/recipe"
)

// Compile-time interface check.
var _ domain.Assistant = (*Agent)(nil)

// Agent wraps the Client with cooking-domain context building. It is the
// single entry point the orchestrator calls for AI-powered features.
type Agent struct {
	client *Client
	log    *logger.Logger
}

// NewAgent creates a cooking agent backed by the given Client.
func NewAgent(client *Client, log *logger.Logger) *Agent {
	return &Agent{client: client, log: log}
}

// CookingReply answers a user utterance with the full cooking context and
// an optional JPEG frame attached to the final user turn. convo is the
// recent-history window selected by the caller, oldest first.
func (a *Agent) CookingReply(ctx context.Context, input string, frame []byte, convo []domain.Entry, rec *domain.Recipe, session *domain.Session) (string, error) {
	contents := []Content{
		TextContent(RoleUser, promptCooking),
		TextContent(RoleModel, "Understood. I'm ready to help with the cooking session."),
	}

	if block := buildContext(rec, session); block != "" {
		contents = append(contents,
			TextContent(RoleUser, block),
			TextContent(RoleModel, "Got it, I have the context."),
		)
	}

	// System entries stay local. They are error notices, not dialogue.
	for _, e := range convo {
		switch e.Role {
		case domain.RoleUser:
			contents = append(contents, TextContent(RoleUser, e.Text))
		case domain.RoleAssistant:
			contents = append(contents, TextContent(RoleModel, e.Text))
		}
	}

	parts := []Part{{Text: input}}
	if len(frame) > 0 {
		parts = append(parts, Part{InlineData: &Blob{
			MIMEType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(frame),
		}})
		a.log.Debug("agent: attaching %d byte frame", len(frame))
	}
	contents = append(contents, Content{Role: RoleUser, Parts: parts})

	return a.client.Generate(ctx, contents)
}

// ExtractRecipe turns a free-form utterance into a structured recipe.
// The fallback chain is strict parse -> heuristic parse -> default recipe;
// extraction failure is recovered silently, never surfaced.
func (a *Agent) ExtractRecipe(ctx context.Context, utterance string) *domain.Recipe {
	prompt := promptExtractRecipe + "\n\nUser request: " + utterance

	raw, err := a.client.GenerateText(ctx, prompt, nil)
	if err != nil {
		a.log.Warn("agent: recipe generation failed, using default recipe: %v", err)
		return recipe.Default()
	}

	rec, err := recipe.Parse(raw)
	if err != nil {
		a.log.Warn("agent: recipe parse failed, using default recipe: %v", err)
		return recipe.Default()
	}
	return rec
}

// buildContext serializes the recipe and session state into a plain-text
// block the model can reason over.
func buildContext(rec *domain.Recipe, session *domain.Session) string {
	if rec == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("[Current Recipe]\n")
	fmt.Fprintf(&b, "Name: %s\n", rec.Name)
	if rec.EstimatedDuration > 0 {
		fmt.Fprintf(&b, "Estimated time: %s\n", rec.EstimatedDuration)
	}

	b.WriteString("\nIngredients:\n")
	for _, ing := range rec.Ingredients {
		mark := " "
		if ing.Checked {
			mark = "x"
		}
		if ing.Quantity != "" {
			fmt.Fprintf(&b, "- [%s] %s %s\n", mark, ing.Quantity, ing.Name)
		} else {
			fmt.Fprintf(&b, "- [%s] %s\n", mark, ing.Name)
		}
	}

	b.WriteString("\nSteps:\n")
	for i, step := range rec.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	if session != nil && session.Cooking {
		b.WriteString("\n[Session State]\n")
		fmt.Fprintf(&b, "Current step: %d of %d\n", session.CurrentStepIndex+1, len(rec.Steps))
		fmt.Fprintf(&b, "Paused: %v\n", session.Paused)
		fmt.Fprintf(&b, "Waiting for step confirmation: %v\n", session.WaitingForConfirmation)
		if cur := rec.Step(session.CurrentStepIndex); cur != "" {
			fmt.Fprintf(&b, "Current step text: %s\n", cur)
		}
	} else {
		b.WriteString("\n[No active cooking session — user is still getting set up.]\n")
	}

	return b.String()
}
