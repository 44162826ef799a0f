package recipe

import (
	"errors"
	"testing"
	"time"
)

func TestParseStructured(t *testing.T) {
	raw := "```json\n" + `{
  "name": "Shakshuka",
  "ingredients": [
    {"name": "eggs", "quantity": "4"},
    {"name": "canned tomatoes", "quantity": "1 can"}
  ],
  "steps": ["Soften the onion.", "Add tomatoes and simmer.", "Crack in the eggs."],
  "estimated_minutes": 30
}` + "\n```"

	rec, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Shakshuka" {
		t.Errorf("name = %q, want Shakshuka", rec.Name)
	}
	if len(rec.Steps) != 3 {
		t.Errorf("steps = %d, want 3", len(rec.Steps))
	}
	if len(rec.Ingredients) != 2 {
		t.Errorf("ingredients = %d, want 2", len(rec.Ingredients))
	}
	if rec.EstimatedDuration != 30*time.Minute {
		t.Errorf("duration = %s, want 30m", rec.EstimatedDuration)
	}
}

func TestParseFallsThroughToHeuristic(t *testing.T) {
	// Not JSON at all — the strict parser must fail and the heuristic
	// classifier must pick up the keyword-separated sections.
	raw := `Garlic Butter Rice

Ingredients:
- 1 cup rice
- 2 tablespoons butter
- 2 cloves garlic

Steps:
1. Rinse the rice until the water runs clear.
2. Melt the butter and cook the garlic briefly.
3. Add rice and water, cover, and simmer.

Time: about 25 minutes total.`

	rec, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Garlic Butter Rice" {
		t.Errorf("name = %q, want Garlic Butter Rice", rec.Name)
	}
	if len(rec.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(rec.Steps))
	}
	if rec.Steps[0] != "Rinse the rice until the water runs clear." {
		t.Errorf("step 1 = %q", rec.Steps[0])
	}
	if len(rec.Ingredients) != 3 {
		t.Fatalf("ingredients = %d, want 3", len(rec.Ingredients))
	}
	if rec.Ingredients[0].Quantity != "1 cup" || rec.Ingredients[0].Name != "rice" {
		t.Errorf("ingredient 1 = %+v", rec.Ingredients[0])
	}
	if rec.EstimatedDuration != 25*time.Minute {
		t.Errorf("duration = %s, want 25m", rec.EstimatedDuration)
	}
}

func TestParseStructuredPreferredOverHeuristic(t *testing.T) {
	// Valid JSON that also happens to contain heuristic keywords — the
	// strict parser must win.
	raw := `{"name": "Miso Soup", "ingredients": [], "steps": ["Heat the dashi.", "Whisk in miso."], "estimated_minutes": 10}`

	rec, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Miso Soup" || len(rec.Steps) != 2 {
		t.Errorf("got %q with %d steps", rec.Name, len(rec.Steps))
	}
}

func TestParseUnusable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose without structure", "I'm sorry, I can't help with that request."},
		{"json without steps", `{"name": "Nothing", "ingredients": [], "steps": []}`},
		{"keywords but no content", "Ingredients:\nSteps:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if !errors.Is(err, ErrUnusable) {
				t.Fatalf("expected ErrUnusable, got %v", err)
			}
		})
	}
}

func TestDefaultIsUsable(t *testing.T) {
	rec := Default()
	if rec.Name == "" || len(rec.Steps) == 0 || len(rec.Ingredients) == 0 {
		t.Fatalf("default recipe is not usable: %+v", rec)
	}
}
