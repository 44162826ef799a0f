package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nrehmani/souschef/internal/logger"
	"github.com/nrehmani/souschef/internal/recipe"
)

func newTestAgent(t *testing.T, handler http.HandlerFunc) *Agent {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.New(logger.LevelOff, nil)
	client := NewClient(srv.URL, "test-key", log,
		WithMaxRetries(0),
		WithRetryInterval(time.Millisecond),
	)
	return NewAgent(client, log)
}

func TestExtractRecipeStructured(t *testing.T) {
	body := `{"name":"Miso Soup","ingredients":[{"name":"miso paste","quantity":"3 tbsp"},{"name":"tofu","quantity":"200 g"}],"steps":["Bring water to a simmer.","Whisk in the miso.","Add the tofu."],"estimated_minutes":15}`

	// The model wraps its JSON in a code fence, as models do.
	a := newTestAgent(t, func(w http.ResponseWriter, _ *http.Request) {
		fenced := "```json\\n" + escapeForJSON(body) + "\\n```"
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"`+fenced+`"}]}}]}`)
	})

	rec := a.ExtractRecipe(context.Background(), "something warm and japanese")
	if rec.Name != "Miso Soup" {
		t.Fatalf("name = %q, want Miso Soup", rec.Name)
	}
	if rec.StepCount() != 3 {
		t.Fatalf("steps = %d, want 3", rec.StepCount())
	}
	if len(rec.Ingredients) != 2 || rec.Ingredients[0].Quantity != "3 tbsp" {
		t.Fatalf("ingredients = %+v", rec.Ingredients)
	}
}

func TestExtractRecipeFallsBackToDefault(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, _ *http.Request) {
		// Neither valid JSON nor heuristically parseable.
		io.WriteString(w, replyJSON("I am sorry, I cannot help with that."))
	})

	rec := a.ExtractRecipe(context.Background(), "dinner ideas")
	def := recipe.Default()
	if rec.Name != def.Name {
		t.Fatalf("name = %q, want the default recipe %q", rec.Name, def.Name)
	}
	if rec.StepCount() == 0 {
		t.Fatal("default recipe must be cookable")
	}
}

func TestExtractRecipeDefaultsOnRequestFailure(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := a.ExtractRecipe(context.Background(), "dinner ideas")
	if rec == nil || rec.StepCount() == 0 {
		t.Fatal("extraction must always yield a usable recipe")
	}
}

// escapeForJSON escapes quotes so a JSON document can travel inside a
// JSON string field.
func escapeForJSON(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
