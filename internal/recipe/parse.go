// Package recipe turns model output into structured recipes. The parsing
// chain is strict JSON first, then a heuristic line classifier, and the
// caller falls back to Default when both produce nothing usable.
package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nrehmani/souschef/internal/domain"
)

// ErrUnusable is returned when neither the strict nor the heuristic parser
// found enough structure to cook from.
var ErrUnusable = errors.New("recipe: no usable structure in text")

// recipeJSON is the fixed shape the extraction prompt asks for.
type recipeJSON struct {
	Name        string `json:"name"`
	Ingredients []struct {
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
	} `json:"ingredients"`
	Steps            []string `json:"steps"`
	EstimatedMinutes int      `json:"estimated_minutes"`
}

// Parse extracts a recipe from raw model output. Strict JSON parsing is
// attempted first; only on failure does the heuristic line classifier run.
func Parse(raw string) (*domain.Recipe, error) {
	if rec, err := parseStructured(raw); err == nil {
		return rec, nil
	}
	if rec, err := parseHeuristic(raw); err == nil {
		return rec, nil
	}
	return nil, ErrUnusable
}

// parseStructured decodes the fixed JSON shape, tolerating markdown fences.
func parseStructured(raw string) (*domain.Recipe, error) {
	var rj recipeJSON
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &rj); err != nil {
		return nil, fmt.Errorf("recipe: strict parse: %w", err)
	}
	if rj.Name == "" || len(rj.Steps) == 0 {
		return nil, fmt.Errorf("recipe: strict parse: %w", ErrUnusable)
	}

	rec := &domain.Recipe{
		Name:              rj.Name,
		Steps:             rj.Steps,
		EstimatedDuration: time.Duration(rj.EstimatedMinutes) * time.Minute,
	}
	for _, ing := range rj.Ingredients {
		if ing.Name == "" {
			continue
		}
		rec.Ingredients = append(rec.Ingredients, domain.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
		})
	}
	return rec, nil
}

// Heuristic parsing modes, switched by keyword lines.
type parseMode int

const (
	modeNone parseMode = iota
	modeIngredients
	modeSteps
)

var (
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
	minutesRe    = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?)`)
	hoursRe      = regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?)`)
)

// parseHeuristic classifies free-form lines. A line containing "ingredient"
// switches to ingredient mode, "step" (or close cousins) to step mode, and
// a line containing "time" is scanned for a duration. Other non-empty lines
// are collected under the current mode; the first line before any mode
// becomes the recipe name.
func parseHeuristic(raw string) (*domain.Recipe, error) {
	rec := &domain.Recipe{}
	mode := modeNone

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case strings.Contains(lower, "ingredient"):
			mode = modeIngredients
			continue
		case strings.Contains(lower, "step") || strings.Contains(lower, "instruction") ||
			strings.Contains(lower, "method") || strings.Contains(lower, "direction"):
			mode = modeSteps
			continue
		case strings.Contains(lower, "time"):
			if d := scanDuration(lower); d > 0 {
				rec.EstimatedDuration = d
			}
			continue
		}

		text := bulletPrefix.ReplaceAllString(line, "")
		if text == "" {
			continue
		}

		switch mode {
		case modeNone:
			if rec.Name == "" {
				rec.Name = strings.Trim(text, ":#* ")
			}
		case modeIngredients:
			rec.Ingredients = append(rec.Ingredients, splitIngredient(text))
		case modeSteps:
			rec.Steps = append(rec.Steps, text)
		}
	}

	if len(rec.Steps) == 0 {
		return nil, fmt.Errorf("recipe: heuristic parse: %w", ErrUnusable)
	}
	if rec.Name == "" {
		rec.Name = "Untitled recipe"
	}
	return rec, nil
}

// splitIngredient separates a leading quantity ("250 grams spaghetti") from
// the ingredient name. Lines without a leading number become name-only.
func splitIngredient(text string) domain.Ingredient {
	fields := strings.Fields(text)
	if len(fields) >= 3 {
		if _, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], ","), 64); err == nil {
			return domain.Ingredient{
				Quantity: fields[0] + " " + fields[1],
				Name:     strings.Join(fields[2:], " "),
			}
		}
	}
	return domain.Ingredient{Name: text}
}

// scanDuration pulls "NN minutes" / "NN hours" out of a time line.
func scanDuration(lower string) time.Duration {
	var d time.Duration
	if m := hoursRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		d += time.Duration(n) * time.Hour
	}
	if m := minutesRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		d += time.Duration(n) * time.Minute
	}
	return d
}

// stripCodeFence removes ```json ... ``` wrappers that models love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
