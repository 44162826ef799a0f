// Package domain defines the core types and interfaces for the sous-chef
// assistant. All other packages depend on domain; domain depends on nothing.
package domain

import "time"

// Recipe is the dish currently being cooked. It is replaced wholesale
// whenever the assistant extracts a new recipe from user input; only the
// ingredient Checked flags are mutated in place.
type Recipe struct {
	Name              string
	Ingredients       []Ingredient
	Steps             []string
	EstimatedDuration time.Duration
}

// Ingredient is a single ingredient with a human-style quantity.
type Ingredient struct {
	Name     string
	Quantity string // "250 grams", "2 cloves", "" when unspecified
	Checked  bool   // ticked off by the user while gathering
}

// StepCount returns the number of steps in the recipe. Safe on nil.
func (r *Recipe) StepCount() int {
	if r == nil {
		return 0
	}
	return len(r.Steps)
}

// Step returns the step text at idx, or "" when out of range.
func (r *Recipe) Step(idx int) string {
	if r == nil || idx < 0 || idx >= len(r.Steps) {
		return ""
	}
	return r.Steps[idx]
}

// CheckIngredient sets the checked flag of the ingredient at idx.
// Returns false when idx is out of range.
func (r *Recipe) CheckIngredient(idx int, checked bool) bool {
	if r == nil || idx < 0 || idx >= len(r.Ingredients) {
		return false
	}
	r.Ingredients[idx].Checked = checked
	return true
}
