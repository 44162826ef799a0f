package recipe

import (
	"time"

	"github.com/nrehmani/souschef/internal/domain"
)

// Default returns the built-in fallback recipe, used when extraction fails
// completely. Deliberately simple: nothing in it can go badly wrong.
func Default() *domain.Recipe {
	return &domain.Recipe{
		Name:              "Tomato Garlic Pasta",
		EstimatedDuration: 25 * time.Minute,
		Ingredients: []domain.Ingredient{
			{Name: "spaghetti", Quantity: "250 grams"},
			{Name: "garlic", Quantity: "3 cloves"},
			{Name: "canned crushed tomatoes", Quantity: "1 can"},
			{Name: "olive oil", Quantity: "2 tablespoons"},
			{Name: "salt", Quantity: "to taste"},
			{Name: "black pepper", Quantity: "to taste"},
		},
		Steps: []string{
			"Bring a large pot of salted water to a boil.",
			"Slice the garlic thinly while the water heats.",
			"Cook the spaghetti until al dente, reserving a cup of pasta water before draining.",
			"Warm the olive oil in a pan over medium heat and cook the garlic until fragrant, about one minute.",
			"Add the crushed tomatoes, season with salt and pepper, and simmer for five minutes.",
			"Toss the drained pasta in the sauce, loosening with pasta water if needed, and serve.",
		},
	}
}
