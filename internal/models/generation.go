package models

// Recipe is a generated recipe from the tools screen.
type Recipe struct {
	RecipeName   string   `json:"recipeName"`
	Description  string   `json:"description"`
	PrepTime     string   `json:"prepTime"`
	CookTime     string   `json:"cookTime"`
	Servings     string   `json:"servings"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Notes        string   `json:"notes,omitempty"`
}

type RecipePreferences struct {
	MealType     string `json:"mealType" validate:"required"`
	Ingredients  string `json:"ingredients" validate:"required"`
	DietaryNeeds string `json:"dietaryNeeds"`
}

type ShoppingListCategory struct {
	CategoryName string   `json:"categoryName"`
	Items        []string `json:"items"`
}

type ShoppingList struct {
	Categories []ShoppingListCategory `json:"categories"`
}

// MealAnalysis is the result of estimating a meal from a photo.
type MealAnalysis struct {
	Description string  `json:"description"`
	Calories    float64 `json:"calories"`
}
