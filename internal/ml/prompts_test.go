package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franckalain/wellnesscraft/internal/models"
)

func sampleDetails() models.UserDetails {
	rest := models.DaySchedule{Activity: "Rest", Duration: "0 min"}
	return models.UserDetails{
		Age: "29", Gender: "male", Weight: "84", Height: "181",
		Goal: "gain", ActivityLevel: "moderate", Budget: "budget-friendly",
		FoodsToExclude: "peanuts",
		WeeklySchedule: models.WeeklySchedule{
			Monday:    models.DaySchedule{Activity: "Upper Body Strength", Duration: "45 min"},
			Tuesday:   rest,
			Wednesday: models.DaySchedule{Activity: "HIIT", Duration: "20 min"},
			Thursday:  rest,
			Friday:    models.DaySchedule{Activity: "Lower Body Strength", Duration: "45 min"},
			Saturday:  models.DaySchedule{Activity: "Swimming", Duration: "30 min"},
			Sunday:    rest,
		},
	}
}

func TestFormatWeeklySchedule(t *testing.T) {
	got := formatWeeklySchedule(sampleDetails().WeeklySchedule)
	assert.Equal(t, `- Monday: Upper Body Strength (45 min)
- Tuesday: Rest (0 min)
- Wednesday: HIIT (20 min)
- Thursday: Rest (0 min)
- Friday: Lower Body Strength (45 min)
- Saturday: Swimming (30 min)
- Sunday: Rest (0 min)`, got)
}

func TestPlanPrompt(t *testing.T) {
	prompt := planPrompt(sampleDetails())
	assert.Contains(t, prompt, "- Age: 29, Gender: male, Weight: 84 kg, Height: 181 cm")
	assert.Contains(t, prompt, "- Fitness Goal: Build Muscle")
	assert.Contains(t, prompt, "**Health Conditions**: None specified")
	assert.Contains(t, prompt, "**Foods to Strictly Exclude**: peanuts")
	assert.Contains(t, prompt, "- Friday: Lower Body Strength (45 min)")
	assert.NotContains(t, prompt, "%!")
}

func TestGoalLabel(t *testing.T) {
	assert.Equal(t, "Lose Weight", goalLabel("lose"))
	assert.Equal(t, "Build Muscle", goalLabel("gain"))
	assert.Equal(t, "Maintain Weight", goalLabel("maintain"))
}

func TestRecipePromptDefaultsDietaryNeeds(t *testing.T) {
	prompt := recipePrompt(models.RecipePreferences{MealType: "Dinner", Ingredients: "butternut, lentils"})
	assert.Contains(t, prompt, "- Ingredients on Hand: butternut, lentils")
	assert.Contains(t, prompt, "- Dietary Needs: None")
}

func TestShoppingListPromptEmbedsMealPlan(t *testing.T) {
	prompt, err := shoppingListPrompt([]models.DailyMealPlan{{Day: "Monday", Meals: models.Meal{Breakfast: "Maize porridge (60g)"}}})
	require.NoError(t, err)
	assert.Contains(t, prompt, `"breakfast": "Maize porridge (60g)"`)
}

func TestCoachInstructionEmbedsDetails(t *testing.T) {
	instruction, err := coachInstruction(sampleDetails())
	require.NoError(t, err)
	assert.Contains(t, instruction, "AI Wellness Coach")
	assert.Contains(t, instruction, `"foodsToExclude": "peanuts"`)
	assert.Contains(t, instruction, "Do not give medical advice.")
}
