package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franckalain/wellnesscraft/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	p := newProfile()
	// 2024-01-01 is a Monday.
	p = LogMeal(p, models.MealLog{ID: "a", Date: "2024-01-01", Time: "08:00", MealType: models.MealBreakfast, Description: "Oats", Calories: floatPtr(400)})
	p = LogMeal(p, models.MealLog{ID: "b", Date: "2024-01-01", Time: "13:00", MealType: models.MealLunch, Description: "Wrap"})
	p = LogMeal(p, models.MealLog{ID: "c", Date: "2024-01-02", Time: "13:00", MealType: models.MealLunch, Description: "Wrap", Calories: floatPtr(600)})
	p = LogWater(p, "2024-01-01", 2500)
	p = ToggleExercise(p, "Monday", "Rows", true)

	s := Summarize(p, "2024-01-01")
	assert.Equal(t, "Monday", s.Weekday)
	assert.Equal(t, float64(400), s.Calories)
	assert.Equal(t, float64(20), s.CaloriePercent)
	assert.Equal(t, float64(100), s.WaterPercent, "percent is capped")
	assert.Equal(t, 2, s.PlannedExercises)
	assert.Equal(t, 1, s.CompletedExercises)
}

func TestSummarizeWithoutPlan(t *testing.T) {
	s := Summarize(models.Profile{}, "2024-01-01")
	assert.Zero(t, s.CalorieGoal)
	assert.Zero(t, s.WaterPercent)
}

func TestTimelineMergesMealsAndWorkouts(t *testing.T) {
	p := newProfile()
	p = LogMeal(p, models.MealLog{ID: "breakfast", Date: "2024-01-01", Time: "08:00", MealType: models.MealBreakfast, Description: "Oats"})
	p = LogWorkout(p, models.WorkoutLog{ID: "gym", Date: "2024-01-01", Exercises: []models.LoggedExercise{{Name: "Squat", Type: models.ExerciseStrength}}})
	p = LogWorkout(p, models.WorkoutLog{ID: "run", Date: "2024-01-02", Exercises: []models.LoggedExercise{{Name: "Run", Type: models.ExerciseCardio}}})

	entries := Timeline(p)
	require.Len(t, entries, 3)
	assert.Equal(t, "run", entries[0].Workout.ID)
	assert.Equal(t, "breakfast", entries[1].Meal.ID)
	assert.Equal(t, "gym", entries[2].Workout.ID)
}
