package models

const (
	DefaultCalorieGoal    = 2000
	DefaultWaterGoal      = 2500
	DefaultStretchesTitle = "Daily Stretches"
)

// Plan is the generated seven day programme attached to a profile.
type Plan struct {
	Summary          string              `json:"summary"`
	DailyCalorieGoal float64             `json:"dailyCalorieGoal"`
	DailyWaterGoal   float64             `json:"dailyWaterGoal"` // ml
	MealPlan         []DailyMealPlan     `json:"mealPlan"`
	ExercisePlan     []DailyExercisePlan `json:"exercisePlan"`
	StretchingPlan   *StretchingRoutine  `json:"stretchingPlan"`
}

type Meal struct {
	Breakfast string  `json:"breakfast"`
	Lunch     string  `json:"lunch"`
	Dinner    string  `json:"dinner"`
	Snacks    string  `json:"snacks"`
	Calories  float64 `json:"calories"`
}

type DailyMealPlan struct {
	Day   string `json:"day"`
	Meals Meal   `json:"meals"`
}

type Exercise struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DailyExercisePlan carries a completion map keyed by exercise name only,
// so names must be unique within a day. Absence of a key means "not done".
type DailyExercisePlan struct {
	Day                string          `json:"day"`
	WorkoutType        string          `json:"workoutType"`
	Exercises          []Exercise      `json:"exercises"`
	CompletedExercises map[string]bool `json:"completedExercises"`
}

type Stretch struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type StretchingRoutine struct {
	Title     string    `json:"title"`
	Stretches []Stretch `json:"stretches"`
}

// DefaultStretchingRoutine is attached to plans persisted before stretching
// routines were generated.
func DefaultStretchingRoutine() *StretchingRoutine {
	return &StretchingRoutine{Title: DefaultStretchesTitle, Stretches: []Stretch{}}
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.MealPlan = append([]DailyMealPlan(nil), p.MealPlan...)
	out.ExercisePlan = make([]DailyExercisePlan, len(p.ExercisePlan))
	for i, day := range p.ExercisePlan {
		day.Exercises = append([]Exercise(nil), day.Exercises...)
		if day.CompletedExercises != nil {
			completed := make(map[string]bool, len(day.CompletedExercises))
			for name, done := range day.CompletedExercises {
				completed[name] = done
			}
			day.CompletedExercises = completed
		}
		out.ExercisePlan[i] = day
	}
	if p.StretchingPlan != nil {
		sp := *p.StretchingPlan
		sp.Stretches = append([]Stretch(nil), sp.Stretches...)
		out.StretchingPlan = &sp
	}
	return &out
}
