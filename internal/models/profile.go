package models

// Profile is one user's journal: intake details, the generated plan and
// every log recorded against it.
type Profile struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Avatar       string           `json:"avatar"`
	UserDetails  UserDetails      `json:"userDetails"`
	Plan         *Plan            `json:"plan"`
	Progress     []WeightLog      `json:"progress"`
	Measurements []MeasurementLog `json:"measurements"`
	MealLogs     []MealLog        `json:"mealLogs"`
	WorkoutLogs  []WorkoutLog     `json:"workoutLogs"`
	WaterLogs    []WaterLog       `json:"waterLogs"`
	ChatHistory  []ChatContent    `json:"chatHistory"`
}

// HasDashboard reports whether the profile finished intake. Profiles
// without a plan only support the creation flow.
func (p Profile) HasDashboard() bool {
	return p.Plan != nil
}

// UserDetails holds the intake answers. Numeric answers are stored as
// entered.
type UserDetails struct {
	Age                string         `json:"age" validate:"required,numeric"`
	Gender             string         `json:"gender" validate:"required,oneof=male female other"`
	Weight             string         `json:"weight" validate:"required,numeric"`
	Height             string         `json:"height" validate:"required,numeric"`
	Goal               string         `json:"goal" validate:"required,oneof=lose gain maintain"`
	ActivityLevel      string         `json:"activityLevel" validate:"required,oneof=sedentary light moderate very"`
	HealthConditions   string         `json:"healthConditions"`
	Budget             string         `json:"budget" validate:"required,oneof=standard budget-friendly"`
	DietaryPreferences string         `json:"dietaryPreferences"`
	FoodsToExclude     string         `json:"foodsToExclude"`
	WeeklySchedule     WeeklySchedule `json:"weeklySchedule"`
	AvailableEquipment string         `json:"availableEquipment"`
}

// DaySchedule is the requested activity for one weekday.
type DaySchedule struct {
	Activity string `json:"activity" validate:"required"`
	Duration string `json:"duration" validate:"required"`
}

type WeeklySchedule struct {
	Monday    DaySchedule `json:"monday"`
	Tuesday   DaySchedule `json:"tuesday"`
	Wednesday DaySchedule `json:"wednesday"`
	Thursday  DaySchedule `json:"thursday"`
	Friday    DaySchedule `json:"friday"`
	Saturday  DaySchedule `json:"saturday"`
	Sunday    DaySchedule `json:"sunday"`
}

// Days returns the schedule in calendar order, keyed by lowercase day name.
func (w WeeklySchedule) Days() []NamedDaySchedule {
	return []NamedDaySchedule{
		{"monday", w.Monday},
		{"tuesday", w.Tuesday},
		{"wednesday", w.Wednesday},
		{"thursday", w.Thursday},
		{"friday", w.Friday},
		{"saturday", w.Saturday},
		{"sunday", w.Sunday},
	}
}

type NamedDaySchedule struct {
	Day string
	DaySchedule
}
