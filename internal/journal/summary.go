package journal

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/franckalain/wellnesscraft/internal/models"
)

// DailySummary is the dashboard view of one date.
type DailySummary struct {
	Date               string  `json:"date"`
	Weekday            string  `json:"weekday"`
	Calories           float64 `json:"calories"`
	CalorieGoal        float64 `json:"calorieGoal"`
	CaloriePercent     float64 `json:"caloriePercent"`
	Water              float64 `json:"water"`
	WaterGoal          float64 `json:"waterGoal"`
	WaterPercent       float64 `json:"waterPercent"`
	PlannedExercises   int     `json:"plannedExercises"`
	CompletedExercises int     `json:"completedExercises"`
}

// Summarize totals the meals, water and exercise completion recorded for
// date against the profile's plan goals.
func Summarize(p models.Profile, date string) DailySummary {
	s := DailySummary{Date: date}

	for _, meal := range p.MealLogs {
		if meal.Date == date && meal.Calories != nil {
			s.Calories += *meal.Calories
		}
	}
	for _, w := range p.WaterLogs {
		if w.Date == date {
			s.Water = w.Amount
			break
		}
	}

	if day := parseDate(date); !day.IsZero() {
		s.Weekday = day.Weekday().String()
	}

	if p.Plan == nil {
		return s
	}
	s.CalorieGoal = p.Plan.DailyCalorieGoal
	s.WaterGoal = p.Plan.DailyWaterGoal
	s.CaloriePercent = percentOf(s.Calories, s.CalorieGoal)
	s.WaterPercent = percentOf(s.Water, s.WaterGoal)

	i := slices.IndexFunc(p.Plan.ExercisePlan, func(d models.DailyExercisePlan) bool {
		return strings.EqualFold(d.Day, s.Weekday)
	})
	if i >= 0 {
		day := p.Plan.ExercisePlan[i]
		s.PlannedExercises = len(day.Exercises)
		for _, ex := range day.Exercises {
			if day.CompletedExercises[ex.Name] {
				s.CompletedExercises++
			}
		}
	}
	return s
}

func percentOf(current, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(current/goal*100, 100)
}

const (
	EntryMeal    = "meal"
	EntryWorkout = "workout"
)

// TimelineEntry is one row of the combined journal.
type TimelineEntry struct {
	Kind    string             `json:"kind"`
	Date    string             `json:"date"`
	Meal    *models.MealLog    `json:"meal,omitempty"`
	Workout *models.WorkoutLog `json:"workout,omitempty"`
	at      time.Time
}

// Timeline merges meals and workouts, most recent first. Workouts carry no
// time of day and sort as midnight.
func Timeline(p models.Profile) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(p.MealLogs)+len(p.WorkoutLogs))
	for i := range p.MealLogs {
		m := p.MealLogs[i]
		entries = append(entries, TimelineEntry{Kind: EntryMeal, Date: m.Date, Meal: &m, at: mealMoment(m)})
	}
	for i := range p.WorkoutLogs {
		w := p.WorkoutLogs[i]
		entries = append(entries, TimelineEntry{Kind: EntryWorkout, Date: w.Date, Workout: &w, at: parseDateTime(w.Date, midnight)})
	}
	slices.SortStableFunc(entries, func(a, b TimelineEntry) int {
		return b.at.Compare(a.at)
	})
	return entries
}
