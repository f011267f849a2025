// Package journal holds the pure transforms applied to a profile's logs.
// Every function returns an updated copy and never aliases the slices or
// maps of its input, so untouched profiles stay reference-stable.
package journal

import (
	"slices"
	"time"

	"github.com/franckalain/wellnesscraft/internal/models"
)

const (
	DateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
	midnight       = "00:00"
)

// Today returns now formatted as a log date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// LogWeight appends a weight entry and keeps the log most-recent-first.
// Several entries may share a date.
func LogWeight(p models.Profile, entry models.WeightLog) models.Profile {
	p.Progress = appendSorted(p.Progress, entry, func(w models.WeightLog) time.Time {
		return parseDate(w.Date)
	})
	return p
}

// LogMeasurement appends a measurement entry. Entries without any measured
// body part are ignored.
func LogMeasurement(p models.Profile, entry models.MeasurementLog) models.Profile {
	if entry.Measurements.IsEmpty() {
		return p
	}
	p.Measurements = appendSorted(p.Measurements, entry, func(m models.MeasurementLog) time.Time {
		return parseDate(m.Date)
	})
	return p
}

// LogMeal appends a meal and orders the log by date and time; a missing
// time sorts as midnight.
func LogMeal(p models.Profile, entry models.MealLog) models.Profile {
	p.MealLogs = appendSorted(p.MealLogs, entry, mealMoment)
	return p
}

// LogWorkout appends a workout with each exercise reduced to the fields its
// type uses.
func LogWorkout(p models.Profile, entry models.WorkoutLog) models.Profile {
	exercises := make([]models.LoggedExercise, len(entry.Exercises))
	for i, ex := range entry.Exercises {
		exercises[i] = ex.Canonical()
	}
	entry.Exercises = exercises
	p.WorkoutLogs = appendSorted(p.WorkoutLogs, entry, func(w models.WorkoutLog) time.Time {
		return parseDate(w.Date)
	})
	return p
}

// LogWater adds amount to the entry for date, creating it when absent.
func LogWater(p models.Profile, date string, amount float64) models.Profile {
	logs := slices.Clone(p.WaterLogs)
	if logs == nil {
		logs = []models.WaterLog{}
	}
	i := slices.IndexFunc(logs, func(w models.WaterLog) bool { return w.Date == date })
	if i >= 0 {
		logs[i].Amount += amount
	} else {
		logs = append(logs, models.WaterLog{Date: date, Amount: amount})
	}
	p.WaterLogs = logs
	return p
}

// ToggleExercise marks name done for day, or removes the mark. The
// completion map stays sparse: "not done" is absence, never false.
func ToggleExercise(p models.Profile, day, name string, completed bool) models.Profile {
	if p.Plan == nil {
		return p
	}
	i := slices.IndexFunc(p.Plan.ExercisePlan, func(d models.DailyExercisePlan) bool { return d.Day == day })
	if i < 0 {
		return p
	}
	plan := *p.Plan
	plan.ExercisePlan = slices.Clone(p.Plan.ExercisePlan)

	target := plan.ExercisePlan[i]
	marks := make(map[string]bool, len(target.CompletedExercises)+1)
	for k, v := range target.CompletedExercises {
		marks[k] = v
	}
	if completed {
		marks[name] = true
	} else {
		delete(marks, name)
	}
	target.CompletedExercises = marks
	plan.ExercisePlan[i] = target

	p.Plan = &plan
	return p
}

// AppendExchange records one committed coach exchange: the user's message
// followed by the full model reply.
func AppendExchange(p models.Profile, userText, modelText string) models.Profile {
	history := make([]models.ChatContent, 0, len(p.ChatHistory)+2)
	history = append(history, p.ChatHistory...)
	history = append(history,
		models.NewChatContent(models.RoleUser, userText),
		models.NewChatContent(models.RoleModel, modelText),
	)
	p.ChatHistory = history
	return p
}

// ClearChatHistory drops every stored coach exchange.
func ClearChatHistory(p models.Profile) models.Profile {
	p.ChatHistory = []models.ChatContent{}
	return p
}

func appendSorted[T any](logs []T, entry T, moment func(T) time.Time) []T {
	out := make([]T, 0, len(logs)+1)
	out = append(out, logs...)
	out = append(out, entry)
	slices.SortStableFunc(out, func(a, b T) int {
		return moment(b).Compare(moment(a))
	})
	return out
}

func mealMoment(m models.MealLog) time.Time {
	return parseDateTime(m.Date, m.Time)
}

// parseDate returns the zero time for dates that do not parse, which sorts
// them after every valid entry.
func parseDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDateTime(date, clock string) time.Time {
	if clock == "" {
		clock = midnight
	}
	t, err := time.Parse(dateTimeLayout, date+"T"+clock)
	if err != nil {
		return parseDate(date)
	}
	return t
}
