package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type WeightLog struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Weight string `json:"weight" validate:"required,numeric"`
}

// UnmarshalJSON accepts the weight as a string or as a bare number, which
// some older records hold.
func (w *WeightLog) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date   string          `json:"date"`
		Weight json.RawMessage `json:"weight"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Date = raw.Date
	w.Weight = ""

	weight := bytes.TrimSpace(raw.Weight)
	switch {
	case len(weight) == 0 || string(weight) == "null":
	case weight[0] == '"':
		return json.Unmarshal(weight, &w.Weight)
	default:
		var n json.Number
		if err := json.Unmarshal(weight, &n); err != nil {
			return fmt.Errorf("weight: %w", err)
		}
		w.Weight = n.String()
	}
	return nil
}

// BodyMeasurements is a partial set of body-part readings.
type BodyMeasurements struct {
	Chest      string `json:"chest,omitempty"`
	Waist      string `json:"waist,omitempty"`
	Hips       string `json:"hips,omitempty"`
	LeftArm    string `json:"leftArm,omitempty"`
	RightArm   string `json:"rightArm,omitempty"`
	LeftThigh  string `json:"leftThigh,omitempty"`
	RightThigh string `json:"rightThigh,omitempty"`
}

// IsEmpty reports whether no body part was measured.
func (m BodyMeasurements) IsEmpty() bool {
	return m == BodyMeasurements{}
}

type MeasurementLog struct {
	ID           string           `json:"id"`
	Date         string           `json:"date" validate:"required,datetime=2006-01-02"`
	Measurements BodyMeasurements `json:"measurements"`
}

const (
	MealBreakfast = "Breakfast"
	MealLunch     = "Lunch"
	MealDinner    = "Dinner"
	MealSnack     = "Snack"
)

type MealLog struct {
	ID          string   `json:"id"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string   `json:"time" validate:"omitempty,datetime=15:04"`
	MealType    string   `json:"mealType" validate:"required,oneof=Breakfast Lunch Dinner Snack"`
	Description string   `json:"description" validate:"required"`
	Calories    *float64 `json:"calories,omitempty" validate:"omitempty,gte=0"`
}

const (
	ExerciseStrength = "Strength"
	ExerciseCardio   = "Cardio"
)

type LoggedExerciseSet struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// LoggedExercise is a tagged variant: Strength uses Sets, Cardio uses
// Duration (minutes) and Distance (km). The unused fields stay present
// but zeroed.
type LoggedExercise struct {
	ID       string              `json:"id"`
	Name     string              `json:"name" validate:"required"`
	Type     string              `json:"type" validate:"required,oneof=Strength Cardio"`
	Sets     []LoggedExerciseSet `json:"sets"`
	Duration float64             `json:"duration"`
	Distance float64             `json:"distance"`
}

// Canonical zeroes the fields the type tag makes meaningless.
func (e LoggedExercise) Canonical() LoggedExercise {
	switch e.Type {
	case ExerciseCardio:
		e.Sets = []LoggedExerciseSet{}
	default:
		e.Sets = append([]LoggedExerciseSet{}, e.Sets...)
		e.Duration = 0
		e.Distance = 0
	}
	return e
}

type WorkoutLog struct {
	ID        string           `json:"id"`
	Date      string           `json:"date" validate:"required,datetime=2006-01-02"`
	Exercises []LoggedExercise `json:"exercises" validate:"required,min=1,dive"`
	Notes     string           `json:"notes,omitempty"`
}

// WaterLog holds the total intake for one date, in ml.
type WaterLog struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}
