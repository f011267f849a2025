// Package schema upgrades persisted profile records of any earlier vintage
// to the current shape.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/franckalain/wellnesscraft/internal/models"
)

// Normalize decodes a persisted profile array and upgrades every entry.
// Falsy entries (null holes and the like) and entries that are not profile
// objects are dropped and counted. A profile object with a field of the
// wrong type is kept: the field is reset, or for a log collection only the
// unreadable records are skipped. An error is returned only when raw is not
// a JSON array at all.
func Normalize(raw []byte) ([]models.Profile, int, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, 0, fmt.Errorf("decode profile set: %w", err)
	}

	profiles := make([]models.Profile, 0, len(entries))
	dropped := 0
	for _, entry := range entries {
		if isFalsy(entry) {
			dropped++
			continue
		}
		var p models.Profile
		if err := json.Unmarshal(entry, &p); err != nil {
			var ok bool
			if p, ok = decodeLenient(entry); !ok {
				dropped++
				continue
			}
		}
		profiles = append(profiles, NormalizeProfile(p))
	}
	return profiles, dropped, nil
}

// NormalizeProfile fills every collection and plan field that older
// records may lack. It is idempotent.
func NormalizeProfile(p models.Profile) models.Profile {
	if p.Progress == nil {
		p.Progress = []models.WeightLog{}
	}
	if p.Measurements == nil {
		p.Measurements = []models.MeasurementLog{}
	}
	if p.MealLogs == nil {
		p.MealLogs = []models.MealLog{}
	}
	if p.WorkoutLogs == nil {
		p.WorkoutLogs = []models.WorkoutLog{}
	}
	if p.WaterLogs == nil {
		p.WaterLogs = []models.WaterLog{}
	}
	if p.ChatHistory == nil {
		p.ChatHistory = []models.ChatContent{}
	}
	if p.Plan != nil {
		p.Plan = normalizePlan(p.Plan)
	}
	return p
}

func normalizePlan(in *models.Plan) *models.Plan {
	plan := in.Clone()
	for i := range plan.ExercisePlan {
		if plan.ExercisePlan[i].CompletedExercises == nil {
			plan.ExercisePlan[i].CompletedExercises = map[string]bool{}
		}
	}
	if plan.DailyCalorieGoal == 0 {
		plan.DailyCalorieGoal = models.DefaultCalorieGoal
	}
	if plan.DailyWaterGoal == 0 {
		plan.DailyWaterGoal = models.DefaultWaterGoal
	}
	if plan.StretchingPlan == nil {
		plan.StretchingPlan = models.DefaultStretchingRoutine()
	} else if plan.StretchingPlan.Stretches == nil {
		plan.StretchingPlan.Stretches = []models.Stretch{}
	}
	return plan
}

// decodeLenient reads a profile field by field. It fails only when entry is
// not an object or carries no id.
func decodeLenient(entry json.RawMessage) (models.Profile, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return models.Profile{}, false
	}

	var p models.Profile
	decodeField(fields, "id", &p.ID)
	if p.ID == "" {
		return models.Profile{}, false
	}
	decodeField(fields, "name", &p.Name)
	decodeField(fields, "avatar", &p.Avatar)
	decodeField(fields, "userDetails", &p.UserDetails)
	decodeField(fields, "plan", &p.Plan)
	p.Progress = decodeRecords[models.WeightLog](fields, "progress")
	p.Measurements = decodeRecords[models.MeasurementLog](fields, "measurements")
	p.MealLogs = decodeRecords[models.MealLog](fields, "mealLogs")
	p.WorkoutLogs = decodeRecords[models.WorkoutLog](fields, "workoutLogs")
	p.WaterLogs = decodeRecords[models.WaterLog](fields, "waterLogs")
	p.ChatHistory = decodeRecords[models.ChatContent](fields, "chatHistory")
	return p, true
}

// decodeField sets *dst only when the field decodes cleanly.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

func decodeRecords[T any](fields map[string]json.RawMessage, key string) []T {
	var raws []json.RawMessage
	if err := json.Unmarshal(fields[key], &raws); err != nil {
		return nil
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func isFalsy(entry json.RawMessage) bool {
	switch string(bytes.TrimSpace(entry)) {
	case "null", "false", "0", `""`:
		return true
	}
	return false
}
