package server

import (
	"encoding/json"

	"github.com/franckalain/wellnesscraft/internal/journal"
	"github.com/franckalain/wellnesscraft/internal/models"
)

// Client to server message types.
const (
	msgGetState             = "get_state"
	msgCreateProfile        = "create_profile"
	msgSelectProfile        = "select_profile"
	msgDeleteProfile        = "delete_profile"
	msgSwitchProfile        = "switch_profile"
	msgLogWeight            = "log_weight"
	msgLogMeasurement       = "log_measurement"
	msgLogMeal              = "log_meal"
	msgLogWorkout           = "log_workout"
	msgLogWater             = "log_water"
	msgToggleExercise       = "toggle_exercise"
	msgClearChat            = "clear_chat"
	msgChatInput            = "chat_input"
	msgChatSend             = "chat_send"
	msgGenerateRecipe       = "generate_recipe"
	msgGenerateShoppingList = "generate_shopping_list"
	msgAnalyzeMealPhoto     = "analyze_meal_photo"
	msgGetSummary           = "get_summary"
)

// Server to client message types.
const (
	msgState         = "state"
	msgChatState     = "chat_state"
	msgChatToken     = "chat_token"
	msgChatCommitted = "chat_committed"
	msgChatError     = "chat_error"
	msgRecipe        = "recipe"
	msgShoppingList  = "shopping_list"
	msgMealAnalysis  = "meal_analysis"
	msgSummary       = "summary"
	msgError         = "error"
)

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outbound struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type createProfileRequest struct {
	Name        string             `json:"name" validate:"required,max=80"`
	UserDetails models.UserDetails `json:"userDetails"`
}

type profileIDRequest struct {
	ID string `json:"id" validate:"required"`
}

type logWaterRequest struct {
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

type toggleExerciseRequest struct {
	Day       string `json:"day" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Completed bool   `json:"completed"`
}

type chatInputRequest struct {
	Text string `json:"text"`
}

type mealPhotoRequest struct {
	// Image is the base64 encoded photo.
	Image    string `json:"image" validate:"required,base64"`
	MimeType string `json:"mimeType" validate:"required,startswith=image/"`
}

type summaryRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type chatToken struct {
	Chunk string `json:"chunk"`
}

// profileSummary is the profile selection entry for a profile.
type profileSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	HasPlan bool   `json:"hasPlan"`
}

// stateView is everything a client renders outside the chat.
type stateView struct {
	Profiles        []profileSummary        `json:"profiles"`
	ActiveProfileID string                  `json:"activeProfileId"`
	ActiveProfile   *models.Profile         `json:"activeProfile"`
	Timeline        []journal.TimelineEntry `json:"timeline"`
}
