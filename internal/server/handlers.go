package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/franckalain/wellnesscraft/internal/apperr"
	"github.com/franckalain/wellnesscraft/internal/chat"
	"github.com/franckalain/wellnesscraft/internal/journal"
	"github.com/franckalain/wellnesscraft/internal/models"
)

var errNoActiveProfile = errors.New("no active profile")

func (s *Server) handleMessage(c *client, msg inbound) {
	ctx := c.ctx
	var err error

	switch msg.Type {
	case msgGetState:
		s.sendState(c)
		c.enqueue(outbound{Type: msgChatState, Data: s.chat.View()})
	case msgCreateProfile:
		err = s.handleCreateProfile(c, msg.Data)
	case msgSelectProfile:
		err = s.handleSelectProfile(ctx, msg.Data)
	case msgDeleteProfile:
		err = s.handleDeleteProfile(ctx, msg.Data)
	case msgSwitchProfile:
		s.profiles.SwitchAway(ctx)
		s.chat.Bind(ctx, "")
		s.broadcastState()
	case msgLogWeight:
		err = s.handleLogWeight(ctx, msg.Data)
	case msgLogMeasurement:
		err = s.handleLogMeasurement(ctx, msg.Data)
	case msgLogMeal:
		err = s.handleLogMeal(ctx, msg.Data)
	case msgLogWorkout:
		err = s.handleLogWorkout(ctx, msg.Data)
	case msgLogWater:
		err = s.handleLogWater(ctx, msg.Data)
	case msgToggleExercise:
		err = s.handleToggleExercise(ctx, msg.Data)
	case msgClearChat:
		err = s.mutate(ctx, msg.Type, journal.ClearChatHistory)
		if err == nil {
			s.NotifyChat(s.chat.View())
		}
	case msgChatInput:
		err = s.handleChatInput(ctx, msg.Data)
	case msgChatSend:
		c.spawn(s.handleChatSend(c))
	case msgGenerateRecipe:
		err = s.handleGenerateRecipe(c, msg.Data)
	case msgGenerateShoppingList:
		err = s.handleGenerateShoppingList(c)
	case msgAnalyzeMealPhoto:
		err = s.handleAnalyzeMealPhoto(c, msg.Data)
	case msgGetSummary:
		err = s.handleGetSummary(c, msg.Data)
	default:
		err = apperr.E(apperr.KindValidation, "server.handleMessage", fmt.Errorf("unknown message type %q", msg.Type))
	}

	if err != nil {
		s.sendError(c, err)
	}
}

// decode unmarshals data into v and validates it.
func (s *Server) decode(op string, data json.RawMessage, v any) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.E(apperr.KindValidation, op, fmt.Errorf("invalid payload: %w", err))
	}
	if err := s.validate.Struct(v); err != nil {
		return apperr.E(apperr.KindValidation, op, err)
	}
	return nil
}

// mutate applies fn to the active profile and pushes the new state.
func (s *Server) mutate(ctx context.Context, op string, fn func(models.Profile) models.Profile) error {
	if _, ok := s.profiles.Mutate(ctx, fn); !ok {
		return apperr.E(apperr.KindNotFound, op, errNoActiveProfile)
	}
	s.broadcastState()
	return nil
}

func (s *Server) handleCreateProfile(c *client, data json.RawMessage) error {
	var req createProfileRequest
	if err := s.decode(msgCreateProfile, data, &req); err != nil {
		return err
	}
	c.spawn(func(ctx context.Context) {
		p, err := s.profiles.Create(ctx, req.Name, req.UserDetails)
		if err != nil {
			s.sendError(c, err)
			return
		}
		s.chat.Bind(ctx, p.ID)
		s.broadcastState()
	})
	return nil
}

func (s *Server) handleSelectProfile(ctx context.Context, data json.RawMessage) error {
	var req profileIDRequest
	if err := s.decode(msgSelectProfile, data, &req); err != nil {
		return err
	}
	if err := s.profiles.Select(ctx, req.ID); err != nil {
		return err
	}
	s.chat.Bind(ctx, req.ID)
	s.broadcastState()
	return nil
}

func (s *Server) handleDeleteProfile(ctx context.Context, data json.RawMessage) error {
	var req profileIDRequest
	if err := s.decode(msgDeleteProfile, data, &req); err != nil {
		return err
	}
	wasActive := s.profiles.ActiveID() == req.ID
	if err := s.profiles.Delete(ctx, req.ID); err != nil {
		return err
	}
	if wasActive {
		s.chat.Bind(ctx, "")
	}
	s.broadcastState()
	return nil
}

func (s *Server) handleLogWeight(ctx context.Context, data json.RawMessage) error {
	var entry models.WeightLog
	if err := s.decode(msgLogWeight, data, &entry); err != nil {
		return err
	}
	return s.mutate(ctx, msgLogWeight, func(p models.Profile) models.Profile {
		return journal.LogWeight(p, entry)
	})
}

func (s *Server) handleLogMeasurement(ctx context.Context, data json.RawMessage) error {
	var entry models.MeasurementLog
	if err := s.decode(msgLogMeasurement, data, &entry); err != nil {
		return err
	}
	entry.ID = uuid.NewString()
	return s.mutate(ctx, msgLogMeasurement, func(p models.Profile) models.Profile {
		return journal.LogMeasurement(p, entry)
	})
}

func (s *Server) handleLogMeal(ctx context.Context, data json.RawMessage) error {
	var entry models.MealLog
	if err := s.decode(msgLogMeal, data, &entry); err != nil {
		return err
	}
	entry.ID = uuid.NewString()
	return s.mutate(ctx, msgLogMeal, func(p models.Profile) models.Profile {
		return journal.LogMeal(p, entry)
	})
}

func (s *Server) handleLogWorkout(ctx context.Context, data json.RawMessage) error {
	var entry models.WorkoutLog
	if err := s.decode(msgLogWorkout, data, &entry); err != nil {
		return err
	}
	entry.ID = uuid.NewString()
	for i := range entry.Exercises {
		entry.Exercises[i].ID = uuid.NewString()
	}
	return s.mutate(ctx, msgLogWorkout, func(p models.Profile) models.Profile {
		return journal.LogWorkout(p, entry)
	})
}

func (s *Server) handleLogWater(ctx context.Context, data json.RawMessage) error {
	var req logWaterRequest
	if err := s.decode(msgLogWater, data, &req); err != nil {
		return err
	}
	return s.mutate(ctx, msgLogWater, func(p models.Profile) models.Profile {
		return journal.LogWater(p, req.Date, req.Amount)
	})
}

func (s *Server) handleToggleExercise(ctx context.Context, data json.RawMessage) error {
	var req toggleExerciseRequest
	if err := s.decode(msgToggleExercise, data, &req); err != nil {
		return err
	}
	return s.mutate(ctx, msgToggleExercise, func(p models.Profile) models.Profile {
		return journal.ToggleExercise(p, req.Day, req.Name, req.Completed)
	})
}

func (s *Server) handleChatInput(ctx context.Context, data json.RawMessage) error {
	var req chatInputRequest
	if err := s.decode(msgChatInput, data, &req); err != nil {
		return err
	}
	s.chat.SetInput(ctx, req.Text)
	return nil
}

func (s *Server) handleChatSend(c *client) func(ctx context.Context) {
	return func(ctx context.Context) {
		err := s.chat.Submit(ctx, func(chunk string) {
			s.broadcast(outbound{Type: msgChatToken, Data: chatToken{Chunk: chunk}})
		})
		switch {
		case err == nil:
			s.broadcast(outbound{Type: msgChatCommitted, Data: s.chat.View()})
			s.broadcastState()
		case errors.Is(err, apperr.Stream):
			resp := apperr.ToResponse(err)
			s.broadcast(outbound{Type: msgChatError, Code: resp.Code, Message: resp.Message})
		case errors.Is(err, chat.ErrSuperseded):
			s.logger.Info("Chat exchange superseded by profile switch")
		default:
			s.sendError(c, err)
		}
	}
}

func (s *Server) handleGenerateRecipe(c *client, data json.RawMessage) error {
	var prefs models.RecipePreferences
	if err := s.decode(msgGenerateRecipe, data, &prefs); err != nil {
		return err
	}
	c.spawn(func(ctx context.Context) {
		recipe, err := s.tools.GenerateRecipe(ctx, prefs)
		if err != nil {
			s.sendError(c, err)
			return
		}
		c.enqueue(outbound{Type: msgRecipe, Data: recipe})
	})
	return nil
}

func (s *Server) handleGenerateShoppingList(c *client) error {
	p, ok := s.profiles.Active()
	if !ok || p.Plan == nil {
		return apperr.E(apperr.KindNotFound, msgGenerateShoppingList, errors.New("no active plan"))
	}
	mealPlan := p.Plan.MealPlan
	c.spawn(func(ctx context.Context) {
		list, err := s.tools.GenerateShoppingList(ctx, mealPlan)
		if err != nil {
			s.sendError(c, err)
			return
		}
		c.enqueue(outbound{Type: msgShoppingList, Data: list})
	})
	return nil
}

func (s *Server) handleAnalyzeMealPhoto(c *client, data json.RawMessage) error {
	var req mealPhotoRequest
	if err := s.decode(msgAnalyzeMealPhoto, data, &req); err != nil {
		return err
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return apperr.E(apperr.KindValidation, msgAnalyzeMealPhoto, fmt.Errorf("invalid image encoding: %w", err))
	}
	c.spawn(func(ctx context.Context) {
		analysis, err := s.tools.AnalyzeMealPhoto(ctx, image, req.MimeType)
		if err != nil {
			s.sendError(c, err)
			return
		}
		c.enqueue(outbound{Type: msgMealAnalysis, Data: analysis})
	})
	return nil
}

func (s *Server) handleGetSummary(c *client, data json.RawMessage) error {
	var req summaryRequest
	if err := s.decode(msgGetSummary, data, &req); err != nil {
		return err
	}
	p, ok := s.profiles.Active()
	if !ok {
		return apperr.E(apperr.KindNotFound, msgGetSummary, errNoActiveProfile)
	}
	date := req.Date
	if date == "" {
		date = journal.Today(s.now())
	}
	c.enqueue(outbound{Type: msgSummary, Data: journal.Summarize(p, date)})
	return nil
}

func (s *Server) currentState() stateView {
	profiles := s.profiles.Profiles()
	view := stateView{
		Profiles: make([]profileSummary, 0, len(profiles)),
		Timeline: []journal.TimelineEntry{},
	}
	for _, p := range profiles {
		view.Profiles = append(view.Profiles, profileSummary{ID: p.ID, Name: p.Name, Avatar: p.Avatar, HasPlan: p.HasDashboard()})
	}
	if active, ok := s.profiles.Active(); ok {
		view.ActiveProfileID = active.ID
		view.ActiveProfile = &active
		view.Timeline = journal.Timeline(active)
	}
	return view
}

func (s *Server) sendState(c *client) {
	c.enqueue(outbound{Type: msgState, Data: s.currentState()})
}

func (s *Server) broadcastState() {
	s.broadcast(outbound{Type: msgState, Data: s.currentState()})
}

func (s *Server) sendError(c *client, err error) {
	resp := apperr.ToResponse(err)
	if resp.Code == string(apperr.KindUnknown) {
		s.logger.Error("Request failed", "error", err, "client_id", c.id)
	} else {
		s.logger.Debug("Request rejected", "error", err, "code", resp.Code, "client_id", c.id)
	}
	c.enqueue(outbound{Type: msgError, Code: resp.Code, Message: resp.Message})
}
