package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franckalain/wellnesscraft/internal/chat"
	"github.com/franckalain/wellnesscraft/internal/database"
	"github.com/franckalain/wellnesscraft/internal/logging"
	"github.com/franckalain/wellnesscraft/internal/models"
	"github.com/franckalain/wellnesscraft/internal/profile"
)

type fakeGenerator struct {
	generatePlan     func(ctx context.Context, details models.UserDetails) (*models.Plan, error)
	analyzeMealPhoto func(ctx context.Context, image []byte, mimeType string) (*models.MealAnalysis, error)
	streamChatReply  func(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error]
}

func (f *fakeGenerator) GeneratePlan(ctx context.Context, details models.UserDetails) (*models.Plan, error) {
	if f.generatePlan == nil {
		return &models.Plan{
			Summary:      "Plan",
			ExercisePlan: []models.DailyExercisePlan{{Day: "Monday", WorkoutType: "Strength", Exercises: []models.Exercise{{Name: "Squats"}}}},
		}, nil
	}
	return f.generatePlan(ctx, details)
}

func (f *fakeGenerator) GenerateRecipe(context.Context, models.RecipePreferences) (*models.Recipe, error) {
	return &models.Recipe{RecipeName: "Chakalaka"}, nil
}

func (f *fakeGenerator) GenerateShoppingList(context.Context, []models.DailyMealPlan) (*models.ShoppingList, error) {
	return &models.ShoppingList{Categories: []models.ShoppingListCategory{}}, nil
}

func (f *fakeGenerator) AnalyzeMealPhoto(ctx context.Context, image []byte, mimeType string) (*models.MealAnalysis, error) {
	return f.analyzeMealPhoto(ctx, image, mimeType)
}

func (f *fakeGenerator) StreamChatReply(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error] {
	return f.streamChatReply(ctx, details, history, message)
}

type frame struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T, gen *fakeGenerator) *httptest.Server {
	t.Helper()
	store := database.NewMemoryStore()
	repo := profile.NewRepository(store, gen, logging.Discard())

	var srv *Server
	engine := chat.NewEngine(repo, gen, store, logging.Discard(), chat.WithNotify(func(v chat.View) {
		srv.NotifyChat(v)
	}))
	srv = New(repo, engine, gen, logging.Discard())

	ts := httptest.NewServer(srv.Handler(""))
	t.Cleanup(func() {
		srv.CloseClients()
		ts.Close()
	})
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "data": data}))
}

// await reads frames until one of type typ arrives.
func await(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %s", typ)
		if f.Type == typ {
			return f
		}
	}
}

func validDetails() map[string]any {
	day := map[string]string{"activity": "Walk", "duration": "30 min"}
	return map[string]any{
		"age": "41", "gender": "female", "weight": "68", "height": "165",
		"goal": "maintain", "activityLevel": "light", "budget": "standard",
		"weeklySchedule": map[string]any{
			"monday": day, "tuesday": day, "wednesday": day, "thursday": day,
			"friday": day, "saturday": day, "sunday": day,
		},
	}
}

func createProfile(t *testing.T, conn *websocket.Conn) stateView {
	t.Helper()
	send(t, conn, msgCreateProfile, map[string]any{"name": "Naledi", "userDetails": validDetails()})
	var state stateView
	require.NoError(t, json.Unmarshal(await(t, conn, msgState).Data, &state))
	require.NotEmpty(t, state.ActiveProfileID)
	return state
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestCreateProfileAndLogWater(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})
	conn := dial(t, ts)

	state := createProfile(t, conn)
	require.Len(t, state.Profiles, 1)
	assert.Equal(t, "Naledi", state.Profiles[0].Name)
	assert.True(t, state.Profiles[0].HasPlan)

	send(t, conn, msgLogWater, map[string]any{"date": "2024-01-01", "amount": 250})
	await(t, conn, msgState)
	send(t, conn, msgLogWater, map[string]any{"date": "2024-01-01", "amount": 500})
	require.NoError(t, json.Unmarshal(await(t, conn, msgState).Data, &state))

	assert.Equal(t, []models.WaterLog{{Date: "2024-01-01", Amount: 750}}, state.ActiveProfile.WaterLogs)
}

func TestValidationAndLookupErrors(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})
	conn := dial(t, ts)

	send(t, conn, msgCreateProfile, map[string]any{"name": "Incomplete", "userDetails": map[string]any{"age": "x"}})
	f := await(t, conn, msgError)
	assert.Equal(t, "validation_failed", f.Code)

	send(t, conn, msgLogWater, map[string]any{"date": "2024-01-01", "amount": 250})
	f = await(t, conn, msgError)
	assert.Equal(t, "not_found", f.Code)

	send(t, conn, msgSelectProfile, map[string]any{"id": "missing"})
	f = await(t, conn, msgError)
	assert.Equal(t, "not_found", f.Code)

	send(t, conn, "scan", nil)
	f = await(t, conn, msgError)
	assert.Equal(t, "validation_failed", f.Code)
}

func TestCreateProfileGenerationFailure(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{generatePlan: func(context.Context, models.UserDetails) (*models.Plan, error) {
		return nil, errors.New("quota exceeded")
	}})
	conn := dial(t, ts)

	send(t, conn, msgCreateProfile, map[string]any{"name": "Naledi", "userDetails": validDetails()})
	f := await(t, conn, msgError)
	assert.Equal(t, "generation_failed", f.Code)
}

func TestChatSendStreamsAndCommits(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{
		streamChatReply: func(_ context.Context, _ models.UserDetails, _ []models.ChatContent, message string) iter.Seq2[string, error] {
			return func(yield func(string, error) bool) {
				for _, chunk := range []string{"Stay ", "hydrated."} {
					if !yield(chunk, nil) {
						return
					}
				}
			}
		},
	})
	conn := dial(t, ts)
	createProfile(t, conn)

	send(t, conn, msgChatInput, map[string]any{"text": "Any tips?"})
	send(t, conn, msgChatSend, nil)

	var tokens []string
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == msgChatToken {
			var tok chatToken
			require.NoError(t, json.Unmarshal(f.Data, &tok))
			tokens = append(tokens, tok.Chunk)
		}
		if f.Type == msgChatCommitted {
			var view chat.View
			require.NoError(t, json.Unmarshal(f.Data, &view))
			require.Len(t, view.Transcript, 2)
			assert.Equal(t, "Stay hydrated.", view.Transcript[1].Text())
			break
		}
	}
	assert.Equal(t, []string{"Stay ", "hydrated."}, tokens)
}

func TestChatSendFailureReportsChatError(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{
		streamChatReply: func(context.Context, models.UserDetails, []models.ChatContent, string) iter.Seq2[string, error] {
			return func(yield func(string, error) bool) {
				yield("", errors.New("upstream reset"))
			}
		},
	})
	conn := dial(t, ts)
	createProfile(t, conn)

	send(t, conn, msgChatInput, map[string]any{"text": "Hello"})
	send(t, conn, msgChatSend, nil)

	f := await(t, conn, msgChatError)
	assert.Equal(t, "stream_failed", f.Code)
}

func TestAnalyzeMealPhoto(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{
		analyzeMealPhoto: func(_ context.Context, image []byte, mimeType string) (*models.MealAnalysis, error) {
			assert.Equal(t, []byte("jpeg-bytes"), image)
			assert.Equal(t, "image/jpeg", mimeType)
			return &models.MealAnalysis{Description: "Bunny chow", Calories: 850}, nil
		},
	})
	conn := dial(t, ts)

	send(t, conn, msgAnalyzeMealPhoto, map[string]any{
		"image":    base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
		"mimeType": "image/jpeg",
	})
	var analysis models.MealAnalysis
	require.NoError(t, json.Unmarshal(await(t, conn, msgMealAnalysis).Data, &analysis))
	assert.Equal(t, "Bunny chow", analysis.Description)

	send(t, conn, msgAnalyzeMealPhoto, map[string]any{"image": "%%%", "mimeType": "image/jpeg"})
	assert.Equal(t, "validation_failed", await(t, conn, msgError).Code)
}

func TestGetSummary(t *testing.T) {
	ts := newTestServer(t, &fakeGenerator{})
	conn := dial(t, ts)
	createProfile(t, conn)

	send(t, conn, msgLogMeal, map[string]any{"date": "2024-01-01", "time": "12:30", "mealType": "Lunch", "description": "Samp and beans", "calories": 540.5})
	await(t, conn, msgState)
	send(t, conn, msgToggleExercise, map[string]any{"day": "Monday", "name": "Squats", "completed": true})
	await(t, conn, msgState)

	send(t, conn, msgGetSummary, map[string]any{"date": "2024-01-01"})
	var summary struct {
		Calories           float64 `json:"calories"`
		CompletedExercises int     `json:"completedExercises"`
	}
	require.NoError(t, json.Unmarshal(await(t, conn, msgSummary).Data, &summary))
	assert.Equal(t, 540.5, summary.Calories, "fractional calories from a photo analysis are accepted")
	assert.Equal(t, 1, summary.CompletedExercises)
}
