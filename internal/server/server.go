// Package server exposes the journal to a local UI over a WebSocket.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/franckalain/wellnesscraft/internal/chat"
	"github.com/franckalain/wellnesscraft/internal/models"
)

const serviceName = "wellnesscraft"

// Profiles is the profile repository as seen by the transport.
type Profiles interface {
	Profiles() []models.Profile
	Active() (models.Profile, bool)
	ActiveID() string
	Create(ctx context.Context, name string, details models.UserDetails) (models.Profile, error)
	Select(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	SwitchAway(ctx context.Context)
	Mutate(ctx context.Context, fn func(models.Profile) models.Profile) (models.Profile, bool)
}

// Chat is the coach session engine as seen by the transport.
type Chat interface {
	Bind(ctx context.Context, profileID string)
	SetInput(ctx context.Context, text string)
	Submit(ctx context.Context, onToken func(chunk string)) error
	View() chat.View
}

// Tools are the one-shot generation features.
type Tools interface {
	GenerateRecipe(ctx context.Context, prefs models.RecipePreferences) (*models.Recipe, error)
	GenerateShoppingList(ctx context.Context, mealPlan []models.DailyMealPlan) (*models.ShoppingList, error)
	AnalyzeMealPhoto(ctx context.Context, image []byte, mimeType string) (*models.MealAnalysis, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Served to a local UI only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	profiles Profiles
	chat     Chat
	tools    Tools
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time

	clients sync.Map // client id -> *client
}

func New(profiles Profiles, engine Chat, tools Tools, logger *slog.Logger) *Server {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		profiles: profiles,
		chat:     engine,
		tools:    tools,
		logger:   logger,
		validate: validate,
		now:      time.Now,
	}
}

// Handler returns the router serving the health check, the WebSocket
// endpoint and the static UI.
func (s *Server) Handler(staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}
	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Profiles int    `json:"profiles"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Service: serviceName, Profiles: len(s.profiles.Profiles())})
}

// NotifyChat forwards chat engine changes to every connected client. Pass
// it to chat.WithNotify.
func (s *Server) NotifyChat(v chat.View) {
	s.broadcast(outbound{Type: msgChatState, Data: v})
}

// CloseClients disconnects every WebSocket client. Register it with
// http.Server.RegisterOnShutdown; hijacked connections are not closed by
// Shutdown.
func (s *Server) CloseClients() {
	s.clients.Range(func(_, value any) bool {
		value.(*client).close()
		return true
	})
}

func (s *Server) broadcast(msg outbound) {
	s.clients.Range(func(_, value any) bool {
		value.(*client).enqueue(msg)
		return true
	})
}
