// Package ml is the client side of the content generation service: plan,
// recipe and shopping list generation, meal photo analysis and streamed
// coach replies.
package ml

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/franckalain/wellnesscraft/internal/apperr"
	"github.com/franckalain/wellnesscraft/internal/models"
)

// Backend types selectable through configuration.
const (
	TypeVertex = "vertex"
	TypeGemini = "gemini"
)

const (
	DefaultModel = "gemini-2.5-flash"

	planTemperature   = 0.5
	recipeTemperature = 0.7
)

// Generator is a stateless client of the generation service. Every
// failure is reported as an apperr generation error.
type Generator interface {
	GeneratePlan(ctx context.Context, details models.UserDetails) (*models.Plan, error)
	GenerateRecipe(ctx context.Context, prefs models.RecipePreferences) (*models.Recipe, error)
	GenerateShoppingList(ctx context.Context, mealPlan []models.DailyMealPlan) (*models.ShoppingList, error)
	AnalyzeMealPhoto(ctx context.Context, image []byte, mimeType string) (*models.MealAnalysis, error)
	// StreamChatReply streams the coach's reply to message given the prior
	// history. The sequence is lazy and can only be ranged over once; an
	// error may arrive before the first chunk or between chunks and ends it.
	StreamChatReply(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error]
	Close() error
}

// GeneratorFactory creates a connected Generator.
type GeneratorFactory interface {
	CreateGenerator(ctx context.Context) (Generator, error)
}

// Options selects and configures a backend.
type Options struct {
	Type       string
	Model      string
	ConfigPath string
}

// NewGenerator loads the configuration of the selected backend and
// connects it.
func NewGenerator(ctx context.Context, opts Options, logger *slog.Logger) (Generator, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	logger = logger.With(slog.String("backend", opts.Type), slog.String("model", model))

	var factory GeneratorFactory
	switch opts.Type {
	case TypeVertex:
		config := VertexConfig{BaseConfig: BaseConfig{ConfigPath: opts.ConfigPath}}
		if err := config.Load(logger); err != nil {
			return nil, fmt.Errorf("failed to load vertex config: %w", err)
		}
		factory = NewVertexFactory(config, model, logger)
	case TypeGemini:
		config := GeminiConfig{BaseConfig: BaseConfig{ConfigPath: opts.ConfigPath}}
		if err := config.Load(logger); err != nil {
			return nil, fmt.Errorf("failed to load gemini config: %w", err)
		}
		factory = NewGeminiFactory(config, model, logger)
	default:
		return nil, fmt.Errorf("unsupported generator type: %s", opts.Type)
	}
	return factory.CreateGenerator(ctx)
}

func generationError(op string, err error) error {
	return apperr.E(apperr.KindGeneration, op, err)
}
