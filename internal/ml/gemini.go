package ml

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"

	"github.com/franckalain/wellnesscraft/internal/models"
)

// GeminiFactory implements GeneratorFactory for the Gemini API.
type GeminiFactory struct {
	config GeminiConfig
	model  string
	logger *slog.Logger
}

func NewGeminiFactory(config GeminiConfig, model string, logger *slog.Logger) *GeminiFactory {
	return &GeminiFactory{config: config, model: model, logger: logger}
}

// CreateGenerator builds a Gemini API client authenticated by API key.
func (f *GeminiFactory) CreateGenerator(ctx context.Context) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  f.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	f.logger.Info("Gemini API client ready")
	return &GeminiGenerator{client: client, model: f.model, logger: f.logger}, nil
}

// GeminiGenerator implements Generator on the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func geminiJSON[T any](ctx context.Context, g *GeminiGenerator, contents []*genai.Content, schema *schemaNode, temperature *float32) (*T, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiSchema(schema),
		Temperature:      temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call model: %w", err)
	}
	return decodeJSON[T](resp.Text(), schema)
}

func (g *GeminiGenerator) GeneratePlan(ctx context.Context, details models.UserDetails) (*models.Plan, error) {
	plan, err := geminiJSON[models.Plan](ctx, g, genai.Text(planPrompt(details)), planSchema, genai.Ptr(float32(planTemperature)))
	if err != nil {
		g.logger.Error("Plan generation failed", "error", err)
		return nil, generationError("ml.GeneratePlan", err)
	}
	return plan, nil
}

func (g *GeminiGenerator) GenerateRecipe(ctx context.Context, prefs models.RecipePreferences) (*models.Recipe, error) {
	recipe, err := geminiJSON[models.Recipe](ctx, g, genai.Text(recipePrompt(prefs)), recipeSchema, genai.Ptr(float32(recipeTemperature)))
	if err != nil {
		g.logger.Error("Recipe generation failed", "error", err)
		return nil, generationError("ml.GenerateRecipe", err)
	}
	return recipe, nil
}

func (g *GeminiGenerator) GenerateShoppingList(ctx context.Context, mealPlan []models.DailyMealPlan) (*models.ShoppingList, error) {
	prompt, err := shoppingListPrompt(mealPlan)
	if err != nil {
		return nil, generationError("ml.GenerateShoppingList", err)
	}
	list, err := geminiJSON[models.ShoppingList](ctx, g, genai.Text(prompt), shoppingListSchema, nil)
	if err != nil {
		g.logger.Error("Shopping list generation failed", "error", err)
		return nil, generationError("ml.GenerateShoppingList", err)
	}
	return list, nil
}

func (g *GeminiGenerator) AnalyzeMealPhoto(ctx context.Context, image []byte, mimeType string) (*models.MealAnalysis, error) {
	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(mealPhotoPrompt),
	}, genai.RoleUser)}
	analysis, err := geminiJSON[models.MealAnalysis](ctx, g, contents, mealAnalysisSchema, nil)
	if err != nil {
		g.logger.Error("Meal photo analysis failed", "error", err, "mime_type", mimeType)
		return nil, generationError("ml.AnalyzeMealPhoto", err)
	}
	return analysis, nil
}

func (g *GeminiGenerator) StreamChatReply(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		instruction, err := coachInstruction(details)
		if err != nil {
			yield("", generationError("ml.StreamChatReply", err))
			return
		}

		contents := make([]*genai.Content, 0, len(history)+1)
		for _, c := range history {
			contents = append(contents, genai.NewContentFromText(c.Text(), roleForContent(c.Role)))
		}
		contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

		config := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		}
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				g.logger.Warn("Chat stream failed", "error", err)
				yield("", generationError("ml.StreamChatReply", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// Close is a no-op: the Gemini client holds no releasable resources.
func (g *GeminiGenerator) Close() error {
	return nil
}

func roleForContent(role string) genai.Role {
	if role == models.RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func geminiSchema(n *schemaNode) *genai.Schema {
	s := &genai.Schema{Description: n.description, Required: n.required}
	switch n.kind {
	case kindString:
		s.Type = genai.TypeString
	case kindNumber:
		s.Type = genai.TypeNumber
	case kindArray:
		s.Type = genai.TypeArray
	case kindObject:
		s.Type = genai.TypeObject
	}
	if n.items != nil {
		s.Items = geminiSchema(n.items)
	}
	if len(n.properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(n.properties))
		for name, prop := range n.properties {
			s.Properties[name] = geminiSchema(prop)
		}
	}
	return s
}
