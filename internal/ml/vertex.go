package ml

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/franckalain/wellnesscraft/internal/models"
)

// VertexFactory implements GeneratorFactory for Vertex AI.
type VertexFactory struct {
	config VertexConfig
	model  string
	logger *slog.Logger
}

func NewVertexFactory(config VertexConfig, model string, logger *slog.Logger) *VertexFactory {
	return &VertexFactory{config: config, model: model, logger: logger}
}

// CreateGenerator connects to Vertex AI.
func (f *VertexFactory) CreateGenerator(ctx context.Context) (Generator, error) {
	opts := []option.ClientOption{}
	if f.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(f.config.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, f.config.ProjectID, f.config.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	f.logger.Info("Vertex AI client ready", "project", f.config.ProjectID, "location", f.config.Location)
	return &VertexGenerator{client: client, model: f.model, logger: f.logger}, nil
}

// VertexGenerator implements Generator on Vertex AI.
type VertexGenerator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func (g *VertexGenerator) jsonModel(schema *schemaNode, temperature float32) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.model)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = vertexSchema(schema)
	if temperature > 0 {
		m.SetTemperature(temperature)
	}
	return m
}

func vertexJSON[T any](ctx context.Context, m *genai.GenerativeModel, schema *schemaNode, parts ...genai.Part) (*T, error) {
	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to call model: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response generated")
	}
	text := vertexText(resp)
	if text == "" {
		return nil, errors.New("no content in response")
	}
	return decodeJSON[T](text, schema)
}

func (g *VertexGenerator) GeneratePlan(ctx context.Context, details models.UserDetails) (*models.Plan, error) {
	plan, err := vertexJSON[models.Plan](ctx, g.jsonModel(planSchema, planTemperature), planSchema, genai.Text(planPrompt(details)))
	if err != nil {
		g.logger.Error("Plan generation failed", "error", err)
		return nil, generationError("ml.GeneratePlan", err)
	}
	return plan, nil
}

func (g *VertexGenerator) GenerateRecipe(ctx context.Context, prefs models.RecipePreferences) (*models.Recipe, error) {
	recipe, err := vertexJSON[models.Recipe](ctx, g.jsonModel(recipeSchema, recipeTemperature), recipeSchema, genai.Text(recipePrompt(prefs)))
	if err != nil {
		g.logger.Error("Recipe generation failed", "error", err)
		return nil, generationError("ml.GenerateRecipe", err)
	}
	return recipe, nil
}

func (g *VertexGenerator) GenerateShoppingList(ctx context.Context, mealPlan []models.DailyMealPlan) (*models.ShoppingList, error) {
	prompt, err := shoppingListPrompt(mealPlan)
	if err != nil {
		return nil, generationError("ml.GenerateShoppingList", err)
	}
	list, err := vertexJSON[models.ShoppingList](ctx, g.jsonModel(shoppingListSchema, 0), shoppingListSchema, genai.Text(prompt))
	if err != nil {
		g.logger.Error("Shopping list generation failed", "error", err)
		return nil, generationError("ml.GenerateShoppingList", err)
	}
	return list, nil
}

func (g *VertexGenerator) AnalyzeMealPhoto(ctx context.Context, image []byte, mimeType string) (*models.MealAnalysis, error) {
	img := genai.Blob{MIMEType: mimeType, Data: image}
	analysis, err := vertexJSON[models.MealAnalysis](ctx, g.jsonModel(mealAnalysisSchema, 0), mealAnalysisSchema, img, genai.Text(mealPhotoPrompt))
	if err != nil {
		g.logger.Error("Meal photo analysis failed", "error", err, "mime_type", mimeType)
		return nil, generationError("ml.AnalyzeMealPhoto", err)
	}
	return analysis, nil
}

func (g *VertexGenerator) StreamChatReply(ctx context.Context, details models.UserDetails, history []models.ChatContent, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		instruction, err := coachInstruction(details)
		if err != nil {
			yield("", generationError("ml.StreamChatReply", err))
			return
		}

		m := g.client.GenerativeModel(g.model)
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}
		cs := m.StartChat()
		cs.History = make([]*genai.Content, 0, len(history))
		for _, c := range history {
			cs.History = append(cs.History, &genai.Content{Role: c.Role, Parts: []genai.Part{genai.Text(c.Text())}})
		}

		it := cs.SendMessageStream(ctx, genai.Text(message))
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				g.logger.Warn("Chat stream failed", "error", err)
				yield("", generationError("ml.StreamChatReply", err))
				return
			}
			text := vertexText(resp)
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (g *VertexGenerator) Close() error {
	return g.client.Close()
}

// vertexText joins the text parts of the first candidate.
func vertexText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func vertexSchema(n *schemaNode) *genai.Schema {
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
		s.Items = vertexSchema(n.items)
	}
	if len(n.properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(n.properties))
		for name, prop := range n.properties {
			s.Properties[name] = vertexSchema(prop)
		}
	}
	return s
}
