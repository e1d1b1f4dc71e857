package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"google.golang.org/genai"
)

// GeminiConfig configures a Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
	// MaxOutputTokens caps chat answers. Zero leaves the model default.
	MaxOutputTokens int32
}

// Gemini implements Client on the Gemini API.
type Gemini struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}

	return &Gemini{
		client:          client,
		model:           model,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

// Model implements Client.
func (g *Gemini) Model() string {
	return g.model
}

// Generate implements Client.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{userContent(prompt)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Gemini.Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini.Generate: %w", ErrEmptyResponse)
	}
	return text, nil
}

// Chat implements Client.
func (g *Gemini) Chat(ctx context.Context, system string, history []domain.NormalizedTurn, message string) (string, error) {
	contents := buildChatContents(history, message)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxOutputTokens,
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini.Chat: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini.Chat: %w", ErrEmptyResponse)
	}
	return text, nil
}

func buildChatContents(history []domain.NormalizedTurn, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleModelTurn {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	return append(contents, userContent(message))
}

func userContent(text string) *genai.Content {
	return &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: text}},
	}
}

// Ensure Gemini implements Client.
var _ Client = (*Gemini)(nil)
