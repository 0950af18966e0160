package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

// ErrEmptyResponse is returned when the model answered without any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// contentGenerator is the subset of *genai.Models the provider calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini talks to the Gemini API through google.golang.org/genai.
type Gemini struct {
	models      contentGenerator
	chatModel   string
	titleModel  string
	searchModel string
}

// NewGemini creates the Gemini provider.
func NewGemini(ctx context.Context, cfg config.AIConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGemini(client.Models, cfg), nil
}

func newGemini(models contentGenerator, cfg config.AIConfig) *Gemini {
	return &Gemini{
		models:      models,
		chatModel:   cfg.GeminiChatModel,
		titleModel:  cfg.GeminiTitleModel,
		searchModel: cfg.GeminiSearchModel,
	}
}

// Converse implements Client.
func (g *Gemini) Converse(ctx context.Context, history []chat.Message, text string, attachment *chat.Attachment) (string, error) {
	contents, err := geminiContents(BuildTurns(history, text, attachment))
	if err != nil {
		return "", err
	}

	resp, err := g.models.GenerateContent(ctx, g.chatModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return responseText(resp)
}

// TitleFor implements Client.
func (g *Gemini) TitleFor(ctx context.Context, firstMessage string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.titleModel, genai.Text(TitlePrompt(firstMessage)), nil)
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}
	return responseText(resp)
}

// NearbyTherapists implements Client. The location travels as a Google Maps
// retrieval hint rather than in the prompt.
func (g *Gemini) NearbyTherapists(ctx context.Context, lat, lng float64) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(TherapistSearchInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
		ToolConfig: &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(lat),
					Longitude: genai.Ptr(lng),
				},
			},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.searchModel, genai.Text(TherapistSearchQuery), cfg)
	if err != nil {
		return "", fmt.Errorf("search therapists: %w", err)
	}
	return responseText(resp)
}

func geminiContents(turns []Turn) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		parts := make([]*genai.Part, 0, 2)
		if turn.Text != "" {
			parts = append(parts, genai.NewPartFromText(turn.Text))
		}
		if turn.Attachment != nil {
			data, err := base64.StdEncoding.DecodeString(turn.Attachment.Data)
			if err != nil {
				return nil, fmt.Errorf("decode attachment %q (%s): %w", turn.Attachment.Name, turn.Attachment.MIMEType, err)
			}
			parts = append(parts, genai.NewPartFromBytes(data, turn.Attachment.MIMEType))
		}
		contents = append(contents, &genai.Content{Role: string(turn.Role), Parts: parts})
	}
	return contents, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		builder.WriteString(part.Text)
	}
	if strings.TrimSpace(builder.String()) == "" {
		return "", ErrEmptyResponse
	}
	return builder.String(), nil
}
