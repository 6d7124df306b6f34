package ai

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini classifies chapter boundaries with a Google Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	return newGemini(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, model)
}

func newGemini(ctx context.Context, cfg *genai.ClientConfig, model string) (*Gemini, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: c, model: model}, nil
}

func (g *Gemini) prompt(ctx context.Context, text string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

func (g *Gemini) ClassifyChapter(ctx context.Context, text string) (Verdict, error) {
	if g.client == nil {
		return Verdict{}, errors.New("gemini not configured")
	}
	out, err := g.prompt(ctx, chapterPromptFor(text))
	if err != nil {
		return Verdict{}, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseVerdict(out)
}
