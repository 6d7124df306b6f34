package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const defaultOllamaModel = "llama3.2"

// Ollama classifies chapter boundaries with a locally served model.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama connects using OLLAMA_HOST (or the default local address).
func NewOllama(model string) (*Ollama, error) {
	c, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return NewOllamaWithClient(c, model), nil
}

func NewOllamaWithClient(c *api.Client, model string) *Ollama {
	if model == "" {
		model = defaultOllamaModel
	}
	return &Ollama{client: c, model: model}
}

func (o *Ollama) ClassifyChapter(ctx context.Context, text string) (Verdict, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:     o.model,
		Prompt:    chapterPromptFor(text),
		Stream:    &stream,
		Format:    json.RawMessage(`"json"`),
		KeepAlive: &api.Duration{Duration: 10 * time.Minute},
		Options:   map[string]any{"temperature": 0},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("ollama generate: %w", err)
	}
	return parseVerdict(sb.String())
}
