package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// Gemini calls the Gemini API through the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	params Params
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, apiKey string, params Params, opts ...Option) (*Gemini, error) {
	o := buildOptions(opts)
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions.BaseURL = o.baseURL + "/"
	}
	if o.http != nil {
		cfg.HTTPClient = o.http
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &Gemini{client: client, params: params}, nil
}

// Generate implements Generator.
func (c *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.params.Temperature)),
		TopP:            genai.Ptr(float32(c.params.TopP)),
		MaxOutputTokens: int32(c.params.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.params.Model,
		[]*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}, config)
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate content")
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}
	return orPlaceholder(sb.String()), nil
}
