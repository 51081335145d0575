package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model           string          `json:"model"`
	Input           []openAIMessage `json:"input"`
	Temperature     float64         `json:"temperature"`
	MaxOutputTokens int64           `json:"max_output_tokens"`
	TopP            float64         `json:"top_p"`
	Stream          bool            `json:"stream"`
	Store           bool            `json:"store"`
}

type openAIResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// text returns the first non-empty text form the response carries.
func (r openAIResponse) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}

	var sb strings.Builder
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" {
				sb.WriteString(c.Text)
			}
		}
	}
	if sb.Len() > 0 {
		return sb.String()
	}

	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// OpenAI calls the OpenAI Responses API.
type OpenAI struct {
	apiKey  string
	params  Params
	baseURL string
	http    *http.Client
}

// NewOpenAI creates an OpenAI generator.
func NewOpenAI(apiKey string, params Params, opts ...Option) *OpenAI {
	o := buildOptions(opts)
	c := &OpenAI{
		apiKey:  apiKey,
		params:  params,
		baseURL: "https://api.openai.com/v1",
		http:    defaultHTTPClient(),
	}
	if o.baseURL != "" {
		c.baseURL = o.baseURL
	}
	if o.http != nil {
		c.http = o.http
	}
	return c
}

// Generate implements Generator.
func (c *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", eris.New("openai: API key not configured")
	}

	payload, err := json.Marshal(openAIRequest{
		Model: c.params.Model,
		Input: []openAIMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature:     c.params.Temperature,
		MaxOutputTokens: c.params.MaxTokens,
		TopP:            c.params.TopP,
		Stream:          false,
		Store:           true,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "openai: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", eris.Wrap(err, "openai: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "openai: read response body")
	}

	var out openAIResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &out) == nil && out.Error != nil && out.Error.Message != "" {
			return "", eris.Errorf("openai: status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", eris.Errorf("openai: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return "", eris.Wrap(err, "openai: unmarshal response")
	}
	if out.Error != nil && out.Error.Message != "" {
		return "", eris.Errorf("openai: %s", out.Error.Message)
	}

	return orPlaceholder(out.text()), nil
}
