package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Anthropic calls the Anthropic Messages API through the official SDK.
type Anthropic struct {
	client sdk.Client
	params Params
}

// NewAnthropic creates an Anthropic generator.
func NewAnthropic(apiKey string, params Params, opts ...Option) *Anthropic {
	o := buildOptions(opts)
	sdkOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(o.baseURL))
	}
	if o.http != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(o.http))
	}
	return &Anthropic{client: sdk.NewClient(sdkOpts...), params: params}
}

// Generate implements Generator.
func (c *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.params.Model),
		MaxTokens:   c.params.MaxTokens,
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.User))},
		Temperature: sdk.Float(c.params.Temperature),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	// Current models reject temperature and top_p together.
	if c.params.TopP > 0 && c.params.TopP < 1 {
		params.TopP = sdk.Float(c.params.TopP)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return orPlaceholder(sb.String()), nil
}
