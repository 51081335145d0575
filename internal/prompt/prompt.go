// Package prompt turns enrichment data into the system/user message pair sent to the model.
package prompt

import (
	"embed"
	"fmt"
	"strings"

	"github.com/octobees/personalizer/internal/entity"
)

//go:embed instructions/*.txt
var instructions embed.FS

// Mode selects the shape of the generated output.
type Mode string

const (
	// ModeSections asks for a JSON object with the five pitch keys.
	ModeSections Mode = "sections"
	// ModeMessage asks for one free-text pitch.
	ModeMessage Mode = "message"
)

// Defaults used when the enrichment record lacks a field.
const (
	DefaultName     = "there"
	DefaultTitle    = "Professional"
	DefaultCompany  = "your company"
	DefaultIndustry = "your industry"
)

const sectionsInstruction = `Using the guidelines above, generate a personalized marketing pitch with the five sections:
[Opener], [Ice-Breaker], [Friction Points], [Solution], and [Close].

IMPORTANT: At the end, output valid JSON with exactly these keys:
opener, iceBreaker, frictionPoints, solution, close.
Do not include any extra text outside the JSON.`

const messageInstruction = `Using the guidelines above, generate a personalized marketing pitch with the five sections:
[Opener], [Ice-Breaker], [Friction Points], [Solution], and [Close].

Write the pitch as a single plain-text message. Do not output JSON.`

// Attributes are the visitor fields that drive personalization.
type Attributes struct {
	Name       string
	Title      string
	Company    string
	Industry   string
	PainPoints []string
}

// AttributesFrom reads attributes from an enrichment payload, applying defaults for missing fields.
func AttributesFrom(data entity.ContactData) Attributes {
	return Attributes{
		Name:       orDefault(data.FirstName(), DefaultName),
		Title:      orDefault(data.Headline(), DefaultTitle),
		Company:    orDefault(data.CompanyName(), DefaultCompany),
		Industry:   orDefault(data.Industry(), DefaultIndustry),
		PainPoints: data.PainPoints(),
	}
}

// Prompt is a system/user message pair.
type Prompt struct {
	System string
	User   string
}

// Builder assembles prompts from one instruction version.
type Builder struct {
	system string
}

// NewBuilder loads the named instruction version ("v1" or "v2").
func NewBuilder(version string) (*Builder, error) {
	raw, err := instructions.ReadFile("instructions/" + version + ".txt")
	if err != nil {
		return nil, fmt.Errorf("unknown prompt version %q", version)
	}
	return &Builder{system: strings.TrimSpace(string(raw))}, nil
}

// Versions lists the embedded instruction versions.
func Versions() []string {
	entries, _ := instructions.ReadDir("instructions")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return out
}

// Build renders the prompt for attrs.
func (b *Builder) Build(attrs Attributes, mode Mode) Prompt {
	var sb strings.Builder
	sb.WriteString(DataBlock(attrs))
	sb.WriteString("\n\n")
	if mode == ModeMessage {
		sb.WriteString(messageInstruction)
	} else {
		sb.WriteString(sectionsInstruction)
	}
	return Prompt{System: b.system, User: sb.String()}
}

// DataBlock renders the visitor data section of the user message.
func DataBlock(attrs Attributes) string {
	return fmt.Sprintf("Visitor Data:\nName: %s\nTitle: %s\nCompany: %s\nIndustry: %s\nWorkflow Pain Points: %s",
		attrs.Name, attrs.Title, attrs.Company, attrs.Industry, strings.Join(attrs.PainPoints, ", "))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
