// Package extract recovers the structured pitch from raw model output.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/octobees/personalizer/internal/entity"
)

// ErrUnparseable is returned when no strategy yields a JSON object.
var ErrUnparseable = errors.New("generation produced unparseable output")

var fencedExpr = regexp.MustCompile("```json\\s*([\\s\\S]*?)```")

// Strategy returns the JSON candidate found in raw.
type Strategy struct {
	Name string
	Find func(raw string) (string, error)
}

// Fenced takes the first ```json fenced block.
var Fenced = Strategy{
	Name: "fenced",
	Find: func(raw string) (string, error) {
		m := fencedExpr.FindStringSubmatch(raw)
		if m == nil {
			return "", errors.New("no fenced JSON block")
		}
		return strings.TrimSpace(m[1]), nil
	},
}

// BraceScan takes the span from the first '{' to the last '}'.
var BraceScan = Strategy{
	Name: "brace-scan",
	Find: func(raw string) (string, error) {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end < start {
			return "", errors.New("no JSON object")
		}
		return raw[start : end+1], nil
	},
}

// Chain tries strategies in order; the first candidate that decodes to an object wins.
type Chain []Strategy

// DefaultChain is fenced first, then brace scanning.
var DefaultChain = Chain{Fenced, BraceScan}

// Sections extracts the five pitch keys from raw. Missing keys stay nil.
func (c Chain) Sections(raw string) (entity.Sections, error) {
	var errs []error
	for _, s := range c {
		candidate, err := s.Find(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		sections, err := decodeSections(candidate)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		return sections, nil
	}
	return entity.Sections{}, fmt.Errorf("%w: %w", ErrUnparseable, errors.Join(errs...))
}

func decodeSections(candidate string) (entity.Sections, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return entity.Sections{}, err
	}
	if fields == nil {
		return entity.Sections{}, errors.New("JSON value is not an object")
	}
	return entity.Sections{
		Opener:         field(fields, "opener"),
		IceBreaker:     field(fields, "iceBreaker"),
		FrictionPoints: field(fields, "frictionPoints"),
		Solution:       field(fields, "solution"),
		Close:          field(fields, "close"),
	}, nil
}

// field returns strings as-is and any other JSON value as its compact text. null counts as absent.
func field(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	return &trimmed
}
