package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Sections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "fenced block",
			raw:  "Here you go:\n```json\n{\"opener\":\"Hi\",\"iceBreaker\":\"Ice\",\"frictionPoints\":\"F\",\"solution\":\"S\",\"close\":\"C\"}\n```\nThanks!",
			want: map[string]string{"opener": "Hi", "iceBreaker": "Ice", "frictionPoints": "F", "solution": "S", "close": "C"},
		},
		{
			name: "bare object with prose",
			raw:  "Sure. {\"opener\":\"Hi\",\"close\":\"Bye\"} Hope that helps.",
			want: map[string]string{"opener": "Hi", "close": "Bye"},
		},
		{
			name: "fenced block that is not JSON falls back to brace scan",
			raw:  "```json\nnot json\n``` {\"opener\":\"Hi\"}",
			want: map[string]string{"opener": "Hi"},
		},
		{
			name: "null section left out",
			raw:  "```json\n{\"opener\":\"Hi\",\"iceBreaker\": null ,\"close\":null}\n```",
			want: map[string]string{"opener": "Hi"},
		},
		{
			name: "non-string value kept as JSON text",
			raw:  `{"opener":"Hi","solution":["a","b"],"close":null}`,
			want: map[string]string{"opener": "Hi", "solution": `["a","b"]`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultChain.Sections(tt.raw)
			require.NoError(t, err)

			actual := map[string]string{}
			for key, v := range map[string]*string{
				"opener":         got.Opener,
				"iceBreaker":     got.IceBreaker,
				"frictionPoints": got.FrictionPoints,
				"solution":       got.Solution,
				"close":          got.Close,
			} {
				if v != nil {
					actual[key] = *v
				}
			}
			assert.Equal(t, tt.want, actual)
		})
	}
}

func TestChain_Unparseable(t *testing.T) {
	for _, raw := range []string{
		"No content generated",
		"{not: valid}",
		"} backwards {",
		"[1,2,3]",
		"",
	} {
		_, err := DefaultChain.Sections(raw)
		assert.True(t, errors.Is(err, ErrUnparseable), "input %q: %v", raw, err)
	}
}

func TestChain_SingleStrategy(t *testing.T) {
	_, err := Chain{Fenced}.Sections(`{"opener":"Hi"}`)
	assert.ErrorIs(t, err, ErrUnparseable)

	got, err := Chain{BraceScan}.Sections(`{"opener":"Hi"}`)
	require.NoError(t, err)
	require.NotNil(t, got.Opener)
	assert.Equal(t, "Hi", *got.Opener)
}
