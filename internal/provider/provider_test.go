package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariations(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantCount int
		wantTags  []string
		wantErr   bool
	}{
		{
			name:      "object with variations",
			content:   `{"variations":[{"title":"A","caption":"legenda a","hashtags":["#a","#b"]}]}`,
			wantCount: 1,
			wantTags:  []string{"#a", "#b"},
		},
		{
			name:      "bare array",
			content:   `[{"title":"A","caption":"legenda","hashtags":[]},{"title":"B","caption":"outra"}]`,
			wantCount: 2,
			wantTags:  []string{},
		},
		{
			name:      "hashtags as string",
			content:   `{"variations":[{"title":"A","caption":"legenda","hashtags":"#moda  #outono"}]}`,
			wantCount: 1,
			wantTags:  []string{"#moda", "#outono"},
		},
		{
			name:      "code fence",
			content:   "```json\n{\"variations\":[{\"title\":\"A\",\"caption\":\"x\",\"hashtags\":[\"#a\"]}]}\n```",
			wantCount: 1,
			wantTags:  []string{"#a"},
		},
		{
			name:      "keeps at most three",
			content:   `{"variations":[{"caption":"1"},{"caption":"2"},{"caption":"3"},{"caption":"4"}]}`,
			wantCount: 3,
		},
		{
			name:      "drops empty captions",
			content:   `{"variations":[{"title":"sem texto","caption":"  "},{"caption":"ok"}]}`,
			wantCount: 1,
		},
		{
			name:      "no variations",
			content:   `{"variations":[]}`,
			wantCount: 0,
		},
		{name: "not json", content: "Desculpa, não consigo.", wantErr: true},
		{name: "empty", content: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVariations(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantCount)
			if tt.wantTags != nil {
				require.NotEmpty(t, got)
				assert.ElementsMatch(t, tt.wantTags, got[0].Hashtags)
			}
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("connection refused")
	err := newError("openai generate", "request failed", cause)

	assert.ErrorIs(t, err, cause)
	var perr *Error
	require.ErrorAs(t, error(err), &perr)
	assert.Equal(t, "openai generate", perr.Op)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "op: msg", (&Error{Op: "op", Message: "msg"}).Error())
}

func TestUserPrompt(t *testing.T) {
	prompt := UserPrompt(Request{Brand: "Loukisses", Niche: "Moda feminina", Platform: "Instagram", Message: "coleção de outono"})
	assert.Contains(t, prompt, "Marca: Loukisses")
	assert.Contains(t, prompt, "coleção de outono")
	assert.Contains(t, prompt, "exatamente 3 variações")
}

func TestMock(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	got, err := m.Generate(ctx, Request{Brand: "Loukisses", Niche: "Moda feminina", Message: "outono"})
	require.NoError(t, err)
	assert.Len(t, got, MaxVariations)
	assert.Equal(t, "#modafeminina", got[0].Hashtags[0])
	assert.Equal(t, 1, m.Calls)

	m.Count = -1
	got, err = m.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.Empty(t, got)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Generate(cancelled, Request{})
	var perr *Error
	assert.ErrorAs(t, err, &perr)
}
