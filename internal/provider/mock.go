package provider

import (
	"context"
	"fmt"
	"strings"

	"contentforge/internal/model"
)

// Mock builds canned variations from the request; no network involved.
type Mock struct {
	// Err, when set, is returned from every call.
	Err error
	// Count overrides how many variations come back; negative means none.
	Count int

	Calls int
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Generate(ctx context.Context, req Request) ([]model.Variation, error) {
	m.Calls++
	if err := ctx.Err(); err != nil {
		return nil, newError("mock generate", "cancelled", err)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	count := MaxVariations
	switch {
	case m.Count < 0:
		count = 0
	case m.Count > 0 && m.Count < MaxVariations:
		count = m.Count
	}

	subject := strings.TrimSpace(req.Message)
	if subject == "" {
		subject = "a nossa novidade"
	}
	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		brand = "a marca"
	}
	tag := "#" + strings.ToLower(strings.ReplaceAll(strings.TrimSpace(req.Niche), " ", ""))
	angles := []string{"Descobre", "Não percas", "Chegou"}

	out := make([]model.Variation, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, model.Variation{
			Title: fmt.Sprintf("%s %s", angles[i], subject),
			Caption: fmt.Sprintf("%s %s com %s. Tom %s, pensado para %s. Visita o perfil e encontra o link na bio.",
				angles[i], subject, brand, req.Tone, req.Platform),
			Hashtags: []string{tag, "#novidade", fmt.Sprintf("#dica%d", i+1)},
		})
	}
	return out, nil
}
