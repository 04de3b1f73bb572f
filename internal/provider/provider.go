// Package provider talks to the hosted language model that writes captions.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contentforge/internal/model"
)

// MaxVariations is how many candidates are kept from one generation.
const MaxVariations = 3

// Request describes what the user wants to post.
type Request struct {
	Brand     string
	Niche     string
	Tone      string
	Mode      string
	Platform  string
	Message   string
	ExtraInfo string
}

// Provider generates caption variations. It returns at most MaxVariations
// entries, possibly none, or an *Error.
type Provider interface {
	Generate(ctx context.Context, req Request) ([]model.Variation, error)
	Name() string
}

// Error is a failed generation: transport, upstream status or an unreadable reply.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, message string, err error) *Error {
	return &Error{Op: op, Message: message, Err: err}
}

type rawVariation struct {
	Title    string          `json:"title"`
	Caption  string          `json:"caption"`
	Hashtags json.RawMessage `json:"hashtags"`
}

// ParseVariations reads the model's JSON reply. It accepts an object with a
// "variations" array or a bare array, optionally wrapped in a code fence.
// Hashtags may come as an array or as one space-separated string.
func ParseVariations(content string) ([]model.Variation, error) {
	body := stripFence(content)
	if body == "" {
		return nil, fmt.Errorf("empty reply")
	}

	var raws []rawVariation
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &raws); err != nil {
			return nil, fmt.Errorf("decode variations: %w", err)
		}
	} else {
		var payload struct {
			Variations []rawVariation `json:"variations"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return nil, fmt.Errorf("decode variations: %w", err)
		}
		raws = payload.Variations
	}

	out := make([]model.Variation, 0, MaxVariations)
	for _, raw := range raws {
		if len(out) == MaxVariations {
			break
		}
		caption := strings.TrimSpace(raw.Caption)
		if caption == "" {
			continue
		}
		out = append(out, model.Variation{
			Title:    strings.TrimSpace(raw.Title),
			Caption:  caption,
			Hashtags: parseHashtags(raw.Hashtags),
		})
	}
	return out, nil
}

func parseHashtags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		tags := make([]string, 0, len(list))
		for _, tag := range list {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		return tags
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return strings.Fields(joined)
	}
	return nil
}

func stripFence(content string) string {
	body := strings.TrimSpace(content)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
