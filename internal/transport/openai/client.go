// Package openai implements the intent and answer model contracts against
// an OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/usecase/compose"
	"github.com/hillwalk/munroquery/internal/usecase/extract"
)

// Compile-time checks against the usecase contracts.
var (
	_ extract.IntentModel = (*Client)(nil)
	_ compose.AnswerModel = (*Client)(nil)
)

// Client is a chat model provider using the OpenAI-compatible API.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the chat model settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewClient creates an OpenAI-compatible chat model client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

const intentSystem = "Extract structured filters for hill route search. Return strict JSON only."

const intentPromptTmpl = `You are an intent parser for a Scottish hill route assistant.
Extract a compact text query and filters from the user message.

Use only these tags:
[%s]

Rules:
- Include only tags clearly implied. Be conservative.
- 'river_crossing' only if an explicit wade/ford is wanted or avoided, not for bridges or stepping stones.
- Transport: add 'bus'/'train' only if public transport access is asked for; 'bike' if cycle access is implied.
- bog_max is 0-5, grade_max is 1-5 (a number or one of easy/moderate/hard/serious).
- location is a place name only when the user anchors the request to a place.
- Return STRICT JSON with fields: query, include_tags, exclude_tags, bog_max, grade_max, location.

User message: %q`

// intentWire mirrors the JSON the model is instructed to return. grade_max
// is tolerant: models answer both numbers and difficulty words.
type intentWire struct {
	Query       string          `json:"query"`
	IncludeTags []string        `json:"include_tags"`
	ExcludeTags []string        `json:"exclude_tags"`
	BogMax      *int            `json:"bog_max"`
	GradeMax    json.RawMessage `json:"grade_max"`
	Location    string          `json:"location"`
}

// ParseIntent implements extract.IntentModel.
func (c *Client) ParseIntent(ctx context.Context, message string, allowedTags []string) (extract.ModelIntent, error) {
	prompt := fmt.Sprintf(intentPromptTmpl, "'"+strings.Join(allowedTags, "','")+"'", message)

	raw, err := c.complete(ctx, intentSystem, prompt, true)
	if err != nil {
		return extract.ModelIntent{}, err
	}

	var wire intentWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return extract.ModelIntent{}, fmt.Errorf("parse intent JSON: %w: %w", err, domain.ErrModelUnavailable)
	}

	return extract.ModelIntent{
		Query:       wire.Query,
		IncludeTags: wire.IncludeTags,
		ExcludeTags: wire.ExcludeTags,
		BogMax:      wire.BogMax,
		GradeMax:    gradeFromWire(wire.GradeMax),
		Location:    wire.Location,
	}, nil
}

const answerSystem = "Answer based only on the provided context."

const answerPromptTmpl = `You are a helpful hill route assistant.
User asked: %q

Matching routes:
%s

Write a concise helpful answer:
- Start with the one or two routes that best fit, then alternatives.
- Explain why they fit, using their tags.
- Offer transport hints when 'bus' or 'train' appear.
- Keep it under ~180 words and avoid generic filler.`

// Answer implements compose.AnswerModel.
func (c *Client) Answer(ctx context.Context, userMsg, candidateContext string) (string, error) {
	prompt := fmt.Sprintf(answerPromptTmpl, userMsg, candidateContext)
	return c.complete(ctx, answerSystem, prompt, false)
}

const pickSystem = "Select matching items from a provided list and return strict JSON."

const pickPromptTmpl = `From the route lines below, pick up to 6 route names that best match the user's request.

Rules:
- Only return names that appear verbatim in the route lines.
- Be conservative and prefer routes clearly matching the request (terrain/tags/transport/area).
- Return STRICT JSON: {"names": ["Name One","Name Two"]}

User request: %q

Route lines:
%s`

// pickWire mirrors the JSON the model is instructed to return.
type pickWire struct {
	Names []string `json:"names"`
}

// PickRoutes implements compose.AnswerModel.
func (c *Client) PickRoutes(ctx context.Context, userMsg, routeList string) ([]string, error) {
	prompt := fmt.Sprintf(pickPromptTmpl, userMsg, routeList)

	raw, err := c.complete(ctx, pickSystem, prompt, true)
	if err != nil {
		return nil, err
	}

	var wire pickWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("parse pick JSON: %w: %w", err, domain.ErrModelUnavailable)
	}

	names := make([]string, 0, len(wire.Names))
	for _, n := range wire.Names {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

func (c *Client) complete(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrModelUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// gradeFromWire converts a number or difficulty word to a grade.
func gradeFromWire(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if g, ok := extract.GradeFromWord(fmt.Sprint(n)); ok {
			return &g
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if g, ok := extract.GradeFromWord(s); ok {
			return &g
		}
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelUnavailable so the pipeline
// takes the deterministic fallback path.
func parseAPIError(err error) error {
	wrap := domain.ErrModelUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %w", wrap)
}
