// Package openai provides an activity parser backed by the OpenAI chat
// completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/mfalkner/sprachlog/pkg/provider/parse"
)

// systemPrompt instructs the model to extract one activity record as JSON.
// The transcript language is German; field names stay English for stable
// JSON keys.
const systemPrompt = `You extract exactly one work-activity record from a dictated German transcript.
Respond with a single JSON object and nothing else, using these keys:
  "client": string, the client name, "" if not mentioned
  "date": string "YYYY-MM-DD"; resolve relative expressions against the reference date; use the reference date if no date is mentioned
  "topic": string, the work topic, "" if not mentioned
  "description": string, a concise description of the work; required
  "duration_minutes": integer number of minutes, null if not mentioned
  "distance_km": number of kilometres driven, 0 if not mentioned
  "expense_amount": expense amount, 0 if not mentioned
Do not invent values that were not dictated.`

// wireResult is the JSON shape the model is asked to produce.
type wireResult struct {
	Client          string  `json:"client"`
	Date            string  `json:"date"`
	Topic           string  `json:"topic"`
	Description     string  `json:"description"`
	DurationMinutes *int    `json:"duration_minutes"`
	DistanceKm      float64 `json:"distance_km"`
	ExpenseAmount   float64 `json:"expense_amount"`
}

// Parser implements parse.Parser using the OpenAI API.
type Parser struct {
	client oai.Client
	model  string
}

// Ensure Parser satisfies the interface at compile time.
var _ parse.Parser = (*Parser)(nil)

// config holds optional configuration for the parser.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Parser.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI-backed Parser.
func New(apiKey, model string, opts ...Option) (*Parser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Parser{client: client, model: model}, nil
}

// Parse implements parse.Parser.
func (p *Parser) Parse(ctx context.Context, transcript string, refDate time.Time) (*parse.Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("openai: transcript must not be empty")
	}

	user := fmt.Sprintf("Reference date: %s\nTranscript: %s", refDate.Format("2006-01-02"), transcript)

	resp, err := p.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(user),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: oai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	return decodeResult(resp.Choices[0].Message.Content, refDate)
}

// decodeResult turns the model's JSON output into a parse.Result. A missing
// description is an error; an unparseable date falls back to refDate.
func decodeResult(content string, refDate time.Time) (*parse.Result, error) {
	var wire wireResult
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("openai: decode model output: %w", err)
	}
	if strings.TrimSpace(wire.Description) == "" {
		return nil, fmt.Errorf("openai: model output has no description")
	}

	date := refDate
	if t, err := time.Parse("2006-01-02", wire.Date); err == nil {
		date = t
	}

	return &parse.Result{
		Client:          strings.TrimSpace(wire.Client),
		Date:            date,
		Topic:           strings.TrimSpace(wire.Topic),
		Description:     strings.TrimSpace(wire.Description),
		DurationMinutes: wire.DurationMinutes,
		DistanceKm:      wire.DistanceKm,
		ExpenseAmount:   wire.ExpenseAmount,
	}, nil
}
