// Package ai wraps the model provider behind a small interface the
// analysis routines depend on.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Message is one turn of a conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

// Collaborator is the model surface the engine consumes. AnalyzeStructured
// returns a raw JSON document matching the prompt's requested shape;
// ChatCompletion returns free-form assistant text.
type Collaborator interface {
	AnalyzeStructured(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error)
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
}

type Options struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

// OpenAI is the production Collaborator backed by the OpenAI chat
// completions API.
type OpenAI struct {
	client openai.Client
	opts   Options
}

var _ Collaborator = (*OpenAI)(nil)

func NewOpenAI(opts Options) *OpenAI {
	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), opts: opts}
}

func (o *OpenAI) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	op := func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
		resp, err := o.client.Chat.Completions.New(callCtx, params)
		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", backoff.Permanent(errors.New("ai: empty completion"))
		}
		return resp.Choices[0].Message.Content, nil
	}
	content, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(o.opts.MaxRetries)))
	if err != nil {
		return "", fmt.Errorf("ai: chat completion: %w", err)
	}
	return content, nil
}

func (o *OpenAI) AnalyzeStructured(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	content, err := o.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(o.opts.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, err
	}
	doc := ExtractJSON(content)
	if !json.Valid(doc) {
		return nil, fmt.Errorf("ai: structured response is not valid JSON")
	}
	return doc, nil
}

func (o *OpenAI) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.opts.Model),
		Temperature: openai.Float(o.opts.Temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	return o.complete(ctx, params)
}
