// Package openai provides an implementation of model.Model using the
// OpenAI Chat Completions API with function/tool calling. It adapts the
// normalized decision request into the SDK's message format and back.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Decide makes a single non-streaming completion call and maps the first
// choice to a Decision. A tool call wins over accompanying text; a choice
// with neither is malformed.
func (m *Model) Decide(ctx context.Context, req model.Request) (model.Decision, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Decision{}, fmt.Errorf("%w: openai api error: %v", core.ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return model.Decision{}, fmt.Errorf("%w: no choices returned", core.ErrMalformedDecision)
	}

	msg := resp.Choices[0].Message

	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]

		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return model.Decision{}, fmt.Errorf("%w: tool arguments are not a JSON object: %v", core.ErrMalformedDecision, err)
			}
		}

		return model.Decision{ToolCall: &model.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		}}, nil
	}

	if msg.Content == "" {
		return model.Decision{}, fmt.Errorf("%w: choice contains neither tool call nor text", core.ErrMalformedDecision)
	}

	return model.Decision{Final: &model.FinalAnswer{Text: msg.Content}}, nil
}

// buildParams assembles the request: system instructions, the question,
// the replayed step history and the tool definitions.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	messages = append(messages, openai.UserMessage(req.Question))

	for _, step := range req.Steps {
		switch s := step.(type) {
		case core.ActionStep:
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role: "assistant",
					ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
						ID:   s.CallID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      s.Tool,
							Arguments: encodeArgs(s.Args),
						},
					}},
				},
			})
		case core.ObservationStep:
			messages = append(messages, openai.ToolMessage(observationText(s), s.CallID))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Capabilities) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Capabilities))
	for i, c := range req.Capabilities {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        c.Name,
				Description: openai.String(c.Description),
				Parameters:  c.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// encodeArgs serializes tool arguments for replay in the history.
func encodeArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// observationText serializes an observation for the model.
func observationText(s core.ObservationStep) string {
	if s.Failed() {
		return fmt.Sprintf("tool error: %s", s.Error)
	}

	if str, ok := s.Result.(string); ok {
		return str
	}

	raw, err := json.Marshal(s.Result)
	if err != nil {
		return fmt.Sprintf("%v", s.Result)
	}

	return string(raw)
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
