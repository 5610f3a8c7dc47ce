// Package anthropic provides a model adapter for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/archivist/core"
	"github.com/hupe1980/archivist/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

// Decide makes a single non-streaming Messages call and maps the response
// to a Decision. A tool_use block wins over accompanying text; a response
// with neither is malformed.
func (m *Model) Decide(ctx context.Context, req model.Request) (model.Decision, error) {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    m.buildMessages(req),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}

	if len(req.Capabilities) > 0 {
		params.Tools = m.buildTools(req.Capabilities)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.Decision{}, fmt.Errorf("%w: anthropic api error: %v", core.ErrModelUnavailable, err)
	}

	var text string
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			toolBlock := block.AsToolUse()

			var args map[string]any
			if toolBlock.Input != nil {
				raw, err := json.Marshal(toolBlock.Input)
				if err != nil {
					return model.Decision{}, fmt.Errorf("%w: unreadable tool input: %v", core.ErrMalformedDecision, err)
				}
				if err := json.Unmarshal(raw, &args); err != nil {
					return model.Decision{}, fmt.Errorf("%w: tool input is not an object: %v", core.ErrMalformedDecision, err)
				}
			}

			return model.Decision{ToolCall: &model.ToolCall{
				ID:   toolBlock.ID,
				Name: toolBlock.Name,
				Args: args,
			}}, nil
		case "text":
			textBlock := block.AsText()
			text += textBlock.Text
		}
	}

	if text == "" {
		return model.Decision{}, fmt.Errorf("%w: response contains neither tool call nor text", core.ErrMalformedDecision)
	}

	return model.Decision{Final: &model.FinalAnswer{Text: text}}, nil
}

// buildMessages converts the question and step history to Anthropic
// message format. Each action becomes an assistant tool_use turn and its
// observation the following user tool_result turn.
func (m *Model) buildMessages(req model.Request) []anthropic.MessageParam {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Question)),
	}

	for _, step := range req.Steps {
		switch s := step.(type) {
		case core.ActionStep:
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewToolUseBlock(s.CallID, any(s.Args), s.Tool),
			))
		case core.ObservationStep:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(s.CallID, observationText(s), s.Failed()),
			))
		}
	}

	return messages
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

// buildTools converts capabilities to Anthropic tool format
func (m *Model) buildTools(capabilities []core.Capability) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(capabilities))

	for i, c := range capabilities {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if c.Parameters != nil {
			if properties, exists := c.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := c.Parameters["required"]; exists {
				if reqSlice, ok := required.([]string); ok {
					inputSchema.Required = reqSlice
				} else if reqInterface, ok := required.([]interface{}); ok {
					var reqStrings []string
					for _, r := range reqInterface {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		tu := anthropic.ToolUnionParamOfTool(inputSchema, c.Name)
		if c.Description != "" && tu.OfTool != nil {
			tu.OfTool.Description = anthropic.String(c.Description)
		}
		tools[i] = tu
	}

	return tools
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
