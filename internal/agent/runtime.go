// Package agent runs LLM-driven workflow steps against Amazon Bedrock using
// the Anthropic Messages API, resolving tool_use requests against a local
// tool registry until the model produces a final answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/oklog/ulid/v2"
	"github.com/sony/gobreaker"

	"github.com/chaosprobe/chaosprobe/internal/metrics"
	"github.com/chaosprobe/chaosprobe/internal/observability"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultMaxTokens = 8192

	// maxTurns bounds the tool-use loop for one invocation.
	maxTurns = 50
)

// ErrTurnLimit is returned when the model keeps requesting tools past the
// turn budget.
var ErrTurnLimit = errors.New("agent: turn limit exceeded")

// BedrockAPI is the Bedrock runtime surface the agent uses.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
	Tools            []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

// Runtime invokes one named agent. Model failures trip a circuit breaker so
// a degraded Bedrock endpoint fails fast instead of stalling the workflow.
type Runtime struct {
	name     string
	client   BedrockAPI
	model    string
	tools    *Registry
	callback observability.Callback
	logger   *slog.Logger
	breaker  *gobreaker.CircuitBreaker
}

// New creates a Runtime for one agent.
func New(name string, client BedrockAPI, model string, tools *Registry) *Runtime {
	logger := observability.AgentLogger(name)
	return &Runtime{
		name:     name,
		client:   client,
		model:    model,
		tools:    tools,
		callback: observability.NewCallback(name),
		logger:   logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "bedrock-" + name,
			MaxRequests: 1,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				if to == gobreaker.StateOpen {
					metrics.BreakerOpens.Add(1)
				}
				logger.Warn("model circuit breaker state change",
					"agent", name, "error", fmt.Sprintf("%s -> %s", from, to))
			},
		}),
	}
}

// SetCallback replaces the event callback. Test hook.
func (r *Runtime) SetCallback(cb observability.Callback) { r.callback = cb }

// Invoke runs one agent turn sequence: the prompt goes to the model, tool
// requests are executed locally and fed back, and the model's final text is
// returned.
func (r *Runtime) Invoke(ctx context.Context, systemPrompt, prompt string) (string, error) {
	executionID := ulid.Make().String()
	start := time.Now()
	metrics.AgentInvocations.Add(1)
	r.logger.Info("agent invocation started",
		"agent", r.name, "execution_id", executionID)

	messages := []anthropicMessage{{
		Role:    "user",
		Content: []anthropicContent{{Type: "text", Text: prompt}},
	}}

	var finalText string
	for turn := 0; ; turn++ {
		if turn >= maxTurns {
			metrics.AgentInvocationErrors.Add(1)
			return "", ErrTurnLimit
		}

		resp, err := r.converse(ctx, systemPrompt, messages)
		if err != nil {
			metrics.AgentInvocationErrors.Add(1)
			r.logger.Error("model invocation failed",
				"agent", r.name, "execution_id", executionID, "error", err.Error())
			return "", fmt.Errorf("invoking model: %w", err)
		}

		finalText = collectText(resp.Content)
		if finalText != "" {
			r.callback.Handle(observability.Event{"data": finalText})
		}

		toolUses := collectToolUses(resp.Content)
		if resp.StopReason != "tool_use" || len(toolUses) == 0 {
			break
		}

		messages = append(messages, anthropicMessage{Role: "assistant", Content: resp.Content})
		messages = append(messages, anthropicMessage{
			Role:    "user",
			Content: r.runTools(ctx, executionID, toolUses),
		})
	}

	r.logger.Info("agent invocation completed",
		"agent", r.name, "execution_id", executionID,
		"duration_ms", time.Since(start).Milliseconds())
	return finalText, nil
}

func (r *Runtime) converse(ctx context.Context, systemPrompt string, messages []anthropicMessage) (*anthropicResponse, error) {
	req := anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        defaultMaxTokens,
		System:           systemPrompt,
		Messages:         messages,
	}
	if r.tools != nil {
		req.Tools = r.tools.specs()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	raw, err := r.breaker.Execute(func() (any, error) {
		return r.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(r.model),
			Body:        body,
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
		})
	})
	if err != nil {
		return nil, err
	}

	out := raw.(*bedrockruntime.InvokeModelOutput)
	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	return &resp, nil
}

// runTools executes the model's tool requests in order and shapes the
// results as tool_result blocks. Tool failures are reported back to the
// model rather than aborting the invocation.
func (r *Runtime) runTools(ctx context.Context, executionID string, uses []anthropicContent) []anthropicContent {
	results := make([]anthropicContent, 0, len(uses))
	for _, use := range uses {
		start := time.Now()
		metrics.ToolExecutions.Add(1)
		r.callback.Handle(observability.Event{"tool_name": use.Name, "tool_use_id": use.ID})

		output, err := r.tools.invoke(ctx, use.Name, use.Input)
		result := anthropicContent{Type: "tool_result", ToolUseID: use.ID}
		if err != nil {
			metrics.ToolErrors.Add(1)
			r.logger.Error("tool execution failed",
				"agent", r.name, "execution_id", executionID,
				"tool_name", use.Name, "tool_use_id", use.ID,
				"error", err.Error(),
				"duration_ms", time.Since(start).Milliseconds())
			result.Content = "Error: " + err.Error()
			result.IsError = true
		} else {
			r.logger.Info("tool execution completed",
				"agent", r.name, "execution_id", executionID,
				"tool_name", use.Name, "tool_use_id", use.ID,
				"tool_input", string(use.Input),
				"tool_output", truncateForLog(output),
				"duration_ms", time.Since(start).Milliseconds())
			result.Content = output
		}
		results = append(results, result)
	}
	return results
}

func collectText(blocks []anthropicContent) string {
	var out string
	for _, b := range blocks {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}

func collectToolUses(blocks []anthropicContent) []anthropicContent {
	var uses []anthropicContent
	for _, b := range blocks {
		if b.Type == "tool_use" {
			uses = append(uses, b)
		}
	}
	return uses
}

func truncateForLog(s string) string {
	const max = 2000
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
