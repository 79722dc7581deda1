package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Model is the minimal contract the agent loop needs from a model adapter.
//
// Adapters in the llm package (Bedrock, OpenAI) satisfy this interface.
// The loop hands the model the conversation so far plus the specs of the
// registered tools; the model replies with either a final message or a set
// of tool calls.
type Model interface {
	// Converse sends the conversation and tool specs to the model and
	// returns its next turn.
	Converse(ctx context.Context, messages []*Message, tools []ToolSpec) (*ModelOutput, error)

	// ModelID returns the model identifier.
	ModelID() string
}

// ModelOutput is one model turn: a message, the reason generation stopped,
// and any tool calls the model requested.
type ModelOutput struct {
	Message    *Message
	StopReason string
	Usage      map[string]interface{}
}

// Stop reasons shared across model adapters.
const (
	StopEndTurn             = "end_turn"
	StopToolUse             = "tool_use"
	StopMaxTokens           = "max_tokens"
	StopGuardrailIntervened = "guardrail_intervened"
)

// Agent binds a model, a system prompt, and a set of tools, and keeps the
// running conversation history.
//
// Example:
//
//	model, _ := llm.NewBedrockModel(ctx, llm.BedrockConfig{ModelID: "us.amazon.nova-lite-v1:0"})
//	a := agent.New(agent.Config{
//	    Name:         "weather",
//	    Model:        model,
//	    SystemPrompt: weatherPrompt,
//	    Tools:        []agent.Tool{tools.NewHTTPRequestTool(nil)},
//	})
//	answer, err := a.Run(ctx, "What's the weather like in Seattle?")
type Agent struct {
	name         string
	model        Model
	systemPrompt string
	tools        map[string]Tool
	specs        []ToolSpec
	history      []*Message
	maxToolTurns int
	logger       *slog.Logger
	tracer       trace.Tracer
}

// Config configures an Agent.
type Config struct {
	// Name identifies the agent in logs and traces.
	Name string
	// Model is the model adapter driving the agent.
	Model Model
	// SystemPrompt is prepended to every conversation.
	SystemPrompt string
	// Tools are the callable tools exposed to the model.
	Tools []Tool
	// MaxToolTurns bounds tool-use round trips per Run (default 10).
	MaxToolTurns int
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a new Agent.
func New(cfg Config) *Agent {
	if cfg.MaxToolTurns <= 0 {
		cfg.MaxToolTurns = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "agent"
	}
	a := &Agent{
		name:         cfg.Name,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		tools:        make(map[string]Tool),
		maxToolTurns: cfg.MaxToolTurns,
		logger:       cfg.Logger,
		tracer:       otel.Tracer("agentware/agent"),
	}
	for _, t := range cfg.Tools {
		a.tools[t.Name()] = t
		a.specs = append(a.specs, SpecFor(t))
	}
	return a
}

// Name returns the agent's identifier.
func (a *Agent) Name() string { return a.name }

// Messages returns the conversation history accumulated so far.
func (a *Agent) Messages() []*Message { return a.history }

// SetHistory replaces the conversation history, e.g. when restoring a
// session from a memory backend.
func (a *Agent) SetHistory(messages []*Message) { a.history = messages }

// Reset clears the conversation history.
func (a *Agent) Reset() { a.history = nil }

// Run processes one user input and returns the model's final answer.
//
// The loop sends the conversation to the model; if the model requests tool
// calls, each tool is executed and its result (or error) is fed back, up to
// MaxToolTurns round trips. Tool failures never abort the run: the error
// text is returned to the model as an error tool result.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(
			attribute.String("agent.name", a.name),
			attribute.String("model.id", a.model.ModelID()),
		))
	defer span.End()

	messages := a.conversation(NewMessage("user", input))

	for turn := 0; turn < a.maxToolTurns; turn++ {
		out, err := a.model.Converse(ctx, messages, a.specs)
		if err != nil {
			return "", fmt.Errorf("model converse: %w", err)
		}
		messages = append(messages, out.Message)

		if out.StopReason != StopToolUse || len(out.Message.ToolCalls) == 0 {
			a.history = messages
			return out.Message.Content, nil
		}

		results := a.executeToolCalls(ctx, out.Message.ToolCalls)
		messages = append(messages, &Message{
			Role:        "tool",
			ToolResults: results,
		})
	}

	a.history = messages
	return "", fmt.Errorf("agent %s: exceeded %d tool turns without a final answer", a.name, a.maxToolTurns)
}

// conversation builds the message list for a model call: system prompt,
// prior history, then the new user message.
func (a *Agent) conversation(userMsg *Message) []*Message {
	var messages []*Message
	if a.systemPrompt != "" && (len(a.history) == 0 || a.history[0].Role != "system") {
		messages = append(messages, NewMessage("system", a.systemPrompt))
	}
	messages = append(messages, a.history...)
	return append(messages, userMsg)
}

// executeToolCalls runs each requested tool and collects result blocks.
func (a *Agent) executeToolCalls(ctx context.Context, calls []ToolCall) []ToolResultBlock {
	results := make([]ToolResultBlock, 0, len(calls))
	for _, call := range calls {
		results = append(results, a.executeToolCall(ctx, call))
	}
	return results
}

func (a *Agent) executeToolCall(ctx context.Context, call ToolCall) ToolResultBlock {
	ctx, span := a.tracer.Start(ctx, "agent.tool",
		trace.WithAttributes(attribute.String("tool.name", call.Name)))
	defer span.End()

	tool, ok := a.tools[call.Name]
	if !ok {
		a.logger.Warn("model requested unknown tool", "agent", a.name, "tool", call.Name)
		return ToolResultBlock{
			CallID:  call.ID,
			Content: fmt.Sprintf("unknown tool: %s", call.Name),
			IsError: true,
		}
	}

	result, err := tool.Execute(ctx, call.Parameters)
	if err != nil {
		a.logger.Error("tool execution failed", "agent", a.name, "tool", call.Name, "err", err)
		return ToolResultBlock{CallID: call.ID, Content: err.Error(), IsError: true}
	}
	if !result.Success {
		return ToolResultBlock{CallID: call.ID, Content: result.Error, IsError: true}
	}
	return ToolResultBlock{CallID: call.ID, Content: renderToolData(result.Data)}
}

// renderToolData flattens a tool result into the text handed back to the
// model. Non-string data is JSON encoded.
func renderToolData(data interface{}) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
