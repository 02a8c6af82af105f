package orchestration

import (
	"context"
	"fmt"

	"github.com/callumelder/sonus/core/events"
	"github.com/callumelder/sonus/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EndConversationToolName is the reserved control tool. It is exposed to the
// model like any other tool but intercepted by the orchestrator before
// reaching the registry; it never produces a tool result.
const EndConversationToolName = "end_conversation"

type endConversationParameters struct {
	Reason string `json:"reason,omitempty" jsonschema:"description=Why the conversation is ending"`
}

// EndConversationTool returns the schema-only definition of the reserved
// control tool. Its execute function exists to satisfy the tool contract but
// is never invoked.
func EndConversationTool() llms.Tool {
	return llms.NewTool(EndConversationToolName,
		"End the current conversation. Use this only after the user has explicitly confirmed they are finished.",
		func(endConversationParameters) (string, error) {
			return `{"status":"ended"}`, nil
		})
}

// toolRegistry is the fixed, name-keyed tool set assembled at conversation
// setup. Invocation never fails the conversation: unknown tools and
// execution failures both come back as error tool results so the model gets
// a chance to recover.
type toolRegistry struct {
	tools map[string]llms.Tool
	order []string
}

func newToolRegistry() *toolRegistry {
	return &toolRegistry{tools: map[string]llms.Tool{}}
}

func (r *toolRegistry) add(tools ...llms.Tool) {
	for _, tool := range tools {
		if _, exists := r.tools[tool.Name]; !exists {
			r.order = append(r.order, tool.Name)
		}
		r.tools[tool.Name] = tool
	}
}

// available lists the registered tools in registration order, with the
// reserved end-conversation tool appended.
func (r *toolRegistry) available() []llms.Tool {
	tools := make([]llms.Tool, 0, len(r.order)+1)
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return append(tools, EndConversationTool())
}

// invoke executes one tool call and always returns a history message: a
// regular result on success, an error payload on unknown tool or execution
// failure.
func (r *toolRegistry) invoke(ctx context.Context, call llms.ToolCall, emitEvent eventEmitter) llms.Message {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", call.Name))

	emitEvent(events.NewToolCallStarted(call.ID, call.Name))

	tool, ok := r.tools[call.Name]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "agent requested unknown tool", "tool", call.Name)
		emitEvent(events.NewToolCallFailed(call.ID, call.Name, err))
		return llms.NewToolError(call, fmt.Sprintf("unknown tool: %q", call.Name))
	}

	payload, err := tool.Execute(call.Arguments)
	if err != nil {
		err = fmt.Errorf("%w: %q: %s", ErrToolExecution, call.Name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "tool execution failed", "tool", call.Name, "error", err)
		emitEvent(events.NewToolCallFailed(call.ID, call.Name, err))
		return llms.NewToolError(call, fmt.Sprintf("tool failed: %s", err))
	}

	emitEvent(events.NewToolCallCompleted(call.ID, call.Name))
	return llms.NewToolResult(call, payload)
}

// splitEndConversation separates the reserved control tool from the
// side-effecting calls of one reply, preserving order of the rest.
func splitEndConversation(calls []llms.ToolCall) (endCall *llms.ToolCall, rest []llms.ToolCall) {
	for _, call := range calls {
		if call.Name == EndConversationToolName {
			if endCall == nil {
				call := call
				endCall = &call
			}
			continue
		}
		rest = append(rest, call)
	}
	return endCall, rest
}
