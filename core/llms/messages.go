package llms

// MessageKind tags the variants of [Message]. Every message in a
// conversation history is exactly one of these; consumers are expected to
// switch exhaustively on the kind instead of probing fields.
type MessageKind string

const (
	// KindUserUtterance is a transcribed user turn.
	KindUserUtterance MessageKind = "user_utterance"
	// KindAgentReply is a model response, possibly carrying tool calls.
	KindAgentReply MessageKind = "agent_reply"
	// KindToolResult is the outcome of a single executed tool call.
	KindToolResult MessageKind = "tool_result"
)

// Message is a single entry in a conversation history. It is immutable once
// created; construct values through [NewUserUtterance], [NewAgentReply] and
// [NewToolResult] so the kind always matches the populated fields.
type Message struct {
	Kind MessageKind

	// Content is the utterance text for user messages, the reply text for
	// agent messages, and the result payload for tool results.
	Content string

	// ToolCalls is only populated on agent replies.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are only populated on tool results and refer
	// to the call in the immediately preceding agent reply.
	ToolCallID string
	ToolName   string

	// IsError marks a tool result that carries an error payload instead of
	// a regular response. The conversation continues either way; the flag
	// only changes how providers serialize the result.
	IsError bool
}

func NewUserUtterance(text string) Message {
	return Message{Kind: KindUserUtterance, Content: text}
}

func NewAgentReply(reply Reply) Message {
	return Message{Kind: KindAgentReply, Content: reply.Content, ToolCalls: reply.ToolCalls}
}

func NewToolResult(call ToolCall, payload string) Message {
	return Message{Kind: KindToolResult, ToolCallID: call.ID, ToolName: call.Name, Content: payload}
}

func NewToolError(call ToolCall, payload string) Message {
	return Message{Kind: KindToolResult, ToolCallID: call.ID, ToolName: call.Name, Content: payload, IsError: true}
}

// Reply is a single response from an LLM: natural-language text, tool calls,
// or both at once (text may accompany a tool call in the same reply).
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the reply requests any tool execution.
func (r Reply) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// ToolCall is a structured request from the model to execute a named tool.
type ToolCall struct {
	// ID is unique within one reply and links the eventual result back to
	// this call.
	ID   string
	Name string
	// Arguments is the raw JSON object the model produced; tools unmarshal
	// it into their own parameter structs.
	Arguments string
}
