package events

type ToolCallStarted struct {
	Base
	ID   string
	Name string
}

func (e ToolCallStarted) String() string { return "Tool Call Started: " + e.Name }

func NewToolCallStarted(id, name string) ToolCallStarted {
	return ToolCallStarted{Base: NewBase("tool_call.started"), ID: id, Name: name}
}

type ToolCallCompleted struct {
	Base
	ID   string
	Name string
}

func (e ToolCallCompleted) String() string { return "Tool Call Completed: " + e.Name }

func NewToolCallCompleted(id, name string) ToolCallCompleted {
	return ToolCallCompleted{Base: NewBase("tool_call.completed"), ID: id, Name: name}
}

// ToolCallFailed covers both unknown tools and execution failures. The
// conversation continues either way; the failure is surfaced to the model as
// an error tool result.
type ToolCallFailed struct {
	Base
	ID   string
	Name string
	Err  error
}

func (e ToolCallFailed) String() string { return "Tool Call Failed: " + e.Name }

func NewToolCallFailed(id, name string, err error) ToolCallFailed {
	return ToolCallFailed{Base: NewBase("tool_call.failed"), ID: id, Name: name, Err: err}
}
