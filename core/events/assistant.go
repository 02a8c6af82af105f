package events

// AssistantReplied carries the natural-language text of one agent reply,
// before synthesis. Replies that only request tools have empty content.
type AssistantReplied struct {
	Base
	Content string
}

func (e AssistantReplied) String() string { return e.Content }

func NewAssistantReplied(content string) AssistantReplied {
	return AssistantReplied{Base: NewBase("assistant.replied"), Content: content}
}
