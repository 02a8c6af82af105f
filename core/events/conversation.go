package events

// StateChanged reports a turn state machine transition. States are carried
// as plain strings so event consumers do not depend on the orchestration
// package.
type StateChanged struct {
	Base
	From string
	To   string
}

func (e StateChanged) String() string { return e.From + " -> " + e.To }

func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase("conversation.state_changed"), From: from, To: to}
}

// BargeIn signals that user speech interrupted ongoing playback. Fires at
// most once per playback session.
type BargeIn struct{ Base }

func (e BargeIn) String() string { return "Barge-In" }

func NewBargeIn() BargeIn {
	return BargeIn{Base: NewBase("conversation.barge_in")}
}

type ConversationEnded struct {
	Base
	Reason string
}

func (e ConversationEnded) String() string { return "Conversation Ended: " + e.Reason }

func NewConversationEnded(reason string) ConversationEnded {
	return ConversationEnded{Base: NewBase("conversation.ended"), Reason: reason}
}
