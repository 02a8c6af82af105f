package orchestration

import (
	"github.com/callumelder/sonus/core/llms"
	"github.com/jinzhu/copier"
)

// ConversationHistory is the append-only message sequence for one
// conversation. Insertion order is significant: it defines the context order
// the model sees. It is owned by a single control flow per session and is
// therefore unsynchronized.
type ConversationHistory struct {
	messages []llms.Message
}

func NewConversationHistory() *ConversationHistory {
	return &ConversationHistory{}
}

func (h *ConversationHistory) Append(message llms.Message) {
	h.messages = append(h.messages, message)
}

// Messages returns a shallow copy of the message sequence, safe against
// later appends.
func (h *ConversationHistory) Messages() []llms.Message {
	messages := make([]llms.Message, len(h.messages))
	copy(messages, h.messages)
	return messages
}

func (h *ConversationHistory) Len() int {
	return len(h.messages)
}

// Snapshot deep-copies the history so a caller can inspect a point-in-time
// view while the conversation keeps appending.
func (h *ConversationHistory) Snapshot() *ConversationHistory {
	snapshot := &ConversationHistory{}
	if err := copier.CopyWithOption(&snapshot.messages, &h.messages, copier.Option{DeepCopy: true}); err != nil {
		// Fall back to a shallow copy; messages are immutable once created
		// so this only weakens isolation of the ToolCalls slices.
		snapshot.messages = h.Messages()
	}
	return snapshot
}
