package orchestration

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/callumelder/sonus/core/llms"
)

func TestPlainReplySpeaksExactlyThatText(t *testing.T) {
	llm := &stubLLM{replies: []scriptedReply{
		{reply: llms.Reply{Content: "Sure, sending that now."}},
	}}
	h := startOrchestrator(t, llm)

	h.stt.emitFinal(t, "Send the draft to James")

	waitForCondition(t, time.Second, "reply was not synthesized", func() bool {
		return len(h.tts.synthesized()) == 1
	})
	if got := h.tts.synthesized()[0]; got != "Sure, sending that now." {
		t.Fatalf("expected exact reply text to be synthesized, got %q", got)
	}

	if h.visitedState(StateToolRunning) {
		t.Fatal("expected tool running to be skipped for a plain reply")
	}
	waitForCondition(t, time.Second, "did not return to listening", func() bool {
		return h.orchestrator.State() == StateListening
	})
}

func TestEmptyReplySkipsSynthesisAndReturnsToListening(t *testing.T) {
	llm := &stubLLM{replies: []scriptedReply{
		{reply: llms.Reply{Content: ""}},
	}}
	h := startOrchestrator(t, llm)

	h.stt.emitFinal(t, "hmm")

	waitForCondition(t, time.Second, "speaking was never entered", func() bool {
		return h.visitedState(StateSpeaking)
	})
	waitForCondition(t, time.Second, "did not return to listening", func() bool {
		return h.orchestrator.State() == StateListening
	})

	if got := h.tts.synthesized(); len(got) != 0 {
		t.Fatalf("expected no synthesis for an empty reply, got %v", got)
	}
	if chunks := h.collectedChunks(); len(chunks) != 0 {
		t.Fatalf("expected no playback for an empty reply, got %d chunks", len(chunks))
	}
}

func TestToolResultsAppendedInAgentOrder(t *testing.T) {
	searchCall := llms.ToolCall{ID: "call-1", Name: "search_emails", Arguments: `{"query":"from:james"}`}
	readCall := llms.ToolCall{ID: "call-2", Name: "read_email", Arguments: `{"message_id":"42"}`}

	llm := &stubLLM{replies: []scriptedReply{
		{reply: llms.Reply{ToolCalls: []llms.ToolCall{searchCall, readCall}}},
		{reply: llms.Reply{Content: "Found it."}},
	}}

	var invoked []string
	tools := []llms.Tool{
		llms.NewTool("search_emails", "search", func(struct {
			Query string `json:"query"`
		}) (string, error) {
			invoked = append(invoked, "search_emails")
			return `{"ids":["42"]}`, nil
		}),
		llms.NewTool("read_email", "read", func(struct {
			MessageID string `json:"message_id"`
		}) (string, error) {
			invoked = append(invoked, "read_email")
			return `{"body":"hello"}`, nil
		}),
	}

	h := startOrchestrator(t, llm, WithTools(tools...))
	h.stt.emitFinal(t, "What did James send me")

	waitForCondition(t, time.Second, "agent was not re-consulted after tools", func() bool {
		return h.llm.callCount() == 2
	})

	if len(invoked) != 2 || invoked[0] != "search_emails" || invoked[1] != "read_email" {
		t.Fatalf("expected tools invoked in agent order, got %v", invoked)
	}

	history := h.llm.lastHistory()
	if len(history) != 4 {
		t.Fatalf("expected 4 history messages, got %d", len(history))
	}
	if history[1].Kind != llms.KindAgentReply || len(history[1].ToolCalls) != 2 {
		t.Fatalf("expected agent reply with two tool calls, got %+v", history[1])
	}
	if history[2].Kind != llms.KindToolResult || history[2].ToolCallID != "call-1" {
		t.Fatalf("expected first tool result for call-1, got %+v", history[2])
	}
	if history[3].Kind != llms.KindToolResult || history[3].ToolCallID != "call-2" {
		t.Fatalf("expected second tool result for call-2, got %+v", history[3])
	}
}

func TestUnknownToolContinuesConversation(t *testing.T) {
	llm := &stubLLM{replies: []scriptedReply{
		{reply: llms.Reply{ToolCalls: []llms.ToolCall{
			{ID: "call-1", Name: "calendar_lookup", Arguments: `{"day":"today"}`},
		}}},
		{reply: llms.Reply{Content: "I can't check calendars, sorry."}},
	}}
	h := startOrchestrator(t, llm)

	h.stt.emitFinal(t, "What's on my calendar for today")

	waitForCondition(t, time.Second, "agent was not re-consulted after unknown tool", func() bool {
		return h.llm.callCount() == 2
	})

	history := h.llm.lastHistory()
	if len(history) != 3 {
		t.Fatalf("expected 3 history messages, got %d", len(history))
	}
	result := history[2]
	if result.Kind != llms.KindToolResult || !result.IsError {
		t.Fatalf("expected error tool result, got %+v", result)
	}
	if result.ToolCallID != "call-1" {
		t.Fatalf("expected result linked to call-1, got %q", result.ToolCallID)
	}

	if len(h.endReasons()) != 0 {
		t.Fatal("conversation must not terminate on an unknown tool")
	}
	waitForCondition(t, time.Second, "did not return to listening", func() bool {
		return h.orchestrator.State() == StateListening
	})
}

func TestEndConversationNeedsConfirmationRound(t *testing.T) {
	llm := &stubLLM{replies: []scriptedReply{
		{reply: llms.Reply{
			Content:   "Is there anything else you need help with?",
			ToolCalls: []llms.ToolCall{{ID: "end-1", Name: EndConversationToolName}},
		}},
		{reply: llms.Reply{
			Content:   "Goodbye!",
			ToolCalls: []llms.ToolCall{{ID: "end-2", Name: EndConversationToolName, Arguments: `{"reason":"user done"}`}},
		}},
	}}
	h := startOrchestrator(t, llm)

	h.stt.emitFinal(t, "That's all for today")

	// First end request: confirmation question is spoken, conversation stays
	// alive and returns to listening.
	waitForCondition(t, time.Second, "confirmation question not synthesized", func() bool {
		return len(h.tts.synthesized()) == 1
	})
	if got := h.tts.synthesized()[0]; got != "Is there anything else you need help with?" {
		t.Fatalf("expected confirmation question, got %q", got)
	}
	if !h.visitedState(StateConfirmingEnd) {
		t.Fatal("expected the confirming end state to be visited")
	}
	waitForCondition(t, time.Second, "did not return to listening", func() bool {
		return h.orchestrator.State() == StateListening
	})
	if len(h.endReasons()) != 0 {
		t.Fatal("conversation must not terminate on the first end request")
	}

	// Second end request terminates and speaks the trailing text to
	// completion.
	h.stt.emitFinal(t, "No that's everything")
	h.awaitTermination(t)

	reasons := h.endReasons()
	if len(reasons) != 1 || reasons[0] != "user done" {
		t.Fatalf("expected end reason %q, got %v", "user done", reasons)
	}

	chunks := h.collectedChunks()
	if len(chunks) == 0 {
		t.Fatal("expected goodbye audio chunks")
	}
	last := chunks[len(chunks)-1]
	if !last.IsComplete {
		t.Fatal("expected the terminal utterance's last chunk to be marked complete")
	}
	for _, chunk := range chunks[:len(chunks)-1] {
		if chunk.IsComplete {
			t.Fatal("only the terminal utterance may be marked complete")
		}
	}
}

func TestInterimTranscriptBargesInExactlyOnce(t *testing.T) {
	llm := &stubLLM{replies: []scriptedReply{
		{reply: llms.Reply{Content: "Here is a long answer."}},
	}}
	h := startOrchestrator(t, llm)
	// A buffer spanning many playback frames so playback is still going when
	// the interim arrives.
	h.tts.buffer = func(string) []byte {
		return bytes.Repeat([]byte{0x01}, 64000)
	}

	h.stt.emitFinal(t, "Tell me everything")

	waitForCondition(t, time.Second, "playback never started", func() bool {
		return h.orchestrator.playback.Playing()
	})

	h.stt.emitInterim(t, "wait")
	waitForCondition(t, time.Second, "barge-in did not stop playback", func() bool {
		return !h.orchestrator.playback.Playing()
	})
	if got := h.bargeInCount(); got != 1 {
		t.Fatalf("expected exactly one barge-in, got %d", got)
	}

	// Further interims with nothing playing must not fire again.
	h.stt.emitInterim(t, "wait a moment")
	time.Sleep(50 * time.Millisecond)
	if got := h.bargeInCount(); got != 1 {
		t.Fatalf("expected barge-in to fire at most once per playback, got %d", got)
	}
}

func TestSourceClosingWithoutFinalYieldsEmptyUtterance(t *testing.T) {
	llm := &stubLLM{replies: []scriptedReply{
		{reply: llms.Reply{Content: "Are you still there?"}},
	}}
	h := startOrchestrator(t, llm)

	h.orchestrator.CloseAudioSource()

	waitForCondition(t, time.Second, "agent never consulted", func() bool {
		return h.llm.callCount() >= 1
	})
	history := h.llm.lastHistory()
	if len(history) != 1 || history[0].Kind != llms.KindUserUtterance || history[0].Content != "" {
		t.Fatalf("expected a single empty user utterance, got %+v", history)
	}

	// With the source drained for good, the next listening phase terminates
	// the session instead of waiting forever.
	h.awaitTermination(t)
}

func TestAgentFailureFallsBackToApology(t *testing.T) {
	llm := &stubLLM{replies: []scriptedReply{
		{err: errors.New("model overloaded")},
	}}
	h := startOrchestrator(t, llm, WithAgentRetries(2))

	h.stt.emitFinal(t, "Hello?")

	waitForCondition(t, time.Second, "apology was not synthesized", func() bool {
		requests := h.tts.synthesized()
		return len(requests) == 1 && requests[0] == apologyUtterance
	})
	if got := h.llm.callCount(); got != 2 {
		t.Fatalf("expected exactly 2 bounded attempts, got %d", got)
	}
	waitForCondition(t, time.Second, "did not return to listening after apology", func() bool {
		return h.orchestrator.State() == StateListening
	})
	if len(h.endReasons()) != 0 {
		t.Fatal("an agent failure must not end the conversation")
	}
}

func TestHardStopBypassesConfirmation(t *testing.T) {
	llm := &stubLLM{}
	h := startOrchestrator(t, llm)

	h.orchestrator.Stop()
	h.awaitTermination(t)

	reasons := h.endReasons()
	if len(reasons) != 1 || reasons[0] != endReasonStopped {
		t.Fatalf("expected end reason %q, got %v", endReasonStopped, reasons)
	}
	if got := h.tts.synthesized(); len(got) != 0 {
		t.Fatalf("expected no trailing utterance on hard stop, got %v", got)
	}
}

func TestTurnLocalErrorClassification(t *testing.T) {
	for _, err := range []error{ErrRecognition, ErrSynthesis, ErrUnknownTool, ErrToolExecution} {
		if !IsTurnLocal(err) {
			t.Fatalf("expected %v to be turn-local", err)
		}
	}
	for _, err := range []error{ErrDeviceUnavailable, ErrProtocol, ErrAgentInvocation} {
		if IsTurnLocal(err) {
			t.Fatalf("expected %v to end the session, not the turn", err)
		}
	}
}
