package orchestration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/callumelder/sonus/core/llms"
	"github.com/callumelder/sonus/core/speechtotext"
	"github.com/callumelder/sonus/core/texttospeech"
)

func waitForCondition(t *testing.T, timeout time.Duration, message string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, message)
}

// stubSpeechToText captures the callbacks the orchestrator wires in and lets
// tests push interim and final transcripts through them.
type stubSpeechToText struct {
	mu           sync.Mutex
	options      speechtotext.TranscriptionOptions
	transcribing bool
	audioFrames  int
	stopCalls    int
}

func (s *stubSpeechToText) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.options = options
	s.transcribing = true
	s.mu.Unlock()
	return nil
}

func (s *stubSpeechToText) SendAudio([]byte) error {
	s.mu.Lock()
	s.audioFrames++
	s.mu.Unlock()
	return nil
}

func (s *stubSpeechToText) StopStream() error {
	s.mu.Lock()
	s.stopCalls++
	s.mu.Unlock()
	return nil
}

func (s *stubSpeechToText) emitInterim(t *testing.T, transcript string) {
	t.Helper()

	s.mu.Lock()
	callback := s.options.InterimTranscriptionCallback
	s.mu.Unlock()
	if callback == nil {
		t.Fatal("interim transcription callback not wired")
	}
	callback(transcript)
}

func (s *stubSpeechToText) emitFinal(t *testing.T, transcript string) {
	t.Helper()

	s.mu.Lock()
	callback := s.options.TranscriptionCallback
	s.mu.Unlock()
	if callback == nil {
		t.Fatal("transcription callback not wired")
	}
	callback(transcript)
}

// stubTextToSpeech records what was synthesized. By default the returned
// buffer is the UTF-8 bytes of the text, which is shorter than one playback
// frame and plays out instantly.
type stubTextToSpeech struct {
	mu       sync.Mutex
	requests []string
	buffer   func(text string) []byte
}

func (s *stubTextToSpeech) Synthesize(_ context.Context, text string, _ ...texttospeech.SynthesisOption) ([]byte, error) {
	s.mu.Lock()
	s.requests = append(s.requests, text)
	s.mu.Unlock()

	if s.buffer != nil {
		return s.buffer(text), nil
	}
	return []byte(text), nil
}

func (s *stubTextToSpeech) synthesized() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

type scriptedReply struct {
	reply llms.Reply
	err   error
}

// stubLLM pops scripted replies in order, repeating the last one, and
// records the history of every call.
type stubLLM struct {
	mu        sync.Mutex
	replies   []scriptedReply
	calls     int
	histories [][]llms.Message
}

func (s *stubLLM) Prompt(_ context.Context, history []llms.Message, _ ...llms.PromptOption) (*llms.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.histories = append(s.histories, history)

	if len(s.replies) == 0 {
		return &llms.Reply{}, nil
	}
	next := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	if next.err != nil {
		return nil, next.err
	}
	reply := next.reply
	return &reply, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubLLM) lastHistory() []llms.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.histories) == 0 {
		return nil
	}
	return s.histories[len(s.histories)-1]
}

type orchestratorHarness struct {
	orchestrator *Orchestrator
	stt          *stubSpeechToText
	tts          *stubTextToSpeech
	llm          *stubLLM

	mu       sync.Mutex
	chunks   []AudioChunk
	states   []State
	bargeIns int
	ended    []string

	done chan error
}

func startOrchestrator(t *testing.T, llm *stubLLM, opts ...OrchestratorOption) *orchestratorHarness {
	t.Helper()

	h := &orchestratorHarness{
		stt:  &stubSpeechToText{},
		tts:  &stubTextToSpeech{},
		llm:  llm,
		done: make(chan error, 1),
	}

	orchestratorOptions := append([]OrchestratorOption{
		WithSpeechToText(h.stt),
		WithTextToSpeech(h.tts),
		WithLLM(h.llm),
	}, opts...)
	h.orchestrator = NewOrchestrator(orchestratorOptions...)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		h.done <- h.orchestrator.Run(ctx,
			WithAudioChunkCallback(func(chunk AudioChunk) {
				h.mu.Lock()
				h.chunks = append(h.chunks, chunk)
				h.mu.Unlock()
			}),
			WithStateChangedCallback(func(_, to State) {
				h.mu.Lock()
				h.states = append(h.states, to)
				h.mu.Unlock()
			}),
			WithBargeInCallback(func() {
				h.mu.Lock()
				h.bargeIns++
				h.mu.Unlock()
			}),
			WithConversationEndedCallback(func(reason string) {
				h.mu.Lock()
				h.ended = append(h.ended, reason)
				h.mu.Unlock()
			}),
		)
	}()

	t.Cleanup(func() {
		h.orchestrator.Stop()
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			t.Error("orchestrator did not shut down")
		}
	})

	waitForCondition(t, time.Second, "transcription never started", func() bool {
		h.stt.mu.Lock()
		defer h.stt.mu.Unlock()
		return h.stt.transcribing
	})

	return h
}

func (h *orchestratorHarness) visitedState(state State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, visited := range h.states {
		if visited == state {
			return true
		}
	}
	return false
}

func (h *orchestratorHarness) bargeInCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bargeIns
}

func (h *orchestratorHarness) endReasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ended...)
}

func (h *orchestratorHarness) collectedChunks() []AudioChunk {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]AudioChunk(nil), h.chunks...)
}

func (h *orchestratorHarness) awaitTermination(t *testing.T) {
	t.Helper()

	select {
	case err := <-h.done:
		h.done <- err
		if err != nil {
			t.Fatalf("orchestrator returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not terminate")
	}
}
