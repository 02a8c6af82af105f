package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	orchestration "github.com/callumelder/sonus/core"
	"github.com/callumelder/sonus/core/llms"
	"github.com/callumelder/sonus/core/speechtotext"
	"github.com/callumelder/sonus/core/texttospeech"
)

type wsSpeechToText struct {
	mu          sync.Mutex
	options     speechtotext.TranscriptionOptions
	audioFrames int
}

func (s *wsSpeechToText) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	s.mu.Lock()
	s.options = options
	s.mu.Unlock()
	return nil
}

func (s *wsSpeechToText) SendAudio([]byte) error {
	s.mu.Lock()
	s.audioFrames++
	s.mu.Unlock()
	return nil
}

func (s *wsSpeechToText) StopStream() error { return nil }

func (s *wsSpeechToText) frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioFrames
}

func (s *wsSpeechToText) emitFinal(t *testing.T, transcript string) {
	t.Helper()
	s.mu.Lock()
	callback := s.options.TranscriptionCallback
	s.mu.Unlock()
	if callback == nil {
		t.Fatal("transcription callback not wired")
	}
	callback(transcript)
}

type wsTextToSpeech struct{}

func (wsTextToSpeech) Synthesize(_ context.Context, text string, _ ...texttospeech.SynthesisOption) ([]byte, error) {
	return []byte(text), nil
}

type wsLLM struct {
	mu      sync.Mutex
	replies []llms.Reply
}

func (l *wsLLM) Prompt(_ context.Context, _ []llms.Message, _ ...llms.PromptOption) (*llms.Reply, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.replies) == 0 {
		return &llms.Reply{}, nil
	}
	reply := l.replies[0]
	if len(l.replies) > 1 {
		l.replies = l.replies[1:]
	}
	return &reply, nil
}

type sessionHarness struct {
	client *websocket.Conn
	stt    *wsSpeechToText
}

// dialSession serves one gateway over a test HTTP server and connects a
// client to it. The conversation behind the connection runs on stub
// collaborators so the test controls every transcript and reply.
func dialSession(t *testing.T, llm *wsLLM) *sessionHarness {
	t.Helper()

	h := &sessionHarness{stt: &wsSpeechToText{}}

	server := NewServer(func(context.Context) (*orchestration.Orchestrator, error) {
		return orchestration.NewOrchestrator(
			orchestration.WithSpeechToText(h.stt),
			orchestration.WithTextToSpeech(wsTextToSpeech{}),
			orchestration.WithLLM(llm),
		), nil
	}, WithCheckOrigin(func(*http.Request) bool { return true }))

	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial gateway: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	h.client = client
	return h
}

func (h *sessionHarness) sendMessage(t *testing.T, message any) {
	t.Helper()
	if err := h.client.WriteJSON(message); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
}

// readUntil reads outbound messages until one of the wanted type arrives,
// failing the test if the connection closes or the deadline passes first.
func (h *sessionHarness) readUntil(t *testing.T, messageType string) map[string]any {
	t.Helper()
	h.client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := h.client.ReadMessage()
		if err != nil {
			t.Fatalf("Connection closed while waiting for %q: %v", messageType, err)
		}
		var message map[string]any
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Received invalid JSON: %v", err)
		}
		if message["type"] == messageType {
			return message
		}
	}
}

func TestSessionSpeaksReplyOverWebSocket(t *testing.T) {
	llm := &wsLLM{replies: []llms.Reply{{Content: "Hello there."}}}
	h := dialSession(t, llm)

	h.sendMessage(t, map[string]string{"type": "start_conversation"})
	h.readUntil(t, "start_listening")

	h.sendMessage(t, map[string]any{"type": "audio_data", "chunk": []byte{0, 0, 0, 0}})
	waitForFrames(t, h.stt, 1)

	h.stt.emitFinal(t, "hello")

	final := h.readUntil(t, "final_transcript")
	if final["text"] != "hello" {
		t.Errorf("Expected final transcript 'hello', got %v", final["text"])
	}

	response := h.readUntil(t, "audio_response")
	if response["format"] != "linear16;rate=16000" {
		t.Errorf("Unexpected audio format: %v", response["format"])
	}
	if response["isComplete"] != false {
		t.Errorf("Expected a non-terminal audio response, got isComplete=%v", response["isComplete"])
	}
	if int(response["size"].(float64)) != len("Hello there.") {
		t.Errorf("Expected size %d, got %v", len("Hello there."), response["size"])
	}
}

func TestSessionStopEndsConversation(t *testing.T) {
	llm := &wsLLM{}
	h := dialSession(t, llm)

	h.sendMessage(t, map[string]string{"type": "start_conversation"})
	h.readUntil(t, "start_listening")

	h.sendMessage(t, map[string]string{"type": "stop"})

	ended := h.readUntil(t, "conversation_ended")
	if ended["reason"] != "stopped" {
		t.Errorf("Expected reason 'stopped', got %v", ended["reason"])
	}
}

func TestSessionRejectsUnknownMessage(t *testing.T) {
	h := dialSession(t, &wsLLM{})

	h.sendMessage(t, map[string]string{"type": "reboot"})

	rejection := h.readUntil(t, "error")
	if rejection["error"] == "" {
		t.Error("Expected an explanatory error message")
	}

	h.client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := h.client.ReadMessage(); err != nil {
			return // connection closed, as required for protocol violations
		}
	}
}

func TestSessionDropsAudioBeforeConversationStarts(t *testing.T) {
	h := dialSession(t, &wsLLM{})

	h.sendMessage(t, map[string]any{"type": "audio_data", "chunk": []byte{0, 0}})
	h.sendMessage(t, map[string]string{"type": "start_conversation"})
	h.readUntil(t, "start_listening")

	if got := h.stt.frames(); got != 0 {
		t.Errorf("Expected pre-conversation audio to be dropped, got %d frames", got)
	}
}

func waitForFrames(t *testing.T, stt *wsSpeechToText, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if stt.frames() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d audio frames to reach the transcriber", want)
}
