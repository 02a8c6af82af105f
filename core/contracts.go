package orchestration

import (
	"context"

	"github.com/callumelder/sonus/core/llms"
	"github.com/callumelder/sonus/core/speechtotext"
	"github.com/callumelder/sonus/core/texttospeech"
)

// SpeechToText is the streaming transcription collaborator. Transcribe opens
// the recognition stream and reports transcripts through the configured
// callbacks until the stream is closed; SendAudio feeds it raw frames.
type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	StopStream() error
}

// TextToSpeech converts text into one complete, in-memory audio buffer. The
// provider may stream internally but the contract delivers a finished buffer.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, error)
}

// LLM is the language-model collaborator. Exactly one reply per call,
// carrying natural-language text, tool calls, or both.
type LLM interface {
	Prompt(ctx context.Context, history []llms.Message, opts ...llms.PromptOption) (*llms.Reply, error)
}

// AudioCaptureSource produces raw audio frames from a local input device.
// Sessions fed over the network do not need one; their frames arrive through
// [Orchestrator.SendAudio] instead.
type AudioCaptureSource interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}
