package orchestration

import (
	"github.com/callumelder/sonus/core/audio"
	"github.com/callumelder/sonus/core/llms"
)

type OrchestratorOption func(*Orchestrator)

// WithSpeechToText configures the streaming transcription collaborator.
// Without one the orchestrator never receives transcripts and idles in the
// listening state.
func WithSpeechToText(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText.set(client) }
}

// WithTextToSpeech configures the synthesis collaborator. Without one reply
// text is skipped instead of spoken.
func WithTextToSpeech(client TextToSpeech) OrchestratorOption {
	return func(o *Orchestrator) { o.textToSpeech.set(client) }
}

// WithLLM configures the language-model collaborator.
func WithLLM(client LLM) OrchestratorOption {
	return func(o *Orchestrator) { o.agent.set(client) }
}

// WithSystemPrompt sets the instructions passed on every agent call.
func WithSystemPrompt(instructions string) OrchestratorOption {
	return func(o *Orchestrator) { o.agent.instructions = instructions }
}

// WithTools registers the tools the agent may call. The reserved
// end-conversation tool is always appended; callers do not register it.
func WithTools(tools ...llms.Tool) OrchestratorOption {
	return func(o *Orchestrator) { o.registry.add(tools...) }
}

// WithAudioCaptureSource attaches a local capture device whose frames are
// piped into transcription. Network-fed sessions skip this and use
// [Orchestrator.SendAudio].
func WithAudioCaptureSource(source AudioCaptureSource) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput.source = source }
}

// WithEncodingInfo overrides the audio encoding used for transcription,
// synthesis and playback pacing.
func WithEncodingInfo(encodingInfo audio.EncodingInfo) OrchestratorOption {
	return func(o *Orchestrator) {
		if !encodingInfo.IsZero() {
			o.encodingInfo = encodingInfo
		}
	}
}

// WithAgentRetries bounds how often a failed agent call is retried before
// the orchestrator falls back to the apology utterance.
func WithAgentRetries(retries int) OrchestratorOption {
	return func(o *Orchestrator) {
		if retries > 0 {
			o.agent.maxAttempts = retries
		}
	}
}

// WithVoice selects the synthesis voice, when the TTS provider supports it.
func WithVoice(voice string) OrchestratorOption {
	return func(o *Orchestrator) { o.textToSpeech.voice = voice }
}

type runOptions struct {
	onListeningStateChanged func(listening bool)
	onInterimTranscript     func(transcript string)
	onFinalTranscript       func(transcript string)
	onReply                 func(content string)
	onAudioChunk            func(chunk AudioChunk)
	onPlaybackEnded         func(interrupted bool)
	onStateChanged          func(from, to State)
	onBargeIn               func()
	onConversationEnded     func(reason string)
}

type RunOption func(*runOptions)

// WithListeningStateChangedCallback reports when the client should start or
// stop streaming microphone audio.
func WithListeningStateChangedCallback(callback func(listening bool)) RunOption {
	return func(o *runOptions) { o.onListeningStateChanged = callback }
}

// WithInterimTranscriptCallback reports live caption snapshots.
func WithInterimTranscriptCallback(callback func(transcript string)) RunOption {
	return func(o *runOptions) { o.onInterimTranscript = callback }
}

// WithFinalTranscriptCallback reports the authoritative transcript for each
// capture phase.
func WithFinalTranscriptCallback(callback func(transcript string)) RunOption {
	return func(o *runOptions) { o.onFinalTranscript = callback }
}

// WithReplyCallback reports the text of each agent reply before synthesis.
func WithReplyCallback(callback func(content string)) RunOption {
	return func(o *runOptions) { o.onReply = callback }
}

// WithAudioChunkCallback receives paced synthesized audio on its way to the
// output; the transport encodes and forwards it.
func WithAudioChunkCallback(callback func(chunk AudioChunk)) RunOption {
	return func(o *runOptions) { o.onAudioChunk = callback }
}

// WithPlaybackEndedCallback reports that a playback session finished or was
// interrupted.
func WithPlaybackEndedCallback(callback func(interrupted bool)) RunOption {
	return func(o *runOptions) { o.onPlaybackEnded = callback }
}

// WithStateChangedCallback observes turn state machine transitions.
func WithStateChangedCallback(callback func(from, to State)) RunOption {
	return func(o *runOptions) { o.onStateChanged = callback }
}

// WithBargeInCallback fires when user speech pre-empts playback.
func WithBargeInCallback(callback func()) RunOption {
	return func(o *runOptions) { o.onBargeIn = callback }
}

// WithConversationEndedCallback fires once, when the session reaches the
// terminated state.
func WithConversationEndedCallback(callback func(reason string)) RunOption {
	return func(o *runOptions) { o.onConversationEnded = callback }
}
