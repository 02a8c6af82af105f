package deepgram

import "github.com/callumelder/sonus/core/speechtotext"

// transcriptionCallbacks is the resolved set of callbacks for one stream.
// All of them are non-nil; unset options are replaced with noops so message
// processing never has to nil-check.
type transcriptionCallbacks struct {
	partialInterimTranscriptionCallback func(transcript string)
	interimTranscriptionCallback        func(transcript string)
	partialTranscriptionCallback        func(transcript string)
	transcriptionCallback               func(transcript string)

	startSpeechCallback func()
	endSpeechCallback   func()

	// wantsFullTranscript records whether a full-utterance callback was
	// configured, which controls transcript accumulation across segments.
	wantsFullTranscript bool
	// prefersPartialInterim routes interim results to the partial callback
	// instead of the accumulated one.
	prefersPartialInterim bool
}

// websocketConfig captures which optional Deepgram features the connection
// should request, derived from the callbacks the caller configured.
type websocketConfig struct {
	shouldDetectSpeechStart            bool
	shouldEnhanceSpeechEndingDetection bool
	shouldRequestInterimResults        bool
}

func newCallbackConfig(options speechtotext.TranscriptionOptions) (transcriptionCallbacks, websocketConfig) {
	callbacks := transcriptionCallbacks{
		partialInterimTranscriptionCallback: func(string) {},
		interimTranscriptionCallback:        func(string) {},
		partialTranscriptionCallback:        func(string) {},
		transcriptionCallback:               func(string) {},
		startSpeechCallback:                 func() {},
		endSpeechCallback:                   func() {},

		wantsFullTranscript:   options.TranscriptionCallback != nil,
		prefersPartialInterim: options.PartialInterimTranscriptionCallback != nil,
	}
	if options.PartialInterimTranscriptionCallback != nil {
		callbacks.partialInterimTranscriptionCallback = options.PartialInterimTranscriptionCallback
	}
	if options.InterimTranscriptionCallback != nil {
		callbacks.interimTranscriptionCallback = options.InterimTranscriptionCallback
	}
	if options.PartialTranscriptionCallback != nil {
		callbacks.partialTranscriptionCallback = options.PartialTranscriptionCallback
	}
	if options.TranscriptionCallback != nil {
		callbacks.transcriptionCallback = options.TranscriptionCallback
	}
	if options.SpeechStartedCallback != nil {
		callbacks.startSpeechCallback = options.SpeechStartedCallback
	}
	if options.SpeechEndedCallback != nil {
		callbacks.endSpeechCallback = options.SpeechEndedCallback
	}

	wsConfig := websocketConfig{
		shouldDetectSpeechStart: options.SpeechStartedCallback != nil,
		shouldEnhanceSpeechEndingDetection: options.TranscriptionCallback != nil ||
			options.SpeechEndedCallback != nil,
		shouldRequestInterimResults: options.InterimTranscriptionCallback != nil ||
			options.PartialInterimTranscriptionCallback != nil,
	}

	return callbacks, wsConfig
}
