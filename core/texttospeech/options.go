package texttospeech

import "github.com/callumelder/sonus/core/audio"

type SynthesisOptions struct {
	// Voice selects the provider voice. Providers fall back to their own
	// default when it is empty.
	Voice string

	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Voice = voice }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
