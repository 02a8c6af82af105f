package orchestration

import (
	"context"
	"errors"

	"github.com/callumelder/sonus/core/audio"
	"github.com/callumelder/sonus/core/texttospeech"
)

// textToSpeech wraps the configured synthesis client. Synthesis failures are
// never fatal to the conversation; the orchestrator skips playback for the
// turn and carries on.
type textToSpeech struct {
	client TextToSpeech
	voice  string
}

func newTextToSpeech() *textToSpeech {
	return &textToSpeech{}
}

func (t *textToSpeech) set(client TextToSpeech) {
	if t != nil {
		t.client = client
	}
}

func (t *textToSpeech) isConfigured() bool {
	return t != nil && t.client != nil
}

// synthesize converts text into one complete audio buffer. An unconfigured
// client yields a nil buffer, which callers treat like a skipped playback.
func (t *textToSpeech) synthesize(ctx context.Context, text string, encodingInfo audio.EncodingInfo) ([]byte, error) {
	if !t.isConfigured() || text == "" {
		return nil, nil
	}

	opts := []texttospeech.SynthesisOption{texttospeech.WithEncodingInfo(encodingInfo)}
	if t.voice != "" {
		opts = append(opts, texttospeech.WithVoice(t.voice))
	}

	buffer, err := t.client.Synthesize(ctx, text, opts...)
	if err != nil {
		return nil, errors.Join(ErrSynthesis, err)
	}
	return buffer, nil
}
