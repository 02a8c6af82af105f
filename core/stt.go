package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/callumelder/sonus/core/audio"
	"github.com/callumelder/sonus/core/speechtotext"
)

// speechToText adapts the configured transcription client into the channels
// the state machine consumes. The recognition stream stays open across
// turns; interim results keep flowing while the assistant is speaking so
// barge-in can fire without waiting for a final transcript.
type speechToText struct {
	client SpeechToText

	// interims is lossy: when the state machine is busy elsewhere, stale
	// snapshots are dropped rather than queued.
	interims chan string
	finals   chan string
}

func newSpeechToText() *speechToText {
	return &speechToText{
		interims: make(chan string, 8),
		finals:   make(chan string, 1),
	}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speechToText) Start(ctx context.Context, encodingInfo audio.EncodingInfo) error {
	if !s.isConfigured() {
		return nil
	}

	sttOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithInterimTranscriptionCallback(s.deliverInterim),
		speechtotext.WithTranscriptionCallback(s.deliverFinal),
		speechtotext.WithEncodingInfo(encodingInfo),
	}

	if err := s.client.Transcribe(ctx, sttOptions...); err != nil {
		return errors.Join(ErrRecognition, err)
	}

	return nil
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	if err := s.client.SendAudio(audio); err != nil {
		return fmt.Errorf("failed to forward audio to transcription: %w", err)
	}
	return nil
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	if err := s.client.StopStream(); err != nil {
		return fmt.Errorf("failed to stop transcription stream: %w", err)
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func (s *speechToText) deliverInterim(transcript string) {
	select {
	case s.interims <- transcript:
	default:
		// Drop the oldest snapshot so the freshest one is always queued.
		select {
		case <-s.interims:
		default:
		}
		select {
		case s.interims <- transcript:
		default:
		}
	}
}

func (s *speechToText) deliverFinal(transcript string) {
	select {
	case s.finals <- transcript:
	default:
		logger.Warn("dropping final transcript, previous one not yet consumed",
			"transcript", transcript)
	}
}

// drainInterims discards queued interim snapshots. Called when entering the
// listening state so barge-in never fires on captions from the previous
// capture phase.
func (s *speechToText) drainInterims() {
	for {
		select {
		case <-s.interims:
		default:
			return
		}
	}
}
