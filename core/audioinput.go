package orchestration

import (
	"context"
	"errors"
	"fmt"
)

// audioInput pipes frames from an optional local capture device into
// transcription. The device is exclusively claimed while open; acquisition
// failure surfaces as [ErrDeviceUnavailable].
type audioInput struct {
	source  AudioCaptureSource
	onAudio func(audio []byte)
}

func newAudioInput(onAudio func(audio []byte)) *audioInput {
	return &audioInput{onAudio: onAudio}
}

func (i *audioInput) isConfigured() bool {
	return i != nil && i.source != nil
}

func (i *audioInput) Start(ctx context.Context) error {
	if !i.isConfigured() {
		return nil
	}

	if err := i.source.StartCapture(ctx, i.onAudio); err != nil {
		return errors.Join(ErrDeviceUnavailable, err)
	}
	return nil
}

func (i *audioInput) Close() error {
	if !i.isConfigured() {
		return nil
	}

	if err := i.source.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop audio capture: %w", err)
	}
	return nil
}
