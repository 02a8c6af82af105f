// Package portaudio provides an alternative local capture source for
// platforms where miniaudio misbehaves. Capture only; playback goes through
// the miniaudio client or the network transport.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/callumelder/sonus/core/audio"
	"github.com/gordonklaus/portaudio"
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	in         []int16

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, bufferSize, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
	}, nil
}

// StartCapture claims the microphone and streams little-endian 16-bit PCM
// frames to onAudio until StopCapture is called or ctx is cancelled.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.stopped = make(chan struct{})

	go func() {
		defer close(c.stopped)
		for ctx.Err() == nil {
			if err := c.stream.Read(); err != nil {
				continue
			}

			audioBuffer := bytes.Buffer{}
			_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			onAudio(audioBuffer.Bytes())
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	cancel := c.cancel
	stopped := c.stopped
	c.cancel = nil
	c.stopped = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-stopped

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	_ = c.StopCapture()
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
