package orchestration

import (
	"sync"
	"time"

	"github.com/callumelder/sonus/core/audio"
	"github.com/callumelder/sonus/core/events"
	"github.com/google/uuid"
)

type PlaybackState string

const (
	PlaybackPlaying  PlaybackState = "playing"
	PlaybackStopped  PlaybackState = "stopped"
	PlaybackFinished PlaybackState = "finished"
)

// playbackFrameDuration is the pacing interval for delivering synthesized
// audio. Small enough that a stop truncates playback almost immediately.
const playbackFrameDuration = 100 * time.Millisecond

// AudioChunk is one paced slice of synthesized audio handed to the
// transport or the output device.
type AudioChunk struct {
	SessionID string
	Audio     []byte
	// IsLast marks the final chunk of this playback session.
	IsLast bool
	// IsComplete marks the terminal utterance of the conversation.
	IsComplete bool
}

// PlaybackSession delivers one synthesized buffer at playback pace. Stop is
// idempotent, returns immediately, and guarantees no chunk is emitted after
// at most one frame interval.
type PlaybackSession struct {
	ID string

	buffer       []byte
	encodingInfo audio.EncodingInfo
	terminal     bool
	emitEvent    eventEmitter

	stopc    chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu    sync.Mutex
	state PlaybackState
}

func newPlaybackSession(buffer []byte, encodingInfo audio.EncodingInfo, terminal bool, emitEvent eventEmitter) *PlaybackSession {
	return &PlaybackSession{
		ID:           uuid.NewString(),
		buffer:       buffer,
		encodingInfo: encodingInfo,
		terminal:     terminal,
		emitEvent:    emitEvent,
		stopc:        make(chan struct{}),
		done:         make(chan struct{}),
		state:        PlaybackPlaying,
	}
}

func (s *PlaybackSession) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *PlaybackSession) setState(state PlaybackState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Stop truncates playback. Safe to call at any time and any number of
// times; stopping a finished session is a no-op.
func (s *PlaybackSession) Stop() {
	s.stopOnce.Do(func() { close(s.stopc) })
}

// Done closes once the session has finished or been stopped.
func (s *PlaybackSession) Done() <-chan struct{} {
	return s.done
}

func (s *PlaybackSession) run() {
	defer close(s.done)

	frameBytes := s.encodingInfo.BytesFor(playbackFrameDuration)
	if frameBytes <= 0 {
		frameBytes = len(s.buffer)
	}

	s.emitEvent(events.NewPlaybackStarted(s.ID))

	ticker := time.NewTicker(playbackFrameDuration)
	defer ticker.Stop()

	for offset := 0; offset < len(s.buffer); {
		select {
		case <-s.stopc:
			s.setState(PlaybackStopped)
			s.emitEvent(events.NewPlaybackEnded(s.ID, true))
			return
		default:
		}

		end := min(offset+frameBytes, len(s.buffer))
		isLast := end == len(s.buffer)
		s.emitEvent(events.NewPlaybackChunk(s.ID, s.buffer[offset:end], isLast, isLast && s.terminal))
		offset = end

		if isLast {
			break
		}

		select {
		case <-s.stopc:
			s.setState(PlaybackStopped)
			s.emitEvent(events.NewPlaybackEnded(s.ID, true))
			return
		case <-ticker.C:
		}
	}

	s.setState(PlaybackFinished)
	s.emitEvent(events.NewPlaybackEnded(s.ID, false))
}

// playbackController enforces single-flight playback: at most one session is
// playing per conversation, and every play stops the previous session first.
type playbackController struct {
	mu      sync.Mutex
	current *PlaybackSession
}

func newPlaybackController() *playbackController {
	return &playbackController{}
}

// Play stops any active session, then starts delivering the buffer. An
// empty buffer still yields a session that finishes immediately.
func (c *playbackController) Play(buffer []byte, encodingInfo audio.EncodingInfo, terminal bool, emitEvent eventEmitter) *PlaybackSession {
	c.Stop()

	session := newPlaybackSession(buffer, encodingInfo, terminal, emitEvent)

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	go session.run()
	return session
}

// Stop halts the active session, if any. Idempotent; a no-op when nothing
// is playing.
func (c *playbackController) Stop() {
	c.mu.Lock()
	session := c.current
	c.mu.Unlock()

	if session != nil {
		session.Stop()
	}
}

// Playing reports whether a session is currently emitting audio.
func (c *playbackController) Playing() bool {
	c.mu.Lock()
	session := c.current
	c.mu.Unlock()

	return session != nil && session.State() == PlaybackPlaying
}
