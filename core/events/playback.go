package events

type PlaybackStarted struct {
	Base
	SessionID string
}

func (e PlaybackStarted) String() string { return "Playback Started" }

func NewPlaybackStarted(sessionID string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase("playback.started"), SessionID: sessionID}
}

// PlaybackChunk is one paced slice of synthesized audio on its way to the
// output device or the client. IsLast marks the last chunk of the session;
// IsComplete additionally marks the terminal utterance of the conversation.
type PlaybackChunk struct {
	Base
	SessionID  string
	Audio      []byte
	IsLast     bool
	IsComplete bool
}

func (e PlaybackChunk) String() string { return "Playback Chunk" }

func NewPlaybackChunk(sessionID string, audio []byte, isLast, isComplete bool) PlaybackChunk {
	return PlaybackChunk{
		Base:       NewBase("playback.chunk"),
		SessionID:  sessionID,
		Audio:      audio,
		IsLast:     isLast,
		IsComplete: isComplete,
	}
}

type PlaybackEnded struct {
	Base
	SessionID   string
	Interrupted bool
}

func (e PlaybackEnded) String() string { return "Playback Ended" }

func NewPlaybackEnded(sessionID string, interrupted bool) PlaybackEnded {
	return PlaybackEnded{Base: NewBase("playback.ended"), SessionID: sessionID, Interrupted: interrupted}
}
