package events

// TranscriptInterim is an advisory, revisable transcription snapshot. It
// drives live captions and barge-in detection and is discarded once a final
// transcript arrives.
type TranscriptInterim struct {
	Base
	Transcript string
}

func (e TranscriptInterim) String() string { return e.Transcript + "..." }

func NewTranscriptInterim(transcript string) TranscriptInterim {
	return TranscriptInterim{Base: NewBase("transcript.interim"), Transcript: transcript}
}

// TranscriptFinal is the authoritative transcript for one capture phase. An
// empty transcript means the source closed before anything was recognized.
type TranscriptFinal struct {
	Base
	Transcript string
}

func (e TranscriptFinal) String() string { return e.Transcript }

func NewTranscriptFinal(transcript string) TranscriptFinal {
	return TranscriptFinal{Base: NewBase("transcript.final"), Transcript: transcript}
}
