package orchestration

import "github.com/callumelder/sonus/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts runOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.ListeningStarted:
			if opts.onListeningStateChanged != nil {
				opts.onListeningStateChanged(true)
			}
		case events.ListeningStopped:
			if opts.onListeningStateChanged != nil {
				opts.onListeningStateChanged(false)
			}
		case events.TranscriptInterim:
			if opts.onInterimTranscript != nil {
				opts.onInterimTranscript(typedEvent.Transcript)
			}
		case events.TranscriptFinal:
			if opts.onFinalTranscript != nil {
				opts.onFinalTranscript(typedEvent.Transcript)
			}
		case events.AssistantReplied:
			if opts.onReply != nil {
				opts.onReply(typedEvent.Content)
			}
		case events.PlaybackChunk:
			if opts.onAudioChunk != nil {
				opts.onAudioChunk(AudioChunk{
					SessionID:  typedEvent.SessionID,
					Audio:      typedEvent.Audio,
					IsLast:     typedEvent.IsLast,
					IsComplete: typedEvent.IsComplete,
				})
			}
		case events.PlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.Interrupted)
			}
		case events.StateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(State(typedEvent.From), State(typedEvent.To))
			}
		case events.BargeIn:
			if opts.onBargeIn != nil {
				opts.onBargeIn()
			}
		case events.ConversationEnded:
			if opts.onConversationEnded != nil {
				opts.onConversationEnded(typedEvent.Reason)
			}
		}
	}
}
