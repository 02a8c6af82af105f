package events

// ListeningStarted signals that the orchestrator is ready to consume user
// audio and the client should start streaming microphone frames.
type ListeningStarted struct{ Base }

func (e ListeningStarted) String() string { return "Listening Started" }

func NewListeningStarted() ListeningStarted {
	return ListeningStarted{Base: NewBase("capture.listening_started")}
}

// ListeningStopped signals that the current capture phase is over and the
// client can stop streaming microphone frames.
type ListeningStopped struct{ Base }

func (e ListeningStopped) String() string { return "Listening Stopped" }

func NewListeningStopped() ListeningStopped {
	return ListeningStopped{Base: NewBase("capture.listening_stopped")}
}
