package orchestration

import "errors"

// Sentinel errors for everything that can go wrong around a turn. Errors
// local to one turn (recognition, synthesis, unknown tool, tool execution)
// are absorbed by the orchestrator: it logs them, substitutes a safe default
// and keeps the state machine running. Device acquisition and protocol
// errors end the session but never the process.
var (
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrRecognition       = errors.New("speech recognition failed")
	ErrSynthesis         = errors.New("speech synthesis failed")
	ErrAgentInvocation   = errors.New("agent invocation failed")
	ErrUnknownTool       = errors.New("unknown tool")
	ErrToolExecution     = errors.New("tool execution failed")
	ErrProtocol          = errors.New("malformed message")
)
