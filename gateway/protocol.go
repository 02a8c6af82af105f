// Package gateway serves conversations over a duplex WebSocket. Each
// connection carries at most one session: the client streams microphone
// audio in, the gateway streams synthesized replies and live captions out.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	orchestration "github.com/callumelder/sonus/core"
)

// Inbound message types.
const (
	messageStartConversation = "start_conversation"
	messageAudioData         = "audio_data"
	messageStop              = "stop"
)

// Outbound message types.
const (
	messageStartListening    = "start_listening"
	messageStopListening     = "stop_listening"
	messageAudioResponse     = "audio_response"
	messageInterimTranscript = "interim_transcript"
	messageFinalTranscript   = "final_transcript"
	messageConversationEnded = "conversation_ended"
	messageError             = "error"
)

type inboundMessage struct {
	Type string `json:"type"`
	// Chunk carries one audio frame for audio_data messages, base64 on the
	// wire.
	Chunk []byte `json:"chunk,omitempty"`
}

// decodeInbound parses a client message, rejecting anything outside the
// envelope with [orchestration.ErrProtocol].
func decodeInbound(data []byte) (inboundMessage, error) {
	var message inboundMessage
	if err := json.Unmarshal(data, &message); err != nil {
		return inboundMessage{}, errors.Join(orchestration.ErrProtocol, fmt.Errorf("malformed message: %w", err))
	}

	switch message.Type {
	case messageStartConversation, messageAudioData, messageStop:
		return message, nil
	default:
		return inboundMessage{}, errors.Join(orchestration.ErrProtocol, fmt.Errorf("unknown message type %q", message.Type))
	}
}

type controlMessage struct {
	Type string `json:"type"`
}

type transcriptMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type audioResponseMessage struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	// Data is the raw audio frame, base64 on the wire.
	Data       []byte `json:"data"`
	Size       int    `json:"size"`
	IsComplete bool   `json:"isComplete"`
}

type conversationEndedMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
