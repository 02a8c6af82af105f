// Package events defines the typed orchestration event contract.
//
// Event kinds are grouped by namespaces:
//
//   - capture.* — when the client should stream microphone audio.
//   - transcript.* — interim and final transcription results.
//   - assistant.* — agent replies.
//   - tool_call.* — tool execution lifecycle.
//   - playback.* — synthesized audio delivery.
//   - conversation.* — state transitions, barge-in, session end.
//
// Interim transcripts are advisory snapshots that may be revised; a final
// transcript is terminal for the current capture phase. Playback chunk
// events carry raw audio bytes; the transport decides how to encode them
// on the wire.
package events
