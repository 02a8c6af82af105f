package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	orchestration "github.com/callumelder/sonus/core"
)

const outboundQueueSize = 64

// session ties one WebSocket connection to at most one conversation. All
// reads happen on the run goroutine; all writes go through the outbound
// queue because the connection allows a single concurrent writer.
type session struct {
	id              uuid.UUID
	conn            *websocket.Conn
	newOrchestrator OrchestratorFactory

	orchestrator *orchestration.Orchestrator
	runDone      chan struct{}

	outbound   chan any
	writerDone chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

func newSession(conn *websocket.Conn, newOrchestrator OrchestratorFactory) *session {
	return &session{
		id:              uuid.New(),
		conn:            conn,
		newOrchestrator: newOrchestrator,
		outbound:        make(chan any, outboundQueueSize),
		writerDone:      make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// run serves the connection until the client disconnects, sends stop, or the
// conversation terminates. It returns once all session goroutines have
// exited.
func (s *session) run(ctx context.Context) {
	logger.InfoContext(ctx, "Session opened", "sessionID", s.id.String())
	go s.writeLoop()

	s.readLoop(ctx)

	if s.orchestrator != nil {
		s.orchestrator.CloseAudioSource()
		s.orchestrator.Stop()
		<-s.runDone
	} else {
		s.close()
	}
	logger.InfoContext(ctx, "Session closed", "sessionID", s.id.String())
}

func (s *session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnContext(ctx, "Connection closed unexpectedly", "sessionID", s.id.String(), "error", err)
			}
			return
		}

		message, err := decodeInbound(data)
		if err != nil {
			logger.ErrorContext(ctx, "Rejecting message", "sessionID", s.id.String(), "error", err)
			s.send(errorMessage{Type: messageError, Error: err.Error()})
			return
		}

		switch message.Type {
		case messageStartConversation:
			if err := s.startConversation(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start conversation", "sessionID", s.id.String(), "error", err)
				s.send(errorMessage{Type: messageError, Error: err.Error()})
				return
			}

		case messageAudioData:
			s.forwardAudio(ctx, message.Chunk)

		case messageStop:
			if s.orchestrator != nil {
				s.orchestrator.Stop()
			}
			return
		}
	}
}

func (s *session) startConversation(ctx context.Context) error {
	if s.orchestrator != nil {
		return fmt.Errorf("conversation already started")
	}

	orchestrator, err := s.newOrchestrator(ctx)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	s.orchestrator = orchestrator
	s.runDone = make(chan struct{})

	encodingInfo := orchestrator.EncodingInfo()
	format := fmt.Sprintf("%s;rate=%d", encodingInfo.Format.Name(), encodingInfo.SampleRate)

	go func() {
		defer close(s.runDone)
		defer s.close()

		err := orchestrator.Run(ctx,
			orchestration.WithListeningStateChangedCallback(func(listening bool) {
				if listening {
					s.send(controlMessage{Type: messageStartListening})
				} else {
					s.send(controlMessage{Type: messageStopListening})
				}
			}),
			orchestration.WithInterimTranscriptCallback(func(transcript string) {
				s.send(transcriptMessage{Type: messageInterimTranscript, Text: transcript})
			}),
			orchestration.WithFinalTranscriptCallback(func(transcript string) {
				s.send(transcriptMessage{Type: messageFinalTranscript, Text: transcript})
			}),
			orchestration.WithAudioChunkCallback(func(chunk orchestration.AudioChunk) {
				s.send(audioResponseMessage{
					Type:       messageAudioResponse,
					Format:     format,
					Data:       chunk.Audio,
					Size:       len(chunk.Audio),
					IsComplete: chunk.IsComplete,
				})
			}),
			orchestration.WithConversationEndedCallback(func(reason string) {
				s.send(conversationEndedMessage{Type: messageConversationEnded, Reason: reason})
			}),
		)
		if err != nil {
			logger.ErrorContext(ctx, "Conversation failed", "sessionID", s.id.String(), "error", err)
			s.send(errorMessage{Type: messageError, Error: err.Error()})
		}
	}()

	return nil
}

// forwardAudio hands one captured frame to the transcriber. Frames arriving
// outside the listening phase are dropped; the client is told when to stream
// but the cutoff races with in-flight messages.
func (s *session) forwardAudio(ctx context.Context, chunk []byte) {
	if s.orchestrator == nil || s.orchestrator.State() != orchestration.StateListening {
		return
	}
	if err := s.orchestrator.SendAudio(chunk); err != nil {
		logger.WarnContext(ctx, "Failed to forward audio frame", "sessionID", s.id.String(), "error", err)
	}
}

// send queues one outbound message. Messages are dropped when the client
// cannot keep up or the session is closing; blocking here would stall the
// conversation's control flow.
func (s *session) send(message any) {
	select {
	case s.outbound <- message:
	case <-s.done:
	default:
		logger.Warn("Dropping outbound message, queue full", "sessionID", s.id.String())
	}
}

// writeLoop is the connection's only writer. On shutdown it drains whatever
// the conversation queued before the close, then exits.
func (s *session) writeLoop() {
	defer close(s.writerDone)
	for {
		select {
		case message := <-s.outbound:
			if err := s.conn.WriteJSON(message); err != nil {
				logger.Warn("Failed to write message", "sessionID", s.id.String(), "error", err)
				return
			}
		case <-s.done:
			for {
				select {
				case message := <-s.outbound:
					if err := s.conn.WriteJSON(message); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// close flushes queued messages and closes the connection, unblocking the
// read loop. Safe to call from any goroutine, any number of times.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.writerDone
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.conn.Close()
	})
}
