package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/callumelder/sonus/core/audio"
	"github.com/callumelder/sonus/core/events"
	"github.com/callumelder/sonus/core/llms"
)

// State is the turn state machine cursor.
type State string

const (
	// StateListening captures user audio until a final transcript arrives.
	// Interim transcripts fire barge-in against leftover playback.
	StateListening State = "listening"
	// StateThinking consults the agent with the running history.
	StateThinking State = "thinking"
	// StateToolRunning executes the reply's tool calls sequentially, in the
	// order the agent emitted them, then returns to thinking.
	StateToolRunning State = "tool_running"
	// StateSpeaking synthesizes and plays the latest reply text.
	StateSpeaking State = "speaking"
	// StateConfirmingEnd speaks the agent's confirmation question and
	// returns to listening; termination needs a second end request.
	StateConfirmingEnd State = "confirming_end"
	// StateTerminated is terminal; trailing reply text is spoken and all
	// resources are released.
	StateTerminated State = "terminated"
)

const (
	endReasonCompleted = "completed"
	endReasonStopped   = "stopped"
)

// Orchestrator drives one conversation: capture, transcription, agent
// consultation, tool execution, synthesis and playback, with barge-in and a
// confirmed termination protocol. One orchestrator per session; sessions
// share nothing mutable.
type Orchestrator struct {
	speechToText *speechToText
	textToSpeech *textToSpeech
	agent        *agent
	registry     *toolRegistry
	playback     *playbackController
	audioInput   *audioInput

	encodingInfo audio.EncodingInfo

	// The fields below belong to the single control flow of Run and are
	// never touched from anywhere else, so they carry no locks.
	history       *ConversationHistory
	pendingReply  *llms.Reply
	endRequested  bool
	endReason     string
	sourceDrained bool

	stateMu sync.Mutex
	state   State

	sourceClosed chan struct{}
	sourceOnce   sync.Once
	stopc        chan struct{}
	stopOnce     sync.Once

	emitEvent eventEmitter
	options   runOptions
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		speechToText: newSpeechToText(),
		textToSpeech: newTextToSpeech(),
		agent:        newAgent(),
		registry:     newToolRegistry(),
		playback:     newPlaybackController(),
		encodingInfo: audio.GetDefaultEncodingInfo(),
		history:      NewConversationHistory(),
		endReason:    endReasonCompleted,
		sourceClosed: make(chan struct{}),
		stopc:        make(chan struct{}),
		emitEvent:    noopEventEmitter,
	}
	o.audioInput = newAudioInput(func(audio []byte) {
		if err := o.SendAudio(audio); err != nil {
			logger.Warn("failed to forward captured audio", "error", err)
		}
	})

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// State returns the current state machine cursor.
func (o *Orchestrator) State() State {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(next State) {
	o.stateMu.Lock()
	previous := o.state
	o.state = next
	o.stateMu.Unlock()

	if previous != next {
		o.emitEvent(events.NewStateChanged(string(previous), string(next)))
	}
}

// EncodingInfo returns the audio encoding the session was configured with.
func (o *Orchestrator) EncodingInfo() audio.EncodingInfo {
	return o.encodingInfo
}

// History returns a point-in-time deep copy of the conversation history.
func (o *Orchestrator) History() *ConversationHistory {
	return o.history.Snapshot()
}

// SendAudio feeds one captured audio frame into transcription. Frames are
// consumed transiently and never retained.
func (o *Orchestrator) SendAudio(audio []byte) error {
	return o.speechToText.SendAudio(audio)
}

// CloseAudioSource signals that no further audio frames will arrive. If the
// current capture phase has not produced a final transcript, it completes
// with an empty one.
func (o *Orchestrator) CloseAudioSource() {
	o.sourceOnce.Do(func() { close(o.sourceClosed) })
}

// Stop terminates the session immediately, bypassing the end-confirmation
// round. Playback is truncated, in-flight collaborator calls are cancelled
// and no trailing utterance is spoken.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.endReason = endReasonStopped
		close(o.stopc)
	})
	o.playback.Stop()
}

// Run executes the conversation until it terminates or ctx is cancelled.
// Call it at most once per orchestrator.
func (o *Orchestrator) Run(ctx context.Context, opts ...RunOption) error {
	for _, opt := range opts {
		opt(&o.options)
	}
	o.emitEvent = newCallbackEventEmitter(o.options)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-o.stopc:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := o.speechToText.Start(ctx, o.encodingInfo); err != nil {
		return fmt.Errorf("failed to start transcription: %w", err)
	}
	if err := o.audioInput.Start(ctx); err != nil {
		return err
	}
	defer o.release()

	for {
		var next State
		switch o.State() {
		case "", StateListening:
			o.setState(StateListening)
			next = o.listen(ctx)
		case StateThinking:
			next = o.think(ctx)
		case StateToolRunning:
			next = o.runTools(ctx)
		case StateSpeaking:
			next = o.speak(ctx)
		case StateConfirmingEnd:
			next = o.confirmEnd(ctx)
		}

		o.setState(next)
		if next == StateTerminated {
			o.terminate(ctx)
			return nil
		}
	}
}

func (o *Orchestrator) release() {
	o.playback.Stop()
	if err := o.audioInput.Close(); err != nil {
		logger.Warn("failed to close audio input", "error", err)
	}
	if err := o.speechToText.Close(context.Background()); err != nil {
		logger.Warn("failed to close transcription", "error", err)
	}
}

// listen waits for the authoritative transcript of this capture phase.
// Interim snapshots arriving while the previous turn's playback is still
// audible pre-empt it immediately; that stop fires at most once per
// playback session.
func (o *Orchestrator) listen(ctx context.Context) State {
	o.speechToText.drainInterims()
	o.emitEvent(events.NewListeningStarted())

	for {
		select {
		case <-ctx.Done():
			return StateTerminated

		case transcript := <-o.speechToText.finals:
			o.emitEvent(events.NewTranscriptFinal(transcript))
			o.emitEvent(events.NewListeningStopped())
			o.history.Append(llms.NewUserUtterance(transcript))
			return StateThinking

		case transcript := <-o.speechToText.interims:
			o.emitEvent(events.NewTranscriptInterim(transcript))
			if o.playback.Playing() {
				o.emitEvent(events.NewBargeIn())
				o.playback.Stop()
			}

		case <-o.sourceClosed:
			if o.sourceDrained {
				// Nothing further can ever arrive.
				return StateTerminated
			}
			o.sourceDrained = true
			o.emitEvent(events.NewTranscriptFinal(""))
			o.emitEvent(events.NewListeningStopped())
			o.history.Append(llms.NewUserUtterance(""))
			return StateThinking
		}
	}
}

func (o *Orchestrator) think(ctx context.Context) State {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	reply, err := o.agent.respond(ctx, o.history, o.registry.available())
	if err != nil {
		if ctx.Err() != nil {
			return StateTerminated
		}

		logger.ErrorContext(ctx, "agent failed, falling back to apology", "error", err)
		apology := llms.Reply{Content: apologyUtterance}
		o.history.Append(llms.NewAgentReply(apology))
		o.emitEvent(events.NewAssistantReplied(apology.Content))
		o.pendingReply = &apology
		return StateSpeaking
	}
	if reply == nil {
		reply = &llms.Reply{}
	}
	span.AddEvent("agent replied", trace.WithAttributes(
		attribute.Int("reply.tool_calls", len(reply.ToolCalls)),
	))

	endCall, rest := splitEndConversation(reply.ToolCalls)
	if endCall != nil {
		// The control tool never reaches the registry and leaves no tool
		// result; the stored reply keeps only the side-effecting calls.
		stored := llms.Reply{Content: reply.Content, ToolCalls: rest}
		o.history.Append(llms.NewAgentReply(stored))
		o.emitEvent(events.NewAssistantReplied(stored.Content))
		o.pendingReply = &stored

		if o.endRequested {
			if reason := endCallReason(*endCall); reason != "" {
				o.endReason = reason
			}
			o.invokePendingTools(ctx)
			return StateTerminated
		}
		o.endRequested = true
		return StateConfirmingEnd
	}

	o.history.Append(llms.NewAgentReply(*reply))
	o.emitEvent(events.NewAssistantReplied(reply.Content))
	o.pendingReply = reply

	if reply.HasToolCalls() {
		return StateToolRunning
	}
	return StateSpeaking
}

// runTools executes the pending reply's tool calls one at a time, appending
// each result before invoking the next; tool order may be semantically
// significant. The agent is then re-consulted with the outputs.
func (o *Orchestrator) runTools(ctx context.Context) State {
	if next, done := o.invokePendingTools(ctx); done {
		return next
	}
	return StateThinking
}

func (o *Orchestrator) invokePendingTools(ctx context.Context) (State, bool) {
	if o.pendingReply == nil {
		return StateThinking, false
	}

	for _, call := range o.pendingReply.ToolCalls {
		if ctx.Err() != nil {
			return StateTerminated, true
		}
		o.history.Append(o.registry.invoke(ctx, call, o.emitEvent))
	}
	return StateThinking, false
}

func (o *Orchestrator) speak(ctx context.Context) State {
	o.speakPending(ctx, false)
	return StateListening
}

// confirmEnd voices the agent's confirmation question like a normal
// speaking turn and returns to listening for the user's answer. Any
// side-effecting tool calls that accompanied the end request still run
// first, so the history never carries an unanswered call.
func (o *Orchestrator) confirmEnd(ctx context.Context) State {
	if next, done := o.invokePendingTools(ctx); done {
		return next
	}
	o.speakPending(ctx, false)
	return StateListening
}

// speakPending synthesizes the pending reply text, if any, and starts
// playback. Playback runs concurrently with the next listening phase so the
// user can talk over it; a terminal utterance is instead awaited so the
// goodbye is not cut off by teardown.
func (o *Orchestrator) speakPending(ctx context.Context, terminal bool) {
	text := ""
	if o.pendingReply != nil {
		text = o.pendingReply.Content
	}
	// Consume the pending reply so a later termination cannot re-speak it.
	o.pendingReply = nil
	if text == "" {
		return
	}

	buffer, err := o.textToSpeech.synthesize(ctx, text, o.encodingInfo)
	if err != nil {
		logger.ErrorContext(ctx, "synthesis failed, skipping playback", "error", err)
		return
	}
	if len(buffer) == 0 {
		return
	}

	session := o.playback.Play(buffer, o.encodingInfo, terminal, o.emitEvent)
	if terminal {
		select {
		case <-session.Done():
		case <-ctx.Done():
			session.Stop()
		}
	}
}

func (o *Orchestrator) terminate(ctx context.Context) {
	if ctx.Err() == nil {
		o.speakPending(ctx, true)
	}
	o.emitEvent(events.NewConversationEnded(o.endReason))
}

func endCallReason(call llms.ToolCall) string {
	var parameters endConversationParameters
	if err := json.Unmarshal([]byte(call.Arguments), &parameters); err != nil {
		return ""
	}
	return parameters.Reason
}

// IsTurnLocal reports whether an error is absorbed within one turn rather
// than ending the session.
func IsTurnLocal(err error) bool {
	return errors.Is(err, ErrRecognition) ||
		errors.Is(err, ErrSynthesis) ||
		errors.Is(err, ErrUnknownTool) ||
		errors.Is(err, ErrToolExecution)
}
