package orchestration

import (
	"context"
	"errors"

	"github.com/callumelder/sonus/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultAgentAttempts = 3

// apologyUtterance is spoken when the agent cannot produce a reply within
// the attempt budget. The user always hears something rather than silence.
const apologyUtterance = "I'm sorry, I'm having trouble thinking right now. Could you say that again?"

// agent wraps the language-model collaborator with the retry policy: a
// bounded number of attempts, then the caller falls back to the apology
// utterance. Unbounded retry is a latent hang and is deliberately not
// supported.
type agent struct {
	client       LLM
	instructions string
	maxAttempts  int
}

func newAgent() *agent {
	return &agent{maxAttempts: defaultAgentAttempts}
}

func (a *agent) set(client LLM) {
	if a != nil {
		a.client = client
	}
}

func (a *agent) isConfigured() bool {
	return a != nil && a.client != nil
}

// respond consults the model with the full history and the registered tools.
// Exactly one reply per call; text and tool calls may both be present.
func (a *agent) respond(ctx context.Context, history *ConversationHistory, tools []llms.Tool) (*llms.Reply, error) {
	if !a.isConfigured() {
		return nil, errors.Join(ErrAgentInvocation, errors.New("no llm configured"))
	}

	ctx, span := tracer.Start(ctx, "agent respond")
	defer span.End()
	span.SetAttributes(attribute.Int("request.history_length", history.Len()))

	promptOptions := []llms.PromptOption{llms.WithTools(tools...)}
	if a.instructions != "" {
		promptOptions = append(promptOptions, llms.WithSystemPrompt(a.instructions))
	}

	var lastErr error
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		reply, err := a.client.Prompt(ctx, history.Messages(), promptOptions...)
		if err == nil {
			span.SetAttributes(attribute.Int("response.attempts", attempt+1))
			return reply, nil
		}

		lastErr = err
		logger.WarnContext(ctx, "agent call failed", "attempt", attempt+1, "error", err)
		if ctx.Err() != nil {
			break
		}
	}

	err := errors.Join(ErrAgentInvocation, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}
