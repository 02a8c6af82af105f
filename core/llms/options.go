package llms

// PromptOptions carries everything a provider needs besides the message
// history itself.
type PromptOptions struct {
	Instructions string
	Tools        []Tool
	MaxTokens    int
}

type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system prompt for the call. Repeating this option
// overwrites the previous system prompt.
func WithSystemPrompt(instructions string) PromptOption {
	return func(o *PromptOptions) {
		o.Instructions = instructions
	}
}

// WithTools exposes the given tools to the model for this call.
func WithTools(tools ...Tool) PromptOption {
	return func(o *PromptOptions) {
		o.Tools = append(o.Tools, tools...)
	}
}

// WithMaxTokens caps the response length. Providers fall back to their own
// defaults when unset.
func WithMaxTokens(maxTokens int) PromptOption {
	return func(o *PromptOptions) {
		o.MaxTokens = maxTokens
	}
}
