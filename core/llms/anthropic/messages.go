package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/callumelder/sonus/core/llms"
	"github.com/invopop/jsonschema"
)

const (
	messageRoleUser      = "user"
	messageRoleAssistant = "assistant"

	contentTypeText       = "text"
	contentTypeToolUse    = "tool_use"
	contentTypeToolResult = "tool_result"
)

type anthropicMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`

	// Text is set for "text" blocks.
	Text string `json:"text,omitempty"`

	// ID, Name and Input are set for "tool_use" blocks.
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// ToolUseID, Content and IsError are set for "tool_result" blocks.
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// toAnthropicMessages converts a conversation history to the Messages API
// shape. Tool results become user-role tool_result blocks, per the API
// contract that every tool_use is answered in the next user message.
func toAnthropicMessages(history []llms.Message) ([]anthropicMessage, error) {
	messages := make([]anthropicMessage, 0, len(history))
	for _, message := range history {
		switch message.Kind {
		case llms.KindUserUtterance:
			messages = append(messages, anthropicMessage{
				Role:    messageRoleUser,
				Content: []contentBlock{{Type: contentTypeText, Text: message.Content}},
			})

		case llms.KindAgentReply:
			blocks := []contentBlock{}
			if message.Content != "" {
				blocks = append(blocks, contentBlock{Type: contentTypeText, Text: message.Content})
			}
			for _, toolCall := range message.ToolCalls {
				input := json.RawMessage(toolCall.Arguments)
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, contentBlock{
					Type:  contentTypeToolUse,
					ID:    toolCall.ID,
					Name:  toolCall.Name,
					Input: input,
				})
			}
			if len(blocks) == 0 {
				continue
			}
			messages = append(messages, anthropicMessage{Role: messageRoleAssistant, Content: blocks})

		case llms.KindToolResult:
			block := contentBlock{
				Type:      contentTypeToolResult,
				ToolUseID: message.ToolCallID,
				Content:   message.Content,
				IsError:   message.IsError,
			}
			// Consecutive tool results belong in a single user message.
			if last := len(messages) - 1; last >= 0 &&
				messages[last].Role == messageRoleUser &&
				len(messages[last].Content) > 0 &&
				messages[last].Content[0].Type == contentTypeToolResult {
				messages[last].Content = append(messages[last].Content, block)
				continue
			}
			messages = append(messages, anthropicMessage{Role: messageRoleUser, Content: []contentBlock{block}})

		default:
			return nil, fmt.Errorf("unknown message kind: %q", message.Kind)
		}
	}

	return messages, nil
}

func toAnthropicTools(tools []llms.Tool) []anthropicTool {
	anthropicTools := make([]anthropicTool, 0, len(tools))
	for _, tool := range tools {
		anthropicTools = append(anthropicTools, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return anthropicTools
}

func fromAnthropicContent(blocks []contentBlock) llms.Reply {
	reply := llms.Reply{}
	for _, block := range blocks {
		switch block.Type {
		case contentTypeText:
			reply.Content += block.Text
		case contentTypeToolUse:
			reply.ToolCalls = append(reply.ToolCalls, llms.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	return reply
}
