package openai

import (
	"encoding/json"
	"fmt"

	"github.com/callumelder/sonus/core/llms"
	"github.com/invopop/jsonschema"
)

const (
	messageRoleSystem    = "system"
	messageRoleUser      = "user"
	messageRoleAssistant = "assistant"
	messageRoleTool      = "tool"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`

	ToolCalls []openAIToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is only set on role:"tool" messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

func toOpenAIMessages(instructions string, history []llms.Message) ([]openAIMessage, error) {
	messages := []openAIMessage{}
	if instructions != "" {
		messages = append(messages, openAIMessage{Role: messageRoleSystem, Content: instructions})
	}

	for _, message := range history {
		switch message.Kind {
		case llms.KindUserUtterance:
			messages = append(messages, openAIMessage{Role: messageRoleUser, Content: message.Content})

		case llms.KindAgentReply:
			openAIMsg := openAIMessage{Role: messageRoleAssistant, Content: message.Content}
			for _, toolCall := range message.ToolCalls {
				arguments := toolCall.Arguments
				if arguments == "" {
					arguments = "{}"
				}
				openAIMsg.ToolCalls = append(openAIMsg.ToolCalls, openAIToolCall{
					ID:   toolCall.ID,
					Type: "function",
					Function: openAIFunctionCall{
						Name:      toolCall.Name,
						Arguments: arguments,
					},
				})
			}
			messages = append(messages, openAIMsg)

		case llms.KindToolResult:
			content := message.Content
			if message.IsError {
				payload, err := json.Marshal(struct {
					Error string `json:"error"`
				}{Error: message.Content})
				if err == nil {
					content = string(payload)
				}
			}
			messages = append(messages, openAIMessage{
				Role:       messageRoleTool,
				Content:    content,
				ToolCallID: message.ToolCallID,
			})

		default:
			return nil, fmt.Errorf("unknown message kind: %q", message.Kind)
		}
	}

	return messages, nil
}

func toOpenAITools(tools []llms.Tool) []openAITool {
	openAITools := make([]openAITool, 0, len(tools))
	for _, tool := range tools {
		openAITools = append(openAITools, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return openAITools
}

func fromOpenAIMessage(message openAIMessage) llms.Reply {
	reply := llms.Reply{Content: message.Content}
	for _, toolCall := range message.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, llms.ToolCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: toolCall.Function.Arguments,
		})
	}
	return reply
}
