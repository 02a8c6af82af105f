package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/callumelder/sonus/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	messagesURL      = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 1024
)

type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithModel overrides the default model.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithAPIKey overrides the key read from ANTHROPIC_API_KEY.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		model:      defaultModel,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("ANTHROPIC_API_KEY")
		if !ok {
			return nil, fmt.Errorf("anthropic api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}

type requestBody struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type responseBody struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Prompt sends the history to the Messages API and returns a single reply.
func (c *Client) Prompt(ctx context.Context, history []llms.Message, opts ...llms.PromptOption) (*llms.Reply, error) {
	ctx, span := tracer.Start(ctx, "prompt llm")
	defer span.End()

	options := llms.PromptOptions{MaxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(&options)
	}

	messages, err := toAnthropicMessages(history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	reqBody := requestBody{
		Model:     c.model,
		MaxTokens: options.MaxTokens,
		System:    options.Instructions,
		Messages:  messages,
	}
	if len(options.Tools) > 0 {
		reqBody.Tools = toAnthropicTools(options.Tools)
	}
	span.SetAttributes(attribute.String("request.model", c.model))

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesURL, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var parsed responseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		err = fmt.Errorf("error unmarshalling response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			err = fmt.Errorf("non-OK HTTP status %s: %s: %s", resp.Status, parsed.Error.Type, parsed.Error.Message)
		} else {
			err = fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	reply := fromAnthropicContent(parsed.Content)
	span.SetAttributes(attribute.String("response.stop_reason", parsed.StopReason))

	var toolCalls []string
	for _, toolCall := range reply.ToolCalls {
		toolCalls = append(toolCalls, toolCall.Name)
	}
	span.SetAttributes(attribute.StringSlice("response.tool_calls", toolCalls))

	return &reply, nil
}
