package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/callumelder/sonus/core/llms"
)

const defaultSearchLimit = 10

type searchParameters struct {
	Query      string `json:"query" jsonschema:"title=Query,description=Gmail search query using the same operators as the Gmail search box (e.g. 'from:alice is:unread')"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"title=Max results,description=Maximum number of messages to return (default 10)"`
}

type readParameters struct {
	MessageID string `json:"message_id" jsonschema:"title=Message ID,description=ID of the message to read as returned by search_emails"`
}

type sendParameters struct {
	To      string `json:"to" jsonschema:"title=To,description=Recipient email address"`
	Subject string `json:"subject" jsonschema:"title=Subject,description=Subject line"`
	Body    string `json:"body" jsonschema:"title=Body,description=Plain-text body of the email"`
}

type messageSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

type messageDetail struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

// Gmail wire shapes; only the fields the tools read.
type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messageResponse struct {
	ID      string         `json:"id"`
	Snippet string         `json:"snippet"`
	Payload messagePayload `json:"payload"`
}

type messagePayload struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []messagePayload `json:"parts"`
}

func (p messagePayload) header(name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// textBody walks the MIME tree and returns the first text/plain part,
// falling back to text/html if that is all the message carries.
func (p messagePayload) textBody() string {
	if body := p.findBody("text/plain"); body != "" {
		return body
	}
	return p.findBody("text/html")
}

func (p messagePayload) findBody(mimeType string) string {
	if mediaType, _, err := mime.ParseMediaType(p.MimeType); err == nil && mediaType == mimeType {
		if decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(p.Body.Data, "=")); err == nil {
			return string(decoded)
		}
	}
	for _, part := range p.Parts {
		if body := part.findBody(mimeType); body != "" {
			return body
		}
	}
	return ""
}

// Tools returns the mailbox tools in the order the agent should see them.
func (c *Client) Tools() []llms.Tool {
	return []llms.Tool{
		llms.NewTool(
			"search_emails",
			"Search the user's mailbox and return matching message summaries.",
			c.searchEmails,
		),
		llms.NewTool(
			"read_email",
			"Read the full body of a single email by its message ID.",
			c.readEmail,
		),
		llms.NewTool(
			"send_email",
			"Send a plain-text email from the user's account.",
			c.sendEmail,
		),
		llms.NewTool(
			"create_draft",
			"Create a draft email in the user's account without sending it.",
			c.createDraft,
		),
	}
}

func (c *Client) searchEmails(parameters searchParameters) (string, error) {
	ctx, span := tracer.Start(context.Background(), "search emails")
	defer span.End()

	maxResults := parameters.MaxResults
	if maxResults <= 0 {
		maxResults = defaultSearchLimit
	}

	query := url.Values{}
	query.Set("q", parameters.Query)
	query.Set("maxResults", fmt.Sprint(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/me/messages?%s", c.baseURL, query.Encode()), nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	var list listResponse
	if err := c.doJSON(req, &list); err != nil {
		return "", fmt.Errorf("failed to search emails: %w", err)
	}

	summaries := []messageSummary{}
	for _, ref := range list.Messages {
		message, err := c.fetchMessage(ctx, ref.ID, "metadata")
		if err != nil {
			logger.WarnContext(ctx, "Skipping message that failed to load", "messageID", ref.ID, "error", err)
			continue
		}
		summaries = append(summaries, messageSummary{
			ID:      message.ID,
			From:    message.Payload.header("From"),
			Subject: message.Payload.header("Subject"),
			Date:    message.Payload.header("Date"),
			Snippet: message.Snippet,
		})
	}

	payload, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("error marshalling search results: %w", err)
	}
	return string(payload), nil
}

func (c *Client) readEmail(parameters readParameters) (string, error) {
	ctx, span := tracer.Start(context.Background(), "read email")
	defer span.End()

	message, err := c.fetchMessage(ctx, parameters.MessageID, "full")
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}

	detail := messageDetail{
		ID:      message.ID,
		From:    message.Payload.header("From"),
		To:      message.Payload.header("To"),
		Subject: message.Payload.header("Subject"),
		Date:    message.Payload.header("Date"),
		Body:    message.Payload.textBody(),
	}
	payload, err := json.Marshal(detail)
	if err != nil {
		return "", fmt.Errorf("error marshalling email: %w", err)
	}
	return string(payload), nil
}

func (c *Client) sendEmail(parameters sendParameters) (string, error) {
	ctx, span := tracer.Start(context.Background(), "send email")
	defer span.End()

	req, err := c.newMessageRequest(ctx,
		fmt.Sprintf("%s/users/me/messages/send", c.baseURL),
		map[string]string{"raw": encodeRFC822(parameters)})
	if err != nil {
		return "", err
	}

	var sent struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(req, &sent); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return fmt.Sprintf("Email sent to %s (message ID %s)", parameters.To, sent.ID), nil
}

func (c *Client) createDraft(parameters sendParameters) (string, error) {
	ctx, span := tracer.Start(context.Background(), "create draft")
	defer span.End()

	req, err := c.newMessageRequest(ctx,
		fmt.Sprintf("%s/users/me/drafts", c.baseURL),
		map[string]any{"message": map[string]string{"raw": encodeRFC822(parameters)}})
	if err != nil {
		return "", err
	}

	var draft struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(req, &draft); err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return fmt.Sprintf("Draft created for %s (draft ID %s)", parameters.To, draft.ID), nil
}

// encodeRFC822 builds the base64url message the Gmail API expects.
func encodeRFC822(parameters sendParameters) string {
	message := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		parameters.To, parameters.Subject, parameters.Body)
	return base64.URLEncoding.EncodeToString([]byte(message))
}
