// Package gmail exposes a user's mailbox to the agent as four explicit
// tools: search_emails, read_email, send_email and create_draft, plus a
// contacts fetch used to seed the system prompt. Everything goes through
// the Gmail and People REST APIs with a bearer token; OAuth token refresh
// is the deployment's concern, not this package's.
package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL       = "https://gmail.googleapis.com/gmail/v1"
	defaultPeopleBaseURL = "https://people.googleapis.com/v1"
)

type Client struct {
	accessToken   string
	baseURL       string
	peopleBaseURL string
	httpClient    *http.Client
}

type ClientOption func(*Client)

// WithAccessToken overrides the token read from GMAIL_ACCESS_TOKEN.
func WithAccessToken(accessToken string) ClientOption {
	return func(c *Client) { c.accessToken = accessToken }
}

// WithBaseURL points the client at a different Gmail API host, mainly for
// tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithPeopleBaseURL points the contacts fetch at a different People API
// host, mainly for tests.
func WithPeopleBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.peopleBaseURL = baseURL }
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL:       defaultBaseURL,
		peopleBaseURL: defaultPeopleBaseURL,
		httpClient:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.accessToken == "" {
		accessToken, ok := os.LookupEnv("GMAIL_ACCESS_TOKEN")
		if !ok {
			return nil, fmt.Errorf("gmail access token not found")
		}
		client.accessToken = accessToken
	}

	return client, nil
}

// fetchMessage loads a single message in the requested format ("metadata" or
// "full").
func (c *Client) fetchMessage(ctx context.Context, messageID, format string) (*messageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/me/messages/%s?format=%s", c.baseURL, messageID, format), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	var message messageResponse
	if err := c.doJSON(req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// newMessageRequest builds a POST with a JSON body.
func (c *Client) newMessageRequest(ctx context.Context, url string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	return req, nil
}

// doJSON issues one authorized request and unmarshals the response into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("non-OK HTTP status %s: %s", resp.Status, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error unmarshalling response: %w", err)
	}
	return nil
}
