package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		WithAccessToken("test-token"),
		WithBaseURL(server.URL),
		WithPeopleBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client, server
}

func TestSearchEmailsReturnsSummaries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer token header, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "from:alice" {
			t.Errorf("Expected query 'from:alice', got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "msg-1"}},
		})
	})
	mux.HandleFunc("/users/me/messages/msg-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "msg-1",
			"snippet": "Lunch tomorrow?",
			"payload": map[string]any{
				"headers": []map[string]string{
					{"name": "From", "value": "alice@example.com"},
					{"name": "Subject", "value": "Lunch"},
					{"name": "Date", "value": "Mon, 1 Jan 2026 10:00:00 +0000"},
				},
			},
		})
	})

	client, _ := newTestClient(t, mux)
	result, err := client.searchEmails(searchParameters{Query: "from:alice"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	var summaries []messageSummary
	if err := json.Unmarshal([]byte(result), &summaries); err != nil {
		t.Fatalf("Result is not valid JSON: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].ID != "msg-1" || summaries[0].Subject != "Lunch" {
		t.Errorf("Unexpected summary: %+v", summaries[0])
	}
}

func TestReadEmailExtractsPlainTextPart(t *testing.T) {
	body := base64.RawURLEncoding.EncodeToString([]byte("See you at noon."))
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/messages/msg-2", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "full" {
			t.Errorf("Expected format=full, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "msg-2",
			"payload": map[string]any{
				"mimeType": "multipart/alternative",
				"headers": []map[string]string{
					{"name": "From", "value": "alice@example.com"},
					{"name": "Subject", "value": "Lunch"},
				},
				"parts": []map[string]any{
					{
						"mimeType": "text/html",
						"body":     map[string]string{"data": base64.RawURLEncoding.EncodeToString([]byte("<p>html</p>"))},
					},
					{
						"mimeType": "text/plain; charset=\"UTF-8\"",
						"body":     map[string]string{"data": body},
					},
				},
			},
		})
	})

	client, _ := newTestClient(t, mux)
	result, err := client.readEmail(readParameters{MessageID: "msg-2"})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var detail messageDetail
	if err := json.Unmarshal([]byte(result), &detail); err != nil {
		t.Fatalf("Result is not valid JSON: %v", err)
	}
	if detail.Body != "See you at noon." {
		t.Errorf("Expected plain-text body, got %q", detail.Body)
	}
}

func TestSendEmailPostsRawMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		raw, err := base64.URLEncoding.DecodeString(payload.Raw)
		if err != nil {
			t.Fatalf("Raw message is not base64url: %v", err)
		}
		if !strings.Contains(string(raw), "To: bob@example.com") {
			t.Errorf("Raw message missing recipient: %q", string(raw))
		}
		if !strings.Contains(string(raw), "\r\n\r\nHi Bob") {
			t.Errorf("Raw message missing body: %q", string(raw))
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "sent-1"})
	})

	client, _ := newTestClient(t, mux)
	result, err := client.sendEmail(sendParameters{To: "bob@example.com", Subject: "Hello", Body: "Hi Bob"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !strings.Contains(result, "sent-1") {
		t.Errorf("Expected result to mention message ID, got %q", result)
	}
}

func TestCreateDraftDoesNotSend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		t.Error("Draft creation must not hit the send endpoint")
	})
	mux.HandleFunc("/users/me/drafts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "draft-1"})
	})

	client, _ := newTestClient(t, mux)
	result, err := client.createDraft(sendParameters{To: "bob@example.com", Subject: "Hello", Body: "Hi Bob"})
	if err != nil {
		t.Fatalf("Draft creation failed: %v", err)
	}
	if !strings.Contains(result, "draft-1") {
		t.Errorf("Expected result to mention draft ID, got %q", result)
	}
}

func TestToolsFailOnAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`, http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)
	if _, err := client.readEmail(readParameters{MessageID: "msg-3"}); err == nil {
		t.Error("Expected an error for a non-OK status")
	}
}

func TestContactsSkipsEntriesWithoutEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/people/me/connections", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("personFields"); got != "names,emailAddresses" {
			t.Errorf("Unexpected personFields: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"connections": []map[string]any{
				{
					"names":          []map[string]string{{"displayName": "Alice"}},
					"emailAddresses": []map[string]string{{"value": "alice@example.com"}},
				},
				{
					"names": []map[string]string{{"displayName": "No Email"}},
				},
			},
		})
	})

	client, _ := newTestClient(t, mux)
	contacts, err := client.Contacts(context.Background())
	if err != nil {
		t.Fatalf("Contacts fetch failed: %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("Expected 1 contact, got %d", len(contacts))
	}
	if contacts[0].Name != "Alice" || contacts[0].Email != "alice@example.com" {
		t.Errorf("Unexpected contact: %+v", contacts[0])
	}
}

func TestToolsExposeFourMailboxActions(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())
	tools := client.Tools()
	if len(tools) != 4 {
		t.Fatalf("Expected 4 tools, got %d", len(tools))
	}
	names := []string{"search_emails", "read_email", "send_email", "create_draft"}
	for i, name := range names {
		if tools[i].Name != name {
			t.Errorf("Expected tool %d to be %q, got %q", i, name, tools[i].Name)
		}
	}
}
