package gmail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const contactsPageSize = 200

// Contact is a single entry from the user's address book.
type Contact struct {
	Name  string
	Email string
}

type connectionsResponse struct {
	Connections []struct {
		Names []struct {
			DisplayName string `json:"displayName"`
		} `json:"names"`
		EmailAddresses []struct {
			Value string `json:"value"`
		} `json:"emailAddresses"`
	} `json:"connections"`
}

// Contacts fetches the user's address book through the People API. Entries
// without an email address are skipped because the agent cannot act on them.
func (c *Client) Contacts(ctx context.Context) ([]Contact, error) {
	ctx, span := tracer.Start(ctx, "fetch contacts")
	defer span.End()

	query := url.Values{}
	query.Set("personFields", "names,emailAddresses")
	query.Set("pageSize", fmt.Sprint(contactsPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/people/me/connections?%s", c.peopleBaseURL, query.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	var connections connectionsResponse
	if err := c.doJSON(req, &connections); err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	contacts := []Contact{}
	for _, connection := range connections.Connections {
		if len(connection.EmailAddresses) == 0 {
			continue
		}
		contact := Contact{Email: connection.EmailAddresses[0].Value}
		if len(connection.Names) > 0 {
			contact.Name = connection.Names[0].DisplayName
		}
		contacts = append(contacts, contact)
	}

	logger.DebugContext(ctx, "Fetched contacts", "count", len(contacts))
	return contacts, nil
}
