package helpscout

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
)

// conversationsPage is one page of GET /conversations.
type conversationsPage struct {
	Embedded *struct {
		Conversations []json.RawMessage `json:"conversations"`
	} `json:"_embedded"`
	Links struct {
		Next *link `json:"next"`
	} `json:"_links"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

type link struct {
	Href string `json:"href"`
}

type conversation struct {
	ID           flexString    `json:"id"`
	Number       int64         `json:"number"`
	Subject      string        `json:"subject"`
	Status       string        `json:"status"`
	CreatedAt    string        `json:"createdAt"`
	ClosedAt     string        `json:"closedAt"`
	CustomFields []customField `json:"customFields"`
}

type customField struct {
	ID    flexString `json:"id"`
	Name  string     `json:"name"`
	Value flexString `json:"value"`
	Text  string     `json:"text"`
}

// decodeConversation decodes a single listing record. A record that does not
// match the wire shape yields a *errors.ParseError naming the ticket when its
// id is readable.
func decodeConversation(raw json.RawMessage) (domain.Ticket, error) {
	var c conversation
	if err := json.Unmarshal(raw, &c); err != nil {
		var head struct {
			ID json.RawMessage `json:"id"`
		}
		id := "unknown"
		if json.Unmarshal(raw, &head) == nil && len(head.ID) > 0 {
			id = strings.Trim(string(head.ID), `"`)
		}
		return domain.Ticket{}, &apperrors.ParseError{TicketID: id, Cause: err}
	}
	return c.toDomain(), nil
}

func (c conversation) toDomain() domain.Ticket {
	t := domain.Ticket{
		ID:        string(c.ID),
		Number:    c.Number,
		Subject:   c.Subject,
		Status:    domain.ParseTicketStatus(c.Status),
		CreatedAt: c.CreatedAt,
		ClosedAt:  c.ClosedAt,
	}
	if len(c.CustomFields) > 0 {
		t.CustomFields = make([]domain.CustomField, 0, len(c.CustomFields))
		for _, f := range c.CustomFields {
			value := f.Text
			if value == "" {
				value = string(f.Value)
			}
			t.CustomFields = append(t.CustomFields, domain.CustomField{Name: f.Name, Value: value})
		}
	}
	return t
}

// flexString decodes a JSON string or number into its textual form.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}
