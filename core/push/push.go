package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go-reminder-api/core/config"
)

// Result is the per-token delivery outcome. Invalid signals that the token is
// permanently dead (device unregistered) and should be purged, not retried.
type Result struct {
	Token   string
	OK      bool
	Invalid bool
	Reason  string
}

// Gateway delivers one push message to a set of device tokens.
type Gateway interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]any) ([]Result, error)
}

// Client talks to an Expo-compatible push endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(cfg config.PushConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type pushMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

type pushResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

const deviceNotRegistered = "DeviceNotRegistered"

// Send posts one message per token in a single batch request. Tickets come
// back in request order.
func (c *Client) Send(ctx context.Context, tokens []string, title, body string, data map[string]any) ([]Result, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	messages := make([]pushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, pushMessage{To: token, Title: title, Body: body, Data: data})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/--/api/v2/push/send", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode push response: %w", err)
	}
	if len(parsed.Data) != len(tokens) {
		return nil, fmt.Errorf("push endpoint returned %d tickets for %d messages", len(parsed.Data), len(tokens))
	}

	results := make([]Result, 0, len(tokens))
	for i, ticket := range parsed.Data {
		r := Result{Token: tokens[i], OK: ticket.Status == "ok"}
		if !r.OK {
			r.Reason = ticket.Message
			r.Invalid = ticket.Details.Error == deviceNotRegistered
		}
		results = append(results, r)
	}
	return results, nil
}
