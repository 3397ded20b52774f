package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts recruiter alerts to a chat-bot HTTP API. All connection
// parameters come from configuration; a Client with an empty token or chat id
// reports itself disabled and sends nothing.
type Client struct {
	BaseURL string
	Token   string
	ChatID  string

	HTTPClient *http.Client
}

// NewClient constructs a Client.
func NewClient(baseURL, token, chatID string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		ChatID:  chatID,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Enabled reports whether the client has enough configuration to send.
func (c *Client) Enabled() bool {
	return c != nil && c.Token != "" && c.ChatID != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one HTML-formatted message.
func (c *Client) Send(ctx context.Context, text string) error {
	if !c.Enabled() {
		return fmt.Errorf("notify client not configured")
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                c.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer res.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("send message: status %d: %s", res.StatusCode, string(payload))
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(payload, &parsed); err == nil && !parsed.OK {
		return fmt.Errorf("send message rejected: %s", parsed.Description)
	}
	return nil
}
