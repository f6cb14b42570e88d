package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type APIClient struct {
	serverURL  string
	token      string
	httpClient *http.Client
}

type apiError struct {
	Error string `json:"error"`
}

type ConversationResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	AllowGuests  bool   `json:"allow_guests"`
	LinksEnabled bool   `json:"links_enabled"`
	HasLink      bool   `json:"has_link"`
	CreatedAt    string `json:"created_at"`
}

type linkResponse struct {
	URL *string `json:"url"`
}

func NewAPIClient(serverURL, token string) *APIClient {
	return &APIClient{
		serverURL: serverURL,
		token:     token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *APIClient) CreateConversation(ctx context.Context, title string) (*ConversationResponse, error) {
	payload := map[string]string{"title": title}
	var resp ConversationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/conversations", c.token, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) GetConversation(ctx context.Context, conversationID string) (*ConversationResponse, error) {
	var resp ConversationResponse
	if err := c.doJSON(ctx, http.MethodGet, conversationPath("/conversations", conversationID), c.token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) SetAllowGuests(ctx context.Context, conversationID string, allow bool) (*ConversationResponse, error) {
	payload := map[string]any{"conversation_id": conversationID, "allow_guests": allow}
	var resp ConversationResponse
	if err := c.doJSON(ctx, http.MethodPut, "/conversations/guests", c.token, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) CreateLink(ctx context.Context, conversationID string) (string, error) {
	var resp linkResponse
	if err := c.doJSON(ctx, http.MethodPost, conversationPath("/conversations/link", conversationID), c.token, nil, &resp); err != nil {
		return "", err
	}
	if resp.URL == nil || *resp.URL == "" {
		return "", fmt.Errorf("server returned no link")
	}
	return *resp.URL, nil
}

// FetchLink reports found=false when the conversation has no link yet.
func (c *APIClient) FetchLink(ctx context.Context, conversationID string) (string, bool, error) {
	var resp linkResponse
	if err := c.doJSON(ctx, http.MethodGet, conversationPath("/conversations/link", conversationID), c.token, nil, &resp); err != nil {
		return "", false, err
	}
	if resp.URL == nil {
		return "", false, nil
	}
	return *resp.URL, true, nil
}

func (c *APIClient) DeleteLink(ctx context.Context, conversationID string) error {
	return c.doJSON(ctx, http.MethodDelete, conversationPath("/conversations/link", conversationID), c.token, nil, nil)
}

func conversationPath(path, conversationID string) string {
	query := url.Values{}
	query.Set("conversation_id", conversationID)
	return path + "?" + query.Encode()
}

func (c *APIClient) doJSON(ctx context.Context, method, path, token string, payload any, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
