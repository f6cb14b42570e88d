package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"nhooyr.io/websocket"
)

const eventGuestsChanged = "conversation.guests_changed"

type WSClient struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

type ServerEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	AllowGuests    bool   `json:"allow_guests"`
}

func ConnectWS(serverURL, conversationID, token string) (*WSClient, error) {
	wsURL := strings.Replace(serverURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	query := url.Values{}
	query.Set("conversation_id", conversationID)
	query.Set("token", token)
	wsURL = wsURL + "/ws?" + query.Encode()

	ctx, cancel := context.WithCancel(context.Background())

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	return &WSClient{
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (c *WSClient) ReadLoop(ch chan<- ServerEvent) {
	defer close(ch)
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			return
		}
		var ev ServerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		select {
		case ch <- ev:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	c.cancel()
}
