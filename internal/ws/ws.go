package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"github.com/Avicted/convopts/internal/auth"
	"github.com/Avicted/convopts/internal/conversation"
	"github.com/Avicted/convopts/internal/securelog"
)

const (
	sendBuffer   = 16
	notifyBuffer = 256
	writeTimeout = 5 * time.Second

	EventGuestsChanged = "conversation.guests_changed"
)

var errNotifyQueueFull = errors.New("notify queue full")

// GuestsChangedEvent is pushed to every subscriber of a conversation when its
// guest access flag changes.
type GuestsChangedEvent struct {
	Type           string          `json:"type"`
	ConversationID conversation.ID `json:"conversation_id"`
	AllowGuests    bool            `json:"allow_guests"`
}

type Hub struct {
	register       chan *Client
	unregister     chan *Client
	notify         chan GuestsChangedEvent
	done           chan struct{}
	clients        map[*Client]struct{}
	byConversation map[conversation.ID]map[*Client]struct{}
	count          atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		notify:         make(chan GuestsChangedEvent, notifyBuffer),
		done:           make(chan struct{}),
		clients:        make(map[*Client]struct{}),
		byConversation: make(map[conversation.ID]map[*Client]struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close(websocket.StatusGoingAway, "server shutdown")
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.byConversation[c.conversationID] == nil {
				h.byConversation[c.conversationID] = make(map[*Client]struct{})
			}
			h.byConversation[c.conversationID][c] = struct{}{}
			h.count.Add(1)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				continue
			}
			delete(h.clients, c)
			if clients := h.byConversation[c.conversationID]; clients != nil {
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.byConversation, c.conversationID)
				}
			}
			h.count.Add(-1)
			c.close(websocket.StatusNormalClosure, "bye")
		case ev := <-h.notify:
			for c := range h.byConversation[ev.ConversationID] {
				c.sendEvent(ev)
			}
		}
	}
}

func (h *Hub) ClientCount() int64 {
	return h.count.Load()
}

// NotifyGuestsChanged queues a push for the conversation's subscribers. It
// never blocks the caller; events are dropped when the queue is full.
func (h *Hub) NotifyGuestsChanged(id conversation.ID, allow bool) {
	ev := GuestsChangedEvent{Type: EventGuestsChanged, ConversationID: id, AllowGuests: allow}
	select {
	case h.notify <- ev:
	default:
		securelog.Error("ws.notify", errNotifyQueueFull)
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	validator, ok := r.Context().Value(authValidatorKey{}).(tokenValidator)
	if !ok || validator == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if _, err := authenticateRequest(r, validator); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id := conversation.ID(strings.TrimSpace(r.URL.Query().Get("conversation_id")))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if lookup, ok := r.Context().Value(conversationLookupKey{}).(ConversationLookup); ok && lookup != nil {
		if _, err := lookup.Get(r.Context(), id); err != nil {
			if errors.Is(err, conversation.ErrNotFound) {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			securelog.Error("ws.lookup", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	client := &Client{
		conn:           conn,
		hub:            h,
		ctx:            ctx,
		cancel:         cancel,
		send:           make(chan []byte, sendBuffer),
		conversationID: id,
	}

	select {
	case h.register <- client:
	case <-h.done:
		cancel()
		_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
		return
	}

	go client.writeLoop()
	client.readLoop()
}

type Client struct {
	conn           *websocket.Conn
	hub            *Hub
	ctx            context.Context
	cancel         context.CancelFunc
	send           chan []byte
	closeOnce      sync.Once
	conversationID conversation.ID
}

func (c *Client) Send(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// readLoop only drains control frames; subscribers never send events.
func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	for {
		if _, _, err := c.conn.Read(c.ctx); err != nil {
			return
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.cancel()
				return
			}
		}
	}
}

func (c *Client) close(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		// close the socket before cancelling so peers see our status code
		_ = c.conn.Close(status, reason)
		c.cancel()
		close(c.send)
	})
}

func (c *Client) sendEvent(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = c.Send(data)
}

type tokenValidator interface {
	ValidateToken(token string) (auth.Session, error)
}

type authValidatorKey struct{}

type conversationLookupKey struct{}

// ConversationLookup resolves the conversation a subscriber asks for.
type ConversationLookup interface {
	Get(ctx context.Context, id conversation.ID) (conversation.Conversation, error)
}

// WithConversationLookup makes HandleWS refuse subscriptions to conversations
// the lookup does not know.
func WithConversationLookup(next http.Handler, lookup ConversationLookup) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), conversationLookupKey{}, lookup)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithAuthValidator(next http.Handler, validator tokenValidator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), authValidatorKey{}, validator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authenticateRequest(r *http.Request, validator tokenValidator) (auth.Session, error) {
	if validator == nil {
		return auth.Session{}, auth.ErrUnauthorized
	}
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return validator.ValidateToken(token)
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		return parseAuthHeader(header, validator)
	}
	return auth.Session{}, auth.ErrUnauthorized
}

func parseAuthHeader(header string, validator tokenValidator) (auth.Session, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return auth.Session{}, auth.ErrUnauthorized
	}
	return validator.ValidateToken(parts[1])
}
