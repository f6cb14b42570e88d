package main

import (
	"context"
	"sync"
	"time"

	"github.com/Avicted/convopts/internal/options"
)

const requestTimeout = 10 * time.Second

type conversationAPI interface {
	SetAllowGuests(ctx context.Context, conversationID string, allow bool) (*ConversationResponse, error)
	CreateLink(ctx context.Context, conversationID string) (string, error)
	FetchLink(ctx context.Context, conversationID string) (string, bool, error)
	DeleteLink(ctx context.Context, conversationID string) error
}

// remoteConfiguration serves options.Configuration from the server. Network
// calls run on their own goroutines; their completions, and guest changes
// pushed over the websocket, are posted to events and must be run by the
// goroutine that owns the view model. After stop, pending sends are dropped.
type remoteConfiguration struct {
	api      conversationAPI
	conv     ConversationResponse
	events   chan<- func()
	done     chan struct{}
	stopOnce sync.Once
	timeout  time.Duration
	onGuests func(bool)
}

func newRemoteConfiguration(api conversationAPI, conv ConversationResponse, events chan<- func()) *remoteConfiguration {
	return &remoteConfiguration{
		api:     api,
		conv:    conv,
		events:  events,
		done:    make(chan struct{}),
		timeout: requestTimeout,
	}
}

func (c *remoteConfiguration) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *remoteConfiguration) post(fn func()) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *remoteConfiguration) AllowGuests() bool  { return c.conv.AllowGuests }
func (c *remoteConfiguration) Title() string      { return c.conv.Title }
func (c *remoteConfiguration) LinksEnabled() bool { return c.conv.LinksEnabled }

func (c *remoteConfiguration) OnAllowGuestsChanged(fn func(bool)) {
	c.onGuests = fn
}

func (c *remoteConfiguration) SetAllowGuests(allow bool, done func(error)) {
	id := c.conv.ID
	c.goRequest(func(ctx context.Context) func() {
		_, err := c.api.SetAllowGuests(ctx, id, allow)
		return func() {
			if err == nil {
				c.conv.AllowGuests = allow
			}
			done(err)
		}
	})
}

func (c *remoteConfiguration) CreateConversationLink(done func(url string, err error)) {
	id := c.conv.ID
	c.goRequest(func(ctx context.Context) func() {
		url, err := c.api.CreateLink(ctx, id)
		return func() { done(url, err) }
	})
}

func (c *remoteConfiguration) FetchConversationLink(done func(url string, found bool, err error)) {
	id := c.conv.ID
	c.goRequest(func(ctx context.Context) func() {
		url, found, err := c.api.FetchLink(ctx, id)
		return func() { done(url, found, err) }
	})
}

func (c *remoteConfiguration) DeleteLink(done func(error)) {
	id := c.conv.ID
	c.goRequest(func(ctx context.Context) func() {
		err := c.api.DeleteLink(ctx, id)
		return func() { done(err) }
	})
}

// watch forwards guest changes for this conversation until ch closes.
func (c *remoteConfiguration) watch(ch <-chan ServerEvent) {
	id := c.conv.ID
	for ev := range ch {
		if ev.Type != eventGuestsChanged || ev.ConversationID != id {
			continue
		}
		allow := ev.AllowGuests
		posted := c.post(func() {
			c.conv.AllowGuests = allow
			if c.onGuests != nil {
				c.onGuests(allow)
			}
		})
		if !posted {
			return
		}
	}
}

func (c *remoteConfiguration) goRequest(call func(ctx context.Context) func()) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.post(call(ctx))
	}()
}

var _ options.Configuration = (*remoteConfiguration)(nil)
