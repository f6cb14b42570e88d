// Package optionstest provides a scripted options.Configuration for tests.
package optionstest

import (
	"github.com/Avicted/convopts/internal/options"
)

type FetchResult struct {
	URL   string
	Found bool
	Err   error
}

type CreateResult struct {
	URL string
	Err error
}

// Config answers provider calls from the scripted fields. A nil result (or a
// nil SetAllowGuestsHandler) withholds the completion; it is kept in the
// matching Pending* field so a test can resolve it later.
type Config struct {
	Guests bool
	Name   string
	Links  bool

	SetAllowGuestsHandler func(allow bool, done func(error))
	LinkResult            *FetchResult
	CreateResult          *CreateResult
	DeleteErr             error
	DeleteWithheld        bool

	GuestsChangedHandler func(bool)

	PendingSet    func(error)
	PendingFetch  func(url string, found bool, err error)
	PendingCreate func(url string, err error)
	PendingDelete func(error)

	SetCalls    []bool
	FetchCalls  int
	CreateCalls int
	DeleteCalls int
}

func New(allowGuests bool) *Config {
	return &Config{Guests: allowGuests, Links: true}
}

func (c *Config) WithTitle(title string) *Config {
	c.Name = title
	return c
}

func (c *Config) WithLink(url string) *Config {
	c.LinkResult = &FetchResult{URL: url, Found: true}
	return c
}

func (c *Config) WithoutLink() *Config {
	c.LinkResult = &FetchResult{}
	return c
}

func (c *Config) AllowGuests() bool  { return c.Guests }
func (c *Config) Title() string      { return c.Name }
func (c *Config) LinksEnabled() bool { return c.Links }

func (c *Config) SetAllowGuests(allow bool, done func(error)) {
	c.SetCalls = append(c.SetCalls, allow)
	if c.SetAllowGuestsHandler == nil {
		c.PendingSet = done
		return
	}
	c.SetAllowGuestsHandler(allow, done)
}

func (c *Config) CreateConversationLink(done func(url string, err error)) {
	c.CreateCalls++
	if c.CreateResult == nil {
		c.PendingCreate = done
		return
	}
	done(c.CreateResult.URL, c.CreateResult.Err)
}

func (c *Config) FetchConversationLink(done func(url string, found bool, err error)) {
	c.FetchCalls++
	if c.LinkResult == nil {
		c.PendingFetch = done
		return
	}
	done(c.LinkResult.URL, c.LinkResult.Found, c.LinkResult.Err)
}

func (c *Config) DeleteLink(done func(error)) {
	c.DeleteCalls++
	if c.DeleteWithheld {
		c.PendingDelete = done
		return
	}
	done(c.DeleteErr)
}

func (c *Config) OnAllowGuestsChanged(fn func(bool)) {
	c.GuestsChangedHandler = fn
}

// PushGuests simulates an out-of-band change arriving on the push channel.
func (c *Config) PushGuests(allow bool) {
	c.Guests = allow
	if c.GuestsChangedHandler != nil {
		c.GuestsChangedHandler(allow)
	}
}

// Succeed resolves guest changes immediately with success.
func Succeed(allow bool, done func(error)) { done(nil) }

var _ options.Configuration = (*Config)(nil)
