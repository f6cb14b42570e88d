package options

import (
	"errors"
)

// Configuration is the provider the view model is bound to. Every completion
// is invoked exactly once. Errors are opaque; only their presence matters.
type Configuration interface {
	AllowGuests() bool
	Title() string
	LinksEnabled() bool
	SetAllowGuests(allow bool, done func(error))
	CreateConversationLink(done func(url string, err error))
	FetchConversationLink(done func(url string, found bool, err error))
	DeleteLink(done func(error))
	// OnAllowGuestsChanged registers the push handler for guest access changes
	// made elsewhere (another device, the server).
	OnAllowGuestsChanged(fn func(allow bool))
}

type LinkStatus int

const (
	LinkUnknown LinkStatus = iota
	LinkLoading
	LinkAvailable
	LinkAbsent
	LinkError
)

func (s LinkStatus) String() string {
	switch s {
	case LinkUnknown:
		return "unknown"
	case LinkLoading:
		return "loading"
	case LinkAvailable:
		return "available"
	case LinkAbsent:
		return "absent"
	case LinkError:
		return "error"
	}
	return "invalid"
}

type LinkState struct {
	Status LinkStatus
	URL    string
}

func (l LinkState) Available() bool {
	return l.Status == LinkAvailable && l.URL != ""
}

type State struct {
	AllowGuests         bool
	Title               string
	LinksEnabled        bool
	Link                LinkState
	CopyInProgress      bool
	GuestsChangePending bool
	// Err is the last operation failure, cleared by the next request.
	Err error
}

// Loading reports whether any provider call is in flight.
func (s State) Loading() bool {
	return s.GuestsChangePending || s.Link.Status == LinkLoading
}

var (
	ErrChangePending = errors.New("guest access change already pending")
	ErrLinkBusy      = errors.New("link operation already in progress")
	ErrNoLink        = errors.New("no link to copy")
	ErrLinksDisabled = errors.New("guest links are disabled")

	ErrSetAllowGuests = errors.New("change guest access")
	ErrCreateLink     = errors.New("create link")
	ErrFetchLink      = errors.New("fetch link")
	ErrDeleteLink     = errors.New("revoke link")
)
