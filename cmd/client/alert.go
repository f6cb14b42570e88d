package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type alertKind int

const (
	alertRemoveGuests alertKind = iota
	alertRevokeLink
)

type alert struct {
	kind    alertKind
	title   string
	message string
}

func newAlert(kind alertKind) *alert {
	switch kind {
	case alertRevokeLink:
		return &alert{
			kind:    kind,
			title:   "Revoke link?",
			message: "New guests will not be able to join with this link.",
		}
	default:
		return &alert{
			kind:    alertRemoveGuests,
			title:   "Remove guests?",
			message: "Current guests will be removed and new guests will not be allowed.",
		}
	}
}

var (
	confirmKey = key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm"))
	cancelKey  = key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel"))
)

type alertResult int

const (
	alertPending alertResult = iota
	alertConfirmed
	alertCancelled
)

func (a *alert) handleKey(msg tea.KeyMsg) alertResult {
	switch {
	case key.Matches(msg, confirmKey):
		return alertConfirmed
	case key.Matches(msg, cancelKey):
		return alertCancelled
	}
	return alertPending
}

func (a *alert) view(t theme) string {
	return "  " + t.title.Render(a.title) + "\n" +
		"  " + t.alertBody.Render(a.message) + "\n" +
		"  " + t.help.Render(helpLine(confirmKey, cancelKey))
}
