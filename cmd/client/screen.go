package main

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Avicted/convopts/internal/options"
)

const (
	defaultTitle = "Conversation options"
	copyFeedback = 2 * time.Second
)

var writeClipboard = clipboard.WriteAll

var (
	toggleKey = key.NewBinding(key.WithKeys("t", " "), key.WithHelp("t", "toggle guests"))
	createKey = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "create link"))
	copyKey   = key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link"))
	revokeKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "revoke link"))
	loadKey   = key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "load link"))
	quitKey   = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
)

// providerEventMsg carries a provider completion or push to the update loop.
type providerEventMsg func()

type copyResultMsg struct {
	err error
}

type copyDoneMsg struct{}

// observed is the view model's last published state. It lives behind a
// pointer so the observer closure keeps working when Bubble Tea copies the
// screen model.
type observed struct {
	state   options.State
	updates int
}

type screenModel struct {
	vm      *options.ViewModel
	obs     *observed
	events  <-chan func()
	theme   theme
	spinner spinner.Model
	alert   *alert
	notice  string
	width   int
}

func newScreenModel(vm *options.ViewModel, t theme, events <-chan func()) screenModel {
	obs := &observed{state: vm.State()}
	vm.SetObserver(func(s options.State) {
		obs.state = s
		obs.updates++
	})
	m := screenModel{
		vm:      vm,
		obs:     obs,
		events:  events,
		theme:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Line)),
	}
	m.react()
	return m
}

func (m screenModel) Init() tea.Cmd {
	if m.events == nil {
		return m.spinner.Tick
	}
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(ch <-chan func()) tea.Cmd {
	return func() tea.Msg {
		fn, ok := <-ch
		if !ok {
			return nil
		}
		return providerEventMsg(fn)
	}
}

func (m screenModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case providerEventMsg:
		msg()
		m.react()
		return m, waitForEvent(m.events)

	case copyResultMsg:
		if msg.err != nil {
			m.notice = "copy failed: " + msg.err.Error()
			return m, nil
		}
		if err := m.vm.BeginCopy(); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		return m, tea.Tick(copyFeedback, func(time.Time) tea.Msg { return copyDoneMsg{} })

	case copyDoneMsg:
		m.vm.EndCopy()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.alert != nil {
			return m.handleAlertKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m screenModel) handleKey(msg tea.KeyMsg) (screenModel, tea.Cmd) {
	m.notice = ""
	s := m.obs.state
	switch {
	case key.Matches(msg, quitKey):
		return m, tea.Quit
	case key.Matches(msg, toggleKey):
		if s.AllowGuests && !s.GuestsChangePending {
			m.alert = newAlert(alertRemoveGuests)
			return m, nil
		}
		m.report(m.vm.RequestSetAllowGuests(!s.AllowGuests))
	case key.Matches(msg, createKey) && m.linkSectionVisible():
		m.report(m.vm.RequestCreateLink())
	case key.Matches(msg, loadKey) && m.linkSectionVisible():
		m.report(m.vm.RequestFetchLink())
	case key.Matches(msg, copyKey) && s.Link.Available():
		url := s.Link.URL
		return m, func() tea.Msg { return copyResultMsg{err: writeClipboard(url)} }
	case key.Matches(msg, revokeKey) && s.Link.Available():
		m.alert = newAlert(alertRevokeLink)
		return m, nil
	}
	m.react()
	return m, nil
}

func (m screenModel) handleAlertKey(msg tea.KeyMsg) (screenModel, tea.Cmd) {
	switch m.alert.handleKey(msg) {
	case alertConfirmed:
		kind := m.alert.kind
		m.alert = nil
		switch kind {
		case alertRemoveGuests:
			m.report(m.vm.RequestSetAllowGuests(false))
		case alertRevokeLink:
			m.report(m.vm.RequestDeleteLink())
		}
		m.react()
	case alertCancelled:
		m.alert = nil
	}
	return m, nil
}

// react fetches the link once guest access is confirmed and the link state
// is still unknown.
func (m *screenModel) react() {
	s := m.obs.state
	if m.linkSectionVisible() && s.Link.Status == options.LinkUnknown {
		m.report(m.vm.RequestFetchLink())
	}
}

func (m *screenModel) report(err error) {
	if err != nil {
		m.notice = err.Error()
	}
}

func (m screenModel) linkSectionVisible() bool {
	s := m.obs.state
	return s.AllowGuests && s.LinksEnabled && !s.GuestsChangePending
}

func (m screenModel) View() string {
	s := m.obs.state
	t := m.theme
	var b strings.Builder

	title := s.Title
	if title == "" {
		title = defaultTitle
	}
	b.WriteString("  " + t.title.Render(title) + "\n")
	b.WriteString(t.separator(m.width) + "\n\n")

	box := "[ ]"
	desc := "Only team members can join."
	if s.AllowGuests {
		box = "[x]"
		desc = "People outside your team can join."
	}
	row := "  " + t.toggle(s.AllowGuests).Render(box) + " " + t.label.Render("Allow guests")
	if s.GuestsChangePending {
		row += " " + m.spinner.View()
	}
	b.WriteString(row + "\n")
	b.WriteString("      " + t.subtle.Render(desc) + "\n")

	if m.linkSectionVisible() {
		b.WriteString("\n  " + t.label.Render("Guest link") + "\n")
		for _, line := range m.linkLines(s) {
			b.WriteString("    " + line + "\n")
		}
	}

	b.WriteString("\n")
	if m.alert != nil {
		b.WriteString(m.alert.view(t))
		return b.String()
	}
	if text := m.errorText(); text != "" {
		b.WriteString("  " + t.err.Render("x "+text) + "\n")
	}
	b.WriteString("  " + t.help.Render(helpLine(m.activeKeys()...)))
	return b.String()
}

func (m screenModel) linkLines(s options.State) []string {
	t := m.theme
	switch s.Link.Status {
	case options.LinkLoading:
		return []string{m.spinner.View() + " " + t.subtle.Render("loading link")}
	case options.LinkAvailable:
		lines := []string{t.accent.Render(s.Link.URL)}
		if s.CopyInProgress {
			lines = append(lines, t.on.Render("copied to clipboard"))
		}
		return lines
	case options.LinkAbsent:
		return []string{t.subtle.Render("no link yet, press c to create one")}
	case options.LinkError:
		return []string{t.subtle.Render("could not load link, press l to retry")}
	}
	return []string{t.subtle.Render("not loaded")}
}

func (m screenModel) errorText() string {
	if m.notice != "" {
		return m.notice
	}
	if err := m.obs.state.Err; err != nil {
		return err.Error()
	}
	return ""
}

func (m screenModel) activeKeys() []key.Binding {
	keys := []key.Binding{toggleKey}
	if m.linkSectionVisible() {
		switch m.obs.state.Link.Status {
		case options.LinkAvailable:
			keys = append(keys, copyKey, revokeKey)
		case options.LinkAbsent:
			keys = append(keys, createKey)
		case options.LinkError, options.LinkUnknown:
			keys = append(keys, loadKey)
		}
	}
	return append(keys, quitKey)
}

func helpLine(keys ...key.Binding) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		h := k.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " - ")
}
