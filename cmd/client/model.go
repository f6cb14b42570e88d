package main

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Avicted/convopts/internal/options"
)

type appState int

const (
	stateLoading appState = iota
	stateOptions
	stateFailed
)

const eventBuffer = 16

type rootModel struct {
	api            *APIClient
	conversationID string
	newTitle       string
	theme          theme
	state          appState
	screen         screenModel
	config         *remoteConfiguration
	ws             *WSClient
	err            error
	width          int
	height         int
}

type conversationLoadedMsg struct {
	conv  ConversationResponse
	ws    *WSClient
	wsErr error
}

type conversationErrorMsg struct {
	err error
}

func newRootModel(api *APIClient, conversationID, newTitle string, t theme) rootModel {
	return rootModel{
		api:            api,
		conversationID: strings.TrimSpace(conversationID),
		newTitle:       newTitle,
		theme:          t,
		state:          stateLoading,
	}
}

func (m rootModel) Init() tea.Cmd {
	return m.loadConversation()
}

// loadConversation opens the conversation (creating one when no id was
// given) and subscribes to its pushes. A failed subscription is not fatal.
func (m rootModel) loadConversation() tea.Cmd {
	api := m.api
	id := m.conversationID
	title := m.newTitle
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var conv *ConversationResponse
		var err error
		if id == "" {
			conv, err = api.CreateConversation(ctx, title)
		} else {
			conv, err = api.GetConversation(ctx, id)
		}
		if err != nil {
			return conversationErrorMsg{err: err}
		}

		ws, err := ConnectWS(api.serverURL, conv.ID, api.token)
		return conversationLoadedMsg{conv: *conv, ws: ws, wsErr: err}
	}
}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch msg := msg.(type) {
	case conversationLoadedMsg:
		events := make(chan func(), eventBuffer)
		config := newRemoteConfiguration(m.api, msg.conv, events)
		m.config = config
		if msg.ws != nil {
			m.ws = msg.ws
			ch := make(chan ServerEvent, eventBuffer)
			go msg.ws.ReadLoop(ch)
			go config.watch(ch)
		}
		m.screen = newScreenModel(options.NewViewModel(config), m.theme, events)
		m.screen.width = m.width
		if msg.wsErr != nil {
			m.screen.notice = "live updates unavailable: " + msg.wsErr.Error()
		}
		m.state = stateOptions
		return m, m.screen.Init()

	case conversationErrorMsg:
		m.err = msg.err
		m.state = stateFailed
		return m, nil
	}

	if m.state != stateOptions {
		if km, ok := msg.(tea.KeyMsg); ok && (km.String() == "q" || km.String() == "ctrl+c") {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, cmd
}

func (m rootModel) View() string {
	switch m.state {
	case stateLoading:
		return "  " + m.theme.title.Render(defaultTitle) + "\n" +
			"  " + m.theme.subtle.Render("loading conversation...")
	case stateFailed:
		return "  " + m.theme.err.Render("x "+m.err.Error()) + "\n" +
			"  " + m.theme.help.Render(helpLine(quitKey))
	}
	return m.screen.View()
}

func (m rootModel) close() {
	if m.config != nil {
		m.config.stop()
	}
	if m.ws != nil {
		m.ws.Close()
	}
}
