package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Avicted/convopts/internal/auth"
	"github.com/Avicted/convopts/internal/conversation"
	"github.com/Avicted/convopts/internal/securelog"
)

const (
	maxBodyBytes = 1 << 20
	timeLayout   = time.RFC3339Nano
)

var errLinksDisabled = errors.New("guest links are disabled")

type TokenValidator interface {
	ValidateToken(token string) (auth.Session, error)
}

type Handler struct {
	conversations *conversation.Service
	auth          TokenValidator
	linksEnabled  bool
}

func NewHandler(conversations *conversation.Service, auth TokenValidator, linksEnabled bool) *Handler {
	return &Handler{
		conversations: conversations,
		auth:          auth,
		linksEnabled:  linksEnabled,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/conversations", h.handleConversations)
	mux.HandleFunc("/conversations/guests", h.handleGuests)
	mux.HandleFunc("/conversations/link", h.handleLink)
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type conversationResponse struct {
	ID           conversation.ID `json:"id"`
	Title        string          `json:"title"`
	AllowGuests  bool            `json:"allow_guests"`
	LinksEnabled bool            `json:"links_enabled"`
	HasLink      bool            `json:"has_link"`
	CreatedAt    string          `json:"created_at"`
}

type setGuestsRequest struct {
	ConversationID conversation.ID `json:"conversation_id"`
	AllowGuests    *bool           `json:"allow_guests"`
}

type linkResponse struct {
	URL *string `json:"url"`
}

func (h *Handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := h.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req createConversationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := h.conversations.Create(r.Context(), req.Title)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, h.toResponse(created))
	case http.MethodGet:
		conv, err := h.conversations.Get(r.Context(), conversationIDParam(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.toResponse(conv))
	}
}

func (h *Handler) handleGuests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := h.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	var req setGuestsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.AllowGuests == nil {
		writeError(w, http.StatusBadRequest, errors.New("allow_guests is required"))
		return
	}

	updated, err := h.conversations.SetAllowGuests(r.Context(), req.ConversationID, *req.AllowGuests)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(updated))
}

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost, http.MethodGet, http.MethodDelete:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := h.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	if !h.linksEnabled {
		writeError(w, http.StatusForbidden, errLinksDisabled)
		return
	}

	id := conversationIDParam(r)
	switch r.Method {
	case http.MethodPost:
		url, err := h.conversations.CreateLink(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		securelog.Link("httpapi", "created", url)
		writeJSON(w, http.StatusCreated, linkResponse{URL: &url})
	case http.MethodGet:
		url, found, err := h.conversations.FetchLink(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusOK, linkResponse{})
			return
		}
		writeJSON(w, http.StatusOK, linkResponse{URL: &url})
	case http.MethodDelete:
		if err := h.conversations.DeleteLink(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RequireAuth guards routes served outside this handler with the same bearer
// token check.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.authenticate(r); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authenticate(r *http.Request) (auth.Session, error) {
	if h.auth == nil {
		return auth.Session{}, auth.ErrUnauthorized
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return h.auth.ValidateToken(parts[1])
		}
	}
	return auth.Session{}, auth.ErrUnauthorized
}

func (h *Handler) toResponse(conv conversation.Conversation) conversationResponse {
	return conversationResponse{
		ID:           conv.ID,
		Title:        conv.Title,
		AllowGuests:  conv.AllowGuests,
		LinksEnabled: h.linksEnabled,
		HasLink:      conv.HasLink(),
		CreatedAt:    conv.CreatedAt.UTC().Format(timeLayout),
	}
}

func conversationIDParam(r *http.Request) conversation.ID {
	return conversation.ID(strings.TrimSpace(r.URL.Query().Get("conversation_id")))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, conversation.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, conversation.ErrGuestsDisabled):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("multiple json objects are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	securelog.Error("httpapi", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
