package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxTitleLen = 256

type Service struct {
	repo     Repository
	notifier Notifier
	linkBase string
	idGen    func() string
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, linkBaseURL string) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		linkBase: strings.TrimRight(strings.TrimSpace(linkBaseURL), "/"),
		idGen:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, title string) (Conversation, error) {
	if s.repo == nil {
		return Conversation{}, errors.New("repository is required")
	}
	title = strings.TrimSpace(title)
	if len(title) > maxTitleLen {
		return Conversation{}, ErrInvalidInput
	}
	conv := Conversation{
		ID:        ID(s.idGen()),
		Title:     title,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

func (s *Service) Get(ctx context.Context, id ID) (Conversation, error) {
	if s.repo == nil {
		return Conversation{}, errors.New("repository is required")
	}
	if strings.TrimSpace(string(id)) == "" {
		return Conversation{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) SetAllowGuests(ctx context.Context, id ID, allow bool) (Conversation, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	changed, err := s.repo.SetAllowGuests(ctx, id, allow)
	if err != nil {
		return Conversation{}, err
	}
	conv.AllowGuests = allow
	if changed && s.notifier != nil {
		s.notifier.NotifyGuestsChanged(id, allow)
	}
	return conv, nil
}

// CreateLink returns the conversation's link, creating one when none exists.
func (s *Service) CreateLink(ctx context.Context, id ID) (string, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !conv.AllowGuests {
		return "", ErrGuestsDisabled
	}
	if conv.HasLink() {
		return s.linkURL(conv.LinkToken), nil
	}
	token := s.idGen()
	if err := s.repo.SetLink(ctx, id, token, s.now().UTC()); err != nil {
		return "", err
	}
	return s.linkURL(token), nil
}

// FetchLink reports found=false when no link has been created.
func (s *Service) FetchLink(ctx context.Context, id ID) (string, bool, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return "", false, err
	}
	if !conv.HasLink() {
		return "", false, nil
	}
	return s.linkURL(conv.LinkToken), true, nil
}

func (s *Service) DeleteLink(ctx context.Context, id ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.ClearLink(ctx, id)
}

func (s *Service) linkURL(token string) string {
	if s.linkBase == "" {
		return token
	}
	return s.linkBase + "/" + token
}
