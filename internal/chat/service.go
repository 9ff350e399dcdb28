// Package chat implements the messaging surface between a user and their
// barbers: thread listing, open-or-create, history, sending, and a polling
// loop for near-live updates (the backend exposes no push channel).
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/barberbook/bookingkit/internal/api"
	"github.com/barberbook/bookingkit/pkg/logging"
)

// ErrEmptyMessage rejects blank sends before they reach the network.
var ErrEmptyMessage = errors.New("chat: message content is empty")

// ChatAPI is the slice of the API client the chat service depends on.
type ChatAPI interface {
	OpenChat(ctx context.Context, barberID string) (*api.Chat, error)
	ListChats(ctx context.Context) ([]api.Chat, error)
	GetMessages(ctx context.Context, chatID string) ([]api.Message, error)
	SendMessage(ctx context.Context, chatID, content string) error
}

// UserSource exposes the signed-in user for optimistic local echoes.
// Satisfied by *session.Store.
type UserSource interface {
	User() (api.User, bool)
}

// Service drives the chat screen.
type Service struct {
	client  ChatAPI
	session UserSource
	logger  *logging.Logger
	now     func() time.Time
}

func New(client ChatAPI, session UserSource, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{client: client, session: session, logger: logger, now: time.Now}
}

// Chats returns the user's threads.
func (s *Service) Chats(ctx context.Context) ([]api.Chat, error) {
	return s.client.ListChats(ctx)
}

// OpenWithBarber finds or creates the thread with a barber, then refreshes
// the thread list so the new thread carries full participant data. A failed
// refresh falls back to the created thread alone, mirroring the screen's
// tolerant behavior.
func (s *Service) OpenWithBarber(ctx context.Context, barberID string) (*api.Chat, []api.Chat, error) {
	created, err := s.client.OpenChat(ctx, barberID)
	if err != nil {
		return nil, nil, fmt.Errorf("open chat with barber: %w", err)
	}

	chats, err := s.client.ListChats(ctx)
	if err != nil {
		s.logger.Warn("chat list refresh failed after open", "barber_id", barberID, "error", err)
		return created, nil, nil
	}
	for i := range chats {
		if chats[i].ID == created.ID {
			return &chats[i], chats, nil
		}
	}
	return created, chats, nil
}

// Messages returns the full history of one thread.
func (s *Service) Messages(ctx context.Context, chatID string) ([]api.Message, error) {
	return s.client.GetMessages(ctx, chatID)
}

// Send posts a message and returns the optimistic local echo the screen
// appends without waiting for the next poll. Content is trimmed first.
func (s *Service) Send(ctx context.Context, chatID, content string) (api.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return api.Message{}, ErrEmptyMessage
	}
	if err := s.client.SendMessage(ctx, chatID, content); err != nil {
		return api.Message{}, fmt.Errorf("send message: %w", err)
	}

	echo := api.Message{SenderType: "user", Content: content, CreatedAt: s.now()}
	if s.session != nil {
		if user, ok := s.session.User(); ok {
			echo.Sender = user.ID
		}
	}
	return echo, nil
}

// Poll fetches the thread's messages every interval and invokes fn whenever
// the message count changes. It blocks until ctx is done; fetch errors are
// logged and the loop keeps going.
func (s *Service) Poll(ctx context.Context, chatID string, interval time.Duration, fn func([]api.Message)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seen := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := s.client.GetMessages(ctx, chatID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("chat poll failed", "chat_id", chatID, "error", err)
				continue
			}
			if len(msgs) != seen {
				seen = len(msgs)
				fn(msgs)
			}
		}
	}
}
