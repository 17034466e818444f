package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/conversation"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"go.uber.org/zap"
)

func (s *Service) ListChats(ctx context.Context, userID string) ([]database.Chat, error) {
	chats, err := s.store.ListChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []database.Chat{}
	}
	return chats, nil
}

func (s *Service) CreateChat(ctx context.Context, userID string) (database.Chat, error) {
	chat, err := s.store.CreateChat(ctx, database.CreateChatParams{
		ID:     uuid.New(),
		UserID: userID,
		Title:  DefaultChatTitle,
	})
	if err != nil {
		return database.Chat{}, err
	}
	s.publish(ctx, events.Update{Kind: events.KindChat, UserID: userID, ChatID: chat.ID.String(), Status: "created"})
	return chat, nil
}

func (s *Service) DeleteChat(ctx context.Context, userID string, chatID uuid.UUID) error {
	n, err := s.store.DeleteChat(ctx, database.DeleteChatParams{ID: chatID, UserID: userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	s.mu.Lock()
	delete(s.convs, chatID)
	s.mu.Unlock()
	s.publish(ctx, events.Update{Kind: events.KindChat, UserID: userID, ChatID: chatID.String(), Status: "deleted"})
	return nil
}

func (s *Service) chat(ctx context.Context, userID string, chatID uuid.UUID) (database.Chat, error) {
	chat, err := s.store.GetChat(ctx, database.GetChatParams{ID: chatID, UserID: userID})
	if err != nil {
		return database.Chat{}, notFound(err, "chat "+chatID.String())
	}
	return chat, nil
}

// Conversation returns the live conversation for a chat the user owns,
// restoring it from stored messages on first use.
func (s *Service) Conversation(ctx context.Context, userID string, chatID uuid.UUID) (*conversation.Conversation, error) {
	chat, err := s.chat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[chatID]; ok {
		return c, nil
	}

	msgs, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	turns := make([]generation.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, generation.Turn{
			Speaker:   generation.Speaker(m.Sender),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		})
	}

	c := conversation.Restore(s.model, turns,
		conversation.WithTimeout(s.timeout),
		conversation.WithLogger(s.logger.With(zap.String("chat_id", chatID.String()))),
		conversation.WithListener(&chatListener{svc: s, chat: chat}),
	)
	s.convs[chatID] = c
	return c, nil
}

func (s *Service) Messages(ctx context.Context, userID string, chatID uuid.UUID) ([]database.Message, error) {
	if _, err := s.chat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []database.Message{}
	}
	return msgs, nil
}

// SendMessage submits one utterance to a chat. The snapshot reflects the
// conversation after the turn, including when the model call failed; the
// error is then one wrapping generation.ErrTransport.
func (s *Service) SendMessage(ctx context.Context, userID string, chatID uuid.UUID, text string, mode generation.Mode) (conversation.Snapshot, error) {
	if strings.TrimSpace(text) == "" {
		return conversation.Snapshot{}, generation.ErrEmptyInput
	}
	conv, err := s.Conversation(ctx, userID, chatID)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	first := len(conv.Snapshot().Turns) == 0

	in := conversation.Input{Utterance: text, Mode: mode}
	result, err := conv.Submit(ctx, in)
	if errors.Is(err, conversation.ErrBusy) || errors.Is(err, generation.ErrEmptyInput) {
		return conv.Snapshot(), err
	}
	if first {
		s.retitle(ctx, userID, chatID, text)
	}
	s.countResult(in.Intent(), result)
	return conv.Snapshot(), err
}

func (s *Service) retitle(ctx context.Context, userID string, chatID uuid.UUID, text string) {
	chat, err := s.chat(ctx, userID, chatID)
	if err != nil || chat.Title != DefaultChatTitle {
		return
	}
	title := ChatTitle(text)
	if err := s.store.UpdateChatTitle(ctx, database.UpdateChatTitleParams{Title: title, ID: chatID}); err != nil {
		s.logger.Warn("failed to update chat title", zap.String("chat_id", chatID.String()), zap.Error(err))
		return
	}
	s.publish(ctx, events.Update{Kind: events.KindChat, UserID: userID, ChatID: chatID.String(), Status: "renamed", Message: title})
}

// chatListener persists what a conversation produces and tells the owner.
type chatListener struct {
	svc  *Service
	chat database.Chat
}

func (l *chatListener) TurnsAppended(ctx context.Context, turns []generation.Turn) {
	for _, t := range turns {
		err := l.svc.store.CreateMessage(ctx, database.CreateMessageParams{
			ID:        uuid.New(),
			ChatID:    l.chat.ID,
			Sender:    string(t.Speaker),
			Text:      t.Text,
			CreatedAt: t.CreatedAt,
		})
		if err != nil {
			l.svc.logger.Error("failed to save message",
				zap.String("chat_id", l.chat.ID.String()),
				zap.String("sender", string(t.Speaker)),
				zap.Error(err),
			)
			continue
		}
		l.svc.publish(ctx, events.Update{
			Kind:      events.KindMessage,
			UserID:    l.chat.UserID,
			ChatID:    l.chat.ID.String(),
			Timestamp: t.CreatedAt,
			Payload:   marshalPayload(t),
		})
	}
}

func (l *chatListener) ResultReady(ctx context.Context, _ generation.Intent, result generation.Result) {
	switch {
	case result.Roadmap != nil:
		if _, err := l.svc.saveRoadmap(ctx, l.chat.UserID, *result.Roadmap); err != nil {
			l.svc.logger.Error("failed to save roadmap", zap.String("chat_id", l.chat.ID.String()), zap.Error(err))
		}
	case result.Critique != nil:
		l.svc.publish(ctx, events.Update{
			Kind:    events.KindResume,
			UserID:  l.chat.UserID,
			ChatID:  l.chat.ID.String(),
			Status:  "completed",
			Payload: marshalPayload(result.Critique),
		})
	}
}

func (s *Service) Snapshot(ctx context.Context, userID string, chatID uuid.UUID) (conversation.Snapshot, error) {
	conv, err := s.Conversation(ctx, userID, chatID)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	return conv.Snapshot(), nil
}

// SetView switches the active tab of a chat.
func (s *Service) SetView(ctx context.Context, userID string, chatID uuid.UUID, view conversation.View) (conversation.Snapshot, error) {
	conv, err := s.Conversation(ctx, userID, chatID)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	conv.SetView(view)
	return conv.Snapshot(), nil
}
