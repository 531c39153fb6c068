// File: internal/services/chat/service.go
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/voyago/go-tripmate/internal/domain"
	"github.com/voyago/go-tripmate/internal/repository/conversation"
	"github.com/voyago/go-tripmate/internal/services/ai"
)

const titleEllipsis = "..."

// CompletionProvider is the external completion service the relay talks to.
type CompletionProvider interface {
	Complete(ctx context.Context, model string, messages []ai.ChatMessage) (string, error)
	StreamCompletion(ctx context.Context, model string, messages []ai.ChatMessage, onDelta func(string) error) error
}

// TurnService executes one conversational turn: persist the user's
// question, replay the thread's history to the completion service, persist
// the assistant's reply, and derive the thread title on the first exchange.
type TurnService struct {
	config   *Config
	repo     conversation.Repository
	provider CompletionProvider
	logger   Logger
}

func NewTurnService(config *Config, repo conversation.Repository, provider CompletionProvider, logger Logger) (*TurnService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TurnService{
		config:   config,
		repo:     repo,
		provider: provider,
		logger:   logger,
	}, nil
}

// HandleTurn runs a full (blocking) turn and returns the assistant's reply.
func (s *TurnService) HandleTurn(ctx context.Context, threadID, question string) (string, error) {
	history, err := s.beginTurn(ctx, threadID, question)
	if err != nil {
		return "", err
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.config.UpstreamTimeout)
	defer cancel()

	reply, err := s.provider.Complete(llmCtx, s.config.Model, history)
	if err != nil {
		s.logger.Error("completion call failed", "thread_id", threadID, "error", err)
		return "", NewUpstreamError("completion", "completion service failed", err, threadID)
	}
	reply = strings.TrimSpace(reply)

	if err := s.persistReply(threadID, reply); err != nil {
		return "", err
	}

	s.logger.Info("turn completed", "thread_id", threadID, "response_length", len(reply))
	return reply, nil
}

// HandleTurnStream runs a streaming turn. Every fragment is forwarded to
// onDelta in arrival order while being accumulated; the accumulated buffer
// is persisted as a single assistant message once the stream ends. When the
// stream breaks partway (upstream failure or the caller's onDelta refusing
// more data) whatever already arrived is persisted best-effort.
func (s *TurnService) HandleTurnStream(ctx context.Context, threadID, question string, onDelta func(string) error) error {
	history, err := s.beginTurn(ctx, threadID, question)
	if err != nil {
		return err
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.config.UpstreamTimeout)
	defer cancel()

	var reply strings.Builder
	streamErr := s.provider.StreamCompletion(llmCtx, s.config.Model, history, func(fragment string) error {
		reply.WriteString(fragment)
		return onDelta(fragment)
	})

	if streamErr != nil && reply.Len() == 0 {
		s.logger.Error("stream completion failed", "thread_id", threadID, "error", streamErr)
		return NewUpstreamError("streaming", "completion stream failed", streamErr, threadID)
	}

	if err := s.persistReply(threadID, reply.String()); err != nil {
		return err
	}

	if streamErr != nil {
		s.logger.Warn("stream interrupted, partial reply persisted",
			"thread_id", threadID, "persisted_length", reply.Len(), "error", streamErr)
		return NewUpstreamError("streaming", "completion stream interrupted", streamErr, threadID)
	}

	s.logger.Info("stream turn completed", "thread_id", threadID, "response_length", reply.Len())
	return nil
}

// beginTurn validates the thread, persists the user's question (which is
// never lost, even if the completion call later fails) and loads the full
// ordered history for replay.
func (s *TurnService) beginTurn(ctx context.Context, threadID, question string) ([]ai.ChatMessage, error) {
	if strings.TrimSpace(question) == "" {
		return nil, NewValidationError("begin_turn", "question must not be empty")
	}

	exists, err := s.repo.Exists(ctx, threadID)
	if err != nil {
		return nil, NewStorageError("exists", "failed to check thread", err, threadID)
	}
	if !exists {
		return nil, NewNotFoundError(threadID)
	}

	if _, err := s.repo.AppendAndTouch(ctx, threadID, domain.RoleUser, question, time.Now()); err != nil {
		if errors.Is(err, conversation.ErrThreadNotFound) {
			return nil, NewNotFoundError(threadID)
		}
		return nil, NewStorageError("append_user", "failed to save user message", err, threadID)
	}

	messages, err := s.repo.FindMessages(ctx, threadID)
	if err != nil {
		return nil, NewStorageError("load_history", "failed to load message history", err, threadID)
	}

	history := make([]ai.ChatMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

// persistReply stores the assistant message and fires the one-time title
// derivation. It runs on a detached context so a disconnected caller
// cannot abort the save.
func (s *TurnService) persistReply(threadID, reply string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.SaveTimeout)
	defer cancel()

	now := time.Now()
	if _, err := s.repo.AppendMessage(ctx, threadID, domain.RoleAssistant, reply, now); err != nil {
		return NewStorageError("append_assistant", "failed to save assistant message", err, threadID)
	}

	s.deriveTitleOnce(ctx, threadID, reply, now)
	return nil
}

// deriveTitleOnce sets the thread title from the assistant's reply when
// this turn carried the thread's first user message. The count runs after
// the current user message was appended, so it fires exactly once per
// thread under sequential turns; concurrent first turns on one thread can
// race it (appends stay independent rows, only the title may be set twice).
func (s *TurnService) deriveTitleOnce(ctx context.Context, threadID, reply string, at time.Time) {
	count, err := s.repo.CountUserMessages(ctx, threadID)
	if err != nil {
		s.logger.Error("failed to count user messages for title derivation", "thread_id", threadID, "error", err)
		return
	}
	if count != 1 {
		return
	}

	title := deriveTitle(reply, s.config.TitleMaxLen)
	if err := s.repo.SetTitleAndTouch(ctx, threadID, title, at); err != nil {
		s.logger.Error("failed to set thread title", "thread_id", threadID, "error", err)
		return
	}
	s.logger.Info("thread title derived", "thread_id", threadID, "title", title)
}

// deriveTitle truncates the reply to maxLen characters, marking truncation
// with an ellipsis.
func deriveTitle(reply string, maxLen int) string {
	runes := []rune(reply)
	if len(runes) <= maxLen {
		return reply
	}
	return string(runes[:maxLen]) + titleEllipsis
}
