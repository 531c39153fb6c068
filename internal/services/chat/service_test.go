package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voyago/go-tripmate/internal/domain"
	"github.com/voyago/go-tripmate/internal/repository/conversation"
	"github.com/voyago/go-tripmate/internal/services/ai"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// stubProvider is a deterministic stand-in for the completion API. Full
// mode returns reply; streaming mode emits fragments in order and then
// fails with streamErr if set.
type stubProvider struct {
	reply     string
	fragments []string
	err       error
	streamErr error

	lastHistory []ai.ChatMessage
}

func (p *stubProvider) Complete(ctx context.Context, model string, messages []ai.ChatMessage) (string, error) {
	p.lastHistory = messages
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *stubProvider) StreamCompletion(ctx context.Context, model string, messages []ai.ChatMessage, onDelta func(string) error) error {
	p.lastHistory = messages
	if p.err != nil {
		return p.err
	}
	for _, f := range p.fragments {
		if err := onDelta(f); err != nil {
			return err
		}
	}
	return p.streamErr
}

func newTestService(t *testing.T, provider *stubProvider) (*TurnService, conversation.Repository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Thread{}, &domain.Message{}))
	repo := conversation.NewRepository(db, "")

	svc, err := NewTurnService(DefaultConfig(), repo, provider, nopLogger{})
	require.NoError(t, err)
	return svc, repo
}

func roles(messages []domain.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Role)
	}
	return out
}

func TestHandleTurnPersistsConversation(t *testing.T) {
	provider := &stubProvider{reply: "It's in Paris, France.\n"}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	reply, err := svc.HandleTurn(ctx, thread.ID, "Where is the Eiffel Tower?")
	require.NoError(t, err)
	require.Equal(t, "It's in Paris, France.", reply)

	messages, err := repo.FindMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleSystem, domain.RoleUser, domain.RoleAssistant}, roles(messages))
	require.Equal(t, "Where is the Eiffel Tower?", messages[1].Content)
	require.Equal(t, "It's in Paris, France.", messages[2].Content)

	threads, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "It's in Paris, France.", threads[0].Title)
}

func TestHandleTurnReplaysFullHistory(t *testing.T) {
	provider := &stubProvider{reply: "Sure."}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, thread.ID, "First question")
	require.NoError(t, err)
	_, err = svc.HandleTurn(ctx, thread.ID, "Second question")
	require.NoError(t, err)

	// seed system + first user + first assistant + second user
	require.Len(t, provider.lastHistory, 4)
	require.Equal(t, domain.RoleSystem, provider.lastHistory[0].Role)
	require.Equal(t, "Second question", provider.lastHistory[3].Content)
}

func TestHandleTurnUnknownThread(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{reply: "x"})

	_, err := svc.HandleTurn(context.Background(), "no-such-thread", "hello")
	require.True(t, IsType(err, ErrTypeNotFound))
}

func TestHandleTurnEmptyQuestion(t *testing.T) {
	svc, repo := newTestService(t, &stubProvider{reply: "x"})
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, thread.ID, "   ")
	require.True(t, IsType(err, ErrTypeValidation))
}

func TestUpstreamFailureKeepsUserMessage(t *testing.T) {
	provider := &stubProvider{err: errors.New("upstream exploded")}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, thread.ID, "Where is the Eiffel Tower?")
	require.True(t, IsType(err, ErrTypeUpstream))

	// the question survives, no assistant message, no title change
	messages, err := repo.FindMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleSystem, domain.RoleUser}, roles(messages))

	threads, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, conversation.PlaceholderTitle, threads[0].Title)
}

func TestTitleDerivationFiresExactlyOnce(t *testing.T) {
	provider := &stubProvider{reply: strings.Repeat("a", 60)}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, thread.ID, "First question")
	require.NoError(t, err)

	wantTitle := strings.Repeat("a", 50) + "..."
	threads, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, wantTitle, threads[0].Title)

	provider.reply = "a completely different reply"
	_, err = svc.HandleTurn(ctx, thread.ID, "Second question")
	require.NoError(t, err)

	threads, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, wantTitle, threads[0].Title, "second turn must not alter the title")
}

func TestTitleNotTruncatedWhenShort(t *testing.T) {
	provider := &stubProvider{reply: "Short answer."}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	_, err = svc.HandleTurn(ctx, thread.ID, "Question?")
	require.NoError(t, err)

	threads, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "Short answer.", threads[0].Title)
}

func TestDeriveTitle(t *testing.T) {
	require.Equal(t, "abc", deriveTitle("abc", 50))
	require.Equal(t, strings.Repeat("x", 50), deriveTitle(strings.Repeat("x", 50), 50))
	require.Equal(t, strings.Repeat("x", 50)+"...", deriveTitle(strings.Repeat("x", 51), 50))
}

func TestHandleTurnStreamForwardsAndPersists(t *testing.T) {
	provider := &stubProvider{fragments: []string{"It's ", "in ", "Paris."}}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	var received []string
	err = svc.HandleTurnStream(ctx, thread.ID, "Where is the Eiffel Tower?", func(fragment string) error {
		received = append(received, fragment)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"It's ", "in ", "Paris."}, received)

	messages, err := repo.FindMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleSystem, domain.RoleUser, domain.RoleAssistant}, roles(messages))
	require.Equal(t, "It's in Paris.", messages[2].Content,
		"the persisted assistant message must equal the fragment concatenation")

	threads, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "It's in Paris.", threads[0].Title)
}

func TestHandleTurnStreamUnknownThread(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{fragments: []string{"x"}})

	err := svc.HandleTurnStream(context.Background(), "no-such-thread", "hello", func(string) error { return nil })
	require.True(t, IsType(err, ErrTypeNotFound))
}

func TestHandleTurnStreamFailureBeforeFirstFragment(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	err = svc.HandleTurnStream(ctx, thread.ID, "hello", func(string) error { return nil })
	require.True(t, IsType(err, ErrTypeUpstream))

	messages, err := repo.FindMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleSystem, domain.RoleUser}, roles(messages))
}

func TestHandleTurnStreamPersistsPartialOnInterrupt(t *testing.T) {
	provider := &stubProvider{
		fragments: []string{"It's ", "in "},
		streamErr: errors.New("stream reset"),
	}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	err = svc.HandleTurnStream(ctx, thread.ID, "Where?", func(string) error { return nil })
	require.True(t, IsType(err, ErrTypeUpstream))

	// whatever arrived before the break is kept as the assistant message
	messages, err := repo.FindMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleSystem, domain.RoleUser, domain.RoleAssistant}, roles(messages))
	require.Equal(t, "It's in ", messages[2].Content)
}

func TestHandleTurnStreamPersistsPartialOnCallerDisconnect(t *testing.T) {
	provider := &stubProvider{fragments: []string{"It's ", "in ", "Paris."}}
	svc, repo := newTestService(t, provider)
	ctx := context.Background()

	thread, err := repo.CreateThread(ctx)
	require.NoError(t, err)

	disconnect := errors.New("client went away")
	calls := 0
	err = svc.HandleTurnStream(ctx, thread.ID, "Where?", func(string) error {
		calls++
		if calls == 2 {
			return disconnect
		}
		return nil
	})
	require.True(t, IsType(err, ErrTypeUpstream))

	messages, err := repo.FindMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Equal(t, "It's in ", messages[len(messages)-1].Content)
}
