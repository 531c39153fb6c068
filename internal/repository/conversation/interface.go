package conversation

import (
	"context"
	"time"

	"github.com/voyago/go-tripmate/internal/domain"
)

// Repository handles thread and message persistence. Threads own their
// messages: creation seeds a system message and deletion cascades.
type Repository interface {
	CreateThread(ctx context.Context) (*domain.Thread, error)
	FindAll(ctx context.Context) ([]domain.Thread, error)
	FindMessages(ctx context.Context, threadID string) ([]domain.Message, error)
	AppendMessage(ctx context.Context, threadID, role, content string, at time.Time) (*domain.Message, error)
	AppendAndTouch(ctx context.Context, threadID, role, content string, at time.Time) (*domain.Message, error)
	SetTitleAndTouch(ctx context.Context, threadID, title string, at time.Time) error
	Touch(ctx context.Context, threadID string, at time.Time) error
	DeleteThread(ctx context.Context, threadID string) error
	Exists(ctx context.Context, threadID string) (bool, error)
	CountUserMessages(ctx context.Context, threadID string) (int64, error)
}
