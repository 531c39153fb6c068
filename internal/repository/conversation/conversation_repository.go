// File: internal/repository/conversation/conversation_repository.go

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voyago/go-tripmate/internal/domain"
)

var ErrThreadNotFound = errors.New("thread not found")

const (
	// PlaceholderTitle is the title every thread starts with until the
	// first exchange derives a real one.
	PlaceholderTitle = "New Conversation"

	// DefaultSystemPrompt seeds every new thread.
	DefaultSystemPrompt = "You are a helpful travel documentation assistant."
)

type gormConversationRepository struct {
	db           *gorm.DB
	systemPrompt string
}

func NewRepository(db *gorm.DB, systemPrompt string) Repository {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &gormConversationRepository{db: db, systemPrompt: systemPrompt}
}

// CreateThread inserts the thread row and its seed system message in a
// single transaction; a thread without a seed message is never observable.
func (r *gormConversationRepository) CreateThread(ctx context.Context) (*domain.Thread, error) {
	now := time.Now()
	thread := &domain.Thread{
		ID:        uuid.NewString(),
		Title:     PlaceholderTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	seed := &domain.Message{
		ThreadID:  thread.ID,
		Role:      domain.RoleSystem,
		Content:   r.systemPrompt,
		Timestamp: now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(thread).Error; err != nil {
			return err
		}
		return tx.Create(seed).Error
	})
	if err != nil {
		log.Printf("[ConversationRepository] Database error during thread creation: %v", err)
		return nil, errors.New("database error creating thread")
	}

	return thread, nil
}

// FindAll returns every thread, most recently active first.
func (r *gormConversationRepository) FindAll(ctx context.Context) ([]domain.Thread, error) {
	var threads []domain.Thread
	err := r.db.WithContext(ctx).
		Order("updated_at DESC, id DESC").
		Find(&threads).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error fetching threads: %v", err)
		return nil, errors.New("database error fetching threads")
	}
	return threads, nil
}

// FindMessages returns a thread's messages in conversational order.
func (r *gormConversationRepository) FindMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	if threadID == "" {
		return nil, ErrThreadNotFound
	}

	exists, err := r.Exists(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrThreadNotFound
	}

	var messages []domain.Message
	err = r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error fetching messages for thread %s: %v", threadID, err)
		return nil, errors.New("database error fetching messages")
	}
	return messages, nil
}

// AppendMessage inserts a message without advancing the thread's
// updated_at; callers decide when activity should bump recency.
func (r *gormConversationRepository) AppendMessage(ctx context.Context, threadID, role, content string, at time.Time) (*domain.Message, error) {
	if err := validateAppend(threadID, role); err != nil {
		return nil, err
	}

	exists, err := r.Exists(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrThreadNotFound
	}

	msg := &domain.Message{
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("[ConversationRepository] Database error appending message to thread %s: %v", threadID, err)
		return nil, errors.New("database error appending message")
	}
	return msg, nil
}

// AppendAndTouch appends a message and advances updated_at as one atomic
// unit; readers never see one without the other.
func (r *gormConversationRepository) AppendAndTouch(ctx context.Context, threadID, role, content string, at time.Time) (*domain.Message, error) {
	if err := validateAppend(threadID, role); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Thread{}).
			Where("id = ?", threadID).
			UpdateColumn("updated_at", at)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrThreadNotFound
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		if errors.Is(err, ErrThreadNotFound) {
			return nil, ErrThreadNotFound
		}
		log.Printf("[ConversationRepository] Database error in append-and-touch for thread %s: %v", threadID, err)
		return nil, errors.New("database error appending message")
	}
	return msg, nil
}

// SetTitleAndTouch updates title and updated_at in one statement.
func (r *gormConversationRepository) SetTitleAndTouch(ctx context.Context, threadID, title string, at time.Time) error {
	if threadID == "" {
		return ErrThreadNotFound
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Thread{}).
		Where("id = ?", threadID).
		UpdateColumns(map[string]interface{}{"title": title, "updated_at": at})
	if result.Error != nil {
		log.Printf("[ConversationRepository] Database error updating title for thread %s: %v", threadID, result.Error)
		return errors.New("database error updating thread title")
	}
	if result.RowsAffected == 0 {
		return ErrThreadNotFound
	}
	return nil
}

// Touch advances updated_at only.
func (r *gormConversationRepository) Touch(ctx context.Context, threadID string, at time.Time) error {
	if threadID == "" {
		return ErrThreadNotFound
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Thread{}).
		Where("id = ?", threadID).
		UpdateColumn("updated_at", at)
	if result.Error != nil {
		log.Printf("[ConversationRepository] Database error updating timestamp for thread %s: %v", threadID, result.Error)
		return errors.New("database error updating thread timestamp")
	}
	if result.RowsAffected == 0 {
		return ErrThreadNotFound
	}
	return nil
}

// DeleteThread removes the thread and all of its messages as one unit.
func (r *gormConversationRepository) DeleteThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return ErrThreadNotFound
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", threadID).Delete(&domain.Thread{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrThreadNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrThreadNotFound) {
			return ErrThreadNotFound
		}
		log.Printf("[ConversationRepository] Database error deleting thread %s: %v", threadID, err)
		return errors.New("database error deleting thread")
	}

	log.Printf("[ConversationRepository] Thread deleted successfully: %s", threadID)
	return nil
}

// Exists checks thread existence without loading the row.
func (r *gormConversationRepository) Exists(ctx context.Context, threadID string) (bool, error) {
	if threadID == "" {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Thread{}).Where("id = ?", threadID).Count(&count).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error checking thread existence for %s: %v", threadID, err)
		return false, errors.New("database error checking thread existence")
	}
	return count > 0, nil
}

// CountUserMessages counts user-role messages; the title latch fires when
// this is exactly one after the current turn's user message was appended.
func (r *gormConversationRepository) CountUserMessages(ctx context.Context, threadID string) (int64, error) {
	if threadID == "" {
		return 0, ErrThreadNotFound
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("thread_id = ? AND role = ?", threadID, domain.RoleUser).
		Count(&count).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error counting user messages for thread %s: %v", threadID, err)
		return 0, errors.New("database error counting user messages")
	}
	return count, nil
}

func validateAppend(threadID, role string) error {
	if threadID == "" {
		return ErrThreadNotFound
	}
	switch role {
	case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		return nil
	default:
		return fmt.Errorf("invalid message role: %q", role)
	}
}
