// File: internal/domain/message.go
package domain

import "time"

// Message roles as sent to the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message within a thread.
type Message struct {
	ID        uint      `gorm:"primarykey"`
	ThreadID  string    `json:"thread_id" gorm:"not null;index"` // The ID of the thread this message belongs to
	Role      string    `json:"role" gorm:"not null"`            // "system", "user" or "assistant"
	Content   string    `json:"content" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"` // conversational order within a thread
}
