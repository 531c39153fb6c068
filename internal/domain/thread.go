// File: internal/domain/thread.go
package domain

import "time"

// Thread represents a single persisted conversation.
type Thread struct {
	ID        string    `gorm:"primarykey"` // opaque UUID, assigned at creation
	Title     string    // derived from the first assistant reply, e.g. "It's in Paris, France."
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"` // advanced explicitly on user turns and title changes
}
