// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// Model Configuration
	Model string // completion model used for both full and streaming turns

	// Performance Configuration
	UpstreamTimeout time.Duration // budget for one completion call
	SaveTimeout     time.Duration // budget for persisting the assistant reply

	// Title Configuration
	TitleMaxLen int // title prefix length taken from the first assistant reply
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream_timeout must be positive")
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("save_timeout must be positive")
	}
	if c.TitleMaxLen <= 0 {
		return fmt.Errorf("title_max_len must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Model:           "gpt-3.5-turbo",
		UpstreamTimeout: 2 * time.Minute,
		SaveTimeout:     5 * time.Second,
		TitleMaxLen:     50,
	}
}
