// Package publisher defines the completion-event publisher contract and the
// event payloads a crawl run emits.
package publisher

import (
	"context"
	"time"
)

// Publisher sends a payload to a named topic and returns the message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RunCompleted announces a finished crawl so downstream consumers can pick
// up the fresh manifest.
type RunCompleted struct {
	RunID          string    `json:"run_id"`
	FinishedAt     time.Time `json:"finished_at"`
	DomainCount    int       `json:"domain_count"`
	SuccessCount   int       `json:"success_count"`
	FailureCount   int       `json:"failure_count"`
	ManifestObject string    `json:"manifest_object"`
	Published      bool      `json:"published"`
}
