// Package bus provides event bus implementations for scan lifecycle
// notifications.
package bus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents one scan lifecycle event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type, mirroring the topic it is published to.
	Type string `json:"type"`

	// Username is the scanned account.
	Username string `json:"username"`

	// RepoCount is the number of repositories the scan covered.
	RepoCount int `json:"repo_count,omitempty"`

	// FileCount is the number of files fetched and parsed.
	FileCount int `json:"file_count,omitempty"`

	// IdentifierCount is the number of distinct identifier groups found.
	IdentifierCount int `json:"identifier_count,omitempty"`

	// DurationMs is the wall-clock scan duration.
	DurationMs int64 `json:"duration_ms,omitempty"`

	// Card names the rendered card on card.rendered events.
	Card string `json:"card,omitempty"`

	// Timestamp is when the event was created (unix seconds).
	Timestamp int64 `json:"timestamp"`

	// Error carries the failure message on scan.failed events.
	Error string `json:"error,omitempty"`
}

// NewEvent creates an event of the given type, stamped now.
func NewEvent(eventType, username string) Event {
	return Event{
		ID:        newEventID(),
		Type:      eventType,
		Username:  username,
		Timestamp: time.Now().Unix(),
	}
}

func newEventID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Topics for scan lifecycle events.
const (
	TopicScanStarted   = "scan.started"
	TopicScanCompleted = "scan.completed"
	TopicScanFailed    = "scan.failed"
	TopicCardRendered  = "card.rendered"
)
