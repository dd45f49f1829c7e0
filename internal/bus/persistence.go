package bus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gitcards/git-cards/internal/pkg/errors"
)

// Record is one event as it went over the bus, stamped with the time
// it was written to the log.
type Record struct {
	Topic    string    `json:"topic"`
	Event    Event     `json:"event"`
	LoggedAt time.Time `json:"logged_at"`
}

// Query selects records from the event log. Zero-value fields match
// everything.
type Query struct {
	// Topic restricts results to one lifecycle topic, e.g.
	// TopicScanCompleted.
	Topic string

	// Username restricts results to scans of one account.
	Username string

	// Since drops records logged at or before this time.
	Since time.Time

	// Limit caps the result size when positive.
	Limit int
}

func (q Query) matches(r Record) bool {
	if q.Topic != "" && r.Topic != q.Topic {
		return false
	}
	if q.Username != "" && r.Event.Username != q.Username {
		return false
	}
	if !q.Since.IsZero() && !r.LoggedAt.After(q.Since) {
		return false
	}
	return true
}

// EventLogger appends every published event to a JSON-lines file so
// scan activity survives restarts and can be inspected or replayed.
type EventLogger struct {
	logPath string
	enabled bool

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewEventLogger creates an event logger writing to logPath. A
// disabled logger is valid and drops everything.
func NewEventLogger(logPath string, enabled bool) (*EventLogger, error) {
	l := &EventLogger{logPath: logPath, enabled: enabled}
	if !enabled {
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l.file = file
	l.encoder = json.NewEncoder(file)
	return l, nil
}

// Log appends one event to the log file. No-op when disabled.
func (l *EventLogger) Log(topic string, event Event) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return errors.New(errors.CodeInternal, "event logger not initialized")
	}

	rec := Record{Topic: topic, Event: event, LoggedAt: time.Now()}
	if err := l.encoder.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	// Sync per record so the log is complete even on a crash.
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return nil
}

// Events reads the log and returns the records matching q, in the
// order they were logged.
func (l *EventLogger) Events(q Query) ([]Record, error) {
	if !l.enabled {
		return nil, errors.New(errors.CodeUnavailable, "event logging is disabled")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var out []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// Skip malformed lines
			continue
		}
		if !q.matches(rec) {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan log file: %w", err)
	}
	return out, nil
}

// Replay republishes logged scan lifecycle events onto a bus. Used to
// rebuild event-fed state, like the metrics counters, after a restart.
// Records on unknown topics are skipped rather than republished.
func (l *EventLogger) Replay(ctx context.Context, bus Bus, since time.Time) error {
	records, err := l.Events(Query{Since: since})
	if err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	for _, rec := range records {
		if !lifecycleTopic(rec.Topic) {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := bus.Publish(ctx, rec.Topic, rec.Event); err != nil {
			return fmt.Errorf("failed to replay event %s: %w", rec.Event.ID, err)
		}
	}
	return nil
}

func lifecycleTopic(topic string) bool {
	switch topic {
	case TopicScanStarted, TopicScanCompleted, TopicScanFailed, TopicCardRendered:
		return true
	}
	return false
}

// Close closes the log file.
func (l *EventLogger) Close() error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.file = nil
		l.encoder = nil
	}
	return nil
}

// IsEnabled reports whether events are being written.
func (l *EventLogger) IsEnabled() bool {
	return l.enabled
}
