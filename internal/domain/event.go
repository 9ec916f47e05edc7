package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Lifecycle event types published by the user service.
const (
	EventUserCreated = "UserCreated"
	EventUserUpdated = "UserUpdated"
	EventUserDeleted = "UserDeleted"
)

// EventPostCreated is the only event type this service publishes.
const EventPostCreated = "PostCreated"

// UserLifecycleEvent is a message from the user-events topic. Timestamp is
// kept raw so an unreadable value never rejects an otherwise valid event.
type UserLifecycleEvent struct {
	EventType string          `json:"eventType"`
	UserID    string          `json:"userId"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// Validate reports a malformed event.
func (e *UserLifecycleEvent) Validate() error {
	if e.EventType == "" {
		return fmt.Errorf("missing eventType")
	}
	if e.UserID == "" {
		return fmt.Errorf("missing userId")
	}
	return nil
}

// EventTime parses Timestamp as an RFC3339 string or epoch milliseconds
// (number or numeric string). A missing or null timestamp is the zero time.
func (e *UserLifecycleEvent) EventTime() (time.Time, error) {
	data := bytes.TrimSpace(e.Timestamp)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return time.Time{}, nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		return parsed.UTC(), nil
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// PostEvent is published after a post is created.
type PostEvent struct {
	EventType      string    `json:"eventType"`
	Post           *PostView `json:"post"`
	EventTimestamp time.Time `json:"eventTimestamp"`
}

// NewPostCreatedEvent snapshots p into a PostCreated event.
func NewPostCreatedEvent(p *Post, now time.Time) *PostEvent {
	return &PostEvent{
		EventType:      EventPostCreated,
		Post:           NewPostView(p),
		EventTimestamp: now.UTC(),
	}
}
