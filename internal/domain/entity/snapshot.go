package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventType selects which database changes an observation reports.
type EventType string

const (
	EventValue        EventType = "value"
	EventChildAdded   EventType = "child_added"
	EventChildChanged EventType = "child_changed"
	EventChildRemoved EventType = "child_removed"
)

// ParseEventType reads an event type, "value" when s is empty.
func ParseEventType(s string) (EventType, error) {
	if s == "" {
		return EventValue, nil
	}
	if t := EventType(s); t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

func (t EventType) Valid() bool {
	switch t {
	case EventValue, EventChildAdded, EventChildChanged, EventChildRemoved:
		return true
	}
	return false
}

// DataSnapshot is the content of a database location at one point in time.
// Raw holds the location's JSON; "null" or empty means nothing is stored.
type DataSnapshot struct {
	Event EventType       `json:"event"`
	Key   string          `json:"key"`
	Path  string          `json:"path"`
	Raw   json.RawMessage `json:"value"`
}

func (s *DataSnapshot) Exists() bool {
	trimmed := bytes.TrimSpace(s.Raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Value decodes the snapshot into generic JSON types.
func (s *DataSnapshot) Value() (interface{}, error) {
	if !s.Exists() {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(s.Raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode unmarshals the snapshot into dst.
func (s *DataSnapshot) Decode(dst interface{}) error {
	if !s.Exists() {
		return nil
	}
	return json.Unmarshal(s.Raw, dst)
}
