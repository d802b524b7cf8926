package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is fixed-width UTC so that stored timestamps sort lexically in
// chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp is a point in time stored as a fixed-width UTC string
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t converted to UTC
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// MarshalJSON encodes the timestamp, or null when it is zero
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON accepts null or any RFC 3339 timestamp
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}
