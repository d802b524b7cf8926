package models

import (
	"encoding/json"
	"fmt"
)

// Document is a stored record: its key within a collection and its JSON fields
type Document struct {
	ID     string
	Fields map[string]any
}

// Decode copies the document fields into v
func (d Document) Decode(v any) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

// SortDirection is the direction of a listing order
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Filter is an equality condition on a top-level document field
type Filter struct {
	Field string
	Value any
}

// ListQuery describes filtering and ordering of a collection listing.
//
// Documents with equal OrderBy values are returned by ascending id.
type ListQuery struct {
	OrderBy   string
	Direction SortDirection
	Filters   []Filter
}

// toFields converts a struct into a map of its JSON fields
func toFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return fields, nil
}
