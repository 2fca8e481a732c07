package models

import "strings"

// ReferenceTable is an immutable key to value lookup loaded from a
// reference file. Keys and values are stored trimmed.
type ReferenceTable struct {
	name    string
	entries map[string]string
}

// NewReferenceTable copies entries into a new table
func NewReferenceTable(name string, entries map[string]string) *ReferenceTable {
	t := &ReferenceTable{
		name:    name,
		entries: make(map[string]string, len(entries)),
	}
	for k, v := range entries {
		t.entries[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return t
}

// EmptyReferenceTable returns a table with no entries
func EmptyReferenceTable(name string) *ReferenceTable {
	return NewReferenceTable(name, nil)
}

// Name returns the table name
func (t *ReferenceTable) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Len returns the number of entries
func (t *ReferenceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Lookup returns the value for key, or fallback when the key is unknown.
// A nil table behaves as an empty one.
func (t *ReferenceTable) Lookup(key, fallback string) string {
	if t == nil {
		return fallback
	}
	if v, ok := t.entries[strings.TrimSpace(key)]; ok {
		return v
	}
	return fallback
}
