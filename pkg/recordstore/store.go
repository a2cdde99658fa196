// Package recordstore abstracts the realtime keyed-record database the academy
// runs on. Records are JSON documents grouped into named collections; every
// other component depends only on the Store interface.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrRecordNotFound is returned when an id is absent from a collection.
	ErrRecordNotFound = errors.New("record not found")
	// ErrPermissionDenied is returned when the backend rejects access to a collection.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidDocument is returned when a document cannot be encoded as a JSON object.
	ErrInvalidDocument = errors.New("invalid document")
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Record is a single stored document and its key.
type Record struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document into dest.
func (r Record) Decode(dest interface{}) error {
	if err := json.Unmarshal(r.Data, dest); err != nil {
		return fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return nil
}

// Patch describes a partial update applied atomically to one record.
// Set overwrites top-level fields; Append adds values to the end of list fields,
// creating the list when missing.
type Patch struct {
	Set    map[string]interface{}
	Append map[string][]interface{}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Set) == 0 && len(p.Append) == 0
}

func (p Patch) validate() error {
	for field := range p.Set {
		if !fieldPattern.MatchString(field) || field == "id" {
			return fmt.Errorf("%w: field %q", ErrInvalidDocument, field)
		}
	}
	for field := range p.Append {
		if !fieldPattern.MatchString(field) || field == "id" {
			return fmt.Errorf("%w: field %q", ErrInvalidDocument, field)
		}
	}
	return nil
}

// Unsubscribe detaches a live subscription. It is safe to call more than once.
type Unsubscribe func()

// Store is the keyed-record database contract.
type Store interface {
	// Subscribe delivers the full collection once immediately and again after
	// every change, in arrival order for that collection.
	Subscribe(ctx context.Context, collection string, onChange func([]Record)) (Unsubscribe, error)
	GetAll(ctx context.Context, collection string) ([]Record, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	// Create stores doc and returns its key. A non-empty "id" field on doc is kept.
	Create(ctx context.Context, collection string, doc interface{}) (string, error)
	Update(ctx context.Context, collection, id string, patch Patch) error
	SetField(ctx context.Context, collection, id, field string, value interface{}) error
	Remove(ctx context.Context, collection, id string) error
}

// encodeDocument turns doc into a field map, dropping any "id" entry and returning it.
func encodeDocument(doc interface{}) (map[string]json.RawMessage, string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var id string
	if rawID, ok := fields["id"]; ok {
		_ = json.Unmarshal(rawID, &id)
		delete(fields, "id")
	}
	return fields, id, nil
}
