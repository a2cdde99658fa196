package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type memoryCollection struct {
	order []string
	docs  map[string]map[string]json.RawMessage
}

// MemoryStore is an in-process Store used for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	denied      map[string]bool
	subs        *registry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
		denied:      make(map[string]bool),
		subs:        newRegistry(),
	}
}

// Deny makes every operation on collection fail with ErrPermissionDenied,
// mirroring a restrictive backend security rule.
func (m *MemoryStore) Deny(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[collection] = true
}

// Allow reverts Deny.
func (m *MemoryStore) Allow(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.denied, collection)
}

// Close detaches all live subscriptions.
func (m *MemoryStore) Close() error {
	m.subs.closeAll()
	return nil
}

// Subscribe implements Store.
func (m *MemoryStore) Subscribe(ctx context.Context, collection string, onChange func([]Record)) (Unsubscribe, error) {
	if onChange == nil {
		return nil, fmt.Errorf("subscribe %s: nil callback", collection)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.denied[collection] {
		return nil, fmt.Errorf("subscribe %s: %w", collection, ErrPermissionDenied)
	}
	sub := newSubscriber(collection, onChange)
	unsubscribe := m.subs.add(sub)
	sub.push(m.snapshotLocked(collection))
	return unsubscribe, nil
}

// GetAll implements Store.
func (m *MemoryStore) GetAll(ctx context.Context, collection string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.denied[collection] {
		return nil, fmt.Errorf("get all %s: %w", collection, ErrPermissionDenied)
	}
	return m.snapshotLocked(collection), nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.denied[collection] {
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrPermissionDenied)
	}
	coll := m.collections[collection]
	if coll == nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrRecordNotFound)
	}
	doc, ok := coll.docs[id]
	if !ok {
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrRecordNotFound)
	}
	return toRecord(id, doc)
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, collection string, doc interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fields, id, err := encodeDocument(doc)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied[collection] {
		return "", fmt.Errorf("create %s: %w", collection, ErrPermissionDenied)
	}
	coll := m.collections[collection]
	if coll == nil {
		coll = &memoryCollection{docs: make(map[string]map[string]json.RawMessage)}
		m.collections[collection] = coll
	}
	if _, exists := coll.docs[id]; exists {
		return "", fmt.Errorf("create %s/%s: duplicate key", collection, id)
	}
	coll.docs[id] = fields
	coll.order = append(coll.order, id)
	m.notifyLocked(collection)
	return id, nil
}

// Update implements Store. Set and Append are applied together under one lock.
func (m *MemoryStore) Update(ctx context.Context, collection, id string, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := patch.validate(); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	set := make(map[string]json.RawMessage, len(patch.Set))
	for field, value := range patch.Set {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w: %v", collection, id, ErrInvalidDocument, err)
		}
		set[field] = raw
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied[collection] {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrPermissionDenied)
	}
	coll := m.collections[collection]
	if coll == nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrRecordNotFound)
	}
	doc, ok := coll.docs[id]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrRecordNotFound)
	}

	next := make(map[string]json.RawMessage, len(doc)+len(set))
	for k, v := range doc {
		next[k] = v
	}
	for k, v := range set {
		next[k] = v
	}
	for field, values := range patch.Append {
		var list []json.RawMessage
		if existing, ok := next[field]; ok && string(existing) != "null" {
			if err := json.Unmarshal(existing, &list); err != nil {
				return fmt.Errorf("update %s/%s: field %s is not a list: %w", collection, id, field, ErrInvalidDocument)
			}
		}
		for _, value := range values {
			raw, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("update %s/%s: %w: %v", collection, id, ErrInvalidDocument, err)
			}
			list = append(list, raw)
		}
		encoded, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		next[field] = encoded
	}
	coll.docs[id] = next
	m.notifyLocked(collection)
	return nil
}

// SetField implements Store.
func (m *MemoryStore) SetField(ctx context.Context, collection, id, field string, value interface{}) error {
	return m.Update(ctx, collection, id, Patch{Set: map[string]interface{}{field: value}})
}

// Remove implements Store.
func (m *MemoryStore) Remove(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied[collection] {
		return fmt.Errorf("remove %s/%s: %w", collection, id, ErrPermissionDenied)
	}
	coll := m.collections[collection]
	if coll == nil {
		return fmt.Errorf("remove %s/%s: %w", collection, id, ErrRecordNotFound)
	}
	if _, ok := coll.docs[id]; !ok {
		return fmt.Errorf("remove %s/%s: %w", collection, id, ErrRecordNotFound)
	}
	delete(coll.docs, id)
	for i, key := range coll.order {
		if key == id {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	m.notifyLocked(collection)
	return nil
}

func (m *MemoryStore) snapshotLocked(collection string) []Record {
	coll := m.collections[collection]
	if coll == nil {
		return []Record{}
	}
	out := make([]Record, 0, len(coll.order))
	for _, id := range coll.order {
		rec, err := toRecord(id, coll.docs[id])
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (m *MemoryStore) notifyLocked(collection string) {
	listeners := m.subs.listeners(collection)
	if len(listeners) == 0 {
		return
	}
	snapshot := m.snapshotLocked(collection)
	for _, sub := range listeners {
		sub.push(snapshot)
	}
}

func toRecord(id string, fields map[string]json.RawMessage) (Record, error) {
	idRaw, _ := json.Marshal(id)
	doc := make(map[string]json.RawMessage, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["id"] = idRaw
	data, err := json.Marshal(doc)
	if err != nil {
		return Record{}, err
	}
	return Record{ID: id, Data: data}, nil
}
