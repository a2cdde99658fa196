package recordstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classDoc struct {
	ID      string   `json:"id,omitempty"`
	Status  string   `json:"status"`
	History []string `json:"history,omitempty"`
}

func TestMemoryStoreCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Create(ctx, "daily_classes", classDoc{Status: "scheduled", History: []string{"created"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	err = store.Update(ctx, "daily_classes", id, Patch{
		Set:    map[string]interface{}{"status": "running"},
		Append: map[string][]interface{}{"history": {"running"}},
	})
	require.NoError(t, err)

	rec, err := store.Get(ctx, "daily_classes", id)
	require.NoError(t, err)
	var doc classDoc
	require.NoError(t, rec.Decode(&doc))
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "running", doc.Status)
	assert.Equal(t, []string{"created", "running"}, doc.History)
}

func TestMemoryStoreKeepsProvidedID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id, err := store.Create(ctx, "teachers", map[string]interface{}{"id": "t1", "name": "Amina"})
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	_, err = store.Create(ctx, "teachers", map[string]interface{}{"id": "t1"})
	assert.Error(t, err)
}

func TestMemoryStoreNotFoundAndRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "holidays", "missing")
	assert.True(t, errors.Is(err, ErrRecordNotFound))
	assert.True(t, errors.Is(store.SetField(ctx, "holidays", "missing", "name", "x"), ErrRecordNotFound))

	id, err := store.Create(ctx, "holidays", map[string]string{"name": "Eid"})
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, "holidays", id))
	assert.True(t, errors.Is(store.Remove(ctx, "holidays", id), ErrRecordNotFound))

	all, err := store.GetAll(ctx, "holidays")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStoreRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id, err := store.Create(ctx, "daily_classes", classDoc{Status: "scheduled"})
	require.NoError(t, err)

	err = store.Update(ctx, "daily_classes", id, Patch{Set: map[string]interface{}{"id": "other"}})
	assert.True(t, errors.Is(err, ErrInvalidDocument))

	err = store.Update(ctx, "daily_classes", id, Patch{Append: map[string][]interface{}{"status": {"x"}}})
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestMemoryStoreDeny(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Deny("daily_classes")

	_, err := store.GetAll(ctx, "daily_classes")
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	_, err = store.Create(ctx, "daily_classes", classDoc{})
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	store.Allow("daily_classes")
	_, err = store.GetAll(ctx, "daily_classes")
	assert.NoError(t, err)
}

func TestMemoryStoreConcurrentAppendsKeepEveryEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id, err := store.Create(ctx, "daily_classes", classDoc{Status: "scheduled"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, "daily_classes", id, Patch{Append: map[string][]interface{}{"history": {"entry"}}})
		}()
	}
	wg.Wait()

	rec, err := store.Get(ctx, "daily_classes", id)
	require.NoError(t, err)
	var doc classDoc
	require.NoError(t, rec.Decode(&doc))
	assert.Len(t, doc.History, 50)
}

func TestMemoryStoreSubscribeDeliversInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close() //nolint:errcheck

	var mu sync.Mutex
	var sizes []int
	unsubscribe, err := store.Subscribe(ctx, "daily_classes", func(records []Record) {
		mu.Lock()
		sizes = append(sizes, len(records))
		mu.Unlock()
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, "daily_classes", classDoc{Status: "scheduled"})
		require.NoError(t, err)
	}
	_, err = store.Create(ctx, "teachers", map[string]string{"name": "ignored"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sizes) == 4
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []int{0, 1, 2, 3}, sizes)
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	_, err = store.Create(ctx, "daily_classes", classDoc{Status: "scheduled"})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Len(t, sizes, 4)
	mu.Unlock()
}

func TestMemoryStoreAppendToNullField(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Create(ctx, "daily_classes", map[string]interface{}{"status": "scheduled", "history": nil})
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, "daily_classes", id, Patch{
		Append: map[string][]interface{}{"history": {"running"}},
	}))

	rec, err := store.Get(ctx, "daily_classes", id)
	require.NoError(t, err)
	var doc classDoc
	require.NoError(t, rec.Decode(&doc))
	assert.Equal(t, []string{"running"}, doc.History)
}
