package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	// DefaultNotifyChannel is the LISTEN/NOTIFY channel used for change events.
	DefaultNotifyChannel = "records_changed"

	pqInsufficientPrivilege = "42501"
)

// PostgresConfig configures the Postgres binding.
type PostgresConfig struct {
	// DSN is used to open the dedicated LISTEN connection for subscriptions.
	DSN           string
	NotifyChannel string
	Logger        *zap.Logger
}

type recordRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

// PostgresStore keeps every collection in a single JSONB table and turns
// row-level NOTIFY events into subscription snapshots.
type PostgresStore struct {
	db      *sqlx.DB
	cfg     PostgresConfig
	logger  *zap.Logger
	subs    *registry
	now     func() time.Time
	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB, cfg PostgresConfig) *PostgresStore {
	if cfg.NotifyChannel == "" {
		cfg.NotifyChannel = DefaultNotifyChannel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, cfg: cfg, logger: logger, subs: newRegistry(), now: time.Now}
}

// EnsureSchema creates the records table and its change-notification trigger.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if !fieldPattern.MatchString(s.cfg.NotifyChannel) {
		return fmt.Errorf("invalid notify channel %q", s.cfg.NotifyChannel)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION notify_records_changed() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('%s', COALESCE(NEW.collection, OLD.collection));
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`, s.cfg.NotifyChannel),
		`DROP TRIGGER IF EXISTS records_changed ON records`,
		`CREATE TRIGGER records_changed AFTER INSERT OR UPDATE OR DELETE ON records FOR EACH ROW EXECUTE FUNCTION notify_records_changed()`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure record schema: %w", mapPQError(err))
		}
	}
	return nil
}

// GetAll implements Store.
func (s *PostgresStore) GetAll(ctx context.Context, collection string) ([]Record, error) {
	const query = `SELECT id, data FROM records WHERE collection = $1 ORDER BY created_at ASC, id ASC`
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, collection); err != nil {
		return nil, fmt.Errorf("get all %s: %w", collection, mapPQError(err))
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, fmt.Errorf("get all %s: %w", collection, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Record, error) {
	const query = `SELECT id, data FROM records WHERE collection = $1 AND id = $2`
	var row recordRow
	if err := s.db.GetContext(ctx, &row, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrRecordNotFound)
		}
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, id, mapPQError(err))
	}
	return rowToRecord(row)
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, collection string, doc interface{}) (string, error) {
	fields, id, err := encodeDocument(doc)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	now := s.now().UTC()
	const query = `INSERT INTO records (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`
	if _, err := s.db.ExecContext(ctx, query, collection, id, data, now); err != nil {
		return "", fmt.Errorf("create %s: %w", collection, mapPQError(err))
	}
	return id, nil
}

// Update implements Store. Set fields are merged with jsonb concatenation and
// each Append field is extended in the same statement, so list appends never
// lose entries to a concurrent writer.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch Patch) error {
	if err := patch.validate(); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	query, args, err := buildUpdate(collection, id, patch, s.now().UTC())
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, mapPQError(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrRecordNotFound)
	}
	return nil
}

// SetField implements Store.
func (s *PostgresStore) SetField(ctx context.Context, collection, id, field string, value interface{}) error {
	return s.Update(ctx, collection, id, Patch{Set: map[string]interface{}{field: value}})
}

// Remove implements Store.
func (s *PostgresStore) Remove(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("remove %s/%s: %w", collection, id, mapPQError(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("remove %s/%s: %w", collection, id, ErrRecordNotFound)
	}
	return nil
}

// Subscribe implements Store. The first subscription starts a pq.Listener on the
// notify channel; snapshots are re-read on every notification for the collection.
func (s *PostgresStore) Subscribe(ctx context.Context, collection string, onChange func([]Record)) (Unsubscribe, error) {
	if onChange == nil {
		return nil, fmt.Errorf("subscribe %s: nil callback", collection)
	}
	initial, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := s.startListener(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}
	sub := newSubscriber(collection, onChange)
	unsubscribe := s.subs.add(sub)
	sub.push(initial)
	return unsubscribe, nil
}

// Close stops the listener and detaches all subscriptions.
func (s *PostgresStore) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.started = false
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	s.subs.closeAll()
	return nil
}

func (s *PostgresStore) startListener() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.cfg.DSN == "" {
		return errors.New("listener DSN not configured")
	}
	listener := pq.NewListener(s.cfg.DSN, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.Warn("record listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(s.cfg.NotifyChannel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("listen %s: %w", s.cfg.NotifyChannel, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true
	go s.listen(ctx, listener, s.done)
	return nil
}

func (s *PostgresStore) listen(ctx context.Context, listener *pq.Listener, done chan struct{}) {
	defer close(done)
	defer listener.Close() //nolint:errcheck
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// Connection was re-established; notifications may have been missed.
				for _, collection := range s.subs.collections() {
					s.refresh(ctx, collection)
				}
				continue
			}
			s.refresh(ctx, n.Extra)
		case <-time.After(90 * time.Second):
			go func() { _ = listener.Ping() }()
		}
	}
}

func (s *PostgresStore) refresh(ctx context.Context, collection string) {
	listeners := s.subs.listeners(collection)
	if len(listeners) == 0 {
		return
	}
	snapshot, err := s.GetAll(ctx, collection)
	if err != nil {
		s.logger.Warn("refresh subscription snapshot", zap.String("collection", collection), zap.Error(err))
		return
	}
	for _, sub := range listeners {
		sub.push(snapshot)
	}
}

func buildUpdate(collection, id string, patch Patch, now time.Time) (string, []interface{}, error) {
	args := []interface{}{collection, id, now}
	expr := "data"
	if len(patch.Set) > 0 {
		set, err := json.Marshal(patch.Set)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		args = append(args, set)
		expr = fmt.Sprintf("(%s || $%d::jsonb)", expr, len(args))
	}
	fields := make([]string, 0, len(patch.Append))
	for field := range patch.Append {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		values, err := json.Marshal(patch.Append[field])
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		args = append(args, field)
		fieldArg := len(args)
		args = append(args, values)
		valuesArg := len(args)
		// A missing or null field starts as an empty list, as in MemoryStore.
		expr = fmt.Sprintf("jsonb_set(%s, ARRAY[$%d]::text[], (CASE WHEN jsonb_typeof(data->($%d::text)) = 'array' THEN data->($%d::text) ELSE '[]'::jsonb END) || $%d::jsonb, true)", expr, fieldArg, fieldArg, fieldArg, valuesArg)
	}
	var b strings.Builder
	b.WriteString("UPDATE records SET data = ")
	b.WriteString(expr)
	b.WriteString(", updated_at = $3 WHERE collection = $1 AND id = $2")
	return b.String(), args, nil
}

func rowToRecord(row recordRow) (Record, error) {
	fields := map[string]json.RawMessage{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &fields); err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}
	return toRecord(row.ID, fields)
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqInsufficientPrivilege {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, pqErr.Message)
	}
	return err
}
