package remotestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const notifyChannel = "documents_changed"

// PostgresStore keeps documents in a single JSONB table and uses
// LISTEN/NOTIFY to drive snapshot subscriptions. Schema lives in
// db/migrations and is applied by cmd/migrator.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "postgres_store").Logger(),
	}
}

func (s *PostgresStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		var data map[string]any
		if err := json.Unmarshal(payload, &data); err != nil {
			s.logger.Warn().Err(err).Str("id", id).Msg("skip corrupted document")
			continue
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, rows.Err()
}

func (s *PostgresStore) GetOne(ctx context.Context, collection, id string) (Document, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, false, nil
		}
		return Document{}, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return Document{}, false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: data}, true, nil
}

func (s *PostgresStore) AddOne(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.SetOne(ctx, collection, id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) SetOne(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	update := `data = EXCLUDED.data`
	if merge {
		update = `data = documents.data || EXCLUDED.data`
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET `+update, collection, id, payload)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection)
	return nil
}

func (s *PostgresStore) DeleteOne(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection)
	return nil
}

func (s *PostgresStore) notify(ctx context.Context, collection string) {
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("change notify failed")
	}
}

// Subscribe dedicates one pooled connection to LISTEN and re-lists the
// collection whenever a matching notification arrives.
func (s *PostgresStore) Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (Unsubscribe, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener conn: %w", err)
	}
	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	emit := func() {
		docs, err := s.ListAll(subCtx, collection)
		if err != nil {
			s.logger.Warn().Err(err).Str("collection", collection).Msg("snapshot list failed")
			return
		}
		fn(docs)
	}

	go func() {
		defer conn.Release()
		emit()
		for {
			notification, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					s.logger.Warn().Err(err).Msg("listener stopped")
				}
				return
			}
			if notification.Payload == collection {
				emit()
			}
		}
	}()

	return func() { cancel() }, nil
}

func (s *PostgresStore) ServerTimestamp(ctx context.Context) (time.Time, error) {
	var t time.Time
	if err := s.pool.QueryRow(ctx, `SELECT now()`).Scan(&t); err != nil {
		return time.Time{}, fmt.Errorf("server time: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
