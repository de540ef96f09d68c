package remotestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps each collection in a Redis hash (field = document ID,
// value = JSON payload) and signals changes over Pub/Sub so subscribers can
// re-read the full snapshot.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "redis_store").Logger(),
	}
}

func collectionKey(collection string) string {
	return "docs:" + collection
}

func changeChannel(collection string) string {
	return "docs:" + collection + ":changed"
}

func (s *RedisStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	raw, err := s.client.HGetAll(ctx, collectionKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(raw))
	for id, payload := range raw {
		var data map[string]any
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			s.logger.Warn().Err(err).Str("id", id).Msg("skip corrupted document")
			continue
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	// HGetAll order is arbitrary; keep listings deterministic.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *RedisStore) GetOne(ctx context.Context, collection, id string) (Document, bool, error) {
	payload, err := s.client.HGet(ctx, collectionKey(collection), id).Result()
	if err == redis.Nil {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return Document{}, false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: data}, true, nil
}

func (s *RedisStore) AddOne(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.write(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) SetOne(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if merge {
		existing, found, err := s.GetOne(ctx, collection, id)
		if err != nil {
			return err
		}
		if found {
			data = mergeData(existing.Data, data)
		}
	}
	return s.write(ctx, collection, id, data)
}

func (s *RedisStore) write(ctx context.Context, collection, id string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if err := s.client.HSet(ctx, collectionKey(collection), id, payload).Err(); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection)
	return nil
}

func (s *RedisStore) DeleteOne(ctx context.Context, collection, id string) error {
	if err := s.client.HDel(ctx, collectionKey(collection), id).Err(); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection)
	return nil
}

func (s *RedisStore) notify(ctx context.Context, collection string) {
	if err := s.client.Publish(ctx, changeChannel(collection), "changed").Err(); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("change publish failed")
	}
}

// Subscribe emits the current snapshot immediately, then re-lists the
// collection after every published change.
func (s *RedisStore) Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (Unsubscribe, error) {
	sub := s.client.Subscribe(ctx, changeChannel(collection))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
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
		emit()
		ch := sub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return func() {
		cancel()
		_ = sub.Close()
	}, nil
}

func (s *RedisStore) ServerTimestamp(ctx context.Context) (time.Time, error) {
	t, err := s.client.Time(ctx).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("server time: %w", err)
	}
	return t, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
