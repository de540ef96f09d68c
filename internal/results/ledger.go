// Package results stores submitted quiz results with live remote
// synchronization and a local-fallback guarantee: a result is never silently
// lost, even with the remote store down.
package results

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vicky05092005/statatics-quiz/internal/localstore"
	"github.com/vicky05092005/statatics-quiz/internal/quiz"
	"github.com/vicky05092005/statatics-quiz/internal/remotestore"
)

// ErrNotConfirmed guards the irreversible bulk clear.
var ErrNotConfirmed = fmt.Errorf("clear requires explicit confirmation")

// Ledger owns the results roster.
type Ledger struct {
	remote remotestore.Store
	local  *localstore.Store
	logger zerolog.Logger

	mu    sync.Mutex
	cache []quiz.Result
	unsub remotestore.Unsubscribe
}

// NewLedger builds an empty ledger. remote may be nil (local-only mode).
func NewLedger(remote remotestore.Store, local *localstore.Store, logger zerolog.Logger) *Ledger {
	return &Ledger{
		remote: remote,
		local:  local,
		logger: logger.With().Str("component", "results_ledger").Logger(),
	}
}

// Record persists a finished session's result. With a live remote it is
// appended there with a server-assigned timestamp; on any failure, including
// remote unavailability, it lands in the local cache instead.
func (l *Ledger) Record(ctx context.Context, r quiz.Result) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", quiz.ErrValidation, err)
	}
	if l.remote != nil {
		if ts, err := l.remote.ServerTimestamp(ctx); err == nil {
			r.Timestamp = ts
		}
		_, err := l.remote.AddOne(ctx, remotestore.CollectionResults, resultData(r))
		if err == nil {
			return nil
		}
		l.logger.Warn().Err(err).Str("roll", r.Roll).Msg("remote result write failed, keeping local")
	}
	l.mu.Lock()
	l.cache = append(l.cache, r)
	l.saveLocalLocked()
	l.mu.Unlock()
	return nil
}

// Subscribe establishes the live results feed. Every upstream change replaces
// the entire cache, re-sorts it, re-mirrors it locally, and hands the fresh
// roster to onChange. A repeat call supersedes the previous subscription.
// Without a remote store this is a no-op returning false; callers should then
// LoadLocal instead.
func (l *Ledger) Subscribe(ctx context.Context, onChange func([]quiz.Result)) bool {
	if l.remote == nil {
		return false
	}
	l.Unsubscribe()
	unsub, err := l.remote.Subscribe(ctx, remotestore.CollectionResults, func(docs []remotestore.Document) {
		roster := make([]quiz.Result, 0, len(docs))
		for _, doc := range docs {
			r, err := parseResult(doc.Data)
			if err != nil {
				l.logger.Debug().Err(err).Str("id", doc.ID).Msg("discarding malformed result")
				continue
			}
			roster = append(roster, r)
		}
		sortByRoll(roster)
		l.mu.Lock()
		l.cache = roster
		l.saveLocalLocked()
		l.mu.Unlock()
		if onChange != nil {
			onChange(roster)
		}
	})
	if err != nil {
		l.logger.Warn().Err(err).Msg("results subscription failed")
		return false
	}
	l.mu.Lock()
	l.unsub = unsub
	l.mu.Unlock()
	return true
}

// Unsubscribe tears down the live feed if one is active.
func (l *Ledger) Unsubscribe() {
	l.mu.Lock()
	unsub := l.unsub
	l.unsub = nil
	l.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// LoadLocal restores the roster from the local fallback store.
func (l *Ledger) LoadLocal() bool {
	var loaded []quiz.Result
	if !l.local.LoadJSON(localstore.ResultsKey, &loaded) {
		return false
	}
	l.mu.Lock()
	l.cache = loaded
	l.mu.Unlock()
	return true
}

// SortByRoll orders the roster by roll key: case-insensitive alphabetic
// prefix first, trailing number second. Stable for equal keys.
func (l *Ledger) SortByRoll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	sortByRoll(l.cache)
}

func sortByRoll(roster []quiz.Result) {
	sort.SliceStable(roster, func(i, j int) bool {
		return quiz.ParseRollKey(roster[i].Roll).Less(quiz.ParseRollKey(roster[j].Roll))
	})
}

// Snapshot returns a copy of the roster.
func (l *Ledger) Snapshot() []quiz.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]quiz.Result, len(l.cache))
	copy(out, l.cache)
	return out
}

// Filter returns results whose roll or name contains the query,
// case-insensitively. An empty query returns everything. The underlying
// roster is never mutated.
func (l *Ledger) Filter(query string) []quiz.Result {
	all := l.Snapshot()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	filtered := make([]quiz.Result, 0, len(all))
	for _, r := range all {
		if strings.Contains(strings.ToLower(r.Roll), q) || strings.Contains(strings.ToLower(r.Name), q) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ClearAll deletes every remote result document, then empties the local
// cache. Irreversible; the caller must pass explicit confirmation.
func (l *Ledger) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if l.remote != nil {
		docs, err := l.remote.ListAll(ctx, remotestore.CollectionResults)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		for _, doc := range docs {
			if err := l.remote.DeleteOne(ctx, remotestore.CollectionResults, doc.ID); err != nil {
				return fmt.Errorf("delete result %s: %w", doc.ID, err)
			}
		}
	}
	l.mu.Lock()
	l.cache = nil
	l.saveLocalLocked()
	l.mu.Unlock()
	l.logger.Info().Msg("results cleared")
	return nil
}

func (l *Ledger) saveLocalLocked() {
	if err := l.local.SaveJSON(localstore.ResultsKey, l.cache); err != nil {
		l.logger.Warn().Err(err).Msg("save results to local store failed")
	}
}

func resultData(r quiz.Result) map[string]any {
	return map[string]any{
		"name":      r.Name,
		"roll":      r.Roll,
		"score":     r.Score,
		"total":     r.Total,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func parseResult(data map[string]any) (quiz.Result, error) {
	r := quiz.Result{}
	r.Name, _ = data["name"].(string)
	r.Roll, _ = data["roll"].(string)
	r.Score = coerceInt(data["score"])
	r.Total = coerceInt(data["total"])
	if raw, ok := data["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			r.Timestamp = ts
		}
	}
	if err := r.Validate(); err != nil {
		return quiz.Result{}, err
	}
	return r, nil
}

func coerceInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
