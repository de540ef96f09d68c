// Package bank owns the canonical question list and reconciles it between
// the remote document store and the local fallback store. Mutations are
// local-first: the in-memory bank and the local store always win, the remote
// mirror is best-effort.
package bank

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vicky05092005/statatics-quiz/internal/localstore"
	"github.com/vicky05092005/statatics-quiz/internal/quiz"
	"github.com/vicky05092005/statatics-quiz/internal/remotestore"
)

// ErrNotFound reports an unknown question ID.
var ErrNotFound = fmt.Errorf("question not found")

// Manager is the single writer of the question bank.
type Manager struct {
	remote remotestore.Store
	local  *localstore.Store
	logger zerolog.Logger

	mu        sync.RWMutex
	questions []quiz.Question
}

// NewManager builds an empty bank. remote may be nil (local-only mode).
func NewManager(remote remotestore.Store, local *localstore.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		remote: remote,
		local:  local,
		logger: logger.With().Str("component", "question_bank").Logger(),
	}
}

// Snapshot returns a copy of the bank, safe to iterate while admins mutate.
func (m *Manager) Snapshot() []quiz.Question {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]quiz.Question, len(m.questions))
	copy(out, m.questions)
	return out
}

// Count reports the bank size.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.questions)
}

// LoadRemote fetches the questions collection, keeping only documents that
// parse into valid questions; malformed entries are discarded silently.
// On success (at least one valid question) the whole in-memory bank is
// replaced and mirrored to local storage.
func (m *Manager) LoadRemote(ctx context.Context) bool {
	if m.remote == nil {
		return false
	}
	docs, err := m.remote.ListAll(ctx, remotestore.CollectionQuestions)
	if err != nil {
		m.logger.Warn().Err(err).Msg("load questions from remote failed")
		return false
	}
	var loaded []quiz.Question
	for _, doc := range docs {
		q, err := quiz.ParseQuestion(doc.ID, doc.Data)
		if err != nil {
			m.logger.Debug().Err(err).Str("id", doc.ID).Msg("discarding malformed question")
			continue
		}
		loaded = append(loaded, q)
	}
	if len(loaded) == 0 {
		return false
	}
	m.mu.Lock()
	m.questions = loaded
	m.saveLocalLocked()
	m.mu.Unlock()
	m.logger.Info().Int("count", len(loaded)).Msg("question bank loaded from remote")
	return true
}

// LoadLocal restores the bank from the local fallback store.
func (m *Manager) LoadLocal() bool {
	var loaded []quiz.Question
	if !m.local.LoadJSON(localstore.QuestionsKey, &loaded) || len(loaded) == 0 {
		return false
	}
	m.mu.Lock()
	m.questions = loaded
	m.mu.Unlock()
	return true
}

// Add validates and appends a question, persists locally, then mirrors the
// document to the remote store best-effort.
func (m *Manager) Add(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return quiz.Question{}, fmt.Errorf("%w: %v", quiz.ErrValidation, err)
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	m.mu.Lock()
	m.questions = append(m.questions, q)
	m.saveLocalLocked()
	m.mu.Unlock()

	m.mirror(ctx, "add", func() error {
		return m.remote.SetOne(ctx, remotestore.CollectionQuestions, q.ID, q.Data(), false)
	})
	return q, nil
}

// Update replaces the question with the given ID in place.
func (m *Manager) Update(ctx context.Context, id string, q quiz.Question) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("%w: %v", quiz.ErrValidation, err)
	}
	q.ID = id

	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.questions[idx] = q
	m.saveLocalLocked()
	m.mu.Unlock()

	m.mirror(ctx, "update", func() error {
		return m.remote.SetOne(ctx, remotestore.CollectionQuestions, id, q.Data(), false)
	})
	return nil
}

// Delete removes the question with the given ID.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.questions = append(m.questions[:idx], m.questions[idx+1:]...)
	m.saveLocalLocked()
	m.mu.Unlock()

	m.mirror(ctx, "delete", func() error {
		return m.remote.DeleteOne(ctx, remotestore.CollectionQuestions, id)
	})
	return nil
}

// ReplaceAllRemote pushes the in-memory bank to the remote store by deleting
// every existing remote question and re-adding the current set. Not
// transactional: a failure mid-sequence leaves the remote partially deleted
// or partially re-added; the error carries the progress made.
func (m *Manager) ReplaceAllRemote(ctx context.Context) error {
	if m.remote == nil {
		return remotestore.ErrUnavailable
	}
	existing, err := m.remote.ListAll(ctx, remotestore.CollectionQuestions)
	if err != nil {
		return fmt.Errorf("list remote questions: %w", err)
	}
	deleted := 0
	for _, doc := range existing {
		if err := m.remote.DeleteOne(ctx, remotestore.CollectionQuestions, doc.ID); err != nil {
			return fmt.Errorf("push aborted after deleting %d/%d: %w", deleted, len(existing), err)
		}
		deleted++
	}
	added := 0
	for _, q := range m.Snapshot() {
		if err := m.remote.SetOne(ctx, remotestore.CollectionQuestions, q.ID, q.Data(), false); err != nil {
			return fmt.Errorf("push aborted after re-adding %d: %w", added, err)
		}
		added++
	}
	m.logger.Info().Int("deleted", deleted).Int("added", added).Msg("pushed question bank to remote")
	return nil
}

func (m *Manager) indexLocked(id string) int {
	for i, q := range m.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) saveLocalLocked() {
	if err := m.local.SaveJSON(localstore.QuestionsKey, m.questions); err != nil {
		m.logger.Warn().Err(err).Msg("save questions to local store failed")
	}
}

// mirror runs a best-effort remote write. Failure never rolls back the local
// mutation.
func (m *Manager) mirror(ctx context.Context, op string, fn func() error) {
	if m.remote == nil {
		return
	}
	if err := fn(); err != nil {
		m.logger.Warn().Err(err).Str("op", op).Msg("remote mirror failed, kept local")
	}
}
