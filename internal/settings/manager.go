// Package settings owns the admin-configured question count and quiz
// duration. The manager is the sole writer of these values.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vicky05092005/statatics-quiz/internal/remotestore"
)

// Bounds enforced on save.
const (
	MinQuestionCount   = 1
	MaxQuestionCount   = 100
	MinDurationMinutes = 1
	MaxDurationMinutes = 240
)

// ErrOutOfRange rejects settings outside the allowed bounds before any
// mutation takes place.
var ErrOutOfRange = fmt.Errorf("settings out of range")

// Settings is the singleton quiz configuration.
type Settings struct {
	QuestionCount   int `json:"questionCount"`
	DurationMinutes int `json:"durationMinutes"`
}

// Manager reconciles remote vs in-memory settings. Values start at the
// configured defaults and survive remote outages.
type Manager struct {
	remote remotestore.Store
	logger zerolog.Logger

	mu              sync.RWMutex
	questionCount   int
	durationMinutes int
}

// NewManager seeds the manager with defaults. remote may be nil (local-only).
func NewManager(remote remotestore.Store, defaults Settings, logger zerolog.Logger) *Manager {
	return &Manager{
		remote:          remote,
		logger:          logger.With().Str("component", "settings").Logger(),
		questionCount:   defaults.QuestionCount,
		durationMinutes: defaults.DurationMinutes,
	}
}

// Current returns the in-memory settings.
func (m *Manager) Current() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Settings{QuestionCount: m.questionCount, DurationMinutes: m.durationMinutes}
}

// QuestionCount is the configured per-session question count.
func (m *Manager) QuestionCount() int {
	return m.Current().QuestionCount
}

// Duration is the quiz duration as a time.Duration.
func (m *Manager) Duration() time.Duration {
	return time.Duration(m.Current().DurationMinutes) * time.Minute
}

// Load refreshes settings from the remote store. A field that is missing,
// zero, or non-numeric keeps its prior in-memory value; a remote failure
// keeps everything as-is. Returns whether the remote fetch succeeded.
func (m *Manager) Load(ctx context.Context) bool {
	if m.remote == nil {
		return false
	}
	doc, found, err := m.remote.GetOne(ctx, remotestore.CollectionSettings, remotestore.SettingsDocID)
	if err != nil {
		m.logger.Warn().Err(err).Msg("load settings failed")
		return false
	}
	if !found {
		return true
	}
	m.mu.Lock()
	if qc := coerceCount(doc.Data["questionCount"]); qc > 0 {
		m.questionCount = qc
	}
	if dm := coerceCount(doc.Data["durationMinutes"]); dm > 0 {
		m.durationMinutes = dm
	}
	m.mu.Unlock()
	return true
}

// Save validates the pair, applies it in memory, then writes the remote
// document with merge semantics. The in-memory update is optimistic: a remote
// failure is returned to the caller but does not roll the values back.
func (m *Manager) Save(ctx context.Context, questionCount, durationMinutes int) error {
	if questionCount < MinQuestionCount || questionCount > MaxQuestionCount {
		return fmt.Errorf("%w: questionCount %d not in [%d,%d]",
			ErrOutOfRange, questionCount, MinQuestionCount, MaxQuestionCount)
	}
	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return fmt.Errorf("%w: durationMinutes %d not in [%d,%d]",
			ErrOutOfRange, durationMinutes, MinDurationMinutes, MaxDurationMinutes)
	}

	m.mu.Lock()
	m.questionCount = questionCount
	m.durationMinutes = durationMinutes
	m.mu.Unlock()

	if m.remote == nil {
		return nil
	}
	err := m.remote.SetOne(ctx, remotestore.CollectionSettings, remotestore.SettingsDocID, map[string]any{
		"questionCount":   questionCount,
		"durationMinutes": durationMinutes,
	}, true)
	if err != nil {
		m.logger.Error().Err(err).Msg("save settings to remote failed")
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// coerceCount turns a loosely typed document field into an int. Zero,
// negative, and non-numeric values all read as "absent". A stored value of
// exactly 0 is therefore indistinguishable from unset; Save forbids 0 so the
// quirk is unreachable through this application.
func coerceCount(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
