package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	httperrors "github.com/vicky05092005/statatics-quiz/pkg/http/errors"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_started_total",
		Help: "Quiz sessions started.",
	})
	sessionsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_finished_total",
		Help: "Quiz sessions that produced a result.",
	})
	sessionShortfalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_session_shortfalls_total",
		Help: "Sessions started with fewer questions than the admin requested.",
	})
)

// Bank is the slice of the question bank manager the session flow needs.
type Bank interface {
	Snapshot() []Question
	Count() int
	LoadLocal() bool
	LoadRemote(ctx context.Context) bool
}

// SettingsSource supplies the admin-configured session parameters, refreshed
// from the remote store on each quiz entry.
type SettingsSource interface {
	Load(ctx context.Context) bool
	QuestionCount() int
	Duration() time.Duration
}

// Recorder consumes the Result a finished session produces.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// Handlers exposes the student-facing session flow over HTTP.
type Handlers struct {
	bank     Bank
	settings SettingsSource
	recorder Recorder
	registry *Registry
	logger   zerolog.Logger

	// rng only hands out seeds, under rngMu; every session shuffles on its
	// own generator so concurrent starts never share a rand source.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewHandlers wires the session flow.
func NewHandlers(bank Bank, settings SettingsSource, recorder Recorder, registry *Registry, rng *rand.Rand, logger zerolog.Logger) *Handlers {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Handlers{
		bank:     bank,
		settings: settings,
		recorder: recorder,
		registry: registry,
		rng:      rng,
		logger:   logger.With().Str("component", "quiz_http").Logger(),
	}
}

type startRequest struct {
	Name string `json:"name"`
	Roll string `json:"roll"`
}

type questionPayload struct {
	Index   int      `json:"index"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

type startResponse struct {
	SessionID       string            `json:"session_id"`
	Total           int               `json:"total"`
	Requested       int               `json:"requested"`
	Shortfall       bool              `json:"shortfall"`
	DurationSeconds int               `json:"duration_seconds"`
	Questions       []questionPayload `json:"questions"`
	CurrentQuestion questionPayload   `json:"current_question"`
}

// HandleStart begins a session: refreshes settings, ensures the pool is
// loaded, selects a random subset, and starts the countdown. Answers never
// leave the server.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Roll = strings.TrimSpace(req.Roll)
	if req.Name == "" || req.Roll == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Name and roll number are required")
		return
	}

	ctx := r.Context()
	h.settings.Load(ctx)
	if h.bank.Count() == 0 {
		if !h.bank.LoadLocal() {
			h.bank.LoadRemote(ctx)
		}
	}

	requested := h.settings.QuestionCount()
	session, err := NewSession(
		StudentInfo{Name: req.Name, Roll: req.Roll},
		h.bank.Snapshot(),
		requested,
		h.settings.Duration(),
		h.sessionRand(),
		h.logger,
	)
	if errors.Is(err, ErrNoQuestions) {
		httperrors.RespondConflict(w, httperrors.ErrCodeNoQuestions, "No questions available")
		return
	}
	if err != nil {
		httperrors.RespondInternalError(w, "Could not start session")
		return
	}

	h.registry.Put(session)
	session.Start(func(result Result) {
		sessionsFinished.Inc()
		// The session is done whichever way it ended; a client that vanished
		// before timer expiry must not leak its registry slot.
		h.registry.Remove(session.ID)
		// Session callbacks outlive the request; give the record its own deadline.
		recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.recorder.Record(recordCtx, result); err != nil {
			h.logger.Error().Err(err).Str("roll", result.Roll).Msg("record result failed")
		}
	})
	sessionsStarted.Inc()

	shortfall := session.Total() < requested
	if shortfall {
		sessionShortfalls.Inc()
		h.logger.Warn().
			Int("requested", requested).
			Int("available", session.Total()).
			Msg("starting with fewer questions than requested")
	}

	questions := make([]questionPayload, 0, session.Total())
	for i, q := range session.Questions() {
		questions = append(questions, questionPayload{Index: i, Text: q.Text, Options: q.Options})
	}
	respondJSON(w, http.StatusCreated, startResponse{
		SessionID:       session.ID.String(),
		Total:           session.Total(),
		Requested:       requested,
		Shortfall:       shortfall,
		DurationSeconds: session.Remaining(),
		Questions:       questions,
		CurrentQuestion: questions[0],
	})
}

// HandleQuestion returns the question at the session cursor.
func (h *Handlers) HandleQuestion(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	q, idx, err := session.Current()
	if err != nil {
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionEnded, "Session is over")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"question":          questionPayload{Index: idx, Text: q.Text, Options: q.Options},
		"total":             session.Total(),
		"remaining_seconds": session.Remaining(),
	})
}

type answerRequest struct {
	Choice string `json:"choice"`
}

// HandleAnswer scores a choice against the current question. A question can
// be scored once; repeats are rejected.
func (h *Handlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed JSON body")
		return
	}
	outcome, err := session.Answer(req.Choice)
	switch {
	case errors.Is(err, ErrAlreadyAnswered):
		httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyAnswered, "Question already answered")
		return
	case errors.Is(err, ErrSessionEnded):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionEnded, "Session is over")
		return
	case err != nil:
		httperrors.RespondInternalError(w, "Could not score answer")
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// HandleNext advances to the next question, ending the session past the last
// one.
func (h *Handlers) HandleNext(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	ended, err := session.Advance()
	if err != nil && !ended {
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionEnded, "Session is over")
		return
	}
	if ended {
		result, produced := session.End()
		h.registry.Remove(session.ID)
		payload := map[string]any{"ended": true}
		if produced {
			payload["result"] = result
		}
		respondJSON(w, http.StatusOK, payload)
		return
	}
	q, idx, _ := session.Current()
	respondJSON(w, http.StatusOK, map[string]any{
		"ended":    false,
		"question": questionPayload{Index: idx, Text: q.Text, Options: q.Options},
	})
}

// HandleAbandon discards a session without producing a result (student
// navigated home).
func (h *Handlers) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.Abandon()
	h.registry.Remove(session.ID)
	respondJSON(w, http.StatusOK, map[string]any{"abandoned": true})
}

// sessionRand derives a fresh generator for one session.
func (h *Handlers) sessionRand() *rand.Rand {
	h.rngMu.Lock()
	seed := h.rng.Int63()
	h.rngMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid session id")
		return nil, false
	}
	session, ok := h.registry.Get(id)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Unknown session")
		return nil, false
	}
	return session, true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
