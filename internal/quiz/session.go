package quiz

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State of a quiz session.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateEnded
)

// Outcome reports whether an answer was correct and what the correct value is.
type Outcome struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
}

// Session drives a single timed question-by-question run for one student.
// It owns its selected questions and counters exclusively; the Result is the
// only durable output.
type Session struct {
	ID      uuid.UUID
	Student StudentInfo

	mu        sync.Mutex
	selected  []SelectedQuestion
	index     int
	score     int
	answered  []bool
	state     State
	abandoned bool
	result    Result
	remaining int
	stop      chan struct{}

	onEnd  func(Result)
	now    func() time.Time
	logger zerolog.Logger
}

// NewSession selects min(count, len(pool)) questions from the pool and builds
// a session in the NotStarted state. The pool is not mutated.
func NewSession(student StudentInfo, pool []Question, count int, duration time.Duration, rng *rand.Rand, logger zerolog.Logger) (*Session, error) {
	selected := SelectRandom(pool, count, rng)
	if len(selected) == 0 {
		return nil, ErrNoQuestions
	}
	return &Session{
		ID:        uuid.New(),
		Student:   student,
		selected:  selected,
		answered:  make([]bool, len(selected)),
		state:     StateNotStarted,
		remaining: int(duration / time.Second),
		now:       time.Now,
		logger:    logger.With().Str("component", "quiz_session").Logger(),
	}, nil
}

// Questions returns the selected questions in session order.
func (s *Session) Questions() []SelectedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SelectedQuestion, len(s.selected))
	copy(out, s.selected)
	return out
}

// Total reports how many questions the session holds.
func (s *Session) Total() int { return len(s.selected) }

// Remaining reports the countdown in whole seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves the session to InProgress at the first question and begins the
// countdown. onEnd is invoked exactly once when the session terminates with a
// result; an abandoned session never invokes it.
func (s *Session) Start(onEnd func(Result)) {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return
	}
	s.state = StateInProgress
	s.index = 0
	s.onEnd = onEnd
	s.startTimerLocked()
	s.mu.Unlock()
}

// startTimerLocked launches the per-second countdown. Any previously running
// countdown is cancelled first so only one timer ever ticks per session.
func (s *Session) startTimerLocked() {
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if s.tick() {
					return
				}
			}
		}
	}()
}

// tick decrements the countdown and terminates the session when it hits zero.
// Returns true once the timer should stop.
func (s *Session) tick() bool {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return true
	}
	s.remaining--
	if s.remaining > 0 {
		s.mu.Unlock()
		return false
	}
	s.remaining = 0
	result, emit := s.finishLocked()
	s.mu.Unlock()
	if emit && s.onEnd != nil {
		s.onEnd(result)
	}
	return true
}

// Current returns the question at the cursor.
func (s *Session) Current() (SelectedQuestion, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return SelectedQuestion{}, 0, ErrSessionEnded
	}
	return s.selected[s.index], s.index, nil
}

// Answer scores the given choice against the current question. Comparison is
// exact string equality after trimming surrounding whitespace. Each question
// is scored at most once; repeat submissions are rejected.
func (s *Session) Answer(choice string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return Outcome{}, ErrSessionEnded
	}
	if s.answered[s.index] {
		return Outcome{}, ErrAlreadyAnswered
	}
	s.answered[s.index] = true
	correct := s.selected[s.index].Answer
	out := Outcome{
		Correct:       strings.TrimSpace(choice) == strings.TrimSpace(correct),
		CorrectAnswer: correct,
	}
	if out.Correct {
		s.score++
	}
	return out, nil
}

// Advance moves to the next question. Advancing past the last question ends
// the session; the returned flag reports whether it is over.
func (s *Session) Advance() (ended bool, err error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return true, ErrSessionEnded
	}
	if s.index < len(s.selected)-1 {
		s.index++
		s.mu.Unlock()
		return false, nil
	}
	result, emit := s.finishLocked()
	s.mu.Unlock()
	if emit && s.onEnd != nil {
		s.onEnd(result)
	}
	return true, nil
}

// End terminates the session and returns its Result. Idempotent: calling End
// on an already-ended session returns the previously produced Result. The
// second return is false when the session was abandoned and no Result exists.
func (s *Session) End() (Result, bool) {
	s.mu.Lock()
	result, emit := s.finishLocked()
	ok := !s.abandoned
	s.mu.Unlock()
	if emit && s.onEnd != nil {
		s.onEnd(result)
	}
	return result, ok
}

// Abandon discards the session without producing a Result. Valid terminal
// path distinct from End; the countdown stops with no further ticks.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return
	}
	s.state = StateEnded
	s.abandoned = true
	s.stopTimerLocked()
}

// finishLocked performs the one-way InProgress -> Ended transition. It fires
// at most once no matter how many termination paths race (timer, question
// exhaustion, explicit End).
func (s *Session) finishLocked() (Result, bool) {
	if s.state == StateEnded {
		return s.result, false
	}
	s.state = StateEnded
	s.stopTimerLocked()
	s.result = Result{
		Name:      s.Student.Name,
		Roll:      s.Student.Roll,
		Score:     s.score,
		Total:     len(s.selected),
		Timestamp: s.now(),
	}
	s.logger.Info().
		Str("roll", s.Student.Roll).
		Int("score", s.result.Score).
		Int("total", s.result.Total).
		Msg("session ended")
	return s.result, true
}

func (s *Session) stopTimerLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
