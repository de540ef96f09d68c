package quiz

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrSessionEnded    = errors.New("session already ended")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNoQuestions     = errors.New("no questions available")
)

// Question is a single multiple-choice entry of the bank. Text may contain
// markup or math markup; it is stored verbatim.
type Question struct {
	ID      string   `json:"id,omitempty"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// Validate enforces the bank invariants: non-empty text and answer, at least
// two options, and the answer present among the options.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) < 2 {
		return errors.New("question needs at least two options")
	}
	if strings.TrimSpace(q.Answer) == "" {
		return errors.New("answer is empty")
	}
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return errors.New("answer is not one of the options")
}

// Data renders the question as a remote document payload. The ID travels
// separately as the document ID.
func (q Question) Data() map[string]any {
	opts := make([]any, len(q.Options))
	for i, o := range q.Options {
		opts[i] = o
	}
	return map[string]any{
		"question": q.Text,
		"options":  opts,
		"answer":   q.Answer,
	}
}

// ParseQuestion turns a loosely shaped remote document into a typed Question.
// Malformed documents are rejected; callers discard them silently.
func ParseQuestion(id string, data map[string]any) (Question, error) {
	q := Question{ID: id}
	text, _ := data["question"].(string)
	q.Text = text
	answer, _ := data["answer"].(string)
	q.Answer = answer
	rawOpts, ok := data["options"].([]any)
	if !ok {
		return Question{}, errors.New("options is not an array")
	}
	for _, ro := range rawOpts {
		opt, ok := ro.(string)
		if !ok {
			return Question{}, errors.New("option is not a string")
		}
		q.Options = append(q.Options, opt)
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// StudentInfo identifies the student taking a session.
type StudentInfo struct {
	Name string `json:"name"`
	Roll string `json:"roll"`
}

// Result is the durable output of a finished session. Immutable once created.
type Result struct {
	Name      string    `json:"name"`
	Roll      string    `json:"roll"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the 0 <= score <= total, total > 0 invariant.
func (r Result) Validate() error {
	if r.Total <= 0 {
		return errors.New("total must be positive")
	}
	if r.Score < 0 || r.Score > r.Total {
		return errors.New("score out of range")
	}
	return nil
}

// RollKey is the derived two-part sort key of a roll string.
type RollKey struct {
	Prefix string
	Num    int
}

// ParseRollKey splits a roll string into its sort key: the trailing run of
// digits (last run anywhere in the string) becomes Num, everything else
// lowercased becomes Prefix. A roll with no digits gets Num 0.
func ParseRollKey(roll string) RollKey {
	s := strings.TrimSpace(roll)
	runes := []rune(s)
	end := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsDigit(runes[i]) {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return RollKey{Prefix: strings.ToLower(s)}
	}
	start := end
	for start > 0 && unicode.IsDigit(runes[start-1]) {
		start--
	}
	// Atoi rather than manual accumulation: a digit run too long for int
	// reads as 0 instead of overflowing into a negative key.
	num, err := strconv.Atoi(string(runes[start:end]))
	if err != nil {
		num = 0
	}
	prefix := string(runes[:start]) + string(runes[end:])
	return RollKey{Prefix: strings.ToLower(prefix), Num: num}
}

// Less orders keys by prefix, then by numeric suffix.
func (k RollKey) Less(other RollKey) bool {
	if k.Prefix != other.Prefix {
		return k.Prefix < other.Prefix
	}
	return k.Num < other.Num
}
