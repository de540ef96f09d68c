package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRollKey(t *testing.T) {
	cases := []struct {
		roll   string
		prefix string
		num    int
	}{
		{"A10", "a", 10},
		{"B2", "b", 2},
		{"CSE-042", "cse-", 42},
		{"12", "", 12},
		{"nodigits", "nodigits", 0},
		{"", "", 0},
		{"  A5  ", "a", 5},
		{"A12B", "ab", 12},
		// Digit runs too long for int must not wrap negative.
		{"A123456789012345678901234", "a", 0},
	}
	for _, tc := range cases {
		key := ParseRollKey(tc.roll)
		assert.Equal(t, tc.prefix, key.Prefix, "roll %q", tc.roll)
		assert.Equal(t, tc.num, key.Num, "roll %q", tc.roll)
	}
}

func TestRollKeyOrdering(t *testing.T) {
	assert.True(t, ParseRollKey("A5").Less(ParseRollKey("A10")))
	assert.True(t, ParseRollKey("A10").Less(ParseRollKey("B2")))
	assert.True(t, ParseRollKey("B2").Less(ParseRollKey("B12")))
	assert.False(t, ParseRollKey("b12").Less(ParseRollKey("B12")))
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{Text: "2+2?", Options: []string{"3", "4"}, Answer: "4"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, Question{Options: []string{"3", "4"}, Answer: "4"}.Validate())
	assert.Error(t, Question{Text: "q", Options: []string{"4"}, Answer: "4"}.Validate())
	assert.Error(t, Question{Text: "q", Options: []string{"3", "4"}}.Validate())
	assert.Error(t, Question{Text: "q", Options: []string{"3", "4"}, Answer: "5"}.Validate())
}

func TestParseQuestion(t *testing.T) {
	q, err := ParseQuestion("id-1", map[string]any{
		"question": "capital of France?",
		"options":  []any{"Paris", "Lyon", "Nice", "Lille"},
		"answer":   "Paris",
	})
	assert.NoError(t, err)
	assert.Equal(t, "id-1", q.ID)
	assert.Equal(t, "capital of France?", q.Text)
	assert.Equal(t, []string{"Paris", "Lyon", "Nice", "Lille"}, q.Options)

	_, err = ParseQuestion("id-2", map[string]any{
		"question": "broken",
		"options":  "not-an-array",
		"answer":   "x",
	})
	assert.Error(t, err)

	_, err = ParseQuestion("id-3", map[string]any{
		"question": "missing answer",
		"options":  []any{"a", "b"},
	})
	assert.Error(t, err)
}

func TestResultValidate(t *testing.T) {
	assert.NoError(t, Result{Name: "A", Roll: "1", Score: 3, Total: 5}.Validate())
	assert.Error(t, Result{Score: 0, Total: 0}.Validate())
	assert.Error(t, Result{Score: 6, Total: 5}.Validate())
	assert.Error(t, Result{Score: -1, Total: 5}.Validate())
}
