package quiz

import "math/rand"

// SelectedQuestion is a session-scoped copy of a bank question with its
// options independently shuffled. Never persisted.
type SelectedQuestion struct {
	Question
}

// Shuffle performs a uniform Fisher-Yates permutation in place.
func Shuffle[T any](items []T, rng *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// SelectRandom picks min(count, len(pool)) questions uniformly at random and
// shuffles each selection's options. The input pool is never mutated. Getting
// back fewer questions than requested is a degraded but valid outcome; callers
// compare the returned length against count to warn the user.
func SelectRandom(pool []Question, count int, rng *rand.Rand) []SelectedQuestion {
	shuffled := make([]Question, len(pool))
	copy(shuffled, pool)
	Shuffle(shuffled, rng)

	n := count
	if n < 0 {
		n = 0
	}
	if len(shuffled) < n {
		n = len(shuffled)
	}
	selected := make([]SelectedQuestion, 0, n)
	for _, q := range shuffled[:n] {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		Shuffle(opts, rng)
		q.Options = opts
		selected = append(selected, SelectedQuestion{Question: q})
	}
	return selected
}
