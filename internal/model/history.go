package model

import "time"

// History is a snapshot of the attempt journal prepared for display.
type History struct {
	// GeneratedAt is when the snapshot was taken.
	GeneratedAt time.Time `json:"generated_at"`

	// Attempts are the most recent attempts, newest first.
	Attempts []Attempt `json:"attempts"`

	// Counts holds the number of attempts per outcome over the whole
	// journal, not only over Attempts.
	Counts map[Outcome]int `json:"counts"`
}

// NewHistory creates a History. A nil counts map is treated as empty.
func NewHistory(attempts []Attempt, counts map[Outcome]int, now time.Time) *History {
	if counts == nil {
		counts = make(map[Outcome]int)
	}
	if attempts == nil {
		attempts = []Attempt{}
	}
	return &History{
		GeneratedAt: now,
		Attempts:    attempts,
		Counts:      counts,
	}
}

// Total returns the number of attempts in the journal.
func (h *History) Total() int {
	total := 0
	for _, n := range h.Counts {
		total += n
	}
	return total
}

// Successes returns the number of successful attempts in the journal.
func (h *History) Successes() int {
	return h.Counts[OutcomeSuccess]
}

// SuccessRate returns the share of successful attempts in percent.
// It is zero for an empty journal.
func (h *History) SuccessRate() float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	return float64(h.Successes()) * 100 / float64(total)
}

// Latest returns the newest attempt, or nil when there is none.
func (h *History) Latest() *Attempt {
	if len(h.Attempts) == 0 {
		return nil
	}
	return &h.Attempts[0]
}

// LastSuccess returns the newest successful attempt among Attempts,
// or nil when none of them succeeded.
func (h *History) LastSuccess() *Attempt {
	for i := range h.Attempts {
		if h.Attempts[i].Succeeded() {
			return &h.Attempts[i]
		}
	}
	return nil
}
