// Package tips serves the rotating health quotes shown under the chat.
package tips

import (
	"math/rand/v2"
	"sync"
)

var healthQuotes = []string{
	"Health is wealth. – Proverb",
	"To keep the body in good health is a duty… otherwise we shall not be able to keep our mind strong and clear. – Buddha",
	"It is health that is real wealth and not pieces of gold and silver. – Mahatma Gandhi",
	"Take care of your body. It’s the only place you have to live. – Jim Rohn",
	"The greatest wealth is health. – Virgil",
	"Those who think they have no time for exercise will sooner or later have to find time for illness. – Edward Stanley",
	"Let food be thy medicine and medicine be thy food. – Hippocrates",
	"Calm mind brings inner strength and self-confidence, so that’s very important for good health. – Dalai Lama",
	"Your diet is a bank account. Good food choices are good investments. – Bethenny Frankel",
	"The mind and body are not separate. What affects one, affects the other. – Unknown",
}

// Rotator hands out tips, never the same one twice in a row
type Rotator struct {
	mu   sync.Mutex
	tips []string
	last int
	intn func(n int) int
}

// NewRotator creates a rotator over tips, or the built-in quotes when tips
// is empty.
func NewRotator(tips ...string) *Rotator {
	if len(tips) == 0 {
		tips = healthQuotes
	}
	return &Rotator{tips: append([]string(nil), tips...), last: -1, intn: rand.IntN}
}

// Next returns a random tip different from the previous one
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tips) == 1 {
		return r.tips[0]
	}
	i := r.intn(len(r.tips))
	if i == r.last {
		i = (i + 1) % len(r.tips)
	}
	r.last = i
	return r.tips[i]
}

// All returns a copy of every tip
func (r *Rotator) All() []string {
	return append([]string(nil), r.tips...)
}

// Random returns any built-in quote
func Random() string {
	return healthQuotes[rand.IntN(len(healthQuotes))]
}
