package ai

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker stops calling the model after repeated failures and lets a few
// trial requests through once the cool-down elapses.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker opens after maxFailures consecutive failures and stays open for timeout.
func NewBreaker(name string, timeout time.Duration, maxFailures uint32) *Breaker {
	if maxFailures == 0 {
		maxFailures = 1
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		return fmt.Errorf("breaker (%s): %w", b.cb.Name(), err)
	}
	return nil
}

// State reports the breaker state name for logs and /stats.
func (b *Breaker) State() string { return b.cb.State().String() }
