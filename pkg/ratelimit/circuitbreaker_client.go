package ratelimit

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Rule configures one named circuit breaker. Half-Open lets MaxRequests
// probes through (the library treats MaxRequests==0 as 1); Closed counts
// failures over Interval/BucketPeriod; Open lasts Timeout before moving to
// Half-Open.
type Rule struct {
	MaxRequests uint32

	Interval     time.Duration
	BucketPeriod time.Duration
	Timeout      time.Duration

	TripConsecutiveFailures uint32
	TripFailureRate         float64
	TripMinRequests         uint32
}

// Transient marks an error as a dependency failure the breaker should count
// against the trip threshold. Callers that wrap a collaborator (see
// internal/vault) return a Transient-wrapped error for outages and a plain
// business error (insufficient balance, not found, ...) for anything the
// breaker should not penalize the dependency for.
type Transient struct{ Err error }

func (t *Transient) Error() string { return t.Err.Error() }
func (t *Transient) Unwrap() error { return t.Err }

// AsTransient wraps err as a dependency failure, or returns nil unchanged.
func AsTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

// Manager lazily builds and caches one named gobreaker.CircuitBreaker per
// resource, keyed by method the same way a gRPC client breaker would be,
// minus gRPC status-code classification — there is no gRPC surface in
// clobd (see DESIGN.md).
type Manager struct {
	mu sync.RWMutex
	m  map[string]*gobreaker.CircuitBreaker[struct{}]

	defaultRule Rule
	rules       map[string]Rule
}

func NewManager(defaultRule Rule, perResource map[string]Rule) *Manager {
	if defaultRule.MaxRequests == 0 {
		defaultRule.MaxRequests = 5
	}
	if defaultRule.Timeout <= 0 {
		defaultRule.Timeout = 3 * time.Second
	}
	if defaultRule.Interval <= 0 {
		defaultRule.Interval = 10 * time.Second
	}
	if defaultRule.TripConsecutiveFailures == 0 && defaultRule.TripFailureRate == 0 {
		defaultRule.TripConsecutiveFailures = 10
	}
	if defaultRule.TripMinRequests == 0 {
		defaultRule.TripMinRequests = 20
	}

	return &Manager{
		m:           make(map[string]*gobreaker.CircuitBreaker[struct{}], 8),
		defaultRule: defaultRule,
		rules:       perResource,
	}
}

func (m *Manager) Get(resource string) *gobreaker.CircuitBreaker[struct{}] {
	m.mu.RLock()
	cb := m.m[resource]
	m.mu.RUnlock()
	if cb != nil {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cb = m.m[resource]; cb != nil {
		return cb
	}

	rule, ok := m.rules[resource]
	if !ok {
		rule = m.defaultRule
	}
	st := gobreaker.Settings{
		Name:         resource,
		MaxRequests:  rule.MaxRequests,
		Interval:     rule.Interval,
		BucketPeriod: rule.BucketPeriod,
		Timeout:      rule.Timeout,

		ReadyToTrip: func(c gobreaker.Counts) bool {
			if rule.TripConsecutiveFailures > 0 && c.ConsecutiveFailures >= rule.TripConsecutiveFailures {
				return true
			}
			if rule.TripFailureRate > 0 && c.Requests >= rule.TripMinRequests {
				failRate := float64(c.TotalFailures) / float64(c.Requests)
				return failRate >= rule.TripFailureRate
			}
			return false
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var t *Transient
			return !asTransientErr(err, &t)
		},
	}

	cb = gobreaker.NewCircuitBreaker[struct{}](st)
	m.m[resource] = cb
	return cb
}

func asTransientErr(err error, target **Transient) bool {
	for err != nil {
		if t, ok := err.(*Transient); ok {
			*target = t
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
