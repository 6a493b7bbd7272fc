// Package vault implements the token-vault collaborator clob.TokenVault
// treats as opaque: an in-memory per-(user,side) ledger,
// wrapped in a circuit breaker the way a real vault call crossing a
// process/RPC boundary would need one — the in-memory Ledger itself can
// never fail with a transient error, but CircuitBreakerVault is what
// cmd/clobd actually wires up, so swapping Ledger for a real RPC client
// later needs no call-site change.
package vault

import (
	"context"
	"errors"
	"sync"

	"github.com/sony/gobreaker/v2"
	"gopherex.com/internal/clob"
	"gopherex.com/pkg/metrics"
	"gopherex.com/pkg/ratelimit"
)

// ErrVaultUnreachable models the transient failure a real token-vault RPC
// could return; Ledger never produces it (there is nothing to be
// unreachable from), but CircuitBreakerVault's tests exercise the trip path
// by wrapping a failing stub vault with it.
var ErrVaultUnreachable = errors.New("vault: unreachable")

// Ledger is the concrete, in-memory TokenVault: a per-user, per-side raw
// balance representing funds already moved into the exchange's custody.
// TransferIn models a user's external wallet crediting the vault;
// TransferOut models the vault paying back out, and fails if the user
// never had that much in custody — the same shape a real SPL-token vault
// withdrawal would enforce on-chain.
type Ledger struct {
	mu       sync.Mutex
	deposits map[string]map[clob.AssetSide]uint64
}

func NewLedger() *Ledger {
	return &Ledger{deposits: make(map[string]map[clob.AssetSide]uint64)}
}

func (l *Ledger) TransferIn(_ context.Context, owner string, side clob.AssetSide, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bucket(owner)[side] += amount
	return nil
}

func (l *Ledger) TransferOut(_ context.Context, owner string, side clob.AssetSide, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.bucket(owner)
	if b[side] < amount {
		return clob.ErrInsufficientBalance
	}
	b[side] -= amount
	return nil
}

func (l *Ledger) bucket(owner string) map[clob.AssetSide]uint64 {
	b, ok := l.deposits[owner]
	if !ok {
		b = make(map[clob.AssetSide]uint64, 2)
		l.deposits[owner] = b
	}
	return b
}

// CircuitBreakerVault wraps another clob.TokenVault with a named
// gobreaker.CircuitBreaker per operation, tripping only on
// ErrVaultUnreachable (or any error explicitly marked transient via
// pkg/ratelimit.AsTransient) — an ordinary InsufficientBalance from the
// wrapped vault is a business outcome, not a dependency failure, and must
// not count against the breaker.
type CircuitBreakerVault struct {
	inner clob.TokenVault
	cb    *ratelimit.Manager
}

func NewCircuitBreakerVault(inner clob.TokenVault, cb *ratelimit.Manager) *CircuitBreakerVault {
	return &CircuitBreakerVault{inner: inner, cb: cb}
}

func (v *CircuitBreakerVault) TransferIn(ctx context.Context, owner string, side clob.AssetSide, amount uint64) error {
	return v.exec("vault.transfer_in", func() error {
		return v.inner.TransferIn(ctx, owner, side, amount)
	})
}

func (v *CircuitBreakerVault) TransferOut(ctx context.Context, owner string, side clob.AssetSide, amount uint64) error {
	return v.exec("vault.transfer_out", func() error {
		return v.inner.TransferOut(ctx, owner, side, amount)
	})
}

func (v *CircuitBreakerVault) exec(resource string, fn func() error) error {
	breaker := v.cb.Get(resource)
	_, err := breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	recordState(resource, breaker.State())
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrVaultUnreachable
	}
	var t *ratelimit.Transient
	if asTransient(err, &t) {
		return t.Unwrap()
	}
	return err
}

func asTransient(err error, target **ratelimit.Transient) bool {
	for err != nil {
		if t, ok := err.(*ratelimit.Transient); ok {
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

func recordState(resource string, state gobreaker.State) {
	for _, s := range []gobreaker.State{gobreaker.StateClosed, gobreaker.StateHalfOpen, gobreaker.StateOpen} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		metrics.CBState.WithLabelValues(resource, s.String()).Set(v)
	}
}
