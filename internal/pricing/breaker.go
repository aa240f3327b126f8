package pricing

import (
	"sync"
	"time"
)

const (
	DefaultFailureThreshold = 3
	DefaultCooldown         = 60 * time.Second
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// CircuitBreaker はバッチ単位の連続失敗数で開く。
// 開いてからcooldownが過ぎたら次のAllowで閉じる（half-openは無い）
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	clock     Clock

	failures int
	open     bool
	resetAt  time.Time
}

type BreakerState struct {
	Open      bool       `json:"open"`
	Failures  int        `json:"failures"`
	Threshold int        `json:"threshold"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

func NewCircuitBreaker(threshold int, cooldown time.Duration, clock Clock) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, clock: clock}
}

// Allow は呼び出してよいか。期限切れならここで閉じる
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireLocked()
	return !b.open
}

// RecordBatch はバッチの結果を反映する。失敗0なら連続失敗数を0に戻す
func (b *CircuitBreaker) RecordBatch(failures int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if failures <= 0 {
		b.failures = 0
		return
	}
	b.failures += failures
	if !b.open && b.failures >= b.threshold {
		b.open = true
		b.resetAt = b.clock.Now().Add(b.cooldown)
	}
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireLocked()
	st := BreakerState{Open: b.open, Failures: b.failures, Threshold: b.threshold}
	if b.open {
		t := b.resetAt
		st.ResetAt = &t
	}
	return st
}

func (b *CircuitBreaker) expireLocked() {
	if b.open && !b.clock.Now().Before(b.resetAt) {
		b.open = false
		b.failures = 0
		b.resetAt = time.Time{}
	}
}
