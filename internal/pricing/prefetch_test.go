package pricing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVendor struct {
	calls atomic.Int64
	fail  func(it Item) bool
}

func (v *fakeVendor) FetchPrice(ctx context.Context, it Item) (int64, error) {
	v.calls.Add(1)
	if v.fail != nil && v.fail(it) {
		return 0, &VendorUnavailableError{Key: it.Key(), StatusCode: 503}
	}
	return int64(len(it.ProductID)) * 100, nil
}

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ProductID: "p", OptionIDs: []string{string(rune('a' + i))}}
	}
	return items
}

func newTestPrefetcher(v VendorClient, clock Clock, s *recordingSleeper) *Prefetcher {
	return NewPrefetcher(v, NewMemoryCache(), NewCircuitBreaker(3, 60*time.Second, clock), zerolog.Nop(),
		WithSleeper(s.Sleep))
}

func TestPrefetcher_AllSucceed(t *testing.T) {
	v := &fakeVendor{}
	s := &recordingSleeper{}
	p := newTestPrefetcher(v, newFakeClock(), s)

	report := p.Run(context.Background(), makeItems(12))

	assert.Equal(t, 12, report.Requested)
	assert.Equal(t, 12, report.Fetched)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, int64(12), v.calls.Load())
	assert.Equal(t, 12, p.Cache().Len())

	//3バッチなので間は2回
	assert.Equal(t, []time.Duration{time.Second, time.Second}, s.waits)

	price, ok := p.Cache().Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(100), price)
}

func TestPrefetcher_OpenBreakerSkipsRemainingWithoutCalls(t *testing.T) {
	v := &fakeVendor{fail: func(Item) bool { return true }}
	s := &recordingSleeper{}
	p := newTestPrefetcher(v, newFakeClock(), s)

	report := p.Run(context.Background(), makeItems(15))

	assert.Equal(t, int64(5), v.calls.Load())
	assert.Equal(t, 0, report.Fetched)
	assert.Equal(t, 5, report.Failed)
	assert.Equal(t, 10, report.Skipped)
	assert.True(t, report.BreakerOpen)
	assert.Len(t, report.FailedKeys, 5)

	//開いている間は1件も呼ばない
	again := p.Run(context.Background(), makeItems(5))
	assert.Equal(t, int64(5), v.calls.Load())
	assert.Equal(t, 5, again.Skipped)
}

func TestPrefetcher_FailuresAccumulateAcrossBatches(t *testing.T) {
	//各バッチの先頭だけ失敗させる
	failing := map[string]bool{"a": true, "f": true, "k": true}
	v := &fakeVendor{fail: func(it Item) bool { return failing[it.Key()] }}
	p := newTestPrefetcher(v, newFakeClock(), &recordingSleeper{})

	report := p.Run(context.Background(), makeItems(20))

	assert.Equal(t, int64(15), v.calls.Load())
	assert.Equal(t, 12, report.Fetched)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 5, report.Skipped)
	assert.True(t, report.BreakerOpen)
}

func TestPrefetcher_ResumesAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	fail := atomic.Bool{}
	fail.Store(true)
	v := &fakeVendor{fail: func(Item) bool { return fail.Load() }}
	p := newTestPrefetcher(v, clock, &recordingSleeper{})

	p.Run(context.Background(), makeItems(5))
	require.True(t, p.Breaker().State().Open)

	fail.Store(false)
	clock.Advance(60 * time.Second)

	report := p.Run(context.Background(), makeItems(5))
	assert.Equal(t, 5, report.Fetched)
	assert.False(t, report.BreakerOpen)
	assert.Equal(t, int64(10), v.calls.Load())
}

func TestPrefetcher_CancelledWhileWaiting(t *testing.T) {
	v := &fakeVendor{}
	cancelled := func(ctx context.Context, d time.Duration) error { return context.Canceled }
	p := NewPrefetcher(v, NewMemoryCache(), NewCircuitBreaker(3, time.Minute, newFakeClock()), zerolog.Nop(),
		WithSleeper(cancelled))

	report := p.Run(context.Background(), makeItems(7))

	assert.Equal(t, 5, report.Fetched)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, int64(5), v.calls.Load())
}

func TestVendorUnavailableError(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := error(&VendorUnavailableError{Key: "a-b", Err: base})

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "a-b")
}

// 取得中に呼び出し側が中断すると、失敗はブレーカーに数えない
type cancellingVendor struct {
	cancel context.CancelFunc
	calls  atomic.Int64
}

func (v *cancellingVendor) FetchPrice(ctx context.Context, it Item) (int64, error) {
	v.calls.Add(1)
	v.cancel()
	<-ctx.Done()
	return 0, &VendorUnavailableError{Key: it.Key(), Err: ctx.Err()}
}

func TestPrefetcher_CancelledDuringBatchDoesNotTripBreaker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := &cancellingVendor{cancel: cancel}
	p := newTestPrefetcher(v, newFakeClock(), &recordingSleeper{})

	report := p.Run(ctx, makeItems(7))

	assert.Equal(t, 5, report.Failed)
	assert.Equal(t, 2, report.Skipped)
	assert.False(t, report.BreakerOpen)
	assert.Equal(t, int64(5), v.calls.Load())

	st := p.Breaker().State()
	assert.False(t, st.Open)
	assert.Equal(t, 0, st.Failures)
}
