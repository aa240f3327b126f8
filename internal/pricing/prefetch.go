package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = time.Second
)

// Sleeper はバッチ間の待ち。テストでは差し替える
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type PrefetchReport struct {
	Requested   int      `json:"requested"`
	Fetched     int      `json:"fetched"`
	Failed      int      `json:"failed"`
	Skipped     int      `json:"skipped"`
	BreakerOpen bool     `json:"breaker_open"`
	FailedKeys  []string `json:"failed_keys,omitempty"`
}

type Prefetcher struct {
	vendor    VendorClient
	cache     *MemoryCache
	breaker   *CircuitBreaker
	batchSize int
	delay     time.Duration
	sleep     Sleeper
	log       zerolog.Logger
}

type PrefetcherOption func(p *Prefetcher)

func WithBatchSize(n int) PrefetcherOption {
	return func(p *Prefetcher) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithBatchDelay(d time.Duration) PrefetcherOption {
	return func(p *Prefetcher) { p.delay = d }
}

func WithSleeper(s Sleeper) PrefetcherOption {
	return func(p *Prefetcher) {
		if s != nil {
			p.sleep = s
		}
	}
}

func NewPrefetcher(vendor VendorClient, cache *MemoryCache, breaker *CircuitBreaker, log zerolog.Logger, opts ...PrefetcherOption) *Prefetcher {
	p := &Prefetcher{
		vendor:    vendor,
		cache:     cache,
		breaker:   breaker,
		batchSize: DefaultBatchSize,
		delay:     DefaultBatchDelay,
		sleep:     sleepContext,
		log:       log.With().Str("component", "prefetch").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prefetcher) Breaker() *CircuitBreaker { return p.breaker }

func (p *Prefetcher) Cache() *MemoryCache { return p.cache }

// Run はitemsを5件ずつ並列に取得する。バッチ同士は順番に、間を1秒あける。
// ブレーカーが開いたら残りは呼ばずにスキップする。ベンダーのエラーは返さずレポートに数える
func (p *Prefetcher) Run(ctx context.Context, items []Item) PrefetchReport {
	report := PrefetchReport{Requested: len(items)}

	for start := 0; start < len(items); start += p.batchSize {
		end := start + p.batchSize
		if end > len(items) {
			end = len(items)
		}

		if !p.breaker.Allow() {
			report.Skipped += len(items) - start
			report.BreakerOpen = true
			p.log.Warn().Int("skipped", len(items)-start).Msg("circuit open; skipping remaining batches")
			break
		}

		if start > 0 && p.delay > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				report.Skipped += len(items) - start
				p.log.Warn().Err(err).Msg("prefetch cancelled")
				break
			}
		}

		failedKeys := p.runBatch(ctx, items[start:end])
		failed := len(failedKeys)
		report.Failed += failed
		report.Fetched += (end - start) - failed
		report.FailedKeys = append(report.FailedKeys, failedKeys...)

		//呼び出し側の中断はベンダーの失敗として数えない
		if err := ctx.Err(); err != nil {
			report.Skipped += len(items) - end
			p.log.Warn().Err(err).Msg("prefetch cancelled during batch")
			break
		}
		p.breaker.RecordBatch(failed)
	}

	if st := p.breaker.State(); st.Open {
		report.BreakerOpen = true
	}

	p.log.Info().
		Int("requested", report.Requested).
		Int("fetched", report.Fetched).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Bool("breaker_open", report.BreakerOpen).
		Msg("prefetch finished")
	return report
}

// 1件の失敗で他を止めないよう、goroutineは常にnilを返す
func (p *Prefetcher) runBatch(ctx context.Context, batch []Item) []string {
	errs := make([]error, len(batch))

	var g errgroup.Group
	for i, it := range batch {
		i, it := i, it
		g.Go(func() error {
			price, err := p.vendor.FetchPrice(ctx, it)
			if err != nil {
				errs[i] = err
				return nil
			}
			p.cache.Set(it.Key(), price)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		key := batch[i].Key()
		failed = append(failed, key)
		p.log.Warn().Err(err).Str("key", key).Msg("price fetch failed")
	}
	return failed
}
