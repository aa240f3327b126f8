package pricing

import (
	"sort"
	"strings"
	"sync"
)

// VariantKey はオプションIDを並べ替えてハイフンでつなぐ（順不同で同じキー）
func VariantKey(optionIDs []string) string {
	ids := make([]string, 0, len(optionIDs))
	for _, id := range optionIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, "-")
}

// MemoryCache はプロセス内の variant key → 価格（セント）
type MemoryCache struct {
	mu     sync.RWMutex
	prices map[string]int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{prices: map[string]int64{}}
}

func (c *MemoryCache) Get(key string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[key]
	return p, ok
}

func (c *MemoryCache) Set(key string, priceCents int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[key] = priceCents
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}
