package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Item は価格を先読みする1バリアント
type Item struct {
	ProductID string   `yaml:"product_id" json:"product_id"`
	OptionIDs []string `yaml:"option_ids" json:"option_ids"`
}

// Key はキャッシュのキー。オプションが無い商品は商品IDそのもの
func (it Item) Key() string {
	if k := VariantKey(it.OptionIDs); k != "" {
		return k
	}
	return strings.TrimSpace(it.ProductID)
}

type VendorClient interface {
	FetchPrice(ctx context.Context, item Item) (int64, error)
}

// HTTPVendorClient は外部の価格APIを叩く。レートリミット付き
type HTTPVendorClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewHTTPVendorClient(baseURL, apiKey string, timeout time.Duration, rps float64) *HTTPVendorClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &HTTPVendorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type priceResponse struct {
	PriceCents int64 `json:"price_cents"`
}

func (c *HTTPVendorClient) FetchPrice(ctx context.Context, item Item) (int64, error) {
	key := item.Key()

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, &VendorUnavailableError{Key: key, Err: err}
	}

	q := url.Values{}
	q.Set("product_id", item.ProductID)
	q.Set("variant", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prices?"+q.Encode(), nil)
	if err != nil {
		return 0, &VendorUnavailableError{Key: key, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &VendorUnavailableError{Key: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &VendorUnavailableError{Key: key, StatusCode: resp.StatusCode}
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, &VendorUnavailableError{Key: key, Err: fmt.Errorf("decode price: %w", err)}
	}
	if body.PriceCents < 0 {
		return 0, &VendorUnavailableError{Key: key, Err: fmt.Errorf("negative price %d", body.PriceCents)}
	}
	return body.PriceCents, nil
}
