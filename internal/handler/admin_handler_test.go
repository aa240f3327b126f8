package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/pricing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// release が閉じられるまで返らないベンダー
type blockingVendor struct {
	entered chan struct{}
	release chan struct{}
}

func (v *blockingVendor) FetchPrice(ctx context.Context, it pricing.Item) (int64, error) {
	select {
	case v.entered <- struct{}{}:
	default:
	}
	<-v.release
	return 100, nil
}

func postPrefetch(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/prices/prefetch", strings.NewReader(`{"items":[{"product_id":"p1"}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminHandler_PrefetchRunsOneAtATime(t *testing.T) {
	v := &blockingVendor{entered: make(chan struct{}, 1), release: make(chan struct{})}
	p := pricing.NewPrefetcher(v, pricing.NewMemoryCache(), pricing.NewCircuitBreaker(0, 0, pricing.SystemClock{}), zerolog.Nop())

	e := echo.New()
	NewAdminHandler(nil, nil, p).RegisterRoutes(e.Group("/admin"))

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- postPrefetch(e) }()

	select {
	case <-v.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first prefetch did not reach the vendor")
	}

	assert.Equal(t, http.StatusConflict, postPrefetch(e).Code)

	close(v.release)
	rec := <-first
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 終わった後はまた受け付ける
	assert.Equal(t, http.StatusOK, postPrefetch(e).Code)
}
