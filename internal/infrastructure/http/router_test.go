package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/http/openapi"
	"tickerboard/internal/infrastructure/worker"

	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) openapi.Error {
	t.Helper()
	var e openapi.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHealthz(t *testing.T) {
	h := NewRouter(newFixture(t).srv)
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestReadyz(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.srv)

	rec := do(t, h, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, 503, decodeError(t, rec).Code)

	f.sched.ready = true
	rec = do(t, h, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "READY", rec.Body.String())

	f.srv.AddReadyCheck(func(context.Context) error { return errors.New("redis down") })
	rec = do(t, h, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "redis down", decodeError(t, rec).Message)
}

func TestGetTickers_NoDataYet(t *testing.T) {
	h := NewRouter(newFixture(t).srv)
	rec := do(t, h, http.MethodGet, "/api/tickers/binance", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	e := decodeError(t, rec)
	require.Equal(t, 503, e.Code)
	require.Contains(t, e.Message, "no data available")
}

func TestGetTickers_UnknownSource(t *testing.T) {
	h := NewRouter(newFixture(t).srv)
	rec := do(t, h, http.MethodGet, "/api/tickers/kraken", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 404, decodeError(t, rec).Code)
}

func TestGetTickers_DataAndSnapshots(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), domain.SourceBinance, true)
	require.NoError(t, err)
	h := NewRouter(f.srv)

	rec := do(t, h, http.MethodGet, "/api/tickers/BINANCE", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp openapi.TickersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	require.Equal(t, "BTCUSDT", resp.Data[0].Symbol)
	require.Nil(t, resp.Data[0].DisplayName)
	require.NotNil(t, resp.Data[2].DisplayName)
	require.Equal(t, "Solana", *resp.Data[2].DisplayName)
	require.Equal(t, t0.UnixMilli(), resp.Timestamp)
	require.Equal(t, 3, resp.Total)
	require.NotNil(t, resp.Snapshots)
	require.Len(t, *resp.Snapshots, 1)
	snap := (*resp.Snapshots)[0]
	require.Equal(t, "09:00", snap.Time)
	require.Equal(t, openapi.Ranking{Rank: 2, Volume: 500}, snap.Rankings["ETHUSDT"])

	// reads never add snapshots
	rec = do(t, h, http.MethodGet, "/api/tickers/binance", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, *resp.Snapshots, 1)
}

func TestGetTickers_QueryOptions(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), domain.SourceBinance, true)
	require.NoError(t, err)
	h := NewRouter(f.srv)

	rec := do(t, h, http.MethodGet, "/api/tickers/binance?limit=1&snapshots=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.NotContains(t, raw, "snapshots")
	var resp openapi.TickersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, 3, resp.Total)

	for _, q := range []string{"limit=0", "limit=101", "limit=abc", "snapshots=maybe"} {
		rec = do(t, h, http.MethodGet, "/api/tickers/binance?"+q, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, q)
		require.Equal(t, 400, decodeError(t, rec).Code, q)
	}
}

func TestRefreshTickers(t *testing.T) {
	f := newFixture(t)
	h := NewRouter(f.srv)

	rec := do(t, h, http.MethodPost, "/api/tickers/okx/refresh", map[string]string{
		"X-Idempotency-Key": "k1",
		"X-Request-ID":      "req-1",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	var resp openapi.RefreshAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, openapi.RefreshAccepted{Source: "okx", Status: "queued"}, resp)
	require.Len(t, f.queue.msgs, 1)
	require.Equal(t, worker.RefreshMsg{Source: domain.SourceOKX, RequestID: "req-1", TraceID: rec.Header().Get("X-Trace-Id")}, f.queue.msgs[0])

	rec = do(t, h, http.MethodPost, "/api/tickers/okx/refresh", map[string]string{"X-Idempotency-Key": "k1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Len(t, f.queue.msgs, 1)

	rec = do(t, h, http.MethodPost, "/api/tickers/kraken/refresh", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	f.queue.full = true
	rec = do(t, h, http.MethodPost, "/api/tickers/binance/refresh", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// manual refresh never snapshots and never fetches inline
	_, err := f.svc.Latest(context.Background(), domain.SourceOKX)
	require.ErrorIs(t, err, domain.ErrNoDataAvailable)
}

func TestListSources(t *testing.T) {
	h := NewRouter(newFixture(t).srv)
	rec := do(t, h, http.MethodGet, "/api/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp openapi.SourcesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []openapi.Source{
		{Id: "binance", Name: "Binance Spot"},
		{Id: "okx", Name: "OKX Spot"},
	}, resp.Sources)
}

func TestGetHealth(t *testing.T) {
	f := newFixture(t)
	f.sched.state = worker.StateRefreshing
	_, err := f.svc.Refresh(context.Background(), domain.SourceBinance, true)
	require.NoError(t, err)
	h := NewRouter(f.srv)

	rec := do(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp openapi.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "refreshing", resp.Scheduler)
	require.InDelta(t, 90, resp.Uptime, 1e-9)
	require.Equal(t, t0.UnixMilli(), resp.StartedAt)

	bin := resp.Sources["binance"]
	require.True(t, bin.HasData)
	require.Equal(t, 1, bin.SnapshotCount)
	require.NotNil(t, bin.LastUpdate)
	require.Equal(t, t0.UnixMilli(), *bin.LastUpdate)
	require.Equal(t, openapi.SourceHealth{}, resp.Sources["okx"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(newFixture(t).srv)
	do(t, h, http.MethodGet, "/api/sources", nil)
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `tickerboard_http_requests_total{method="GET",route="/api/sources",status="200"}`)
}

func TestOpenAPIAndSwagger(t *testing.T) {
	h := NewRouter(newFixture(t).srv)

	rec := do(t, h, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "/api/tickers/{source}/refresh")

	rec = do(t, h, http.MethodGet, "/swagger", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `url: "/openapi.yaml"`)
	// the page never mints idempotency keys on its own
	require.NotContains(t, rec.Body.String(), "X-Idempotency-Key")
}
