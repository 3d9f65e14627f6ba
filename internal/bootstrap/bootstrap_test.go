package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tickerboard/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func fakeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PROVIDER", "fake")
	t.Setenv("SOURCE_SPACING_MS", "0")
	t.Setenv("IDEMPOTENCY_BACKEND", "none")
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("SOURCES", "")
	t.Setenv("PORT", "0")
}

func TestInitOneShot_FakeProvider(t *testing.T) {
	fakeEnv(t)
	o, cleanup, err := InitOneShot(context.Background())
	require.NoError(t, err)
	defer cleanup()

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res, len(domain.DefaultSourceOrder))
	for i, r := range res {
		require.Equal(t, domain.DefaultSourceOrder[i], r.Source)
		require.Empty(t, r.Error)
		require.NotEmpty(t, r.Records)
	}
	v, err := o.svc.Latest(context.Background(), domain.SourceBybit)
	require.NoError(t, err)
	require.Len(t, v.Snapshots, 1)
}

func TestInitOneShot_SourcesFile(t *testing.T) {
	fakeEnv(t)
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`sources:
  - id: okx
  - id: binance
    enabled: false
  - id: upbit
`), 0o600))
	t.Setenv("SOURCES_FILE", path)

	o, cleanup, err := InitOneShot(context.Background())
	require.NoError(t, err)
	defer cleanup()
	require.Equal(t, []domain.SourceID{domain.SourceOKX, domain.SourceUpbit}, o.svc.Sources())
}

func TestInitOneShot_ConfigErrors(t *testing.T) {
	fakeEnv(t)
	t.Setenv("SOURCES", "okx,kraken")
	_, _, err := InitOneShot(context.Background())
	require.ErrorIs(t, err, domain.ErrUnknownSource)

	fakeEnv(t)
	t.Setenv("REFRESH_SCHEDULE", "hourly please")
	_, _, err = InitOneShot(context.Background())
	require.Error(t, err)

	fakeEnv(t)
	t.Setenv("IDEMPOTENCY_BACKEND", "memcached")
	_, _, err = InitOneShot(context.Background())
	require.Error(t, err)
}

func TestInitApp_ReadyAfterStartupPass(t *testing.T) {
	fakeEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("IDEMPOTENCY_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())

	app, cleanup, err := InitApp(context.Background())
	require.NoError(t, err)
	defer cleanup()

	get := func(path string) int {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}
	require.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
	require.Equal(t, http.StatusServiceUnavailable, get("/api/tickers/okx"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return get("/readyz") == http.StatusOK }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, http.StatusOK, get("/api/tickers/okx"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
