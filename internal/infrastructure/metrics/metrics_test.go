package metrics

import (
	"testing"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserver(t *testing.T) {
	var o Observer
	before := testutil.ToFloat64(refreshTotal.WithLabelValues("okx", application.OutcomeFetched))

	o.ObserveRefresh(domain.SourceOKX, application.OutcomeFetched, 250*time.Millisecond)
	o.ObserveRefresh(domain.SourceOKX, application.OutcomeCached, 0)
	o.ObserveState(domain.SourceOKX, 100, 3)

	require.InDelta(t, before+1, testutil.ToFloat64(refreshTotal.WithLabelValues("okx", application.OutcomeFetched)), 1e-9)
	require.InDelta(t, 100, testutil.ToFloat64(records.WithLabelValues("okx")), 1e-9)
	require.InDelta(t, 3, testutil.ToFloat64(snapshots.WithLabelValues("okx")), 1e-9)
}

func TestObserveUpstream(t *testing.T) {
	c := upstreamAttempts.WithLabelValues("api.bybit.com", "retryable")
	before := testutil.ToFloat64(c)
	ObserveUpstream("api.bybit.com", "retryable")
	require.InDelta(t, before+1, testutil.ToFloat64(c), 1e-9)
}
