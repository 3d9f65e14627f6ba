package application

import (
	"fmt"
	"testing"
	"time"

	"tickerboard/internal/domain"

	"github.com/stretchr/testify/require"
)

func resultWith(vol float64) domain.FetchResult {
	return domain.RankByVolume([]domain.Ticker{
		{Symbol: "BTCUSDT", QuoteVolume: vol},
		{Symbol: "ETHUSDT", QuoteVolume: vol / 2},
	}, domain.DefaultTopN, t0)
}

func TestSnapshotStore_FIFOEviction(t *testing.T) {
	t.Parallel()
	clock := newFakeClock(t0)
	s := NewSnapshotStore(6, time.UTC, clock)

	for i := 0; i < 7; i++ {
		s.Record(domain.SourceBinance, resultWith(float64(100+i)))
		clock.Advance(time.Hour)
	}

	h := s.History(domain.SourceBinance)
	require.Len(t, h, 6)
	for i, snap := range h {
		require.Equal(t, fmt.Sprintf("%02d:00", 10+i), snap.Label)
		require.InDelta(t, float64(101+i), snap.Rankings["BTCUSDT"].Volume, 1e-9)
	}
}

func TestSnapshotStore_HistoryIsACopy(t *testing.T) {
	t.Parallel()
	clock := newFakeClock(t0)
	s := NewSnapshotStore(2, time.UTC, clock)
	s.Record(domain.SourceOKX, resultWith(1))
	s.Record(domain.SourceOKX, resultWith(2))
	before := s.History(domain.SourceOKX)

	clock.Advance(time.Hour)
	s.Record(domain.SourceOKX, resultWith(3))

	require.Len(t, before, 2)
	require.InDelta(t, 1.0, before[0].Rankings["BTCUSDT"].Volume, 1e-9)
	require.InDelta(t, 2.0, s.History(domain.SourceOKX)[0].Rankings["BTCUSDT"].Volume, 1e-9)
}

func TestSnapshotStore_PerSourceAndEmpty(t *testing.T) {
	t.Parallel()
	s := NewSnapshotStore(0, nil, newFakeClock(t0))
	require.Empty(t, s.History(domain.SourceUpbit))

	snap := s.Record(domain.SourceUpbit, resultWith(10))
	require.Equal(t, 1, s.Len(domain.SourceUpbit))
	require.Equal(t, 0, s.Len(domain.SourceBithumb))
	require.Equal(t, domain.Ranking{Rank: 2, Volume: 5}, snap.Rankings["ETHUSDT"])

	// depth 0 falls back to the default
	for i := 0; i < domain.DefaultHistoryDepth+2; i++ {
		s.Record(domain.SourceUpbit, resultWith(10))
	}
	require.Equal(t, domain.DefaultHistoryDepth, s.Len(domain.SourceUpbit))
}
