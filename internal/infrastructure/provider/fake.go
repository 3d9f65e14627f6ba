package provider

import (
	"context"
	"hash/fnv"
	"math"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
)

// Ensure Fake implements application.SourceAdapter.
var _ application.SourceAdapter = (*Fake)(nil)

var fakeAssets = []string{
	"BTC", "ETH", "SOL", "XRP", "DOGE", "ADA", "AVAX", "LINK", "DOT", "TRX",
	"TON", "SUI", "PEPE", "SHIB", "LTC", "BCH", "NEAR", "APT", "ARB", "OP",
}

// Fake produces a deterministic ranking per source for local runs without
// network access (PROVIDER=fake). Volumes drift with each call so snapshots
// show rank movement.
type Fake struct {
	id    domain.SourceID
	seed  uint32
	calls int
	clock application.Clock
}

func NewFake(id domain.SourceID, clock application.Clock) *Fake {
	if clock == nil {
		clock = application.SystemClock()
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &Fake{id: id, seed: h.Sum32(), clock: clock}
}

func (f *Fake) ID() domain.SourceID { return f.id }

func (f *Fake) Fetch(_ context.Context) (domain.FetchResult, error) {
	f.calls++
	items := make([]domain.Ticker, 0, len(fakeAssets))
	for i, a := range fakeAssets {
		phase := float64(f.seed%97+uint32(i)*13) + float64(f.calls)
		vol := 1e6 * float64(len(fakeAssets)-i) * (1.5 + math.Sin(phase))
		items = append(items, domain.Ticker{
			Symbol:             domain.Symbol(a),
			LastPrice:          float64(i+1) * 1.25,
			PriceChangePercent: 10 * math.Sin(phase/3),
			QuoteVolume:        vol,
		})
	}
	return domain.RankByVolume(items, domain.DefaultTopN, f.clock.Now()), nil
}
