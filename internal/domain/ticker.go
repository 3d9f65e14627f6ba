package domain

import (
	"sort"
	"time"
)

const (
	// ReferenceQuote is the quote asset every symbol is normalized to.
	ReferenceQuote = "USDT"
	DefaultTopN    = 100
)

type Ticker struct {
	Symbol             string
	DisplayName        string
	LastPrice          float64
	PriceChangePercent float64
	QuoteVolume        float64
}

type FetchResult struct {
	Records         []Ticker
	FetchedAt       time.Time
	TotalConsidered int
}

// Symbol builds the canonical <BASE><QUOTE> identifier.
func Symbol(base string) string { return base + ReferenceQuote }

// RankByVolume orders tickers by quote volume (highest first) and keeps the
// top n, never more than DefaultTopN. Duplicate symbols collapse to their highest-volume entry; ties are
// broken by symbol so results are deterministic.
func RankByVolume(items []Ticker, topN int, fetchedAt time.Time) FetchResult {
	if topN <= 0 || topN > DefaultTopN {
		topN = DefaultTopN
	}
	best := make(map[string]int, len(items))
	uniq := make([]Ticker, 0, len(items))
	for _, t := range items {
		if i, ok := best[t.Symbol]; ok {
			if t.QuoteVolume > uniq[i].QuoteVolume {
				uniq[i] = t
			}
			continue
		}
		best[t.Symbol] = len(uniq)
		uniq = append(uniq, t)
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		if uniq[i].QuoteVolume != uniq[j].QuoteVolume {
			return uniq[i].QuoteVolume > uniq[j].QuoteVolume
		}
		return uniq[i].Symbol < uniq[j].Symbol
	})
	total := len(uniq)
	if len(uniq) > topN {
		uniq = uniq[:topN:topN]
	}
	return FetchResult{Records: uniq, FetchedAt: fetchedAt, TotalConsidered: total}
}
