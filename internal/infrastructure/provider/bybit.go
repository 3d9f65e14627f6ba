package provider

import (
	"context"
	"fmt"
	"strings"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/httpx"

	"github.com/tidwall/gjson"
)

const bybitURL = "https://api.bybit.com"

type Bybit struct{ base }

var _ application.SourceAdapter = (*Bybit)(nil)

func NewBybit(c *httpx.Client, o Options) *Bybit {
	return &Bybit{base: newBase(domain.SourceBybit, c, o, bybitURL)}
}

// Fetch reads spot tickers. Bybit reports the 24h change as a fraction and
// the quote volume as turnover.
func (b *Bybit) Fetch(ctx context.Context) (domain.FetchResult, error) {
	body, err := b.get(ctx, "tickers", b.opts.BaseURL+"/v5/market/tickers?category=spot")
	if err != nil {
		return domain.FetchResult{}, err
	}
	if code := body.Get("retCode"); !code.Exists() || code.Int() != 0 {
		return domain.FetchResult{}, domain.NewUpstreamError(b.id, "tickers",
			fmt.Errorf("retCode %s: %s", code.Raw, body.Get("retMsg").String()))
	}
	list := body.Get("result.list")
	if !list.IsArray() {
		return domain.FetchResult{}, domain.NewUpstreamError(b.id, "tickers", errUnexpectedShape)
	}
	var items []domain.Ticker
	list.ForEach(func(_, t gjson.Result) bool {
		sym := t.Get("symbol").String()
		if len(sym) <= len(domain.ReferenceQuote) || !strings.HasSuffix(sym, domain.ReferenceQuote) {
			return true
		}
		v, ok := nums(t, "lastPrice", "price24hPcnt", "turnover24h")
		if !ok {
			return true
		}
		items = append(items, domain.Ticker{
			Symbol:             sym,
			LastPrice:          v[0],
			PriceChangePercent: v[1] * 100,
			QuoteVolume:        v[2],
		})
		return true
	})
	return b.rank(items), nil
}
