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

const okxURL = "https://www.okx.com"

type OKX struct{ base }

var _ application.SourceAdapter = (*OKX)(nil)

func NewOKX(c *httpx.Client, o Options) *OKX {
	return &OKX{base: newBase(domain.SourceOKX, c, o, okxURL)}
}

// Fetch reads spot tickers. OKX has no change field, so the change is
// derived from the 24h open; volCcy24h is already in the quote currency.
func (x *OKX) Fetch(ctx context.Context) (domain.FetchResult, error) {
	body, err := x.get(ctx, "tickers", x.opts.BaseURL+"/api/v5/market/tickers?instType=SPOT")
	if err != nil {
		return domain.FetchResult{}, err
	}
	if code := body.Get("code").String(); code != "0" {
		return domain.FetchResult{}, domain.NewUpstreamError(x.id, "tickers",
			fmt.Errorf("code %q: %s", code, body.Get("msg").String()))
	}
	data := body.Get("data")
	if !data.IsArray() {
		return domain.FetchResult{}, domain.NewUpstreamError(x.id, "tickers", errUnexpectedShape)
	}
	var items []domain.Ticker
	data.ForEach(func(_, t gjson.Result) bool {
		baseAsset, quote, ok := strings.Cut(t.Get("instId").String(), "-")
		if !ok || baseAsset == "" || quote != domain.ReferenceQuote {
			return true
		}
		v, ok := nums(t, "last", "open24h", "volCcy24h")
		if !ok {
			return true
		}
		var change float64
		if v[1] > 0 {
			change = (v[0] - v[1]) / v[1] * 100
		}
		items = append(items, domain.Ticker{
			Symbol:             domain.Symbol(baseAsset),
			LastPrice:          v[0],
			PriceChangePercent: change,
			QuoteVolume:        v[2],
		})
		return true
	})
	return x.rank(items), nil
}
