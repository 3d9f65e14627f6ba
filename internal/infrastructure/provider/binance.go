package provider

import (
	"context"
	"strings"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/httpx"

	"github.com/tidwall/gjson"
)

const (
	binanceSpotURL    = "https://api.binance.com"
	binanceFuturesURL = "https://fapi.binance.com"
)

// Binance serves both the spot and the USDT-M futures market; they differ
// only in host, paths and which listed instruments count as tradable.
type Binance struct {
	base
	tickerPath string
	listed     *auxList
}

var _ application.SourceAdapter = (*Binance)(nil)

func NewBinanceSpot(c *httpx.Client, o Options) *Binance {
	return newBinance(domain.SourceBinance, c, o, binanceSpotURL,
		"/api/v3/exchangeInfo", "/api/v3/ticker/24hr",
		func(s gjson.Result) bool { return s.Get("status").String() == "TRADING" })
}

func NewBinanceFutures(c *httpx.Client, o Options) *Binance {
	return newBinance(domain.SourceBinanceFutures, c, o, binanceFuturesURL,
		"/fapi/v1/exchangeInfo", "/fapi/v1/ticker/24hr",
		func(s gjson.Result) bool {
			return s.Get("status").String() == "TRADING" && s.Get("contractType").String() == "PERPETUAL"
		})
}

func newBinance(id domain.SourceID, c *httpx.Client, o Options, defaultURL, infoPath, tickerPath string, tradable func(gjson.Result) bool) *Binance {
	b := &Binance{base: newBase(id, c, o, defaultURL), tickerPath: tickerPath}
	b.listed = newAuxList("exchange_info", b.opts, func(ctx context.Context) (map[string]string, error) {
		info, err := b.get(ctx, "exchange_info", b.opts.AuxBaseURL+infoPath)
		if err != nil {
			return nil, err
		}
		syms := info.Get("symbols")
		if !syms.IsArray() {
			return nil, domain.NewUpstreamError(b.id, "exchange_info", errUnexpectedShape)
		}
		out := make(map[string]string)
		syms.ForEach(func(_, s gjson.Result) bool {
			if s.Get("quoteAsset").String() == domain.ReferenceQuote && tradable(s) {
				out[s.Get("symbol").String()] = ""
			}
			return true
		})
		return out, nil
	})
	return b
}

func (b *Binance) Fetch(ctx context.Context) (domain.FetchResult, error) {
	allow := b.listed.load(ctx, b.log)

	body, err := b.get(ctx, "tickers", b.opts.BaseURL+b.tickerPath)
	if err != nil {
		return domain.FetchResult{}, err
	}
	if !body.IsArray() {
		return domain.FetchResult{}, domain.NewUpstreamError(b.id, "tickers", errUnexpectedShape)
	}
	var items []domain.Ticker
	body.ForEach(func(_, t gjson.Result) bool {
		sym := t.Get("symbol").String()
		if len(sym) <= len(domain.ReferenceQuote) || !strings.HasSuffix(sym, domain.ReferenceQuote) || !allowed(allow, sym) {
			return true
		}
		v, ok := nums(t, "lastPrice", "priceChangePercent", "quoteVolume")
		if !ok {
			return true
		}
		items = append(items, domain.Ticker{
			Symbol:             sym,
			LastPrice:          v[0],
			PriceChangePercent: v[1],
			QuoteVolume:        v[2],
		})
		return true
	})
	return b.rank(items), nil
}
