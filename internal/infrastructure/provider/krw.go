package provider

import (
	"context"
	"fmt"
	"strings"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/httpx"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	upbitURL   = "https://api.upbit.com"
	bithumbURL = "https://api.bithumb.com"
)

// krwQuote is one KRW-quoted ticker before conversion.
type krwQuote struct {
	base      string
	price     float64
	changePct float64
	volumeKRW float64
}

// convertKRW turns KRW quotes into USDT-equivalent tickers. The rate comes
// from the batch's own USDT/KRW ticker when present, otherwise fallback.
// names doubles as the allow-list when non-nil.
func convertKRW(quotes []krwQuote, fallback float64, names map[string]string, log *zap.Logger) []domain.Ticker {
	rate, found := fallback, false
	for _, q := range quotes {
		if q.base == domain.ReferenceQuote && q.price > 0 {
			rate, found = q.price, true
			break
		}
	}
	if !found {
		log.Warn("fx.fallback_rate",
			zap.Float64("krw_per_usd", fallback),
			zap.Error(domain.ErrAuxiliaryDataDegraded),
		)
	}

	out := make([]domain.Ticker, 0, len(quotes))
	for _, q := range quotes {
		if q.base == domain.ReferenceQuote || !allowed(names, q.base) {
			continue
		}
		t := domain.Ticker{
			Symbol:             domain.Symbol(q.base),
			LastPrice:          q.price / rate,
			PriceChangePercent: q.changePct,
			QuoteVolume:        q.volumeKRW / rate,
		}
		if n := names[q.base]; n != "" && !strings.EqualFold(n, q.base) {
			t.DisplayName = n
		}
		out = append(out, t)
	}
	return out
}

// krwMarkets parses the Upbit-style market list shared by Upbit and Bithumb:
// [{"market":"KRW-BTC","english_name":"Bitcoin"}, ...].
func krwMarkets(body gjson.Result) (map[string]string, error) {
	if !body.IsArray() {
		return nil, errUnexpectedShape
	}
	out := make(map[string]string)
	body.ForEach(func(_, m gjson.Result) bool {
		quote, baseAsset, ok := strings.Cut(m.Get("market").String(), "-")
		if ok && quote == "KRW" && baseAsset != "" {
			out[baseAsset] = m.Get("english_name").String()
		}
		return true
	})
	return out, nil
}

func newMarketList(b *base) *auxList {
	return newAuxList("markets", b.opts, func(ctx context.Context) (map[string]string, error) {
		body, err := b.get(ctx, "markets", b.opts.AuxBaseURL+"/v1/market/all?isDetails=false")
		if err != nil {
			return nil, err
		}
		m, err := krwMarkets(body)
		if err != nil {
			return nil, domain.NewUpstreamError(b.id, "markets", err)
		}
		return m, nil
	})
}

type Upbit struct {
	base
	markets *auxList
}

var _ application.SourceAdapter = (*Upbit)(nil)

func NewUpbit(c *httpx.Client, o Options) *Upbit {
	u := &Upbit{base: newBase(domain.SourceUpbit, c, o, upbitURL)}
	u.markets = newMarketList(&u.base)
	return u
}

// Fetch reads all KRW tickers; the change rate is a signed fraction.
func (u *Upbit) Fetch(ctx context.Context) (domain.FetchResult, error) {
	names := u.markets.load(ctx, u.log)

	body, err := u.get(ctx, "tickers", u.opts.BaseURL+"/v1/ticker/all?quote_currencies=KRW")
	if err != nil {
		return domain.FetchResult{}, err
	}
	if !body.IsArray() {
		return domain.FetchResult{}, domain.NewUpstreamError(u.id, "tickers", errUnexpectedShape)
	}
	var quotes []krwQuote
	body.ForEach(func(_, t gjson.Result) bool {
		quote, baseAsset, ok := strings.Cut(t.Get("market").String(), "-")
		if !ok || quote != "KRW" || baseAsset == "" {
			return true
		}
		v, ok := nums(t, "trade_price", "signed_change_rate", "acc_trade_price_24h")
		if !ok {
			return true
		}
		quotes = append(quotes, krwQuote{base: baseAsset, price: v[0], changePct: v[1] * 100, volumeKRW: v[2]})
		return true
	})
	return u.rank(convertKRW(quotes, u.opts.KRWPerUSD, names, u.log)), nil
}

type Bithumb struct {
	base
	markets *auxList
}

var _ application.SourceAdapter = (*Bithumb)(nil)

func NewBithumb(c *httpx.Client, o Options) *Bithumb {
	b := &Bithumb{base: newBase(domain.SourceBithumb, c, o, bithumbURL)}
	b.markets = newMarketList(&b.base)
	return b
}

// Fetch reads the ALL_KRW ticker map. Its "data" object mixes per-asset
// objects with a "date" string; the change rate is already in percent.
func (b *Bithumb) Fetch(ctx context.Context) (domain.FetchResult, error) {
	names := b.markets.load(ctx, b.log)

	body, err := b.get(ctx, "tickers", b.opts.BaseURL+"/public/ticker/ALL_KRW")
	if err != nil {
		return domain.FetchResult{}, err
	}
	if status := body.Get("status").String(); status != "0000" {
		return domain.FetchResult{}, domain.NewUpstreamError(b.id, "tickers",
			fmt.Errorf("status %q: %s", status, body.Get("message").String()))
	}
	data := body.Get("data")
	if !data.IsObject() {
		return domain.FetchResult{}, domain.NewUpstreamError(b.id, "tickers", errUnexpectedShape)
	}
	var quotes []krwQuote
	data.ForEach(func(k, t gjson.Result) bool {
		if !t.IsObject() {
			return true
		}
		v, ok := nums(t, "closing_price", "fluctate_rate_24H", "acc_trade_value_24H")
		if !ok {
			return true
		}
		quotes = append(quotes, krwQuote{base: k.String(), price: v[0], changePct: v[1], volumeKRW: v[2]})
		return true
	})
	return b.rank(convertKRW(quotes, b.opts.KRWPerUSD, names, b.log)), nil
}
