package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	infraconfig "tickerboard/internal/infrastructure/config"
	"tickerboard/internal/infrastructure/httpx"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var errUnexpectedShape = errors.New("unexpected response shape")

// Options parameterize one adapter.
type Options struct {
	BaseURL string
	// AuxBaseURL serves the allow-list endpoint; defaults to BaseURL.
	AuxBaseURL string
	TopN       int
	AuxTTL     time.Duration
	// KRWPerUSD is the fallback rate for KRW sources without a USDT ticker.
	KRWPerUSD float64
	Clock     application.Clock
	Log       *zap.Logger
}

func (o Options) withDefaults(baseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.AuxBaseURL == "" {
		o.AuxBaseURL = o.BaseURL
	}
	o.AuxBaseURL = strings.TrimRight(o.AuxBaseURL, "/")
	if o.TopN <= 0 || o.TopN > domain.DefaultTopN {
		o.TopN = domain.DefaultTopN
	}
	if o.AuxTTL <= 0 {
		o.AuxTTL = infraconfig.DefaultAuxTTL
	}
	if o.KRWPerUSD <= 0 {
		o.KRWPerUSD = infraconfig.DefaultKRWPerUSD
	}
	if o.Clock == nil {
		o.Clock = application.SystemClock()
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

type base struct {
	id   domain.SourceID
	http *httpx.Client
	opts Options
	log  *zap.Logger
}

func newBase(id domain.SourceID, c *httpx.Client, o Options, defaultURL string) base {
	o = o.withDefaults(defaultURL)
	return base{id: id, http: c, opts: o, log: o.Log.With(zap.String("source", string(id)))}
}

func (b *base) ID() domain.SourceID { return b.id }

func (b *base) get(ctx context.Context, op, rawURL string) (gjson.Result, error) {
	body, err := b.http.Get(ctx, rawURL)
	if err != nil {
		return gjson.Result{}, domain.NewUpstreamError(b.id, op, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, domain.NewUpstreamError(b.id, op, errUnexpectedShape)
	}
	return gjson.ParseBytes(body), nil
}

func (b *base) rank(items []domain.Ticker) domain.FetchResult {
	return domain.RankByVolume(items, b.opts.TopN, b.opts.Clock.Now())
}

// auxList caches a rarely changing lookup (allow-list, names). A failed
// reload falls back to the last good value, or to nil when there never was
// one; nil means "do not filter".
type auxList struct {
	name  string
	cache *application.Freshness[map[string]string]
	fetch func(ctx context.Context) (map[string]string, error)
}

func newAuxList(name string, o Options, fetch func(ctx context.Context) (map[string]string, error)) *auxList {
	return &auxList{
		name:  name,
		cache: application.NewFreshness[map[string]string](o.AuxTTL, o.Clock),
		fetch: fetch,
	}
}

func (a *auxList) load(ctx context.Context, log *zap.Logger) map[string]string {
	if a.cache.IsValid() {
		v, _, _ := a.cache.Get()
		return v
	}
	v, err := a.fetch(ctx)
	if err == nil && len(v) > 0 {
		a.cache.Set(v)
		return v
	}
	if err == nil {
		err = errors.New("empty list")
	}
	prev, at, ok := a.cache.Get()
	log.Warn("aux.degraded",
		zap.String("list", a.name),
		zap.Bool("using_previous", ok),
		zap.Time("previous_at", at),
		zap.Error(fmt.Errorf("%w: %w", domain.ErrAuxiliaryDataDegraded, err)),
	)
	if ok {
		return prev
	}
	return nil
}

// num reads a JSON number or numeric string; non-finite values are rejected.
func num(r gjson.Result) (float64, bool) {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// nums reads all fields or fails.
func nums(obj gjson.Result, paths ...string) ([]float64, bool) {
	out := make([]float64, len(paths))
	for i, p := range paths {
		v, ok := num(obj.Get(p))
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func allowed(allow map[string]string, key string) bool {
	if allow == nil {
		return true
	}
	_, ok := allow[key]
	return ok
}
