package provider

import (
	"fmt"

	"tickerboard/internal/application"
	"tickerboard/internal/config"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/httpx"

	"go.uber.org/zap"
)

type constructor func(c *httpx.Client, o Options) application.SourceAdapter

var constructors = map[domain.SourceID]constructor{
	domain.SourceBinance:        func(c *httpx.Client, o Options) application.SourceAdapter { return NewBinanceSpot(c, o) },
	domain.SourceBinanceFutures: func(c *httpx.Client, o Options) application.SourceAdapter { return NewBinanceFutures(c, o) },
	domain.SourceBybit:          func(c *httpx.Client, o Options) application.SourceAdapter { return NewBybit(c, o) },
	domain.SourceOKX:            func(c *httpx.Client, o Options) application.SourceAdapter { return NewOKX(c, o) },
	domain.SourceUpbit:          func(c *httpx.Client, o Options) application.SourceAdapter { return NewUpbit(c, o) },
	domain.SourceBithumb:        func(c *httpx.Client, o Options) application.SourceAdapter { return NewBithumb(c, o) },
}

// Build creates one adapter per enabled source in cfg.Sources order.
// PROVIDER=fake swaps every adapter for a Fake.
func Build(cfg config.Config, overrides map[string]config.SourceOverride, c *httpx.Client, clock application.Clock, log *zap.Logger) ([]application.SourceAdapter, error) {
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("provider: no sources enabled")
	}
	if log == nil {
		log = zap.NewNop()
	}
	out := make([]application.SourceAdapter, 0, len(cfg.Sources))
	for _, raw := range cfg.Sources {
		id := domain.SourceID(raw)
		ctor, ok := constructors[id]
		if !ok {
			return nil, fmt.Errorf("provider: %w: %s", domain.ErrUnknownSource, raw)
		}
		switch cfg.Provider {
		case "fake":
			out = append(out, NewFake(id, clock))
			continue
		case "", "exchanges":
		default:
			return nil, fmt.Errorf("provider: unknown PROVIDER %q", cfg.Provider)
		}
		ov := overrides[raw]
		out = append(out, ctor(c, Options{
			BaseURL:    ov.BaseURL,
			AuxBaseURL: ov.AuxBaseURL,
			TopN:       cfg.TopN,
			AuxTTL:     cfg.AuxTTL,
			KRWPerUSD:  cfg.KRWFallbackRate,
			Clock:      clock,
			Log:        log,
		}))
	}
	return out, nil
}
