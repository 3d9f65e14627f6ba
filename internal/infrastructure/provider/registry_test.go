package provider

import (
	"testing"

	"tickerboard/internal/config"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_KeepsOrderAndOverrides(t *testing.T) {
	cfg := config.Config{Provider: "exchanges", Sources: []string{"okx", "binance", "bithumb"}, TopN: 10}
	overrides := map[string]config.SourceOverride{
		"okx":     {ID: "okx", BaseURL: "http://okx.local/"},
		"bithumb": {ID: "bithumb", AuxBaseURL: "http://markets.local"},
	}
	got, err := Build(cfg, overrides, httpx.New(0, httpx.DefaultRetryPolicy(), nil), &fixedClock{now: t0}, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.SourceOKX, got[0].ID())
	assert.Equal(t, domain.SourceBinance, got[1].ID())
	assert.Equal(t, domain.SourceBithumb, got[2].ID())

	okx := got[0].(*OKX)
	assert.Equal(t, "http://okx.local", okx.opts.BaseURL)
	assert.Equal(t, 10, okx.opts.TopN)
	bithumb := got[2].(*Bithumb)
	assert.Equal(t, bithumbURL, bithumb.opts.BaseURL)
	assert.Equal(t, "http://markets.local", bithumb.opts.AuxBaseURL)
}

func TestBuild_Fake(t *testing.T) {
	cfg := config.Config{Provider: "fake", Sources: []string{"upbit", "bybit"}}
	got, err := Build(cfg, nil, nil, &fixedClock{now: t0}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.IsType(t, &Fake{}, got[0])
	assert.Equal(t, domain.SourceUpbit, got[0].ID())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(config.Config{Sources: []string{"kraken"}}, nil, nil, nil, nil)
	require.ErrorIs(t, err, domain.ErrUnknownSource)

	_, err = Build(config.Config{Provider: "mock", Sources: []string{"okx"}}, nil, nil, nil, nil)
	require.Error(t, err)

	_, err = Build(config.Config{}, nil, nil, nil, nil)
	require.Error(t, err)
}
