package domain

type SourceID string

const (
	SourceBinance        SourceID = "binance"
	SourceBinanceFutures SourceID = "binance-futures"
	SourceBybit          SourceID = "bybit"
	SourceOKX            SourceID = "okx"
	SourceUpbit          SourceID = "upbit"
	SourceBithumb        SourceID = "bithumb"
)

// DefaultSourceOrder is the order sources are visited in a refresh pass.
var DefaultSourceOrder = []SourceID{
	SourceBinance,
	SourceBinanceFutures,
	SourceBybit,
	SourceOKX,
	SourceUpbit,
	SourceBithumb,
}

var sourceNames = map[SourceID]string{
	SourceBinance:        "Binance Spot",
	SourceBinanceFutures: "Binance USDT-M Futures",
	SourceBybit:          "Bybit Spot",
	SourceOKX:            "OKX Spot",
	SourceUpbit:          "Upbit KRW",
	SourceBithumb:        "Bithumb KRW",
}

func (s SourceID) Known() bool {
	_, ok := sourceNames[s]
	return ok
}

// DisplayName falls back to the id for sources without a registered name.
func (s SourceID) DisplayName() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return string(s)
}
