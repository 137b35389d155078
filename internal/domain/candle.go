package domain

// Candle represents a single OHLC(+volume) bar for a fixed time bucket.
// Timestamp is the bar open time in epoch milliseconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume,omitempty"`
}

// IndicatorSet holds the latest value of each chart overlay indicator,
// computed from the same candle series the chart renders.
type IndicatorSet struct {
	RSI             float64 `json:"rsi"`
	MACD            float64 `json:"macd"`
	MACDSignal      float64 `json:"macd_signal"`
	EMAFast         float64 `json:"ema_fast"`
	EMASlow         float64 `json:"ema_slow"`
	BollingerUpper  float64 `json:"bollinger_upper"`
	BollingerMiddle float64 `json:"bollinger_middle"`
	BollingerLower  float64 `json:"bollinger_lower"`
}

// PricePoint is a single-asset price snapshot, not a time series.
type PricePoint struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	Change24h    float64 `json:"price_change_24h"`
	Change24hPct float64 `json:"price_change_percentage_24h"`
	Volume24h    float64 `json:"total_volume"`
	MarketCap    float64 `json:"market_cap"`
}
