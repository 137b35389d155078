package domain

// Asset describes one tracked cryptocurrency and its provider identifiers.
type Asset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	BinancePair string `json:"binance_pair"`
}

// Trend classifies aggregate market direction.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Sentiment is a derived market-wide snapshot. Bullish and Bearish are
// percentages summing to 100; Confidence is clamped to [60, 95].
type Sentiment struct {
	Bullish    int   `json:"bullish"`
	Bearish    int   `json:"bearish"`
	Confidence int   `json:"confidence"`
	Trend      Trend `json:"trend"`
}

// MarketRow is one pre-formatted sidebar ticker row.
type MarketRow struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Change string `json:"change"`
	Trend  string `json:"trend"`
}

// TickerUpdate is one message from the live ticker stream.
type TickerUpdate struct {
	Pair      string  `json:"pair"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
	EventTime int64   `json:"event_time"`
}

// SupportedAssets lists all tracked assets in display order.
var SupportedAssets = []Asset{
	{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", BinancePair: "BTCUSDT"},
	{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", BinancePair: "ETHUSDT"},
	{ID: "solana", Name: "Solana", Symbol: "SOL", BinancePair: "SOLUSDT"},
	{ID: "ripple", Name: "XRP", Symbol: "XRP", BinancePair: "XRPUSDT"},
	{ID: "cardano", Name: "Cardano", Symbol: "ADA", BinancePair: "ADAUSDT"},
	{ID: "dogecoin", Name: "Dogecoin", Symbol: "DOGE", BinancePair: "DOGEUSDT"},
}

// AssetByID maps CoinGecko-style ids to assets.
var AssetByID map[string]Asset

// AssetBySymbol maps display symbols to assets.
var AssetBySymbol map[string]Asset

func init() {
	AssetByID = make(map[string]Asset, len(SupportedAssets))
	AssetBySymbol = make(map[string]Asset, len(SupportedAssets))
	for _, a := range SupportedAssets {
		AssetByID[a.ID] = a
		AssetBySymbol[a.Symbol] = a
	}
}

// SupportedIDs returns all asset ids in display order.
func SupportedIDs() []string {
	ids := make([]string, 0, len(SupportedAssets))
	for _, a := range SupportedAssets {
		ids = append(ids, a.ID)
	}
	return ids
}

// SupportedSymbols returns all display symbols in display order.
func SupportedSymbols() []string {
	syms := make([]string, 0, len(SupportedAssets))
	for _, a := range SupportedAssets {
		syms = append(syms, a.Symbol)
	}
	return syms
}
