package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pulseboard/internal/domain"
	"pulseboard/internal/market"
	"pulseboard/internal/stream"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MarketData is the read surface the dashboard renders.
type MarketData interface {
	GetCandles(ctx context.Context, assetID string, spanDays float64) market.Result[[]domain.Candle]
	GetSentiment(ctx context.Context) market.Result[domain.Sentiment]
	GetLiveMarkets(ctx context.Context) market.Result[[]domain.MarketRow]
}

// TickerSource delivers live ticker updates. Satisfied by stream.Manager.
type TickerSource interface {
	Subscribe(cb stream.Callback) int
	Unsubscribe(id int)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#aaaaaa"))
	bullishStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#26a641"))
	bearishStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e05c5c"))
	neutralStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d49a3a"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d49a3a")).Italic(true)
)

// span presets the dashboard cycles through, in fractional days.
var spanPresets = []struct {
	Label string
	Days  float64
}{
	{"1H", 1.0 / 24},
	{"6H", 0.25},
	{"1D", 1},
	{"7D", 7},
	{"30D", 30},
}

const refreshEvery = 30 * time.Second

type candlesMsg struct {
	assetID string
	res     market.Result[[]domain.Candle]
}

type sentimentMsg struct{ res market.Result[domain.Sentiment] }

type marketsMsg struct{ res market.Result[[]domain.MarketRow] }

type tickerMsg struct{ update domain.TickerUpdate }

type refreshMsg struct{}

type Model struct {
	data    MarketData
	tickers TickerSource

	assetIdx int
	spanIdx  int

	candles   []domain.Candle
	sentiment domain.Sentiment
	markets   []domain.MarketRow
	degraded  bool
	reason    string

	lastTicks map[string]domain.TickerUpdate
	tickerCh  chan domain.TickerUpdate
	subID     int

	spin    spinner.Model
	loading bool
	width   int
	height  int
}

func NewModel(data MarketData, tickers TickerSource) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := &Model{
		data:      data,
		tickers:   tickers,
		spanIdx:   3, // 7D
		lastTicks: make(map[string]domain.TickerUpdate),
		tickerCh:  make(chan domain.TickerUpdate, 64),
		spin:      sp,
		loading:   true,
	}
	if tickers != nil {
		m.subID = tickers.Subscribe(func(u domain.TickerUpdate) {
			select {
			case m.tickerCh <- u:
			default:
			}
		})
	}
	return m
}

// SetSize presets the viewport before the first WindowSizeMsg, for SSH
// sessions where the pty size is known up front.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *Model) asset() domain.Asset {
	return domain.SupportedAssets[m.assetIdx]
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spin.Tick,
		m.fetchCandles(),
		m.fetchSentiment(),
		m.fetchMarkets(),
		tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshMsg{} }),
	}
	if m.tickers != nil {
		cmds = append(cmds, m.waitForTicker())
	}
	return tea.Batch(cmds...)
}

func (m *Model) fetchCandles() tea.Cmd {
	assetID := m.asset().ID
	days := spanPresets[m.spanIdx].Days
	return func() tea.Msg {
		return candlesMsg{assetID: assetID, res: m.data.GetCandles(context.Background(), assetID, days)}
	}
}

func (m *Model) fetchSentiment() tea.Cmd {
	return func() tea.Msg {
		return sentimentMsg{res: m.data.GetSentiment(context.Background())}
	}
}

func (m *Model) fetchMarkets() tea.Cmd {
	return func() tea.Msg {
		return marketsMsg{res: m.data.GetLiveMarkets(context.Background())}
	}
}

func (m *Model) waitForTicker() tea.Cmd {
	return func() tea.Msg {
		return tickerMsg{update: <-m.tickerCh}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.tickers != nil {
				m.tickers.Unsubscribe(m.subID)
			}
			return m, tea.Quit
		case "tab", "right":
			m.assetIdx = (m.assetIdx + 1) % len(domain.SupportedAssets)
			m.loading = true
			return m, m.fetchCandles()
		case "left":
			m.assetIdx = (m.assetIdx - 1 + len(domain.SupportedAssets)) % len(domain.SupportedAssets)
			m.loading = true
			return m, m.fetchCandles()
		case "s":
			m.spanIdx = (m.spanIdx + 1) % len(spanPresets)
			m.loading = true
			return m, m.fetchCandles()
		case "r":
			m.loading = true
			return m, tea.Batch(m.fetchCandles(), m.fetchSentiment(), m.fetchMarkets())
		}

	case candlesMsg:
		if msg.assetID != m.asset().ID {
			return m, nil // stale response from a previous selection
		}
		m.loading = false
		m.candles = msg.res.Data
		m.degraded = msg.res.IsDegraded()
		m.reason = msg.res.Reason
		return m, nil

	case sentimentMsg:
		if !msg.res.IsFailed() {
			m.sentiment = msg.res.Data
		}
		return m, nil

	case marketsMsg:
		if !msg.res.IsFailed() {
			m.markets = msg.res.Data
		}
		return m, nil

	case tickerMsg:
		m.lastTicks[msg.update.Pair] = msg.update
		return m, m.waitForTicker()

	case refreshMsg:
		return m, tea.Batch(
			m.fetchCandles(),
			m.fetchSentiment(),
			m.fetchMarkets(),
			tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshMsg{} }),
		)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 {
		return "connecting…"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	if m.loading && len(m.candles) == 0 {
		b.WriteString(m.spin.View() + " loading candles…\n")
	} else {
		b.WriteString(renderChart(m.candles, m.width, m.chartHeight()))
	}

	b.WriteString(m.renderMarkets())
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render("[tab] asset  [s] span  [r] refresh  [q] quit"))
	return b.String()
}

func (m *Model) chartHeight() int {
	// header + markets block + footer + axis rows
	h := m.height - len(m.markets) - 5
	if h < 4 {
		h = 4
	}
	return h
}

func (m *Model) renderHeader() string {
	asset := m.asset()
	span := spanPresets[m.spanIdx]

	price := ""
	if tick, ok := m.lastTicks[asset.BinancePair]; ok {
		style := bullishStyle
		if tick.ChangePct < 0 {
			style = bearishStyle
		}
		price = style.Render(fmt.Sprintf("  $%.2f (%+.2f%%)", tick.Price, tick.ChangePct))
	}

	trendStyle := neutralStyle
	switch m.sentiment.Trend {
	case domain.TrendBullish:
		trendStyle = bullishStyle
	case domain.TrendBearish:
		trendStyle = bearishStyle
	}
	sent := trendStyle.Render(fmt.Sprintf("%s %d%%", m.sentiment.Trend, m.sentiment.Confidence))

	head := titleStyle.Render(fmt.Sprintf("%s (%s)  %s", asset.Name, asset.Symbol, span.Label)) + price + "  " + sent
	if m.degraded {
		head += degradedStyle.Render("  estimated data")
	}
	return head
}

func (m *Model) renderMarkets() string {
	if len(m.markets) == 0 {
		return ""
	}
	var b strings.Builder
	for _, row := range m.markets {
		style := bullishStyle
		if row.Trend == "down" {
			style = bearishStyle
		}
		fmt.Fprintf(&b, "%-10s %12s  %s\n", row.Symbol, row.Price, style.Render(row.Change))
	}
	return b.String()
}
