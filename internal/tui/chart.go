package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"pulseboard/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	bullCandle = lipgloss.NewStyle().Foreground(lipgloss.Color("#26a641"))
	bearCandle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e05c5c"))
	wickStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

const yAxisWidth = 11 // "  12345.67 │"

// renderChart draws an ASCII candlestick chart sized to width×height.
// Each candle occupies two columns: body plus a gap for the wick.
func renderChart(candles []domain.Candle, width, height int) string {
	if height < 3 {
		height = 3
	}
	if len(candles) == 0 {
		return axisStyle.Render("no candle data") + "\n"
	}

	chartW := width - yAxisWidth
	maxCols := chartW / 2
	if maxCols < 1 {
		maxCols = 1
	}
	if len(candles) > maxCols {
		candles = candles[len(candles)-maxCols:]
	}

	hi, lo := priceRange(candles)
	if hi == lo {
		hi = lo + 1
	}

	cols := len(candles) * 2
	grid := make([][]string, height)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	for i, c := range candles {
		paintCandle(grid, c, i*2, height, hi, lo)
	}

	var b strings.Builder
	for row := 0; row < height; row++ {
		price := rowToPrice(row, height, hi, lo)
		b.WriteString(axisStyle.Render(fmt.Sprintf("%9.2f │", price)))
		b.WriteString(strings.Join(grid[row], ""))
		b.WriteByte('\n')
	}

	b.WriteString(axisStyle.Render(strings.Repeat("─", yAxisWidth+cols)))
	b.WriteByte('\n')

	b.WriteString(strings.Repeat(" ", yAxisWidth))
	b.WriteString(timeLabels(candles))
	b.WriteByte('\n')

	return b.String()
}

// timeLabels places a HH:MM label every ten candles, padding the rest.
func timeLabels(candles []domain.Candle) string {
	cols := len(candles) * 2
	out := make([]byte, cols)
	for i := range out {
		out[i] = ' '
	}
	for i := 0; i < len(candles); i += 10 {
		label := time.UnixMilli(candles[i].Timestamp).UTC().Format("15:04")
		pos := i * 2
		for j := 0; j < len(label) && pos+j < cols; j++ {
			out[pos+j] = label[j]
		}
	}
	return string(out)
}

func paintCandle(grid [][]string, c domain.Candle, x, chartH int, hi, lo float64) {
	bullish := c.Close >= c.Open
	style := bullCandle
	if !bullish {
		style = bearCandle
	}

	bodyTop := priceToRow(math.Max(c.Open, c.Close), chartH, hi, lo)
	bodyBot := priceToRow(math.Min(c.Open, c.Close), chartH, hi, lo)
	wickTop := priceToRow(c.High, chartH, hi, lo)
	wickBot := priceToRow(c.Low, chartH, hi, lo)

	for row := 0; row < chartH; row++ {
		inBody := row >= bodyTop && row <= bodyBot
		inWick := row >= wickTop && row <= wickBot

		var left, right string
		switch {
		case inBody:
			left = style.Render("█")
			right = style.Render("█")
		case inWick:
			left = wickStyle.Render("│")
			right = " "
		default:
			left = " "
			right = " "
		}

		if x < len(grid[row]) {
			grid[row][x] = left
		}
		if x+1 < len(grid[row]) {
			grid[row][x+1] = right
		}
	}
}

// priceToRow converts a price to a grid row (0 = top = high).
func priceToRow(price float64, chartH int, hi, lo float64) int {
	if hi == lo {
		return chartH / 2
	}
	row := (hi - price) / (hi - lo) * float64(chartH-1)
	r := int(math.Round(row))
	if r < 0 {
		r = 0
	}
	if r >= chartH {
		r = chartH - 1
	}
	return r
}

// rowToPrice is the inverse of priceToRow.
func rowToPrice(row, chartH int, hi, lo float64) float64 {
	if chartH <= 1 {
		return hi
	}
	return hi - float64(row)/float64(chartH-1)*(hi-lo)
}

func priceRange(candles []domain.Candle) (hi, lo float64) {
	hi = -math.MaxFloat64
	lo = math.MaxFloat64
	for _, c := range candles {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	if hi == -math.MaxFloat64 {
		hi = 0
	}
	if lo == math.MaxFloat64 {
		lo = 0
	}
	return
}
