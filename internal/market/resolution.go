package market

import "time"

// granularity is one resolved sub-day request against the fine provider.
type granularity struct {
	Interval string
	Limit    int
	Period   time.Duration
}

const (
	secondLimitCap = 60
	minuteLimitCap = 100
)

// selectGranularity maps a sub-day span (fractional days) to a fine-provider
// interval and point limit. The two smallest buckets branch on seconds, the
// rest on minutes; each bucket caps the returned point count.
func selectGranularity(spanDays float64) granularity {
	hours := spanDays * 24
	minutes := hours * 60
	seconds := minutes * 60

	switch {
	case seconds <= 60:
		return granularity{Interval: "1s", Limit: capLimit(int(seconds), secondLimitCap), Period: time.Second}
	case seconds <= 300:
		return granularity{Interval: "5s", Limit: capLimit(int(seconds/5), secondLimitCap), Period: 5 * time.Second}
	case minutes <= 60:
		return granularity{Interval: "1m", Limit: capLimit(int(minutes), minuteLimitCap), Period: time.Minute}
	case minutes <= 300:
		return granularity{Interval: "5m", Limit: capLimit(int(minutes/5), minuteLimitCap), Period: 5 * time.Minute}
	case minutes <= 900:
		return granularity{Interval: "15m", Limit: capLimit(int(minutes/15), minuteLimitCap), Period: 15 * time.Minute}
	default:
		return granularity{Interval: "1h", Limit: capLimit(int(hours), minuteLimitCap), Period: time.Hour}
	}
}

func capLimit(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}
