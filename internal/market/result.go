package market

// Status reports how a result was produced.
type Status string

const (
	// StatusOK means the data came from a live upstream response.
	StatusOK Status = "ok"
	// StatusDegraded means the upstream was unavailable and the data was
	// synthesized, with Reason holding the upstream failure.
	StatusDegraded Status = "degraded"
	// StatusFailed means no data could be produced at all.
	StatusFailed Status = "failed"
)

// Result carries data together with its provenance, so callers can choose
// whether to surface a degraded-data indicator instead of the dashboard
// silently rendering fabricated numbers.
type Result[T any] struct {
	Status Status
	Data   T
	Reason string
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Status: StatusOK, Data: data}
}

func Degraded[T any](data T, reason string) Result[T] {
	return Result[T]{Status: StatusDegraded, Data: data, Reason: reason}
}

func Failed[T any](reason string) Result[T] {
	return Result[T]{Status: StatusFailed, Reason: reason}
}

// IsDegraded reports whether the data was synthesized.
func (r Result[T]) IsDegraded() bool { return r.Status == StatusDegraded }

// IsFailed reports whether no data is present.
func (r Result[T]) IsFailed() bool { return r.Status == StatusFailed }
