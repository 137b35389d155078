package service

import (
	"sync"

	"pulseboard/internal/domain"
	"pulseboard/internal/stream"
)

// TickerSource is the live stream surface the board subscribes to.
// Satisfied by stream.Manager.
type TickerSource interface {
	Subscribe(cb stream.Callback) int
	Unsubscribe(id int)
}

// TickerBoard keeps the last ticker update per pair so the HTTP API can
// serve a live snapshot without holding websocket connections per caller.
type TickerBoard struct {
	src   TickerSource
	subID int

	mu     sync.RWMutex
	latest map[string]domain.TickerUpdate
}

func NewTickerBoard(src TickerSource) *TickerBoard {
	b := &TickerBoard{
		src:    src,
		latest: make(map[string]domain.TickerUpdate),
	}
	b.subID = src.Subscribe(b.record)
	return b
}

func (b *TickerBoard) record(u domain.TickerUpdate) {
	b.mu.Lock()
	b.latest[u.Pair] = u
	b.mu.Unlock()
}

// Snapshot returns the last update for each supported asset in display
// order, skipping pairs that have not ticked yet.
func (b *TickerBoard) Snapshot() []domain.TickerUpdate {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.TickerUpdate, 0, len(b.latest))
	for _, asset := range domain.SupportedAssets {
		if u, ok := b.latest[asset.BinancePair]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Close drops the stream subscription.
func (b *TickerBoard) Close() {
	b.src.Unsubscribe(b.subID)
}
