package stream

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pulseboard/internal/domain"

	"github.com/gorilla/websocket"
)

const defaultWSBaseURL = "wss://stream.binance.com:9443/ws"

// Callback receives one ticker update. Callbacks run on the read loop
// goroutine and must not block.
type Callback func(domain.TickerUpdate)

// Dialer abstracts websocket dialing for tests.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader map[string][]string) (Conn, error)
}

// Conn is the subset of a websocket connection the manager uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

type gorillaDialer struct{}

func (gorillaDialer) DialContext(ctx context.Context, urlStr string, header map[string][]string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, urlStr, header)
	return conn, err
}

// Manager owns one shared websocket subscription to the combined ticker
// stream for all supported assets. The connection is opened by the first
// subscriber, closed by the last unsubscribe, and re-dialed after a fixed
// delay if it drops while subscribers remain. Messages are delivered
// at-most-once to all current subscribers in arrival order; updates during
// a reconnect gap are dropped silently.
type Manager struct {
	url            string
	dialer         Dialer
	reconnectDelay time.Duration

	mu     sync.Mutex
	subs   map[int]Callback
	nextID int
	conn   Conn
	cancel context.CancelFunc
	gen    int
}

// New creates a manager for the default Binance combined ticker stream.
func New() *Manager {
	return NewWithBaseURL(defaultWSBaseURL)
}

// NewWithBaseURL creates a manager for the combined ticker stream of all
// supported assets on an alternate websocket endpoint.
func NewWithBaseURL(base string) *Manager {
	streams := make([]string, 0, len(domain.SupportedAssets))
	for _, a := range domain.SupportedAssets {
		streams = append(streams, strings.ToLower(a.BinancePair)+"@ticker")
	}
	return NewWithURL(strings.TrimRight(base, "/") + "/" + strings.Join(streams, "/"))
}

// NewWithURL creates a manager against an explicit stream URL.
func NewWithURL(url string) *Manager {
	return &Manager{
		url:            url,
		dialer:         gorillaDialer{},
		reconnectDelay: 5 * time.Second,
		subs:           make(map[int]Callback),
	}
}

// Subscribe registers a callback and returns its id. The first subscriber
// opens the shared connection.
func (m *Manager) Subscribe(cb Callback) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.subs[id] = cb

	if len(m.subs) == 1 {
		m.startLocked()
	}
	return id
}

// Unsubscribe removes a callback. The last unsubscribe closes the shared
// connection. In-flight deliveries to other subscribers are unaffected.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subs, id)
	if len(m.subs) == 0 {
		m.stopLocked()
	}
}

// Close tears down the connection and drops all subscribers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs = make(map[int]Callback)
	m.stopLocked()
}

// SubscriberCount reports the current number of registered callbacks.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *Manager) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	go m.run(ctx, m.gen)
}

func (m *Manager) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

// run maintains the connection for one subscription generation, re-dialing
// after the fixed delay while subscribers remain.
func (m *Manager) run(ctx context.Context, gen int) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := m.dialer.DialContext(ctx, m.url, nil)
		if err != nil {
			log.Printf("ticker stream dial error: %v — retrying in %v", err, m.reconnectDelay)
		} else {
			m.mu.Lock()
			stale := gen != m.gen || ctx.Err() != nil
			if stale {
				m.mu.Unlock()
				conn.Close()
				return
			}
			m.conn = conn
			m.mu.Unlock()

			m.readLoop(conn)

			m.mu.Lock()
			if m.conn == conn {
				m.conn = nil
			}
			m.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.reconnectDelay):
		}
	}
}

func (m *Manager) readLoop(conn Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		update, err := parseTicker(msg)
		if err != nil {
			log.Printf("ticker stream parse error: %v", err)
			continue
		}

		m.mu.Lock()
		ids := make([]int, 0, len(m.subs))
		for id := range m.subs {
			ids = append(ids, id)
		}
		// Deliver in subscription order.
		sort.Ints(ids)
		cbs := make([]Callback, 0, len(ids))
		for _, id := range ids {
			cbs = append(cbs, m.subs[id])
		}
		m.mu.Unlock()

		for _, cb := range cbs {
			cb(update)
		}
	}
}

// tickerMsg is the Binance @ticker stream payload (numeric fields
// string-encoded).
type tickerMsg struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	ChangePct string `json:"P"`
}

func parseTicker(msg []byte) (domain.TickerUpdate, error) {
	var raw tickerMsg
	if err := json.Unmarshal(msg, &raw); err != nil {
		return domain.TickerUpdate{}, err
	}

	price, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return domain.TickerUpdate{}, err
	}
	changePct, err := strconv.ParseFloat(raw.ChangePct, 64)
	if err != nil {
		return domain.TickerUpdate{}, err
	}

	return domain.TickerUpdate{
		Pair:      raw.Symbol,
		Price:     price,
		ChangePct: changePct,
		EventTime: raw.EventTime,
	}, nil
}
