package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second
)

// TickHandler receives each price point parsed off the stream.
type TickHandler func(symbol string, point domain.PricePoint)

// StateHandler is notified when the stream connection is established or lost.
type StateHandler func(connected bool)

// WSClient maintains a websocket connection to the kline stream and
// transparently reconnects with exponential backoff when the connection
// drops. Registered subscriptions are replayed after every reconnect.
type WSClient struct {
	wsURL         string
	reconnectWait time.Duration

	mu            sync.RWMutex
	conn          *websocket.Conn
	closed        bool
	subscriptions []string

	// writeMu serializes all frame writes; gorilla/websocket allows at
	// most one concurrent writer per connection.
	writeMu sync.Mutex

	nextCmdID atomic.Int64

	handlerMu     sync.RWMutex
	tickHandlers  []TickHandler
	stateHandlers []StateHandler

	done chan struct{}
}

func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL:         wsURL,
		reconnectWait: reconnectDelay,
		done:          make(chan struct{}),
	}
}

// OnTick registers a handler invoked for every parsed kline tick.
func (w *WSClient) OnTick(handler TickHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.tickHandlers = append(w.tickHandlers, handler)
}

// OnStateChange registers a handler invoked on every connect and disconnect.
func (w *WSClient) OnStateChange(handler StateHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.stateHandlers = append(w.stateHandlers, handler)
}

// Connected reports whether a live connection is currently installed.
func (w *WSClient) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.conn != nil && !w.closed
}

// Connect dials the stream endpoint, starts the read and ping loops for the
// new connection, and replays any saved subscriptions.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("binance/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("binance/ws: connect %s: %w", w.wsURL, err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	w.conn = conn
	resubscribe := append([]string(nil), w.subscriptions...)
	w.mu.Unlock()

	go w.readLoop(conn)
	go w.pingLoop(conn)

	if len(resubscribe) > 0 {
		cmd := WSCommand{
			Method: "SUBSCRIBE",
			Params: resubscribe,
			ID:     w.nextCmdID.Add(1),
		}
		if err := w.sendCommand(conn, cmd); err != nil {
			return fmt.Errorf("binance/ws: restore subscriptions: %w", err)
		}
	}

	w.notifyState(true)
	return nil
}

// SubscribeKlines subscribes to the kline stream for the given symbol and
// interval. The subscription survives reconnects.
func (w *WSClient) SubscribeKlines(ctx context.Context, symbol, interval string) error {
	stream := fmt.Sprintf("%s@kline_%s", strings.ToLower(symbol), interval)

	w.mu.Lock()
	conn := w.conn
	if conn == nil {
		w.mu.Unlock()
		return fmt.Errorf("binance/ws: subscribe to %s: %w", stream, domain.ErrWSDisconnect)
	}
	w.subscriptions = append(w.subscriptions, stream)
	w.mu.Unlock()

	cmd := WSCommand{
		Method: "SUBSCRIBE",
		Params: []string{stream},
		ID:     w.nextCmdID.Add(1),
	}
	if err := w.sendCommand(conn, cmd); err != nil {
		return fmt.Errorf("binance/ws: subscribe to %s: %w", stream, err)
	}
	return nil
}

// Close shuts down the client and the active connection. Safe to call once.
func (w *WSClient) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()

	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.write(conn, websocket.CloseMessage, msg)
		return conn.Close()
	}
	return nil
}

func (w *WSClient) current() *websocket.Conn {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.conn
}

// write is the single chokepoint for frame writes on any connection.
func (w *WSClient) write(conn *websocket.Conn, messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, data)
}

func (w *WSClient) sendCommand(conn *websocket.Conn, cmd WSCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return w.write(conn, websocket.TextMessage, data)
}

// readLoop pumps messages from one connection. It owns that connection's
// lifetime: on exit it closes the conn it was reading, never a replacement
// installed by a later reconnect.
func (w *WSClient) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}
			w.reconnect(conn)
			return
		}

		w.handleMessage(message)
	}
}

// pingLoop keeps one connection alive. It stops as soon as its connection is
// no longer the active one, so reconnects never stack ping writers.
func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if w.current() != conn {
				return
			}
			if err := w.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *WSClient) handleMessage(message []byte) {
	var kline KlineMessage
	if err := json.Unmarshal(message, &kline); err != nil {
		return
	}
	if kline.EventType != "kline" {
		return
	}

	symbol, point, ok := kline.Tick()
	if !ok {
		return
	}

	w.handlerMu.RLock()
	handlers := append([]TickHandler(nil), w.tickHandlers...)
	w.handlerMu.RUnlock()

	for _, handler := range handlers {
		handler(symbol, point)
	}
}

// reconnect replaces a failed connection. Only the readLoop whose connection
// is still the installed one performs the reconnect; later failures of
// already-replaced connections are ignored.
func (w *WSClient) reconnect(failed *websocket.Conn) {
	w.mu.Lock()
	if w.closed || w.conn != failed {
		w.mu.Unlock()
		return
	}
	w.conn = nil
	w.mu.Unlock()

	w.notifyState(false)

	delay := w.reconnectWait
	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()
		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (w *WSClient) notifyState(connected bool) {
	w.handlerMu.RLock()
	handlers := append([]StateHandler(nil), w.stateHandlers...)
	w.handlerMu.RUnlock()

	for _, handler := range handlers {
		handler(connected)
	}
}
