package feed

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vnquant/watchtower/market"
)

// WSConfig configures the live bar feed.
type WSConfig struct {
	// URL of the bar WebSocket server, e.g. "ws://localhost:9001/bars".
	URL string

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration
}

func (c *WSConfig) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// wireBar is the JSON message format on the wire.
type wireBar struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// WS streams bars from a WebSocket server, reconnecting with backoff on
// disconnect.
type WS struct {
	cfg WSConfig
	log *zap.Logger

	// Optional hook, called on each reconnection attempt.
	OnReconnect func()
}

func NewWS(cfg WSConfig, log *zap.Logger) (*WS, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WS{cfg: cfg, log: log}, nil
}

// Run connects and streams bars into out. Blocks until ctx is cancelled.
func (w *WS) Run(ctx context.Context, out chan<- market.Bar) error {
	delay := w.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := w.runOnce(ctx, out)
		if err == nil {
			return nil
		}

		w.log.Warn("feed disconnected", zap.Error(err), zap.Duration("retry_in", delay))
		if w.OnReconnect != nil {
			w.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > w.cfg.MaxReconnectDelay {
			delay = w.cfg.MaxReconnectDelay
		}
	}
}

func (w *WS) runOnce(ctx context.Context, out chan<- market.Bar) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	w.log.Info("feed connected", zap.String("url", w.cfg.URL))

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		var wb wireBar
		if err := json.Unmarshal(raw, &wb); err != nil {
			w.log.Warn("bad bar message", zap.Error(err))
			continue
		}
		if wb.Symbol == "" {
			w.log.Warn("bar message without symbol")
			continue
		}

		bar := market.Bar{
			Symbol: wb.Symbol,
			Time:   wb.Time,
			Open:   wb.Open,
			High:   wb.High,
			Low:    wb.Low,
			Close:  wb.Close,
			Volume: wb.Volume,
		}

		select {
		case out <- bar:
		case <-ctx.Done():
			return nil
		}
	}
}
