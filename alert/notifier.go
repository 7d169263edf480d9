package alert

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vnquant/watchtower/portfolio"
	"github.com/vnquant/watchtower/signal"
)

// Payload is the outbound alert handed to a notifier after the debouncer
// approves it. Formatting, delivery, and retries are the notifier's job.
type Payload struct {
	Symbol  string
	Kind    Kind
	Time    time.Time
	Message string
}

// Notifier delivers one alert. Failures are surfaced, never retried here.
type Notifier interface {
	Notify(p Payload) error
}

// Dispatcher gates events through the debouncer and forwards approved
// alerts to the notifier.
type Dispatcher struct {
	deb *Debouncer
	not Notifier
	log *zap.Logger
}

// NewDispatcher wires a debouncer to a notifier.
func NewDispatcher(deb *Debouncer, not Notifier, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{deb: deb, not: not, log: log}
}

// Signal emits an alert for an actionable signal. Returns true when the
// alert went out.
func (d *Dispatcher) Signal(sig signal.Signal) bool {
	var kind Kind
	switch sig.Action {
	case signal.Buy:
		kind = KindBuySignal
	case signal.Sell:
		kind = KindSellSignal
	default:
		return false
	}

	msg := fmt.Sprintf("%s %s @ %.2f (RSI %.1f, PSAR %.2f): %s",
		sig.Action, sig.Symbol, sig.Price, sig.Snapshot.RSI, sig.Snapshot.Stop, sig.Reason)
	return d.send(sig.Symbol, kind, sig.Time, msg)
}

// Position emits an alert for a lifecycle event.
func (d *Dispatcher) Position(ev portfolio.Event) bool {
	var kind Kind
	var msg string
	switch ev.Kind {
	case portfolio.EventOpened:
		kind = KindOpened
		msg = fmt.Sprintf("OPENED %s @ %.2f, %.0f shares, stop %.2f, target %.2f",
			ev.Position.Symbol, ev.Position.EntryPrice, ev.Position.Shares,
			ev.Position.StopLoss, ev.Position.TakeProfit)
	case portfolio.EventClosed:
		kind = KindClosed
		msg = fmt.Sprintf("CLOSED %s @ %.2f (%s), realized %+.2f",
			ev.Position.Symbol, ev.Price, ev.Position.CloseReason, ev.Realized)
	case portfolio.EventStopAdjusted:
		kind = KindStopMoved
		msg = fmt.Sprintf("STOP %s -> %.2f", ev.Position.Symbol, ev.Position.TrailingStop)
	default:
		return false
	}
	return d.send(ev.Position.Symbol, kind, ev.Time, msg)
}

func (d *Dispatcher) send(symbol string, kind Kind, at time.Time, msg string) bool {
	if !d.deb.Gate(symbol, kind, at) {
		d.log.Debug("alert suppressed",
			zap.String("symbol", symbol), zap.String("kind", string(kind)))
		return false
	}

	err := d.not.Notify(Payload{Symbol: symbol, Kind: kind, Time: at, Message: msg})
	if err != nil {
		// Delivery problems never corrupt pipeline state; the collaborator
		// owns retries.
		d.log.Error("notify failed",
			zap.String("symbol", symbol), zap.String("kind", string(kind)), zap.Error(err))
	}
	return true
}

// LogNotifier writes alerts to the logger. Used for dry runs and replay.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) Notify(p Payload) error {
	n.Log.Info("alert",
		zap.String("symbol", p.Symbol),
		zap.String("kind", string(p.Kind)),
		zap.String("message", p.Message))
	return nil
}
