package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordSignal(s SignalRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO signals
		(signal_id, symbol, time, action, price, rsi, stop, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Symbol, s.Time, s.Action, s.Price, s.RSI, s.Stop, s.Reason,
	)
	return err
}

func (j *SQLite) RecordPositionEvent(e PositionEventRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO position_events
		(position_id, symbol, time, kind, price, stop, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.PositionID, e.Symbol, e.Time, e.Kind, e.Price, e.Stop, e.Detail,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, shares, entry_price, exit_price, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Shares, t.EntryPrice,
		t.ExitPrice, t.OpenTime, t.CloseTime, t.RealizedPL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, equity, open_positions, day_realized)
		VALUES (?, ?, ?, ?)`,
		e.Time, e.Equity, e.OpenPositions, e.DayRealized,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
