package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT trade_id, symbol, shares, entry_price, exit_price, open_time, close_time, realized_pl, reason
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Shares,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns trades whose close_time is within [start, end),
// oldest first. An empty symbol matches all symbols.
func (j *SQLite) ListTrades(symbol string, start, end time.Time) ([]TradeRecord, error) {
	q := `
		SELECT trade_id, symbol, shares, entry_price, exit_price, open_time, close_time, realized_pl, reason
		FROM trades
		WHERE close_time >= ? AND close_time < ?`
	args := []any{start, end}
	if symbol != "" {
		q += ` AND symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY close_time ASC`

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Symbol,
			&rec.Shares,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.OpenTime,
			&rec.CloseTime,
			&rec.RealizedPL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSignals returns signals for a symbol within [start, end), oldest first.
// An empty symbol matches all symbols.
func (j *SQLite) ListSignals(symbol string, start, end time.Time) ([]SignalRecord, error) {
	q := `
		SELECT signal_id, symbol, time, action, price, rsi, stop, reason
		FROM signals
		WHERE time >= ? AND time < ?`
	args := []any{start, end}
	if symbol != "" {
		q += ` AND symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY time ASC`

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Symbol,
			&rec.Time,
			&rec.Action,
			&rec.Price,
			&rec.RSI,
			&rec.Stop,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPositionEvents returns the lifecycle of one position, oldest first.
func (j *SQLite) ListPositionEvents(positionID string) ([]PositionEventRecord, error) {
	rows, err := j.db.Query(`
		SELECT position_id, symbol, time, kind, price, stop, detail
		FROM position_events
		WHERE position_id = ?
		ORDER BY time ASC`, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PositionEventRecord
	for rows.Next() {
		var rec PositionEventRecord
		if err := rows.Scan(
			&rec.PositionID,
			&rec.Symbol,
			&rec.Time,
			&rec.Kind,
			&rec.Price,
			&rec.Stop,
			&rec.Detail,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns equity snapshots within [start, end), oldest first.
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, equity, open_positions, day_realized
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var rec EquitySnapshot
		if err := rows.Scan(&rec.Time, &rec.Equity, &rec.OpenPositions, &rec.DayRealized); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
