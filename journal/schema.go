package journal

const Schema = `
CREATE TABLE IF NOT EXISTS signals (
	signal_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	time DATETIME NOT NULL,
	action TEXT NOT NULL,
	price REAL NOT NULL,
	rsi REAL NOT NULL,
	stop REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS position_events (
	position_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	time DATETIME NOT NULL,
	kind TEXT NOT NULL,
	price REAL NOT NULL,
	stop REAL NOT NULL,
	detail TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	shares REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	equity REAL NOT NULL,
	open_positions INTEGER NOT NULL,
	day_realized REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_symbol_time ON signals(symbol, time);
CREATE INDEX IF NOT EXISTS idx_events_position ON position_events(position_id);
CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
