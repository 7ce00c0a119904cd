// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL DEFAULT '',
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	session TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	target_price REAL NOT NULL,
	stop_price REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	exit_reason TEXT NOT NULL,
	pips REAL NOT NULL,
	duration_minutes REAL NOT NULL,
	pnl TEXT NOT NULL,
	position_size REAL NOT NULL,
	spread_cost TEXT NOT NULL,
	is_win INTEGER NOT NULL,
	range_width_pips REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session);
CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);

CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	dataset TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	candles INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	total_pips REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pips REAL NOT NULL,
	start_balance TEXT NOT NULL,
	net_pl TEXT NOT NULL,
	config TEXT NOT NULL
);
`
