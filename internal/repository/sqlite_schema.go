package repository

// Timestamps are unix milliseconds (UTC). NULL stands for NaN.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS markets (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		ts         INTEGER NOT NULL,
		asset_id   TEXT    NOT NULL,
		symbol     TEXT    NOT NULL,
		price      REAL    NOT NULL,
		market_cap REAL,
		volume_24h REAL,
		source     TEXT    NOT NULL DEFAULT '',
		UNIQUE (asset_id, ts)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_markets_symbol_ts ON markets(symbol, ts)`,

	`CREATE TABLE IF NOT EXISTS indicators (
		asset_id    TEXT    NOT NULL,
		symbol      TEXT    NOT NULL,
		ts          INTEGER NOT NULL,
		seq         INTEGER NOT NULL DEFAULT 0,
		price       REAL    NOT NULL,
		ema_fast    REAL,
		ema_slow    REAL,
		macd        REAL,
		macd_signal REAL,
		macd_hist   REAL,
		rsi         REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_indicators_asset_ts ON indicators(asset_id, ts)`,

	`CREATE TABLE IF NOT EXISTS signals (
		asset_id        TEXT    NOT NULL,
		symbol          TEXT    NOT NULL,
		ts              INTEGER NOT NULL,
		price           REAL    NOT NULL,
		rsi             REAL,
		ema_fast        REAL,
		ema_slow        REAL,
		macd            REAL,
		signal_tags     TEXT    NOT NULL,
		signal_strength REAL    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_asset ON signals(asset_id, ts)`,

	`CREATE TABLE IF NOT EXISTS scores (
		asset_id    TEXT    NOT NULL,
		symbol      TEXT    NOT NULL,
		ts          INTEGER NOT NULL,
		price       REAL    NOT NULL,
		trend_score REAL    NOT NULL,
		trend_tier  TEXT    NOT NULL,
		signal_tags TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scores_asset ON scores(asset_id, ts)`,

	`CREATE TABLE IF NOT EXISTS news (
		id           TEXT PRIMARY KEY,
		title        TEXT    NOT NULL,
		url          TEXT    NOT NULL DEFAULT '',
		source       TEXT    NOT NULL,
		published_at INTEGER NOT NULL,
		symbols      TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_published ON news(published_at)`,

	`CREATE TABLE IF NOT EXISTS events (
		id         TEXT PRIMARY KEY,
		title      TEXT    NOT NULL,
		event_date INTEGER NOT NULL,
		source     TEXT    NOT NULL,
		category   TEXT    NOT NULL DEFAULT '',
		symbols    TEXT    NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS quotes (
		symbol     TEXT    NOT NULL,
		ts         INTEGER NOT NULL,
		provider   TEXT    NOT NULL,
		price      REAL    NOT NULL,
		open       REAL,
		high       REAL,
		low        REAL,
		prev_close REAL,
		UNIQUE (symbol, ts, provider)
	)`,

	`CREATE TABLE IF NOT EXISTS trends (
		kind        TEXT    NOT NULL,
		source_id   TEXT    NOT NULL,
		ts          INTEGER NOT NULL,
		symbol      TEXT    NOT NULL,
		title       TEXT    NOT NULL,
		trend_score REAL    NOT NULL,
		last_price  REAL,
		source      TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trends_score ON trends(trend_score DESC, ts DESC)`,
}

// derived tables dropped by Reset; markets and feeds are kept.
var sqliteDerived = []string{TableIndicators, TableSignals, TableScores, TableTrends}
