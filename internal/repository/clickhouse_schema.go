package repository

// ReplacingMergeTree collapses duplicate keys on merge; reads that must not
// see duplicates use FINAL or LIMIT 1 BY.
var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS markets (
		seq        Int64,
		ts         DateTime64(3, 'UTC'),
		asset_id   LowCardinality(String),
		symbol     LowCardinality(String),
		price      Float64,
		market_cap Nullable(Float64),
		volume_24h Nullable(Float64),
		source     LowCardinality(String)
	) ENGINE = ReplacingMergeTree
	ORDER BY (asset_id, ts)`,

	`CREATE TABLE IF NOT EXISTS indicators (
		asset_id    LowCardinality(String),
		symbol      LowCardinality(String),
		ts          DateTime64(3, 'UTC'),
		seq         Int64,
		price       Float64,
		ema_fast    Nullable(Float64),
		ema_slow    Nullable(Float64),
		macd        Nullable(Float64),
		macd_signal Nullable(Float64),
		macd_hist   Nullable(Float64),
		rsi         Nullable(Float64)
	) ENGINE = MergeTree
	ORDER BY (asset_id, ts, seq)`,

	`CREATE TABLE IF NOT EXISTS signals (
		asset_id        LowCardinality(String),
		symbol          LowCardinality(String),
		ts              DateTime64(3, 'UTC'),
		price           Float64,
		rsi             Nullable(Float64),
		ema_fast        Nullable(Float64),
		ema_slow        Nullable(Float64),
		macd            Nullable(Float64),
		signal_tags     String,
		signal_strength Float64
	) ENGINE = MergeTree
	ORDER BY (asset_id, ts)`,

	`CREATE TABLE IF NOT EXISTS scores (
		asset_id    LowCardinality(String),
		symbol      LowCardinality(String),
		ts          DateTime64(3, 'UTC'),
		price       Float64,
		trend_score Float64,
		trend_tier  LowCardinality(String),
		signal_tags String
	) ENGINE = MergeTree
	ORDER BY (asset_id, ts)`,

	`CREATE TABLE IF NOT EXISTS news (
		id           String,
		title        String,
		url          String,
		source       LowCardinality(String),
		published_at DateTime64(3, 'UTC'),
		symbols      String,
		version      UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY id`,

	`CREATE TABLE IF NOT EXISTS events (
		id         String,
		title      String,
		event_date DateTime64(3, 'UTC'),
		source     LowCardinality(String),
		category   String,
		symbols    String,
		version    UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY id`,

	`CREATE TABLE IF NOT EXISTS quotes (
		symbol     LowCardinality(String),
		ts         DateTime64(3, 'UTC'),
		provider   LowCardinality(String),
		price      Float64,
		open       Nullable(Float64),
		high       Nullable(Float64),
		low        Nullable(Float64),
		prev_close Nullable(Float64)
	) ENGINE = ReplacingMergeTree
	ORDER BY (symbol, ts, provider)`,

	`CREATE TABLE IF NOT EXISTS trends (
		kind        LowCardinality(String),
		source_id   String,
		ts          DateTime64(3, 'UTC'),
		symbol      LowCardinality(String),
		title       String,
		trend_score Float64,
		last_price  Nullable(Float64),
		source      LowCardinality(String)
	) ENGINE = MergeTree
	ORDER BY (kind, source_id)`,
}

var clickhouseDerived = []string{TableIndicators, TableSignals, TableScores, TableTrends}
