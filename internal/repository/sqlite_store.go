package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	applogger "Certus/pkg/logger"
	pkgsqlite "Certus/pkg/sqlite"
	"Certus/pkg/util"
)

// SQLiteStore implements domrepo.Store on an embedded SQLite file.
type SQLiteStore struct {
	c *pkgsqlite.Client
	l *applogger.Logger
}

var _ domrepo.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(c *pkgsqlite.Client, l *applogger.Logger) *SQLiteStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &SQLiteStore{c: c, l: l.With(applogger.String("store", "sqlite"))}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	return s.c.Migrate(ctx, sqliteSchema)
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	err := s.c.Tx(ctx, func(tx *sql.Tx) error {
		for _, t := range sqliteDerived {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
				return fmt.Errorf("drop %s: %w", t, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.l.Warn("derived tables dropped", applogger.Strings("tables", sqliteDerived))
	return s.Init(ctx)
}

func (s *SQLiteStore) Health(ctx context.Context) error { return s.c.Health(ctx) }

func (s *SQLiteStore) Close() error { return s.c.Close() }

// ---- markets ----

func (s *SQLiteStore) AppendObservations(ctx context.Context, obs []models.MarketObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	obs, err := normalizeObservations(obs)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	inserted := 0
	err = s.c.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO markets (ts, asset_id, symbol, price, market_cap, volume_24h, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare markets insert: %w", err)
		}
		defer stmt.Close()
		for _, o := range obs {
			res, err := stmt.ExecContext(ctx, millis(o.TS), o.AssetID, o.Symbol, o.Price,
				nullFloatPtr(o.MarketCap), nullFloatPtr(o.Volume24h), o.Source)
			if err != nil {
				return fmt.Errorf("insert observation %s: %w", o.Key(), err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		s.l.Error("append observations failed", applogger.Int("rows", len(obs)), applogger.Error(err))
		return 0, err
	}
	s.l.Debug("observations appended",
		applogger.Int("rows", len(obs)),
		applogger.Int("inserted", inserted),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return inserted, nil
}

const sqliteMarketCols = `seq, ts, asset_id, symbol, price, market_cap, volume_24h, source`

// Observations returns rows ordered by asset_id, ts, seq. A positive Limit keeps
// the most recent Limit rows of every asset.
func (s *SQLiteStore) Observations(ctx context.Context, f domrepo.ObservationFilter) ([]models.MarketObservation, error) {
	var (
		where []string
		args  []any
	)
	if len(f.AssetIDs) > 0 {
		where = append(where, "asset_id IN ("+placeholders(len(f.AssetIDs))+")")
		args = append(args, anyArgs(f.AssetIDs)...)
	}
	if f.Symbol != "" {
		where = append(where, "UPPER(symbol) = ?")
		args = append(args, util.NormalizeSymbol(f.Symbol))
	}
	if !f.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, millis(f.Since))
	}
	cond := ""
	if len(where) > 0 {
		cond = "WHERE " + strings.Join(where, " AND ")
	}

	q := fmt.Sprintf(`SELECT %s FROM markets %s ORDER BY asset_id, ts, seq`, sqliteMarketCols, cond)
	if f.Limit > 0 {
		q = fmt.Sprintf(`
			SELECT %s FROM (
				SELECT *, ROW_NUMBER() OVER (PARTITION BY asset_id ORDER BY ts DESC, seq DESC) AS rn
				FROM markets %s
			) WHERE rn <= ? ORDER BY asset_id, ts, seq`, sqliteMarketCols, cond)
		args = append(args, f.Limit)
	}
	return s.queryObservations(ctx, q, args...)
}

func (s *SQLiteStore) LatestObservations(ctx context.Context) ([]models.MarketObservation, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY asset_id ORDER BY ts DESC, seq DESC) AS rn
			FROM markets
		) WHERE rn = 1 ORDER BY asset_id`, sqliteMarketCols)
	return s.queryObservations(ctx, q)
}

func (s *SQLiteStore) queryObservations(ctx context.Context, q string, args ...any) ([]models.MarketObservation, error) {
	rows, err := s.c.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	out := make([]models.MarketObservation, 0, 256)
	for rows.Next() {
		var (
			o       models.MarketObservation
			ts      int64
			mcap, v sql.NullFloat64
		)
		if err := rows.Scan(&o.Seq, &ts, &o.AssetID, &o.Symbol, &o.Price, &mcap, &v, &o.Source); err != nil {
			return nil, fmt.Errorf("scan market row: %w", err)
		}
		o.TS = fromMillis(ts)
		o.MarketCap = floatPtr(mcap)
		o.Volume24h = floatPtr(v)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ---- indicators ----

func (s *SQLiteStore) ReplaceIndicators(ctx context.Context, rows []models.IndicatorRow) error {
	id := func(r models.IndicatorRow) string { return r.AssetID }
	if err := validateAssetRows(rows, id); err != nil {
		return err
	}
	return s.replace(ctx, TableIndicators, assetIDs(rows, id), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO indicators (asset_id, symbol, ts, seq, price, ema_fast, ema_slow, macd, macd_signal, macd_hist, rsi)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.AssetID, r.Symbol, millis(r.TS), r.Seq, r.Price,
				nullFloat(r.EMAFast), nullFloat(r.EMASlow), nullFloat(r.MACD),
				nullFloat(r.MACDSignal), nullFloat(r.MACDHist), nullFloat(r.RSI)); err != nil {
				return fmt.Errorf("insert indicator %s: %w", r.AssetID, err)
			}
		}
		return nil
	}, len(rows))
}

const sqliteIndicatorCols = `asset_id, symbol, ts, seq, price, ema_fast, ema_slow, macd, macd_signal, macd_hist, rsi`

func (s *SQLiteStore) Indicators(ctx context.Context, ids []string) ([]models.IndicatorRow, error) {
	q := `SELECT ` + sqliteIndicatorCols + ` FROM indicators`
	var args []any
	if len(ids) > 0 {
		q += ` WHERE asset_id IN (` + placeholders(len(ids)) + `)`
		args = anyArgs(ids)
	}
	q += ` ORDER BY asset_id, ts, seq`
	return s.queryIndicators(ctx, q, args...)
}

func (s *SQLiteStore) LatestIndicator(ctx context.Context, symbol string) (*models.IndicatorRow, error) {
	out, err := s.queryIndicators(ctx, `SELECT `+sqliteIndicatorCols+` FROM indicators
		WHERE UPPER(symbol) = ? ORDER BY ts DESC, seq DESC LIMIT 1`, util.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *SQLiteStore) queryIndicators(ctx context.Context, q string, args ...any) ([]models.IndicatorRow, error) {
	rows, err := s.c.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query indicators: %w", err)
	}
	defer rows.Close()

	var out []models.IndicatorRow
	for rows.Next() {
		var (
			r                                   models.IndicatorRow
			ts                                  int64
			fast, slow, macd, sig, hist, rsiVal sql.NullFloat64
		)
		if err := rows.Scan(&r.AssetID, &r.Symbol, &ts, &r.Seq, &r.Price,
			&fast, &slow, &macd, &sig, &hist, &rsiVal); err != nil {
			return nil, fmt.Errorf("scan indicator row: %w", err)
		}
		r.TS = fromMillis(ts)
		r.EMAFast, r.EMASlow = floatOrNaN(fast), floatOrNaN(slow)
		r.MACD, r.MACDSignal, r.MACDHist = floatOrNaN(macd), floatOrNaN(sig), floatOrNaN(hist)
		r.RSI = floatOrNaN(rsiVal)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---- signals ----

func (s *SQLiteStore) ReplaceSignals(ctx context.Context, rows []models.SignalRow) error {
	id := func(r models.SignalRow) string { return r.AssetID }
	if err := validateAssetRows(rows, id); err != nil {
		return err
	}
	return s.replace(ctx, TableSignals, assetIDs(rows, id), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO signals (asset_id, symbol, ts, price, rsi, ema_fast, ema_slow, macd, signal_tags, signal_strength)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.AssetID, r.Symbol, millis(r.TS), r.Price,
				nullFloat(r.RSI), nullFloat(r.EMAFast), nullFloat(r.EMASlow), nullFloat(r.MACD),
				r.TagString(), r.Strength); err != nil {
				return fmt.Errorf("insert signal %s: %w", r.AssetID, err)
			}
		}
		return nil
	}, len(rows))
}

const sqliteSignalCols = `asset_id, symbol, ts, price, rsi, ema_fast, ema_slow, macd, signal_tags, signal_strength`

func (s *SQLiteStore) Signals(ctx context.Context) ([]models.SignalRow, error) {
	return s.querySignals(ctx, `SELECT `+sqliteSignalCols+` FROM signals ORDER BY asset_id, ts`)
}

func (s *SQLiteStore) LatestSignal(ctx context.Context, symbol string) (*models.SignalRow, error) {
	out, err := s.querySignals(ctx, `SELECT `+sqliteSignalCols+` FROM signals
		WHERE UPPER(symbol) = ? ORDER BY ts DESC LIMIT 1`, util.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *SQLiteStore) querySignals(ctx context.Context, q string, args ...any) ([]models.SignalRow, error) {
	rows, err := s.c.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []models.SignalRow
	for rows.Next() {
		var (
			r                     models.SignalRow
			ts                    int64
			rsiVal, fast, slow, m sql.NullFloat64
			tags                  string
		)
		if err := rows.Scan(&r.AssetID, &r.Symbol, &ts, &r.Price, &rsiVal, &fast, &slow, &m, &tags, &r.Strength); err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		r.TS = fromMillis(ts)
		r.RSI, r.EMAFast, r.EMASlow, r.MACD = floatOrNaN(rsiVal), floatOrNaN(fast), floatOrNaN(slow), floatOrNaN(m)
		r.Tags = models.ParseTags(tags)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---- scores ----

func (s *SQLiteStore) ReplaceScores(ctx context.Context, rows []models.ScoreRow) error {
	id := func(r models.ScoreRow) string { return r.AssetID }
	if err := validateAssetRows(rows, id); err != nil {
		return err
	}
	return s.replace(ctx, TableScores, assetIDs(rows, id), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO scores (asset_id, symbol, ts, price, trend_score, trend_tier, signal_tags)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.AssetID, r.Symbol, millis(r.TS), r.Price,
				r.Score, string(r.Tier), models.JoinTags(r.Tags)); err != nil {
				return fmt.Errorf("insert score %s: %w", r.AssetID, err)
			}
		}
		return nil
	}, len(rows))
}

const sqliteScoreCols = `asset_id, symbol, ts, price, trend_score, trend_tier, signal_tags`

func (s *SQLiteStore) Scores(ctx context.Context) ([]models.ScoreRow, error) {
	return s.queryScores(ctx, `SELECT `+sqliteScoreCols+` FROM scores ORDER BY asset_id, ts`)
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int, tier models.TrendTier) ([]models.ScoreRow, error) {
	var args []any
	tierCond := ""
	if tier != "" {
		tierCond = "AND trend_tier = ?"
		args = append(args, string(tier))
	}
	q := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY asset_id ORDER BY ts DESC) AS rn FROM scores
		) WHERE rn = 1 %s
		ORDER BY trend_score DESC, ts DESC, asset_id`, sqliteScoreCols, tierCond)
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryScores(ctx, q, args...)
}

func (s *SQLiteStore) LatestScore(ctx context.Context, symbol string) (*models.ScoreRow, error) {
	out, err := s.queryScores(ctx, `SELECT `+sqliteScoreCols+` FROM scores
		WHERE UPPER(symbol) = ? ORDER BY ts DESC LIMIT 1`, util.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *SQLiteStore) queryScores(ctx context.Context, q string, args ...any) ([]models.ScoreRow, error) {
	rows, err := s.c.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []models.ScoreRow
	for rows.Next() {
		var (
			r          models.ScoreRow
			ts         int64
			tier, tags string
		)
		if err := rows.Scan(&r.AssetID, &r.Symbol, &ts, &r.Price, &r.Score, &tier, &tags); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		r.TS = fromMillis(ts)
		r.Tier = models.TrendTier(tier)
		r.Tags = models.ParseTags(tags)
		out = append(out, r)
	}
	return out, rows.Err()
}

// replace deletes the rows of ids from table and runs insert in the same
// transaction, so a failed insert leaves the previous rows in place.
func (s *SQLiteStore) replace(ctx context.Context, table string, ids []string, insert func(*sql.Tx) error, n int) error {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	err := s.c.Tx(ctx, func(tx *sql.Tx) error {
		q := fmt.Sprintf("DELETE FROM %s WHERE asset_id IN (%s)", table, placeholders(len(ids)))
		if _, err := tx.ExecContext(ctx, q, anyArgs(ids)...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
		return insert(tx)
	})
	if err != nil {
		s.l.Error("replace failed", applogger.String("table", table), applogger.Int("assets", len(ids)), applogger.Error(err))
		return fmt.Errorf("replace %s: %w", table, err)
	}
	s.l.Debug("rows replaced",
		applogger.String("table", table),
		applogger.Int("assets", len(ids)),
		applogger.Int("rows", n),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// ---- feeds ----

func (s *SQLiteStore) UpsertNews(ctx context.Context, items []models.NewsItem) (int, error) {
	n := 0
	err := s.c.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO news (id, title, url, source, published_at, symbols) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title, url = excluded.url, source = excluded.source,
				published_at = excluded.published_at, symbols = excluded.symbols`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, it := range items {
			if it.ID == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, it.ID, it.Title, it.URL, it.Source, millis(it.PublishedAt), symbolSet(it.Symbols)); err != nil {
				return fmt.Errorf("upsert news %s: %w", it.ID, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) UpsertEvents(ctx context.Context, items []models.EventItem) (int, error) {
	n := 0
	err := s.c.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO events (id, title, event_date, source, category, symbols) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title, event_date = excluded.event_date, source = excluded.source,
				category = excluded.category, symbols = excluded.symbols`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, it := range items {
			if it.ID == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, it.ID, it.Title, millis(it.Date), it.Source, it.Category, symbolSet(it.Symbols)); err != nil {
				return fmt.Errorf("upsert event %s: %w", it.ID, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) InsertQuotes(ctx context.Context, quotes []models.Quote) (int, error) {
	n := 0
	err := s.c.Tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO quotes (symbol, ts, provider, price, open, high, low, prev_close)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, q := range quotes {
			res, err := stmt.ExecContext(ctx, util.NormalizeSymbol(q.Symbol), millis(q.TS), q.Provider, q.Price,
				nullFloat(q.Open), nullFloat(q.High), nullFloat(q.Low), nullFloat(q.PrevClose))
			if err != nil {
				return fmt.Errorf("insert quote %s: %w", q.Symbol, err)
			}
			k, _ := res.RowsAffected()
			n += int(k)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) RecentNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	q := `SELECT id, title, url, source, published_at, symbols FROM news`
	var args []any
	if symbol != "" {
		q += ` WHERE symbols LIKE ?`
		args = append(args, symbolPattern(symbol))
	}
	q += ` ORDER BY published_at DESC, id`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.c.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	var out []models.NewsItem
	for rows.Next() {
		var (
			it      models.NewsItem
			ts      int64
			symbols string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.URL, &it.Source, &ts, &symbols); err != nil {
			return nil, fmt.Errorf("scan news row: %w", err)
		}
		it.PublishedAt = fromMillis(ts)
		it.Symbols = parseSymbolSet(symbols)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecentEvents(ctx context.Context, limit int) ([]models.EventItem, error) {
	q := `SELECT id, title, event_date, source, category, symbols FROM events ORDER BY event_date DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.c.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []models.EventItem
	for rows.Next() {
		var (
			it      models.EventItem
			ts      int64
			symbols string
		)
		if err := rows.Scan(&it.ID, &it.Title, &ts, &it.Source, &it.Category, &symbols); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		it.Date = fromMillis(ts)
		it.Symbols = parseSymbolSet(symbols)
		out = append(out, it)
	}
	return out, rows.Err()
}

// ReplaceTrends rebuilds the whole trend feed.
func (s *SQLiteStore) ReplaceTrends(ctx context.Context, rows []models.TrendRow) error {
	return s.c.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trends`); err != nil {
			return fmt.Errorf("clear trends: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trends (kind, source_id, ts, symbol, title, trend_score, last_price, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.Kind, r.SourceID, millis(r.TS), r.Symbol, r.Title,
				r.TrendScore, nullFloatPtr(r.LastPrice), r.Source); err != nil {
				return fmt.Errorf("insert trend %s/%s: %w", r.Kind, r.SourceID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) TopTrends(ctx context.Context, symbol string, limit int) ([]models.TrendRow, error) {
	q := `SELECT kind, source_id, ts, symbol, title, trend_score, last_price, source FROM trends`
	var args []any
	if symbol != "" {
		q += ` WHERE UPPER(symbol) = ?`
		args = append(args, util.NormalizeSymbol(symbol))
	}
	q += ` ORDER BY trend_score DESC, ts DESC, kind, source_id`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.c.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	var out []models.TrendRow
	for rows.Next() {
		var (
			r  models.TrendRow
			ts int64
			lp sql.NullFloat64
		)
		if err := rows.Scan(&r.Kind, &r.SourceID, &ts, &r.Symbol, &r.Title, &r.TrendScore, &lp, &r.Source); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		r.TS = fromMillis(ts)
		r.LastPrice = floatPtr(lp)
		out = append(out, r)
	}
	return out, rows.Err()
}

// IsNotFound reports whether err is ErrNotFound or sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
