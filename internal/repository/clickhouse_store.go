package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	pkgch "Certus/pkg/clickhouse"
	applogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// Rows per INSERT batch.
const chunkSize = 2000

// ClickHouseStore implements domrepo.Store on ClickHouse.
//
// Appends are idempotent on (asset_id, ts) through a key pre-check plus a
// ReplacingMergeTree. Replace* deletes the assets' rows then inserts; unlike
// SQLite the pair is not atomic, rows are fully built before the delete runs.
type ClickHouseStore struct {
	db  *sql.DB
	l   *applogger.Logger
	seq atomic.Int64
}

var _ domrepo.Store = (*ClickHouseStore)(nil)

func NewClickHouseStore(ch *pkgch.Client, l *applogger.Logger) *ClickHouseStore {
	if l == nil {
		l = applogger.Nop()
	}
	s := &ClickHouseStore{db: ch.DB(), l: l.With(applogger.String("store", "clickhouse"))}
	s.seq.Store(time.Now().UnixNano())
	return s
}

func (s *ClickHouseStore) Init(ctx context.Context) error {
	for i, stmt := range clickhouseSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}

func (s *ClickHouseStore) Reset(ctx context.Context) error {
	for _, t := range clickhouseDerived {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	s.l.Warn("derived tables dropped", applogger.Strings("tables", clickhouseDerived))
	return s.Init(ctx)
}

func (s *ClickHouseStore) Health(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close is a no-op; the pool is owned by pkg/clickhouse.Client.
func (s *ClickHouseStore) Close() error { return nil }

func chFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func chFloatPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return chFloat(*v)
}

// insertBatch sends rows in chunks using the driver's native batch insert.
func (s *ClickHouseStore) insertBatch(ctx context.Context, table string, cols []string, rows [][]any) error {
	q := fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(cols, ", "))
	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s batch: %w", table, err)
		}
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare %s batch: %w", table, err)
		}
		for _, r := range rows[start:end] {
			if _, err := stmt.ExecContext(ctx, r...); err != nil {
				_ = stmt.Close()
				_ = tx.Rollback()
				return fmt.Errorf("append %s row: %w", table, err)
			}
		}
		if err := tx.Commit(); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("send %s batch: %w", table, err)
		}
		_ = stmt.Close()
	}
	return nil
}

// existingKeys runs q, which must select two columns, and returns "a|b" keys.
func (s *ClickHouseStore) existingKeys(ctx context.Context, q string, args ...any) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var (
			a  string
			ms int64
		)
		if err := rows.Scan(&a, &ms); err != nil {
			return nil, err
		}
		out[fmt.Sprintf("%s|%d", a, ms)] = struct{}{}
	}
	return out, rows.Err()
}

// ---- markets ----

func (s *ClickHouseStore) AppendObservations(ctx context.Context, obs []models.MarketObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	obs, err := normalizeObservations(obs)
	if err != nil {
		return 0, err
	}
	start := time.Now()

	lo, hi := millis(obs[0].TS), millis(obs[0].TS)
	for _, o := range obs[1:] {
		lo, hi = min(lo, millis(o.TS)), max(hi, millis(o.TS))
	}
	ids := assetIDs(obs, func(o models.MarketObservation) string { return o.AssetID })
	args := append(anyArgs(ids), lo, hi)
	seen, err := s.existingKeys(ctx, fmt.Sprintf(`
		SELECT asset_id, toUnixTimestamp64Milli(ts) FROM markets
		WHERE asset_id IN (%s)
		  AND ts BETWEEN fromUnixTimestamp64Milli(toInt64(?)) AND fromUnixTimestamp64Milli(toInt64(?))`,
		placeholders(len(ids))), args...)
	if err != nil {
		return 0, fmt.Errorf("check market keys: %w", err)
	}

	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		k := fmt.Sprintf("%s|%d", o.AssetID, millis(o.TS))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, []any{
			s.seq.Add(1), o.TS.UTC(), o.AssetID, o.Symbol, o.Price,
			chFloatPtr(o.MarketCap), chFloatPtr(o.Volume24h), o.Source,
		})
	}
	if err := s.insertBatch(ctx, TableMarkets,
		[]string{"seq", "ts", "asset_id", "symbol", "price", "market_cap", "volume_24h", "source"}, rows); err != nil {
		s.l.Error("append observations failed", applogger.Int("rows", len(rows)), applogger.Error(err))
		return 0, err
	}
	s.l.Debug("observations appended",
		applogger.Int("rows", len(obs)),
		applogger.Int("inserted", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return len(rows), nil
}

const chMarketCols = `seq, toUnixTimestamp64Milli(ts) AS ts_ms, asset_id, symbol, price, market_cap, volume_24h, source`

func (s *ClickHouseStore) Observations(ctx context.Context, f domrepo.ObservationFilter) ([]models.MarketObservation, error) {
	var (
		where []string
		args  []any
	)
	if len(f.AssetIDs) > 0 {
		where = append(where, "asset_id IN ("+placeholders(len(f.AssetIDs))+")")
		args = append(args, anyArgs(f.AssetIDs)...)
	}
	if f.Symbol != "" {
		where = append(where, "upper(symbol) = ?")
		args = append(args, util.NormalizeSymbol(f.Symbol))
	}
	if !f.Since.IsZero() {
		where = append(where, "ts >= fromUnixTimestamp64Milli(toInt64(?))")
		args = append(args, millis(f.Since))
	}
	cond := ""
	if len(where) > 0 {
		cond = "WHERE " + strings.Join(where, " AND ")
	}

	var q string
	if f.Limit > 0 {
		q = fmt.Sprintf(`
			SELECT * FROM (
				SELECT %s FROM markets FINAL %s
				ORDER BY asset_id, ts DESC, seq DESC
				LIMIT %d BY asset_id
			) ORDER BY asset_id, ts_ms, seq`, chMarketCols, cond, f.Limit)
	} else {
		q = fmt.Sprintf(`SELECT %s FROM markets FINAL %s ORDER BY asset_id, ts, seq`, chMarketCols, cond)
	}
	return s.queryObservations(ctx, q, args...)
}

func (s *ClickHouseStore) LatestObservations(ctx context.Context) ([]models.MarketObservation, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM markets FINAL
		ORDER BY asset_id, ts DESC, seq DESC
		LIMIT 1 BY asset_id`, chMarketCols)
	return s.queryObservations(ctx, q)
}

func (s *ClickHouseStore) queryObservations(ctx context.Context, q string, args ...any) ([]models.MarketObservation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
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

// ---- derived tables ----

func (s *ClickHouseStore) replace(ctx context.Context, table string, ids []string, cols []string, rows [][]any) error {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	q := fmt.Sprintf("DELETE FROM %s WHERE asset_id IN (%s)", table, placeholders(len(ids)))
	if _, err := s.db.ExecContext(ctx, q, anyArgs(ids)...); err != nil {
		s.l.Error("replace delete failed", applogger.String("table", table), applogger.Error(err))
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if err := s.insertBatch(ctx, table, cols, rows); err != nil {
		s.l.Error("replace insert failed", applogger.String("table", table), applogger.Error(err))
		return fmt.Errorf("replace %s: %w", table, err)
	}
	s.l.Debug("rows replaced",
		applogger.String("table", table),
		applogger.Int("assets", len(ids)),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// ReplaceIndicators deletes the rows of every asset in the batch, then inserts
// the batch. The two steps are not atomic here: a failed insert can leave an
// asset without indicator rows until the next run.
func (s *ClickHouseStore) ReplaceIndicators(ctx context.Context, in []models.IndicatorRow) error {
	id := func(r models.IndicatorRow) string { return r.AssetID }
	if err := validateAssetRows(in, id); err != nil {
		return err
	}
	rows := make([][]any, 0, len(in))
	for _, r := range in {
		rows = append(rows, []any{r.AssetID, r.Symbol, r.TS.UTC(), r.Seq, r.Price,
			chFloat(r.EMAFast), chFloat(r.EMASlow), chFloat(r.MACD),
			chFloat(r.MACDSignal), chFloat(r.MACDHist), chFloat(r.RSI)})
	}
	return s.replace(ctx, TableIndicators, assetIDs(in, id),
		[]string{"asset_id", "symbol", "ts", "seq", "price", "ema_fast", "ema_slow", "macd", "macd_signal", "macd_hist", "rsi"}, rows)
}

const chIndicatorCols = `asset_id, symbol, toUnixTimestamp64Milli(ts), seq, price, ema_fast, ema_slow, macd, macd_signal, macd_hist, rsi`

func (s *ClickHouseStore) Indicators(ctx context.Context, ids []string) ([]models.IndicatorRow, error) {
	q := `SELECT ` + chIndicatorCols + ` FROM indicators`
	var args []any
	if len(ids) > 0 {
		q += ` WHERE asset_id IN (` + placeholders(len(ids)) + `)`
		args = anyArgs(ids)
	}
	q += ` ORDER BY asset_id, ts, seq`
	return s.queryIndicators(ctx, q, args...)
}

func (s *ClickHouseStore) LatestIndicator(ctx context.Context, symbol string) (*models.IndicatorRow, error) {
	out, err := s.queryIndicators(ctx, `SELECT `+chIndicatorCols+` FROM indicators
		WHERE upper(symbol) = ? ORDER BY ts DESC, seq DESC LIMIT 1`, util.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *ClickHouseStore) queryIndicators(ctx context.Context, q string, args ...any) ([]models.IndicatorRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
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

func (s *ClickHouseStore) ReplaceSignals(ctx context.Context, in []models.SignalRow) error {
	id := func(r models.SignalRow) string { return r.AssetID }
	if err := validateAssetRows(in, id); err != nil {
		return err
	}
	rows := make([][]any, 0, len(in))
	for _, r := range in {
		rows = append(rows, []any{r.AssetID, r.Symbol, r.TS.UTC(), r.Price,
			chFloat(r.RSI), chFloat(r.EMAFast), chFloat(r.EMASlow), chFloat(r.MACD),
			r.TagString(), r.Strength})
	}
	return s.replace(ctx, TableSignals, assetIDs(in, id),
		[]string{"asset_id", "symbol", "ts", "price", "rsi", "ema_fast", "ema_slow", "macd", "signal_tags", "signal_strength"}, rows)
}

const chSignalCols = `asset_id, symbol, toUnixTimestamp64Milli(ts), price, rsi, ema_fast, ema_slow, macd, signal_tags, signal_strength`

func (s *ClickHouseStore) Signals(ctx context.Context) ([]models.SignalRow, error) {
	return s.querySignals(ctx, `SELECT `+chSignalCols+` FROM signals ORDER BY asset_id, ts`)
}

func (s *ClickHouseStore) LatestSignal(ctx context.Context, symbol string) (*models.SignalRow, error) {
	out, err := s.querySignals(ctx, `SELECT `+chSignalCols+` FROM signals
		WHERE upper(symbol) = ? ORDER BY ts DESC LIMIT 1`, util.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *ClickHouseStore) querySignals(ctx context.Context, q string, args ...any) ([]models.SignalRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
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

func (s *ClickHouseStore) ReplaceScores(ctx context.Context, in []models.ScoreRow) error {
	id := func(r models.ScoreRow) string { return r.AssetID }
	if err := validateAssetRows(in, id); err != nil {
		return err
	}
	rows := make([][]any, 0, len(in))
	for _, r := range in {
		rows = append(rows, []any{r.AssetID, r.Symbol, r.TS.UTC(), r.Price, r.Score, string(r.Tier), models.JoinTags(r.Tags)})
	}
	return s.replace(ctx, TableScores, assetIDs(in, id),
		[]string{"asset_id", "symbol", "ts", "price", "trend_score", "trend_tier", "signal_tags"}, rows)
}

const chScoreCols = `asset_id, symbol, toUnixTimestamp64Milli(ts) AS ts_ms, price, trend_score, trend_tier, signal_tags`

func (s *ClickHouseStore) Scores(ctx context.Context) ([]models.ScoreRow, error) {
	return s.queryScores(ctx, `SELECT `+chScoreCols+` FROM scores ORDER BY asset_id, ts`)
}

func (s *ClickHouseStore) Leaderboard(ctx context.Context, limit int, tier models.TrendTier) ([]models.ScoreRow, error) {
	var args []any
	tierCond := ""
	if tier != "" {
		tierCond = "WHERE trend_tier = ?"
		args = append(args, string(tier))
	}
	q := fmt.Sprintf(`
		SELECT * FROM (
			SELECT %s FROM scores ORDER BY asset_id, ts DESC LIMIT 1 BY asset_id
		) %s
		ORDER BY trend_score DESC, ts_ms DESC, asset_id`, chScoreCols, tierCond)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryScores(ctx, q, args...)
}

func (s *ClickHouseStore) LatestScore(ctx context.Context, symbol string) (*models.ScoreRow, error) {
	out, err := s.queryScores(ctx, `SELECT `+chScoreCols+` FROM scores
		WHERE upper(symbol) = ? ORDER BY ts DESC LIMIT 1`, util.NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *ClickHouseStore) queryScores(ctx context.Context, q string, args ...any) ([]models.ScoreRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
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

// ---- feeds ----

func (s *ClickHouseStore) UpsertNews(ctx context.Context, items []models.NewsItem) (int, error) {
	version := uint64(time.Now().UnixNano())
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		rows = append(rows, []any{it.ID, it.Title, it.URL, it.Source, it.PublishedAt.UTC(), symbolSet(it.Symbols), version})
	}
	if err := s.insertBatch(ctx, TableNews, []string{"id", "title", "url", "source", "published_at", "symbols", "version"}, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *ClickHouseStore) UpsertEvents(ctx context.Context, items []models.EventItem) (int, error) {
	version := uint64(time.Now().UnixNano())
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		rows = append(rows, []any{it.ID, it.Title, it.Date.UTC(), it.Source, it.Category, symbolSet(it.Symbols), version})
	}
	if err := s.insertBatch(ctx, TableEvents, []string{"id", "title", "event_date", "source", "category", "symbols", "version"}, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *ClickHouseStore) InsertQuotes(ctx context.Context, quotes []models.Quote) (int, error) {
	if len(quotes) == 0 {
		return 0, nil
	}
	syms := make([]string, 0, len(quotes))
	for _, q := range quotes {
		syms = append(syms, util.NormalizeSymbol(q.Symbol))
	}
	seen, err := s.existingKeys(ctx, fmt.Sprintf(`
		SELECT concat(symbol, '|', provider), toUnixTimestamp64Milli(ts) FROM quotes
		WHERE symbol IN (%s)`, placeholders(len(syms))), anyArgs(syms)...)
	if err != nil {
		return 0, fmt.Errorf("check quote keys: %w", err)
	}

	rows := make([][]any, 0, len(quotes))
	for i, q := range quotes {
		k := fmt.Sprintf("%s|%s|%d", syms[i], q.Provider, millis(q.TS))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, []any{syms[i], q.TS.UTC(), q.Provider, q.Price,
			chFloat(q.Open), chFloat(q.High), chFloat(q.Low), chFloat(q.PrevClose)})
	}
	if err := s.insertBatch(ctx, TableQuotes, []string{"symbol", "ts", "provider", "price", "open", "high", "low", "prev_close"}, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *ClickHouseStore) RecentNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	q := `SELECT id, title, url, source, toUnixTimestamp64Milli(published_at), symbols FROM news FINAL`
	var args []any
	if symbol != "" {
		q += ` WHERE symbols LIKE ?`
		args = append(args, symbolPattern(symbol))
	}
	q += ` ORDER BY published_at DESC, id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
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

func (s *ClickHouseStore) RecentEvents(ctx context.Context, limit int) ([]models.EventItem, error) {
	q := `SELECT id, title, toUnixTimestamp64Milli(event_date), source, category, symbols FROM events FINAL ORDER BY event_date DESC, id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q)
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

func (s *ClickHouseStore) ReplaceTrends(ctx context.Context, in []models.TrendRow) error {
	rows := make([][]any, 0, len(in))
	for _, r := range in {
		rows = append(rows, []any{r.Kind, r.SourceID, r.TS.UTC(), r.Symbol, r.Title, r.TrendScore, chFloatPtr(r.LastPrice), r.Source})
	}
	if _, err := s.db.ExecContext(ctx, `TRUNCATE TABLE IF EXISTS trends`); err != nil {
		return fmt.Errorf("clear trends: %w", err)
	}
	return s.insertBatch(ctx, TableTrends,
		[]string{"kind", "source_id", "ts", "symbol", "title", "trend_score", "last_price", "source"}, rows)
}

func (s *ClickHouseStore) TopTrends(ctx context.Context, symbol string, limit int) ([]models.TrendRow, error) {
	q := `SELECT kind, source_id, toUnixTimestamp64Milli(ts), symbol, title, trend_score, last_price, source FROM trends`
	var args []any
	if symbol != "" {
		q += ` WHERE upper(symbol) = ?`
		args = append(args, util.NormalizeSymbol(symbol))
	}
	q += ` ORDER BY trend_score DESC, ts DESC, kind, source_id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
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
