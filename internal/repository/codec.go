package repository

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"Certus/internal/domain/models"
	"Certus/pkg/util"
)

// Table names shared by every backend.
const (
	TableMarkets    = "markets"
	TableIndicators = "indicators"
	TableSignals    = "signals"
	TableScores     = "scores"
	TableNews       = "news"
	TableEvents     = "events"
	TableQuotes     = "quotes"
	TableTrends     = "trends"
)

func millis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return util.FromUnixMillis(ms) }

// nullFloat maps NaN/Inf and nil to SQL NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullFloatPtr(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return nullFloat(*v)
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// symbolSet renders a symbol list as ",A,B," so a single LIKE matches one symbol.
func symbolSet(symbols []string) string {
	if len(symbols) == 0 {
		return ""
	}
	norm := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = util.NormalizeSymbol(s); s != "" {
			norm = append(norm, s)
		}
	}
	if len(norm) == 0 {
		return ""
	}
	return "," + strings.Join(norm, ",") + ","
}

func parseSymbolSet(s string) []string {
	return util.SplitCSV(strings.Trim(s, ","))
}

func symbolPattern(symbol string) string {
	return "%," + util.NormalizeSymbol(symbol) + ",%"
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anyArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// assetIDs returns the distinct asset ids in first-seen order.
func assetIDs[T any](rows []T, id func(T) string) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0)
	for _, r := range rows {
		k := id(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// normalizeObservations validates obs and returns a copy with upper-cased
// symbols, so every reader sees one casing whatever the writer sent.
func normalizeObservations(obs []models.MarketObservation) ([]models.MarketObservation, error) {
	out := make([]models.MarketObservation, len(obs))
	for i, o := range obs {
		o.Symbol = util.NormalizeSymbol(o.Symbol)
		if o.AssetID == "" || o.Symbol == "" || o.TS.IsZero() || math.IsNaN(o.Price) {
			return nil, fmt.Errorf("%w: observation %d (%q)", ErrInvalidInput, i, o.AssetID)
		}
		out[i] = o
	}
	return out, nil
}

func validateAssetRows[T any](rows []T, id func(T) string) error {
	for i, r := range rows {
		if id(r) == "" {
			return fmt.Errorf("%w: row %d has no asset_id", ErrInvalidInput, i)
		}
	}
	return nil
}
