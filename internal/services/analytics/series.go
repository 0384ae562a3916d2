package analytics

import (
	"sort"
	"time"

	"Certus/internal/domain/models"
)

// groupOrdered splits rows by key and orders every group by (ts, seq).
// Equal (ts, seq) pairs keep their input order. Keys are returned sorted.
func groupOrdered[T any](rows []T, key func(T) string, ts func(T) time.Time, seq func(T) int64) ([]string, map[string][]T) {
	groups := make(map[string][]T)
	for _, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], r)
	}

	keys := make([]string, 0, len(groups))
	for k, g := range groups {
		keys = append(keys, k)
		sort.SliceStable(g, func(i, j int) bool {
			ti, tj := ts(g[i]), ts(g[j])
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return seq(g[i]) < seq(g[j])
		})
	}
	sort.Strings(keys)
	return keys, groups
}

// GroupObservations groups market observations per asset in time order.
func GroupObservations(obs []models.MarketObservation) ([]string, map[string][]models.MarketObservation) {
	return groupOrdered(obs,
		func(o models.MarketObservation) string { return o.AssetID },
		func(o models.MarketObservation) time.Time { return o.TS },
		func(o models.MarketObservation) int64 { return o.Seq },
	)
}

// GroupIndicators groups indicator rows per asset in time order.
func GroupIndicators(rows []models.IndicatorRow) ([]string, map[string][]models.IndicatorRow) {
	return groupOrdered(rows,
		func(r models.IndicatorRow) string { return r.AssetID },
		func(r models.IndicatorRow) time.Time { return r.TS },
		func(r models.IndicatorRow) int64 { return r.Seq },
	)
}

// LatestIndicators keeps the most recent row per asset, ordered by asset id.
func LatestIndicators(rows []models.IndicatorRow) []models.IndicatorRow {
	keys, groups := GroupIndicators(rows)
	out := make([]models.IndicatorRow, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, g[len(g)-1])
	}
	return out
}

// LatestObservations keeps the most recent observation per asset, ordered by asset id.
func LatestObservations(obs []models.MarketObservation) []models.MarketObservation {
	keys, groups := GroupObservations(obs)
	out := make([]models.MarketObservation, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, g[len(g)-1])
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
