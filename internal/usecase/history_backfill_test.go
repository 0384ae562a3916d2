package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
)

type fakeChart struct{}

func (fakeChart) FetchChartRange(_ context.Context, id string, from, to time.Time) (models.ChartSeries, error) {
	s := models.ChartSeries{AssetID: id}
	for ts := from; !ts.After(to); ts = ts.Add(time.Hour) {
		s.Prices = append(s.Prices, models.ChartPoint{TS: ts, Value: 100})
		s.Volumes = append(s.Volumes, models.ChartPoint{TS: ts, Value: 5})
	}
	return s, nil
}

func TestBackfillIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	b := NewHistoryBackfill(fakeChart{}, "coingecko", store, nil)
	targets := []BackfillTarget{{AssetID: "bitcoin", Symbol: "btc"}}

	n, err := b.Backfill(ctx, targets, base, base.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	n, err = b.Backfill(ctx, targets, base, base.Add(47*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	rows, err := store.Observations(ctx, domrepo.ObservationFilter{AssetIDs: []string{"bitcoin"}})
	require.NoError(t, err)
	require.Len(t, rows, 48)
	assert.Equal(t, "BTC", rows[0].Symbol)
	require.NotNil(t, rows[0].Volume24h)

	got, err := b.Targets(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, targets[0].AssetID, got[0].AssetID)

	_, err = b.Backfill(ctx, targets, base, base)
	assert.Error(t, err)
}
