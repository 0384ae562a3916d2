package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
)

func TestBuildTrends(t *testing.T) {
	scores := []models.ScoreRow{
		{AssetID: "bitcoin", Symbol: "BTC", TS: base, Price: 100, Score: 80, Tier: models.TierBullish, Tags: []string{"ema_bull"}},
		{AssetID: "ethereum", Symbol: "ETH", TS: base, Price: 10, Score: 35, Tier: models.TierBearish},
	}
	latest := []models.MarketObservation{
		{AssetID: "bitcoin", Symbol: "BTC", TS: base, Price: 101, Source: "coingecko"},
	}
	news := []models.NewsItem{
		{ID: "n1", Title: "BTC and SOL rally", Source: "cp", PublishedAt: base.Add(time.Hour), Symbols: []string{"btc", "SOL", "BTC"}},
		{ID: "n2", Title: "Macro outlook", Source: "cp", PublishedAt: base},
	}
	events := []models.EventItem{
		{ID: "e1", Title: "ETH upgrade", Source: "cal", Date: base.Add(2 * time.Hour), Symbols: []string{"ETH"}},
	}

	rows := BuildTrends(scores, latest, news, events)
	require.Len(t, rows, 5)

	// ordered by score desc then ts desc
	assert.Equal(t, models.KindNews, rows[0].Kind)
	assert.Equal(t, "BTC", rows[0].Symbol)
	assert.Equal(t, 80.0, rows[0].TrendScore)
	assert.Equal(t, models.KindScore, rows[1].Kind)
	require.NotNil(t, rows[1].LastPrice)
	assert.Equal(t, 101.0, *rows[1].LastPrice)
	assert.Equal(t, "coingecko", rows[1].Source)

	assert.Equal(t, "SOL", rows[2].Symbol)
	assert.Equal(t, 50.0, rows[2].TrendScore)
	assert.Nil(t, rows[2].LastPrice)

	assert.Equal(t, models.KindEvent, rows[3].Kind)
	assert.Equal(t, 35.0, rows[3].TrendScore)
	assert.Equal(t, models.KindScore, rows[4].Kind)
	require.NotNil(t, rows[4].LastPrice)
	assert.Equal(t, 10.0, *rows[4].LastPrice)
}
