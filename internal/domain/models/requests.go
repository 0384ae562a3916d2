package models

// Requests for the query API. Defined in domain for consistency and reuse.

type TrendsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=20"`
	Limit  int    `query:"limit" json:"limit" default:"20"`
}

type LeaderboardRequest struct {
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Tier  string `query:"tier" json:"tier" validate:"omitempty,oneof=bullish neutral bearish"`
}

type AssetRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=20"`
	News   int    `query:"news" json:"news" default:"5" validate:"gte=0,lte=50"`
}

type HistoryRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=20"`
	Limit  int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=5000"`
}
