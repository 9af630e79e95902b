package model

// DashboardStats aggregates request counts for the caller's visible scope
type DashboardStats struct {
	TotalRequests    int64              `json:"total_requests"`
	PendingRequests  int64              `json:"pending_requests"`
	ApprovedRequests int64              `json:"approved_requests"`
	RejectedRequests int64              `json:"rejected_requests"`
	MonthlyRequests  int64              `json:"monthly_requests"`
	TopCommodities   []CommodityRanking `json:"top_commodities"`
	RecentRequests   []CommodityRequest `json:"recent_requests"`
}

// CommodityRanking represents a ranked commodity based on request volume
type CommodityRanking struct {
	CommodityID   string `json:"commodity_id"`
	CommodityName string `json:"commodity_name"`
	RequestCount  int64  `json:"request_count"`
	TotalQuantity int64  `json:"total_quantity"`
}

// StatusCount is one slice of the status distribution chart
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MonthlyTrend is one month's request volume for the trend chart
type MonthlyTrend struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// RequestAnalytics bundles the chart datasets for the reporting UI
type RequestAnalytics struct {
	StatusDistribution []StatusCount      `json:"status_distribution"`
	MonthlyTrends      []MonthlyTrend     `json:"monthly_trends"`
	TopCommodities     []CommodityRanking `json:"top_commodities"`
}
