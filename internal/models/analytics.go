package models

import "time"

// DayBucket is one entry of the daily click series.
type DayBucket struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// CountryBucket is one entry of the per-country breakdown.
type CountryBucket struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// RecentClick is one entry of the recent-clicks window exposed to the
// dashboard. It deliberately omits the fingerprint.
type RecentClick struct {
	ClickedAt time.Time `json:"clicked_at"`
	IPAddress string    `json:"ip_address"`
	Country   string    `json:"country"`
	UserAgent string    `json:"user_agent"`
}

// AnalyticsReport is the dashboard view for one link.
type AnalyticsReport struct {
	TotalClicks     int64           `json:"total_clicks"`
	UniqueClicks    int64           `json:"unique_clicks"`
	ClicksByDay     []DayBucket     `json:"clicks_by_day"`
	ClicksByCountry []CountryBucket `json:"clicks_by_country"`
	RecentClicks    []RecentClick   `json:"recent_clicks"`

	// ConversionRate is unique/total as a percentage, a pure function of
	// the two counts above.
	ConversionRate float64 `json:"conversion_rate"`
}
