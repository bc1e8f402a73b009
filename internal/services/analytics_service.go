package services

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/shortly-io/shortly/internal/models"
	"github.com/shortly-io/shortly/internal/repository"
)

const (
	// dayWindow restricts the daily series to the most recent 30 days.
	dayWindow = 30 * 24 * time.Hour

	// topCountries caps the country breakdown to what the dashboard
	// renders.
	topCountries = 10

	// recentWindow is the size of the recent-clicks log.
	recentWindow = 10

	// UnknownCountry is the presentation default for clicks whose
	// country could not be resolved. Never stored.
	UnknownCountry = "Unknown"
)

// AnalyticsService computes the dashboard view from the click event
// log. Reports are computed on demand; freshness lags the redirect by
// at most the ingest buffer, and a report over an unchanged log is
// identical on every call.
type AnalyticsService struct {
	links  repository.LinkRepository
	clicks repository.ClickRepository
	log    *zap.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(links repository.LinkRepository, clicks repository.ClickRepository, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{links: links, clicks: clicks, log: log}
}

// Compute builds the AnalyticsReport for a link. Returns
// apperrors.ErrLinkNotFound when the link does not exist (including
// after deletion: retained orphan events are not reachable here).
func (s *AnalyticsService) Compute(ctx context.Context, linkID uint) (*models.AnalyticsReport, error) {
	if _, err := s.links.GetByID(linkID); err != nil {
		return nil, err
	}

	total, err := s.clicks.CountByLinkID(linkID)
	if err != nil {
		return nil, err
	}
	unique, err := s.clicks.CountUniqueVisitors(linkID)
	if err != nil {
		return nil, err
	}

	since := time.Now().Add(-dayWindow)
	dayBuckets, err := s.clicks.CountByDay(linkID, since)
	if err != nil {
		return nil, err
	}
	countryBuckets, err := s.clicks.CountByCountry(linkID, topCountries)
	if err != nil {
		return nil, err
	}
	recent, err := s.clicks.Recent(linkID, recentWindow)
	if err != nil {
		return nil, err
	}

	report := &models.AnalyticsReport{
		TotalClicks:     total,
		UniqueClicks:    unique,
		ClicksByDay:     make([]models.DayBucket, 0, len(dayBuckets)),
		ClicksByCountry: make([]models.CountryBucket, 0, len(countryBuckets)),
		RecentClicks:    make([]models.RecentClick, 0, len(recent)),
		ConversionRate:  conversionRate(unique, total),
	}
	for _, b := range dayBuckets {
		if b.Key == nil {
			continue
		}
		report.ClicksByDay = append(report.ClicksByDay, models.DayBucket{Date: *b.Key, Count: b.Count})
	}
	for _, b := range countryBuckets {
		country := UnknownCountry
		if b.Key != nil {
			country = *b.Key
		}
		report.ClicksByCountry = append(report.ClicksByCountry, models.CountryBucket{Country: country, Count: b.Count})
	}
	for _, c := range recent {
		entry := models.RecentClick{
			ClickedAt: c.ClickedAt,
			IPAddress: c.IPAddress,
			Country:   UnknownCountry,
			UserAgent: c.UserAgent,
		}
		if c.Country != nil {
			entry.Country = *c.Country
		}
		report.RecentClicks = append(report.RecentClicks, entry)
	}
	return report, nil
}

// conversionRate is unique/total as a percentage, 0 when there are no
// clicks.
func conversionRate(unique, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(unique)/float64(total)*10000) / 100
}
