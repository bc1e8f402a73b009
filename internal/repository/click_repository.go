package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shortly-io/shortly/internal/models"
)

// ClickRepository defines data access for the append-only click event
// log and the aggregations computed over it.
type ClickRepository interface {
	Create(click *models.Click) error
	CountByLinkID(linkID uint) (int64, error)
	CountUniqueVisitors(linkID uint) (int64, error)
	CountByDay(linkID uint, since time.Time) ([]Bucket, error)
	CountByCountry(linkID uint, limit int) ([]Bucket, error)
	Recent(linkID uint, limit int) ([]models.Click, error)
}

// Bucket is one row of a group-and-rank aggregation. Key is nil when the
// grouped column was NULL (e.g. unresolved country).
type Bucket struct {
	Key   *string
	Count int64
}

// GormClickRepository is the GORM implementation of ClickRepository.
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository creates a new GormClickRepository.
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// Create appends one click event. Rows are immutable once written.
func (r *GormClickRepository) Create(click *models.Click) error {
	if err := r.db.Create(click).Error; err != nil {
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}

// CountByLinkID counts all click events for a link.
func (r *GormClickRepository) CountByLinkID(linkID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Click{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count clicks for link %d: %w", linkID, err)
	}
	return count, nil
}

// CountUniqueVisitors counts distinct visitor fingerprints for a link.
func (r *GormClickRepository) CountUniqueVisitors(linkID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Click{}).
		Where("link_id = ?", linkID).
		Distinct("fingerprint").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unique visitors for link %d: %w", linkID, err)
	}
	return count, nil
}

// CountByDay groups clicks since the given instant by calendar date,
// most recent date first. Days without clicks do not appear.
func (r *GormClickRepository) CountByDay(linkID uint, since time.Time) ([]Bucket, error) {
	return r.groupAndRank(linkID, "date(clicked_at)", "key DESC", &since, 0)
}

// CountByCountry groups clicks by country, highest count first, capped
// to limit. Unresolved countries group under a NULL key.
func (r *GormClickRepository) CountByCountry(linkID uint, limit int) ([]Bucket, error) {
	return r.groupAndRank(linkID, "country", "count DESC, key ASC", nil, limit)
}

// groupAndRank is the shared "group distinct dimension values, sort,
// cap to top-K" aggregation, parameterized by the grouping expression.
// Both the day series and the country breakdown are instances of it.
func (r *GormClickRepository) groupAndRank(linkID uint, dimension, order string, since *time.Time, limit int) ([]Bucket, error) {
	q := r.db.Model(&models.Click{}).
		Select(dimension+" AS key, COUNT(*) AS count").
		Where("link_id = ?", linkID)
	if since != nil {
		q = q.Where("clicked_at >= ?", *since)
	}
	q = q.Group("key").Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var buckets []Bucket
	if err := q.Scan(&buckets).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks for link %d by %s: %w", linkID, dimension, err)
	}
	return buckets, nil
}

// Recent returns the latest click events for a link, newest first.
func (r *GormClickRepository) Recent(linkID uint, limit int) ([]models.Click, error) {
	var clicks []models.Click
	err := r.db.Where("link_id = ?", linkID).
		Order("clicked_at DESC").
		Limit(limit).
		Find(&clicks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent clicks for link %d: %w", linkID, err)
	}
	return clicks, nil
}
