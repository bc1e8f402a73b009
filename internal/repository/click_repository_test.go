package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortly-io/shortly/internal/models"
)

func strptr(s string) *string { return &s }

func seedClick(t *testing.T, repo ClickRepository, linkID uint, at time.Time, fp string, country *string) {
	t.Helper()
	require.NoError(t, repo.Create(&models.Click{
		LinkID:      linkID,
		ClickedAt:   at,
		IPAddress:   "203.0.113.7",
		UserAgent:   "test-agent",
		Fingerprint: fp,
		Country:     country,
	}))
}

func TestCountByLinkIDAndUniqueVisitors(t *testing.T) {
	db := newTestDB(t)
	links := NewLinkRepository(db)
	repo := NewClickRepository(db)
	link := seedLink(t, links, "agg001", "https://example.com")

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	seedClick(t, repo, link.ID, now, "fp-a", nil)
	seedClick(t, repo, link.ID, now, "fp-a", nil)
	seedClick(t, repo, link.ID, now, "fp-b", nil)

	total, err := repo.CountByLinkID(link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	unique, err := repo.CountUniqueVisitors(link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unique)

	// Events belong exclusively to their link.
	other := seedLink(t, links, "agg002", "https://example.org")
	total, err = repo.CountByLinkID(other.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCountByDay(t *testing.T) {
	db := newTestDB(t)
	links := NewLinkRepository(db)
	repo := NewClickRepository(db)
	link := seedLink(t, links, "day001", "https://example.com")

	day1 := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	seedClick(t, repo, link.ID, day1, "fp-a", nil)
	seedClick(t, repo, link.ID, day2, "fp-a", nil)
	seedClick(t, repo, link.ID, day2.Add(time.Hour), "fp-b", nil)

	since := day1.AddDate(0, 0, -30)
	buckets, err := repo.CountByDay(link.ID, since)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	// Most recent date first.
	require.NotNil(t, buckets[0].Key)
	assert.Equal(t, "2026-08-27", *buckets[0].Key)
	assert.Equal(t, int64(2), buckets[0].Count)
	assert.Equal(t, "2026-08-26", *buckets[1].Key)
	assert.Equal(t, int64(1), buckets[1].Count)

	// Window restriction drops old events.
	buckets, err = repo.CountByDay(link.ID, day2)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, int64(2), buckets[0].Count)
}

func TestCountByCountry(t *testing.T) {
	db := newTestDB(t)
	links := NewLinkRepository(db)
	repo := NewClickRepository(db)
	link := seedLink(t, links, "cty001", "https://example.com")

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	seedClick(t, repo, link.ID, now, "fp-a", strptr("FR"))
	seedClick(t, repo, link.ID, now, "fp-b", strptr("FR"))
	seedClick(t, repo, link.ID, now, "fp-c", strptr("DE"))
	seedClick(t, repo, link.ID, now, "fp-d", nil) // unresolved

	buckets, err := repo.CountByCountry(link.ID, 10)
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	require.NotNil(t, buckets[0].Key)
	assert.Equal(t, "FR", *buckets[0].Key)
	assert.Equal(t, int64(2), buckets[0].Count)

	// Buckets sum to the total click count.
	var sum int64
	var sawNil bool
	for _, b := range buckets {
		sum += b.Count
		if b.Key == nil {
			sawNil = true
		}
	}
	assert.Equal(t, int64(4), sum)
	assert.True(t, sawNil, "NULL country must form its own bucket")

	// Top-K cap.
	buckets, err = repo.CountByCountry(link.ID, 2)
	require.NoError(t, err)
	assert.Len(t, buckets, 2)
}

func TestRecent(t *testing.T) {
	db := newTestDB(t)
	links := NewLinkRepository(db)
	repo := NewClickRepository(db)
	link := seedLink(t, links, "rcn001", "https://example.com")

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		seedClick(t, repo, link.ID, base.Add(time.Duration(i)*time.Minute), "fp", nil)
	}

	recent, err := repo.Recent(link.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)

	// Newest first.
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].ClickedAt.After(recent[i-1].ClickedAt))
	}
	assert.WithinDuration(t, base.Add(14*time.Minute), recent[0].ClickedAt, time.Second)
}
