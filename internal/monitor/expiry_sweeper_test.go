package monitor

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shortly-io/shortly/internal/models"
	"github.com/shortly-io/shortly/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Link{}, &models.Click{}))
	return db
}

func TestSweepTracksExpiryTransitions(t *testing.T) {
	db := newTestDB(t)
	links := repository.NewLinkRepository(db)

	expires := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	link := &models.Link{
		ShortCode:   "swp001",
		OriginalURL: "https://example.com",
		IsActive:    true,
		ExpiresAt:   &expires,
	}
	require.NoError(t, links.Create(link))

	sweeper := NewExpirySweeper(links, time.Minute, zap.NewNop())

	// Before expiry.
	sweeper.now = func() time.Time { return expires.Add(-time.Hour) }
	sweeper.Sweep()
	assert.False(t, sweeper.knownStates[link.ID])

	// After expiry: the transition is recorded.
	sweeper.now = func() time.Time { return expires.Add(time.Hour) }
	sweeper.Sweep()
	assert.True(t, sweeper.knownStates[link.ID])

	// The row itself survives the sweep.
	_, err := links.GetByID(link.ID)
	assert.NoError(t, err)
}

func TestSweepIgnoresLinksWithoutExpiry(t *testing.T) {
	db := newTestDB(t)
	links := repository.NewLinkRepository(db)
	require.NoError(t, links.Create(&models.Link{
		ShortCode:   "swp002",
		OriginalURL: "https://example.com",
		IsActive:    true,
	}))

	sweeper := NewExpirySweeper(links, time.Minute, zap.NewNop())
	sweeper.Sweep()

	for _, expired := range sweeper.knownStates {
		assert.False(t, expired)
	}
}

func TestStartStop(t *testing.T) {
	db := newTestDB(t)
	links := repository.NewLinkRepository(db)

	sweeper := NewExpirySweeper(links, 50*time.Millisecond, zap.NewNop())
	go sweeper.Start()
	time.Sleep(120 * time.Millisecond)
	sweeper.Stop() // must return promptly without leaking the goroutine
}
