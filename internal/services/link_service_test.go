package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/shortly-io/shortly/internal/errors"
	"github.com/shortly-io/shortly/internal/models"
	"github.com/shortly-io/shortly/internal/repository"
	"github.com/shortly-io/shortly/internal/shortcode"
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

func newLinkService(t *testing.T) (*LinkService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	links := repository.NewLinkRepository(db)
	clicks := repository.NewClickRepository(db)
	return NewLinkService(links, clicks, nil, zap.NewNop()), db
}

func linkCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Link{}).Count(&n).Error)
	return n
}

func TestCreateGeneratesCode(t *testing.T) {
	svc, _ := newLinkService(t)

	link, err := svc.Create(context.Background(), CreateParams{OriginalURL: "https://example.com/page"})
	require.NoError(t, err)
	assert.Len(t, link.ShortCode, shortcode.DefaultLength)
	assert.True(t, shortcode.ValidAlias(link.ShortCode), "generated code must satisfy the alias alphabet")
	assert.True(t, link.IsActive)
	assert.Empty(t, link.CustomAlias)
}

func TestCreateRejectsInvalidURL(t *testing.T) {
	svc, db := newLinkService(t)

	for _, bad := range []string{"", "example.com", "ftp://example.com", "/relative"} {
		_, err := svc.Create(context.Background(), CreateParams{OriginalURL: bad})
		assert.ErrorIs(t, err, apperrors.ErrInvalidURL, "url %q", bad)
	}
	assert.Zero(t, linkCount(t, db), "no store mutation on validation failure")
}

func TestCreateWithAlias(t *testing.T) {
	svc, db := newLinkService(t)

	link, err := svc.Create(context.Background(), CreateParams{
		OriginalURL: "https://example.com",
		CustomAlias: "my-link",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-link", link.ShortCode)
	assert.Equal(t, "my-link", link.CustomAlias)

	// Same alias again: typed conflict, no new row, no mutation of the
	// requested alias.
	before := linkCount(t, db)
	_, err = svc.Create(context.Background(), CreateParams{
		OriginalURL: "https://example.org",
		CustomAlias: "my-link",
	})
	assert.ErrorIs(t, err, apperrors.ErrAliasConflict)
	assert.Equal(t, before, linkCount(t, db))
}

func TestCreateRejectsInvalidAlias(t *testing.T) {
	svc, _ := newLinkService(t)

	for _, bad := range []string{"ab", "has space", "sl/ash", strings.Repeat("x", 51)} {
		_, err := svc.Create(context.Background(), CreateParams{
			OriginalURL: "https://example.com",
			CustomAlias: bad,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidAlias, "alias %q", bad)
	}
}

func TestResolve(t *testing.T) {
	svc, _ := newLinkService(t)
	ctx := context.Background()

	link, err := svc.Create(ctx, CreateParams{OriginalURL: "https://example.com/target", CustomAlias: "res-ok"})
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/target", got.OriginalURL)

	_, err = svc.Resolve(ctx, "nosuch")
	assert.ErrorIs(t, err, apperrors.ErrLinkNotFound)
}

func TestResolveExpired(t *testing.T) {
	svc, _ := newLinkService(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	link, err := svc.Create(ctx, CreateParams{
		OriginalURL: "https://example.com",
		CustomAlias: "expired",
		ExpiresAt:   &past,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, link.ShortCode)
	assert.ErrorIs(t, err, apperrors.ErrLinkExpired)
}

func TestResolveInactive(t *testing.T) {
	svc, _ := newLinkService(t)
	ctx := context.Background()

	link, err := svc.Create(ctx, CreateParams{OriginalURL: "https://example.com", CustomAlias: "inactive"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, link.ID, UpdateParams{IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, link.ShortCode)
	assert.ErrorIs(t, err, apperrors.ErrLinkInactive)
}

func TestInfoCountsFromEventLog(t *testing.T) {
	svc, db := newLinkService(t)
	ctx := context.Background()

	link, err := svc.Create(ctx, CreateParams{OriginalURL: "https://example.com", CustomAlias: "info-1"})
	require.NoError(t, err)

	clicks := repository.NewClickRepository(db)
	for i := 0; i < 3; i++ {
		require.NoError(t, clicks.Create(&models.Click{
			LinkID:      link.ID,
			ClickedAt:   time.Now().UTC(),
			Fingerprint: "fp",
		}))
	}

	got, total, err := svc.Info(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, int64(3), total, "info count comes from the event log, not the cached counter")
}

func TestUpdate(t *testing.T) {
	svc, _ := newLinkService(t)
	ctx := context.Background()

	link, err := svc.Create(ctx, CreateParams{OriginalURL: "https://example.com", CustomAlias: "upd-1"})
	require.NoError(t, err)

	title := "New title"
	updated, err := svc.Update(ctx, link.ID, UpdateParams{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, link.OriginalURL, updated.OriginalURL, "untouched fields survive a partial update")

	_, err = svc.Update(ctx, 9999, UpdateParams{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrLinkNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newLinkService(t)
	ctx := context.Background()

	link, err := svc.Create(ctx, CreateParams{OriginalURL: "https://example.com", CustomAlias: "del-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, link.ID))

	_, err = svc.Resolve(ctx, link.ShortCode)
	assert.ErrorIs(t, err, apperrors.ErrLinkNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, link.ID), apperrors.ErrLinkNotFound)
}

// collidingLinkRepo reports every insert as a code collision, driving
// the generator through its retry budget.
type collidingLinkRepo struct {
	repository.LinkRepository
	attempts int
}

func (r *collidingLinkRepo) Create(*models.Link) error {
	r.attempts++
	return apperrors.ErrDuplicateCode
}

func TestCreateGenerationExhausted(t *testing.T) {
	repo := &collidingLinkRepo{}
	svc := NewLinkService(repo, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateParams{OriginalURL: "https://example.com"})
	assert.ErrorIs(t, err, apperrors.ErrGenerationExhausted)
	assert.Equal(t, maxGenerationAttempts, repo.attempts)
}
