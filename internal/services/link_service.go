// Package services contains the business logic for link allocation,
// resolution, and analytics.
package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shortly-io/shortly/internal/cache"
	apperrors "github.com/shortly-io/shortly/internal/errors"
	"github.com/shortly-io/shortly/internal/metrics"
	"github.com/shortly-io/shortly/internal/models"
	"github.com/shortly-io/shortly/internal/repository"
	"github.com/shortly-io/shortly/internal/shortcode"
)

// maxGenerationAttempts bounds collision retries for generated codes.
const maxGenerationAttempts = 5

// CreateParams are the caller-supplied fields for an allocation.
type CreateParams struct {
	OriginalURL string
	CustomAlias string
	Title       string
	Description string
	ExpiresAt   *time.Time
}

// UpdateParams are the mutable link fields; nil means "leave as is".
type UpdateParams struct {
	Title       *string
	Description *string
	ExpiresAt   *time.Time
	IsActive    *bool
}

// LinkService implements allocation, resolution, and link lifecycle.
type LinkService struct {
	links  repository.LinkRepository
	clicks repository.ClickRepository
	cache  *cache.LinkCache // nil disables caching
	log    *zap.Logger
}

// NewLinkService creates a LinkService. linkCache may be nil.
func NewLinkService(links repository.LinkRepository, clicks repository.ClickRepository, linkCache *cache.LinkCache, log *zap.Logger) *LinkService {
	return &LinkService{links: links, clicks: clicks, cache: linkCache, log: log}
}

// Create allocates a short code for the given URL. With a custom alias
// the alias is used verbatim or the call fails with ErrAliasConflict;
// otherwise a random base62 code is generated with bounded collision
// retries. All validation happens before any store mutation.
func (s *LinkService) Create(ctx context.Context, p CreateParams) (*models.Link, error) {
	if err := shortcode.ValidateURL(p.OriginalURL); err != nil {
		return nil, err
	}
	if p.CustomAlias != "" {
		if err := shortcode.ValidateAlias(p.CustomAlias); err != nil {
			return nil, err
		}
		return s.createWithAlias(ctx, p)
	}
	return s.createGenerated(ctx, p)
}

func (s *LinkService) createWithAlias(ctx context.Context, p CreateParams) (*models.Link, error) {
	link := newLink(p, p.CustomAlias)
	link.CustomAlias = p.CustomAlias
	if err := s.links.Create(link); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateCode) {
			// The alias is genuinely taken. Never suffix or mutate it.
			return nil, apperrors.ErrAliasConflict
		}
		return nil, err
	}
	s.fillCache(ctx, link)
	metrics.LinksCreated.WithLabelValues("alias").Inc()
	return link, nil
}

func (s *LinkService) createGenerated(ctx context.Context, p CreateParams) (*models.Link, error) {
	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		code, err := shortcode.Generate(shortcode.DefaultLength)
		if err != nil {
			return nil, err
		}
		link := newLink(p, code)
		err = s.links.Create(link)
		if err == nil {
			s.fillCache(ctx, link)
			metrics.LinksCreated.WithLabelValues("generated").Inc()
			return link, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicateCode) {
			return nil, err
		}
		// Collision: the unique constraint chose a concurrent winner.
		s.log.Warn("short code collision, retrying",
			zap.String("code", code),
			zap.Int("attempt", attempt),
			zap.Int("max", maxGenerationAttempts))
	}
	return nil, apperrors.ErrGenerationExhausted
}

func newLink(p CreateParams, code string) *models.Link {
	return &models.Link{
		ShortCode:   code,
		OriginalURL: p.OriginalURL,
		Title:       p.Title,
		Description: p.Description,
		ExpiresAt:   p.ExpiresAt,
		IsActive:    true,
	}
}

// Resolve looks up a live link by code for redirection. Returns
// ErrLinkNotFound for unknown codes, ErrLinkExpired when expires_at is
// in the past, and ErrLinkInactive for deactivated links. Click
// recording is the caller's concern and happens off this path.
func (s *LinkService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if !link.IsActive {
		return nil, apperrors.ErrLinkInactive
	}
	if link.Expired(time.Now()) {
		return nil, apperrors.ErrLinkExpired
	}
	return link, nil
}

// Info returns a link's metadata together with the live click count
// recomputed from the event log, so the cached counter can never
// surface drift here.
func (s *LinkService) Info(ctx context.Context, code string) (*models.Link, int64, error) {
	link, err := s.lookup(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clicks.CountByLinkID(link.ID)
	if err != nil {
		return nil, 0, err
	}
	return link, total, nil
}

// GetByID returns a link by its id.
func (s *LinkService) GetByID(ctx context.Context, id uint) (*models.Link, error) {
	return s.links.GetByID(id)
}

// Update applies a partial update and invalidates the cache entry.
func (s *LinkService) Update(ctx context.Context, id uint, p UpdateParams) (*models.Link, error) {
	fields := map[string]any{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.ExpiresAt != nil {
		fields["expires_at"] = *p.ExpiresAt
	}
	if p.IsActive != nil {
		fields["is_active"] = *p.IsActive
	}
	if len(fields) == 0 {
		return s.links.GetByID(id)
	}
	link, err := s.links.Update(id, fields)
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, link.ShortCode)
	return link, nil
}

// Delete removes a link. Its historical click events are retained but
// become unreachable through the API; analytics for the id return
// ErrLinkNotFound from then on.
func (s *LinkService) Delete(ctx context.Context, id uint) error {
	link, err := s.links.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.links.Delete(id); err != nil {
		return err
	}
	s.invalidateCache(ctx, link.ShortCode)
	return nil
}

// lookup is the cached code→link read used by Resolve and Info.
func (s *LinkService) lookup(ctx context.Context, code string) (*models.Link, error) {
	if cached, err := s.cache.Get(ctx, code); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		// Cache trouble must not break resolution.
		s.log.Warn("link cache read failed", zap.String("code", code), zap.Error(err))
	}
	link, err := s.links.GetByCode(code)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, link)
	return link, nil
}

func (s *LinkService) fillCache(ctx context.Context, link *models.Link) {
	if err := s.cache.Set(ctx, link); err != nil {
		s.log.Warn("link cache write failed", zap.String("code", link.ShortCode), zap.Error(err))
	}
}

func (s *LinkService) invalidateCache(ctx context.Context, code string) {
	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.log.Warn("link cache invalidation failed", zap.String("code", code), zap.Error(err))
	}
}
