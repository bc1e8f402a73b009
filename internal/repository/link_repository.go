package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/shortly-io/shortly/internal/errors"
	"github.com/shortly-io/shortly/internal/models"
)

// LinkRepository defines data access for links. Implementations must
// surface code collisions as apperrors.ErrDuplicateCode and missing rows
// as apperrors.ErrLinkNotFound so callers never handle driver errors.
type LinkRepository interface {
	Create(link *models.Link) error
	GetByCode(code string) (*models.Link, error)
	GetByID(id uint) (*models.Link, error)
	Update(id uint, fields map[string]any) (*models.Link, error)
	Delete(id uint) error
	IncrementClickCount(id uint) error
	RecountClicks(id uint) (int64, error)
	All() ([]models.Link, error)
}

// GormLinkRepository is the GORM implementation of LinkRepository.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// Create inserts a new link. The unique index on short_code decides
// races between concurrent allocations: the loser gets ErrDuplicateCode.
func (r *GormLinkRepository) Create(link *models.Link) error {
	if err := r.db.Create(link).Error; err != nil {
		if isDuplicate(err) {
			return apperrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetByCode retrieves a link by its short code.
func (r *GormLinkRepository) GetByCode(code string) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("short_code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by code: %w", err)
	}
	return &link, nil
}

// GetByID retrieves a link by its primary key.
func (r *GormLinkRepository) GetByID(id uint) (*models.Link, error) {
	var link models.Link
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by id: %w", err)
	}
	return &link, nil
}

// Update applies a partial update of mutable fields and returns the
// fresh row. Returns ErrLinkNotFound when the id does not exist.
func (r *GormLinkRepository) Update(id uint, fields map[string]any) (*models.Link, error) {
	res := r.db.Model(&models.Link{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update link %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrLinkNotFound
	}
	return r.GetByID(id)
}

// Delete removes a link. Click events for the id are retained and become
// unreachable through the API, since every read path resolves the link
// first (see AnalyticsService.Compute).
func (r *GormLinkRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Link{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete link %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrLinkNotFound
	}
	return nil
}

// IncrementClickCount bumps the cached counter with a single SQL
// UPDATE, so concurrent increments never lose updates. The counter is a
// cache of COUNT(*) over clicks (see RecountClicks), never the source
// of truth.
func (r *GormLinkRepository) IncrementClickCount(id uint) error {
	res := r.db.Model(&models.Link{}).Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment click count for link %d: %w", id, res.Error)
	}
	return nil
}

// RecountClicks rebuilds the cached counter from the event log and
// returns the authoritative count.
func (r *GormLinkRepository) RecountClicks(id uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Click{}).Where("link_id = ?", id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count clicks for link %d: %w", id, err)
	}
	res := r.db.Model(&models.Link{}).Where("id = ?", id).UpdateColumn("click_count", count)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to store recounted clicks for link %d: %w", id, res.Error)
	}
	return count, nil
}

// All retrieves every link. Used by the expiration sweeper.
func (r *GormLinkRepository) All() ([]models.Link, error) {
	var links []models.Link
	if err := r.db.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}
	return links, nil
}

// isDuplicate recognizes a unique-constraint violation. GORM translates
// these to ErrDuplicatedKey when the dialector supports it; the string
// check covers sqlite builds that report the raw constraint error.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "unique constraint")
}
