package models

import "time"

// Link represents a shortened URL record in the database.
type Link struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// ShortCode is either a generated base62 code or a caller-supplied
	// alias. The unique index is what makes concurrent allocation safe:
	// two inserts of the same code race at the storage layer and exactly
	// one wins.
	ShortCode string `gorm:"uniqueIndex;size:50;not null" json:"short_code"`

	OriginalURL string `gorm:"not null" json:"original_url"`

	// CustomAlias holds the alias as requested by the caller, empty for
	// generated codes. Uniqueness is carried by ShortCode.
	CustomAlias string `gorm:"size:50" json:"custom_alias,omitempty"`

	Title       string `gorm:"size:255" json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`

	// ClickCount is a cached aggregate maintained by the click workers.
	// It is always rebuildable from the clicks table (see
	// LinkRepository.RecountClicks) and is never the sole source of truth.
	ClickCount int64 `gorm:"not null;default:0" json:"click_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Expired reports whether the link's expiry, if set, is in the past.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}
