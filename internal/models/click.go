package models

import "time"

// Click represents one resolution of a short link, stored in the database.
// Rows are append-only: a click is written exactly once by the ingest
// workers and never updated afterwards, only aggregated over.
type Click struct {
	ID uint `gorm:"primaryKey"`

	// LinkID is the owning link. The composite index with ClickedAt
	// serves the analytics queries (day buckets, recent window).
	LinkID uint `gorm:"not null;index:idx_clicks_link_clicked,priority:1"`

	Link Link `gorm:"foreignKey:LinkID"`

	ClickedAt time.Time `gorm:"not null;index:idx_clicks_link_clicked,priority:2"`

	// IPAddress is sized for IPv6.
	IPAddress string `gorm:"size:45"`

	// Country is the ISO 3166-1 alpha-2 code when geo resolution
	// succeeded, NULL otherwise. "Unknown" is a presentation default
	// applied by the aggregator, never stored.
	Country *string `gorm:"size:2"`

	UserAgent string `gorm:"size:500"`
	Referer   string `gorm:"size:500"`

	// Fingerprint identifies a visitor for uniqueness counting only.
	// Derived from IP and user agent, see workers.Fingerprint.
	Fingerprint string `gorm:"size:16;index"`
}

// ClickEvent is the lightweight payload passed from the redirect handler
// to the ingest workers over the events channel. Enrichment (country,
// fingerprint) happens on the worker side, off the redirect path.
type ClickEvent struct {
	LinkID    uint
	ClickedAt time.Time
	IPAddress string
	UserAgent string
	Referer   string

	// CountryHint carries an edge-provided country (e.g. a CDN header)
	// when one was present on the request. Workers prefer it over the
	// geo resolver.
	CountryHint string
}
