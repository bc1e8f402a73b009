// Package workers implements the asynchronous click ingest pool. The
// redirect path hands events to a buffered channel and never waits on
// persistence; workers enrich and store them best effort.
package workers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/shortly-io/shortly/internal/errors"
	"github.com/shortly-io/shortly/internal/geoip"
	"github.com/shortly-io/shortly/internal/metrics"
	"github.com/shortly-io/shortly/internal/models"
	"github.com/shortly-io/shortly/internal/repository"
)

// Pool consumes click events from a buffered channel and persists them.
type Pool struct {
	events chan models.ClickEvent
	clicks repository.ClickRepository
	links  repository.LinkRepository
	geo    geoip.Resolver
	log    *zap.Logger

	wg   sync.WaitGroup
	once sync.Once
}

// NewPool creates a pool with the given channel buffer size.
func NewPool(bufferSize int, clicks repository.ClickRepository, links repository.LinkRepository, geo geoip.Resolver, log *zap.Logger) *Pool {
	if geo == nil {
		geo = geoip.NoopResolver{}
	}
	return &Pool{
		events: make(chan models.ClickEvent, bufferSize),
		clicks: clicks,
		links:  links,
		geo:    geo,
		log:    log,
	}
}

// Start launches workerCount goroutines draining the event channel.
func (p *Pool) Start(workerCount int) {
	p.log.Info("starting click workers", zap.Int("workers", workerCount), zap.Int("buffer", cap(p.events)))
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for event := range p.events {
				p.process(event)
			}
		}()
	}
}

// Enqueue hands an event to the pool without blocking. Returns false
// when the buffer is full and the event was dropped; the caller's
// redirect proceeds either way.
func (p *Pool) Enqueue(event models.ClickEvent) bool {
	select {
	case p.events <- event:
		return true
	default:
		metrics.ClicksDropped.Inc()
		p.log.Warn("click buffer full, dropping event", zap.Uint("link_id", event.LinkID))
		return false
	}
}

// Stop closes the channel and waits for workers to drain it. Safe to
// call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.events)
		p.wg.Wait()
	})
}

// process enriches and persists one event: fingerprint, country, the
// immutable click row, and the owning link's cached counter. Failures
// are logged and never propagated.
func (p *Pool) process(event models.ClickEvent) {
	click := &models.Click{
		LinkID:      event.LinkID,
		ClickedAt:   event.ClickedAt,
		IPAddress:   event.IPAddress,
		UserAgent:   truncate(event.UserAgent, 500),
		Referer:     truncate(event.Referer, 500),
		Fingerprint: Fingerprint(event.IPAddress, event.UserAgent),
	}

	if country := p.resolveCountry(event); country != "" {
		click.Country = &country
	}

	if err := p.clicks.Create(click); err != nil {
		recErr := apperrors.ClickRecordError{LinkID: event.LinkID, Reason: err.Error()}
		p.log.Error("click not recorded", zap.Error(recErr))
		return
	}
	metrics.ClicksRecorded.Inc()

	// The counter increment follows the event insert; should it fail,
	// the counter lags the log and a RecountClicks repairs it.
	if err := p.links.IncrementClickCount(event.LinkID); err != nil {
		p.log.Error("click count not incremented",
			zap.Uint("link_id", event.LinkID), zap.Error(err))
	}
}

func (p *Pool) resolveCountry(event models.ClickEvent) string {
	if event.CountryHint != "" {
		return event.CountryHint
	}
	country, err := p.geo.Country(event.IPAddress)
	if err != nil {
		if !errors.Is(err, geoip.ErrUnresolved) {
			p.log.Debug("geo lookup failed", zap.String("ip", event.IPAddress), zap.Error(err))
		}
		return ""
	}
	return country
}

// Fingerprint derives the visitor identity used for uniqueness
// counting: the first 16 hex characters of SHA256(ip|ua). It is never
// used to identify a person beyond distinguishing unique from repeat
// clicks.
func Fingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
