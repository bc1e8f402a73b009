// Package monitor runs the background expiration sweep over the link
// table.
package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shortly-io/shortly/internal/repository"
)

// ExpirySweeper periodically scans links and reports live→expired
// transitions. It observes only: rows are never purged, so historical
// click events stay available for audit and counter rebuilds. The
// resolver enforces expiry on its own at lookup time; the sweep exists
// for operational visibility.
type ExpirySweeper struct {
	links    repository.LinkRepository
	interval time.Duration
	log      *zap.Logger

	mu          sync.Mutex
	knownStates map[uint]bool // link ID -> expired at last sweep

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

// NewExpirySweeper creates a sweeper with the given scan interval.
func NewExpirySweeper(links repository.LinkRepository, interval time.Duration, log *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		links:       links,
		interval:    interval,
		log:         log,
		knownStates: make(map[uint]bool),
		now:         time.Now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called. Blocking; run it in
// its own goroutine.
func (s *ExpirySweeper) Start() {
	defer close(s.done)
	s.log.Info("starting expiration sweeper", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the loop and waits for the in-flight sweep to finish.
func (s *ExpirySweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep performs one scan. Exported so the CLI and tests can trigger a
// scan without the loop.
func (s *ExpirySweeper) Sweep() {
	links, err := s.links.All()
	if err != nil {
		s.log.Error("expiration sweep failed to list links", zap.Error(err))
		return
	}

	now := s.now()
	expiredCount := 0
	for _, link := range links {
		current := link.Expired(now)
		if current {
			expiredCount++
		}

		s.mu.Lock()
		previous, seen := s.knownStates[link.ID]
		s.knownStates[link.ID] = current
		s.mu.Unlock()

		if seen && current && !previous {
			s.log.Info("link expired",
				zap.Uint("link_id", link.ID),
				zap.String("short_code", link.ShortCode),
				zap.Timep("expires_at", link.ExpiresAt))
		}
	}
	s.log.Debug("expiration sweep completed",
		zap.Int("links", len(links)), zap.Int("expired", expiredCount))
}
