package browsersession

import (
	"context"
	"time"

	"github.com/jrsteele09/go-web-template/session/identitycache"
	"github.com/rs/zerolog/log"
)

// Sweeper drops browser sessions idle for longer than maxAge, together with their
// persisted identity records.
type Sweeper struct {
	repo       Repo
	identities identitycache.Repo
	maxAge     time.Duration
	nowFunc    func() time.Time
}

func NewSweeper(repo Repo, identities identitycache.Repo, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		repo:       repo,
		identities: identities,
		maxAge:     maxAge,
		nowFunc:    time.Now,
	}
}

// Run sweeps every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one expiry pass and reports how many browser sessions went
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := s.nowFunc().Add(-s.maxAge)

	expired := s.repo.DeleteExpired(cutoff)
	for _, id := range expired {
		if err := s.identities.Delete(ctx, id); err != nil {
			log.Err(err).Msg("Failed to delete identity for expired session")
		}
	}

	// Records whose browser session never came back after a restart
	orphans, err := s.identities.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Err(err).Msg("Failed to sweep persisted identities")
	}

	if len(expired) > 0 || orphans > 0 {
		log.Info().Int("sessions", len(expired)).Int("identities", orphans).Msg("Expired browser sessions")
	}
	return len(expired)
}
