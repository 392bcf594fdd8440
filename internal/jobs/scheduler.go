package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"authgate/api/internal/metrics"
)

// KeyRefresher reloads a remote signing key set.
type KeyRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron *cron.Cron
	keys KeyRefresher
	spec string
	log  zerolog.Logger
}

// NewScheduler refreshes keys on spec, a six-field cron expression. An empty
// spec or nil keys disables the job.
func NewScheduler(keys KeyRefresher, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		keys: keys,
		spec: spec,
		log:  log,
	}
}

func (s *Scheduler) Start() error {
	if s.keys == nil || s.spec == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.refreshKeys); err != nil {
		return err
	}

	// warm the cache so the first id token does not pay for the fetch
	go s.refreshKeys()

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) refreshKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	n, err := s.keys.Refresh(ctx)
	if err != nil {
		metrics.JWKSRefreshes.WithLabelValues("failure").Inc()
		s.log.Error().Err(err).Msg("refresh google signing keys failed")
		return
	}
	metrics.JWKSRefreshes.WithLabelValues("success").Inc()
	s.log.Debug().Int("keys", n).Msg("google signing keys refreshed")
}
