package crontab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"model-lens/services/catalog-api/internal/config"
	syncdomain "model-lens/services/catalog-api/internal/domain/sync"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

const (
	DefaultSyncIntervalMinutes = 60
	// CronJobTimeout bounds each scheduled sync run.
	CronJobTimeout = 10 * time.Minute
)

// Crontab drives the scheduled catalog sync: one run at startup, then
// one per configured interval.
type Crontab struct {
	ctab         *crontab.Crontab
	orchestrator *syncdomain.Orchestrator
	cfg          *config.Config
	log          zerolog.Logger
}

func NewCrontab(orchestrator *syncdomain.Orchestrator, cfg *config.Config, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:         crontab.New(),
		orchestrator: orchestrator,
		cfg:          cfg,
		log:          log.With().Str("component", "crontab").Logger(),
	}
}

// Run blocks until ctx is cancelled, then shuts the scheduler down.
func (c *Crontab) Run(ctx context.Context) error {
	// execute once on server start
	c.runSync(ctx)

	if c.cfg.SyncEnabled {
		interval := c.cfg.SyncIntervalMinutes
		if interval <= 0 {
			interval = DefaultSyncIntervalMinutes
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", interval)
		if interval >= 60 {
			// crontab minute fields cap at 59; hourly and slower runs
			// schedule on the hour instead.
			hours := interval / 60
			cronExpr = fmt.Sprintf("0 */%d * * *", hours)
		}
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.runSync(jobCtx)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add model sync job")
		}
		c.log.Info().Str("schedule", cronExpr).Msg("model sync scheduled")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) runSync(ctx context.Context) {
	result, err := c.orchestrator.RunSync(ctx)
	if err != nil {
		if errors.Is(err, syncdomain.ErrSyncInProgress) {
			c.log.Info().Msg("scheduled sync skipped, another run holds the lock")
			return
		}
		c.log.Error().Err(err).Msg("scheduled sync failed")
		return
	}
	c.log.Info().
		Str("sync_id", result.SyncID).
		Int("total_fetched", result.TotalFetched).
		Int("total_stored", result.TotalStored).
		Int("failed_sources", len(result.SourceErrors)).
		Msg("scheduled sync finished")
}
