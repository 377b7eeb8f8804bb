package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/modules/refresh"
)

// RefreshJob drives one full catalog refresh cycle per invocation
type RefreshJob struct {
	driver *refresh.Driver
	log    zerolog.Logger
}

// NewRefreshJob creates the catalog refresh job
func NewRefreshJob(driver *refresh.Driver, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		driver: driver,
		log:    log.With().Str("job", "market_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "market_refresh"
}

// Run executes one refresh cycle
func (j *RefreshJob) Run() error {
	report, err := j.driver.Run(context.Background())
	if err != nil {
		return fmt.Errorf("refresh cycle failed: %w", err)
	}

	persisted, skipped := 0, 0
	for _, outcome := range report.Assets {
		switch outcome.State {
		case refresh.StateSkipped:
			skipped++
		case refresh.StatePersisted:
			persisted++
		}
	}

	j.log.Info().
		Str("cycle", report.ID).
		Int("persisted", persisted).
		Int("skipped", skipped).
		Bool("breaker_tripped", report.BreakerTripped).
		Msg("Refresh cycle finished")

	return nil
}
