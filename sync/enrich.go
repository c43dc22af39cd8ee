// ABOUTME: Out-of-band batch enrichment for leads the sync pass deferred
// ABOUTME: Paced detail look-ups with per-lead failure accounting
package sync

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/db"
)

const (
	// lookupDelay paces individual detail look-ups.
	lookupDelay = 150 * time.Millisecond
	// restEvery / restDelay give the API a longer breather periodically.
	restEvery = 50
	restDelay = 2 * time.Second
)

// EnrichStats reports a batch enrichment outcome. Processed counts
// every attempted lead; a look-up that finds nothing is a success with
// no data, only errors count as failed.
type EnrichStats struct {
	Processed int
	Enriched  int
	NotFound  int
	Failed    int
}

// Enricher runs the batch enrichment job.
type Enricher struct {
	db     *sql.DB
	source ActivitySource
	sleep  api.SleepFunc
	logger *slog.Logger
}

// NewEnricher creates a batch enricher. sleep may be nil for real
// clock sleeps.
func NewEnricher(database *sql.DB, source ActivitySource, sleep api.SleepFunc, logger *slog.Logger) *Enricher {
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{db: database, source: source, sleep: sleep, logger: logger}
}

// EnrichCampaign looks up details for every lead of a campaign that
// still lacks a CRM id. Individual look-up failures are counted and
// skipped; only context cancellation aborts the whole run.
func (e *Enricher) EnrichCampaign(ctx context.Context, campaignID string, progress ProgressFunc) (*EnrichStats, error) {
	missing, err := db.GetLeadsMissingEnrichment(e.db, campaignID, 0)
	if err != nil {
		return nil, err
	}

	stats := &EnrichStats{}
	for i := range missing {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		lead := &missing[i]
		stats.Processed++

		details, err := e.source.GetLeadDetails(ctx, lead.Email)
		switch {
		case err != nil:
			stats.Failed++
			e.logger.Warn("lead look-up failed", "email", lead.Email, "error", err)
		case details == nil:
			stats.NotFound++
		default:
			if err := db.UpdateLeadEnrichment(e.db, lead.LeadID, enrichmentFromDetails(details)); err != nil {
				return stats, err
			}
			stats.Enriched++
		}

		if progress != nil {
			progress(i+1, len(missing))
		}
		if i+1 < len(missing) {
			delay := lookupDelay
			if (i+1)%restEvery == 0 {
				delay = restDelay
			}
			if err := e.sleep(ctx, delay); err != nil {
				return stats, err
			}
		}
	}

	e.logger.Info("enrichment finished",
		"campaign", campaignID,
		"processed", stats.Processed,
		"enriched", stats.Enriched,
		"not_found", stats.NotFound,
		"failed", stats.Failed)
	return stats, nil
}
