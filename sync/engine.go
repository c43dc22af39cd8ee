// ABOUTME: Per-campaign sync engine with first-load and incremental modes
// ABOUTME: Fetches activities, extracts leads, persists atomically, enriches
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/db"
	"github.com/ikoerber/lemlist/models"
)

// ActivitySource is the slice of the outreach API the engine needs.
type ActivitySource interface {
	GetAllActivities(ctx context.Context, campaignID string) ([]api.LemlistActivity, error)
	GetLeadDetails(ctx context.Context, email string) (*api.LemlistLead, error)
}

// ProgressFunc reports (current, total) during long passes. Purely
// observational; returning is the only control flow.
type ProgressFunc func(current, total int)

// defaultEnrichmentCap bounds synchronous detail look-ups per sync
// pass. Leads beyond the cap wait for the batch enrichment job.
const defaultEnrichmentCap = 50

// Engine syncs one campaign at a time. Instances are not safe for
// concurrent use against the same campaign; callers serialize.
type Engine struct {
	db            *sql.DB
	source        ActivitySource
	enrichmentCap int
	logger        *slog.Logger
}

// EngineOptions configures a sync engine.
type EngineOptions struct {
	EnrichmentCap int
	Logger        *slog.Logger
}

// NewEngine creates a sync engine over the local store and a source.
func NewEngine(database *sql.DB, source ActivitySource, opts EngineOptions) *Engine {
	limit := opts.EnrichmentCap
	if limit <= 0 {
		limit = defaultEnrichmentCap
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{db: database, source: source, enrichmentCap: limit, logger: logger}
}

// SyncOptions controls one sync invocation.
type SyncOptions struct {
	// Force re-enters first-load mode even when the campaign was
	// synced before.
	Force bool
}

// Result summarizes one completed sync pass.
type Result struct {
	CampaignID        string
	CampaignName      string
	Mode              string
	RunID             string
	ActivitiesFetched int
	ActivitiesNew     int
	LeadsSeen         int
	LeadsEnriched     int
	LeadsDeferred     int
}

// SyncCampaign runs one full sync pass for a campaign. Any unrecovered
// error aborts the pass; previously committed data stays, nothing from
// the failing pass is half-written.
func (e *Engine) SyncCampaign(ctx context.Context, campaign models.Campaign, opts SyncOptions, progress ProgressFunc) (*Result, error) {
	existing, err := db.GetCampaign(e.db, campaign.ID)
	if err != nil {
		return nil, err
	}

	mode := models.SyncModeIncremental
	if existing == nil || opts.Force {
		mode = models.SyncModeFirstLoad
	}

	runID := ulid.Make().String()
	result := &Result{
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		Mode:         mode,
		RunID:        runID,
	}
	started := time.Now()

	if err := db.SetSyncStatus(e.db, campaign.ID, models.SyncStatusSyncing, "", runID); err != nil {
		return nil, err
	}
	fail := func(err error) (*Result, error) {
		if stateErr := db.SetSyncStatus(e.db, campaign.ID, models.SyncStatusError, err.Error(), runID); stateErr != nil {
			e.logger.Error("failed to record sync error", "campaign", campaign.ID, "error", stateErr)
		}
		return nil, err
	}

	e.logger.Info("sync started",
		"campaign", campaign.Name, "mode", mode, "run_id", runID)

	// The remote API has no server-side delta filter; incremental mode
	// refetches everything and filters locally against the watermark.
	activities, err := e.source.GetAllActivities(ctx, campaign.ID)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch activities: %w", err))
	}
	result.ActivitiesFetched = len(activities)

	if mode == models.SyncModeIncremental {
		watermark, err := db.GetLatestActivityTimestamp(e.db, campaign.ID)
		if err != nil {
			return fail(err)
		}
		if watermark != nil {
			activities = filterAfter(activities, *watermark)
		}
	}

	batch := buildBatch(&campaign, activities)
	result.LeadsSeen = len(batch.Leads)

	newCount, err := db.SaveSyncBatch(e.db, batch)
	if err != nil {
		return fail(err)
	}
	result.ActivitiesNew = newCount

	if err := db.MarkCampaignSynced(e.db, campaign.ID, time.Now()); err != nil {
		return fail(err)
	}

	// Both modes run the bounded pass: a lead first seen during an
	// incremental sync still needs its CRM id. Already-enriched leads
	// are excluded by the query, so a quiet pass looks nothing up.
	enriched, deferred, err := e.enrichPass(ctx, campaign.ID, progress)
	if err != nil {
		return fail(err)
	}
	result.LeadsEnriched = enriched
	result.LeadsDeferred = deferred

	run := &models.SyncRun{
		RunID:             runID,
		CampaignID:        campaign.ID,
		Mode:              mode,
		ActivitiesFetched: result.ActivitiesFetched,
		ActivitiesNew:     result.ActivitiesNew,
		LeadsSeen:         result.LeadsSeen,
		LeadsEnriched:     result.LeadsEnriched,
		StartedAt:         started,
		FinishedAt:        time.Now(),
	}
	if err := db.RecordSyncRun(e.db, run); err != nil {
		return fail(err)
	}
	if err := db.SetSyncStatus(e.db, campaign.ID, models.SyncStatusIdle, "", runID); err != nil {
		return nil, err
	}

	e.logger.Info("sync finished",
		"campaign", campaign.Name,
		"mode", mode,
		"fetched", result.ActivitiesFetched,
		"new", result.ActivitiesNew,
		"leads", result.LeadsSeen,
		"enriched", result.LeadsEnriched)
	return result, nil
}

// enrichPass looks up CRM ids for at most enrichmentCap leads that
// still lack one. The rest are deferred to the batch enrichment job.
func (e *Engine) enrichPass(ctx context.Context, campaignID string, progress ProgressFunc) (enriched, deferred int, err error) {
	missing, err := db.GetLeadsMissingEnrichment(e.db, campaignID, 0)
	if err != nil {
		return 0, 0, err
	}
	if len(missing) > e.enrichmentCap {
		deferred = len(missing) - e.enrichmentCap
		missing = missing[:e.enrichmentCap]
	}

	for i := range missing {
		lead := &missing[i]
		details, err := e.source.GetLeadDetails(ctx, lead.Email)
		if err != nil {
			return enriched, deferred, fmt.Errorf("failed to look up lead %s: %w", lead.Email, err)
		}
		if details != nil {
			if err := db.UpdateLeadEnrichment(e.db, lead.LeadID, enrichmentFromDetails(details)); err != nil {
				return enriched, deferred, err
			}
			enriched++
		}
		if progress != nil {
			progress(i+1, len(missing))
		}
	}
	return enriched, deferred, nil
}

func enrichmentFromDetails(details *api.LemlistLead) *models.Lead {
	lead := &models.Lead{}
	setIfNonEmpty(&lead.HubspotID, details.HubspotLeadID)
	setIfNonEmpty(&lead.LinkedinURL, details.BestLinkedinURL())
	setIfNonEmpty(&lead.Company, details.CompanyName)
	setIfNonEmpty(&lead.JobTitle, details.JobTitle)
	setIfNonEmpty(&lead.Phone, details.Phone)
	setIfNonEmpty(&lead.Location, details.Location)
	return lead
}

func setIfNonEmpty(dst **string, value string) {
	if value != "" {
		v := value
		*dst = &v
	}
}

func filterAfter(activities []api.LemlistActivity, watermark time.Time) []api.LemlistActivity {
	kept := activities[:0]
	for _, act := range activities {
		if act.CreatedAt.After(watermark) {
			kept = append(kept, act)
		}
	}
	return kept
}
