// ABOUTME: Score derivation and batched write-back to the CRM
// ABOUTME: Engagement and fit properties, per-contact fallback on missing records
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/db"
	"github.com/ikoerber/lemlist/derive"
	"github.com/ikoerber/lemlist/models"
)

// CRM is the slice of the CRM API the pusher needs.
type CRM interface {
	BatchUpdateContacts(ctx context.Context, updates []api.ContactUpdate) error
	UpdateContactProperties(ctx context.Context, contactID string, properties map[string]string) error
	ListContactCompanyAssociations(ctx context.Context) (map[string]string, error)
	BatchGetCompanyIndustries(ctx context.Context, companyIDs []string) (map[string]string, error)
	BatchDelay() time.Duration
}

// CRM property names the pusher writes.
const (
	PropEngagementScore  = "lemlist_engagement_score"
	PropEngagementStatus = "lemlist_engagement_status"
	PropTotalActivities  = "lemlist_total_activities"
	PropLastActivityDate = "lemlist_last_activity_date"
	PropIndustryFit      = "industry_fit_score"
	PropSeniorityFit     = "seniority_fit_score"
	PropSeniorityLevel   = "seniority_level"
)

const defaultPushBatchSize = 50

// PushStats reports a write-back outcome, including the three distinct
// reasons a fit dimension could not be computed.
type PushStats struct {
	Leads   int
	Updated int
	Failed  int
	Skipped int

	derive.FitCounters
}

// Pusher derives scores for enriched leads and writes them back.
type Pusher struct {
	db        *sql.DB
	crm       CRM
	batchSize int
	sleep     api.SleepFunc
	logger    *slog.Logger
}

// PusherOptions configures a pusher. BatchSize is capped at the CRM's
// batch limit.
type PusherOptions struct {
	BatchSize int
	Sleep     api.SleepFunc
	Logger    *slog.Logger
}

// NewPusher creates a score pusher.
func NewPusher(database *sql.DB, crm CRM, opts PusherOptions) *Pusher {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultPushBatchSize
	}
	if batchSize > api.HubSpotBatchLimit {
		batchSize = api.HubSpotBatchLimit
	}
	sleep := opts.Sleep
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
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pusher{db: database, crm: crm, batchSize: batchSize, sleep: sleep, logger: logger}
}

// PushCampaign derives engagement and fit scores for every enriched
// lead of a campaign and writes them to the CRM in batches. The weight
// tables are snapshotted once so a concurrent edit cannot split the
// batch across two weight sets.
func (p *Pusher) PushCampaign(ctx context.Context, campaignID string, progress ProgressFunc) (*PushStats, error) {
	snapshot, err := p.loadSnapshot()
	if err != nil {
		return nil, err
	}

	leads, err := db.GetLeadsWithHubspotIDs(p.db, campaignID)
	if err != nil {
		return nil, err
	}
	stats := &PushStats{Leads: len(leads)}
	if len(leads) == 0 {
		return stats, nil
	}

	industryByContact, err := p.contactIndustries(ctx, leads)
	if err != nil {
		return nil, err
	}

	updates := make([]api.ContactUpdate, 0, len(leads))
	for i := range leads {
		lead := &leads[i]
		// Engagement aggregates by email; a lead without one has no
		// derivable metrics and is skipped, not failed.
		if lead.Email == "" {
			stats.Skipped++
			if progress != nil {
				progress(i+1, len(leads))
			}
			continue
		}
		props, err := p.deriveProperties(lead, snapshot, industryByContact[*lead.HubspotID], stats)
		if err != nil {
			return nil, err
		}
		updates = append(updates, api.ContactUpdate{ID: *lead.HubspotID, Properties: props})
		if progress != nil {
			progress(i+1, len(leads))
		}
	}

	if err := p.writeBatches(ctx, updates, stats); err != nil {
		return stats, err
	}

	p.logger.Info("push finished",
		"campaign", campaignID,
		"leads", stats.Leads,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"missing_company", stats.MissingCompany,
		"unmapped_industry", stats.UnmappedIndustry,
		"unknown_seniority", stats.UnknownSeniority)
	return stats, nil
}

func (p *Pusher) loadSnapshot() (derive.WeightSnapshot, error) {
	industry, err := db.LoadIndustryWeights(p.db)
	if err != nil {
		return derive.WeightSnapshot{}, err
	}
	seniority, err := db.LoadSeniorityWeights(p.db)
	if err != nil {
		return derive.WeightSnapshot{}, err
	}
	return derive.WeightSnapshot{Industry: industry, Seniority: seniority}, nil
}

// contactIndustries resolves contact → company → industry for the
// leads being pushed.
func (p *Pusher) contactIndustries(ctx context.Context, leads []models.Lead) (map[string]string, error) {
	associations, err := p.crm.ListContactCompanyAssociations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list company associations: %w", err)
	}

	companySet := make(map[string]bool)
	for i := range leads {
		if companyID, ok := associations[*leads[i].HubspotID]; ok {
			companySet[companyID] = true
		}
	}
	companyIDs := make([]string, 0, len(companySet))
	for id := range companySet {
		companyIDs = append(companyIDs, id)
	}

	industries, err := p.crm.BatchGetCompanyIndustries(ctx, companyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company industries: %w", err)
	}

	byContact := make(map[string]string)
	for i := range leads {
		contactID := *leads[i].HubspotID
		if companyID, ok := associations[contactID]; ok {
			if industry, ok := industries[companyID]; ok {
				byContact[contactID] = industry
			}
		}
	}
	return byContact, nil
}

// deriveProperties computes one lead's write-back property map.
// Unknown values are omitted from the map, never sent as nulls.
func (p *Pusher) deriveProperties(lead *models.Lead, snapshot derive.WeightSnapshot, industry string, stats *PushStats) (map[string]string, error) {
	// Engagement is a property of the person, so activities are read
	// across every campaign the email appears in.
	activities, err := db.GetActivitiesByEmail(p.db, lead.Email)
	if err != nil {
		return nil, err
	}
	engagement := derive.ComputeEngagement(activities, time.Now())

	jobTitle := ""
	if lead.JobTitle != nil {
		jobTitle = *lead.JobTitle
	}
	fit := derive.ComputeFit(snapshot, industry, jobTitle, &stats.FitCounters)

	if fit.Seniority != "" && (lead.Seniority == nil || *lead.Seniority != fit.Seniority) {
		if err := db.UpdateLeadSeniority(p.db, lead.LeadID, fit.Seniority); err != nil {
			return nil, err
		}
	}

	props := map[string]string{
		PropEngagementScore:  strconv.Itoa(engagement.Score),
		PropEngagementStatus: engagement.Status,
		PropTotalActivities:  strconv.Itoa(engagement.TotalActivities),
		PropIndustryFit:      strconv.Itoa(fit.IndustryScore),
		PropSeniorityFit:     strconv.Itoa(fit.SeniorityScore),
	}
	if engagement.LastActivityAt != nil {
		props[PropLastActivityDate] = engagement.LastActivityAt.UTC().Format("2006-01-02")
	}
	if fit.Seniority != "" {
		props[PropSeniorityLevel] = fit.Seniority
	}
	return props, nil
}

// writeBatches sends updates in fixed-size batches. A batch that fails
// with a missing-record error degrades to per-contact updates so one
// stale id cannot sink the other forty-nine; any other batch error
// marks the whole batch failed and moves on.
func (p *Pusher) writeBatches(ctx context.Context, updates []api.ContactUpdate, stats *PushStats) error {
	for start := 0; start < len(updates); start += p.batchSize {
		end := start + p.batchSize
		if end > len(updates) {
			end = len(updates)
		}
		batch := updates[start:end]

		err := p.crm.BatchUpdateContacts(ctx, batch)
		switch {
		case err == nil:
			stats.Updated += len(batch)
		case errors.Is(err, api.ErrNotFound):
			p.fallbackUpdates(ctx, batch, stats)
		default:
			stats.Failed += len(batch)
			p.logger.Warn("batch update failed", "size", len(batch), "error", err)
		}

		if end < len(updates) {
			if err := p.sleep(ctx, p.crm.BatchDelay()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pusher) fallbackUpdates(ctx context.Context, batch []api.ContactUpdate, stats *PushStats) {
	for _, update := range batch {
		if err := p.crm.UpdateContactProperties(ctx, update.ID, update.Properties); err != nil {
			stats.Failed++
			p.logger.Warn("contact update failed", "contact", update.ID, "error", err)
			continue
		}
		stats.Updated++
	}
}
