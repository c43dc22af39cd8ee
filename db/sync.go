// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Per-campaign sync status plus an append-only run history
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ikoerber/lemlist/models"
)

// GetSyncState retrieves the sync state for a campaign, or nil when
// the campaign has never been synced.
func GetSyncState(db *sql.DB, campaignID string) (*models.SyncState, error) {
	var state models.SyncState
	var errorMessage, lastRunID sql.NullString

	err := db.QueryRow(`
		SELECT campaign_id, status, error_message, last_run_id, created_at, updated_at
		FROM sync_state
		WHERE campaign_id = ?
	`, campaignID).Scan(
		&state.CampaignID,
		&state.Status,
		&errorMessage,
		&lastRunID,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
	if lastRunID.Valid {
		state.LastRunID = &lastRunID.String
	}
	return &state, nil
}

// SetSyncStatus upserts the sync state for a campaign. errorMessage
// and runID may be empty; empty clears the stored value.
func SetSyncStatus(db *sql.DB, campaignID, status, errorMessage, runID string) error {
	now := time.Now()
	var errMsg, run any
	if errorMessage != "" {
		errMsg = errorMessage
	}
	if runID != "" {
		run = runID
	}
	_, err := db.Exec(`
		INSERT INTO sync_state (campaign_id, status, error_message, last_run_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(campaign_id) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			last_run_id = excluded.last_run_id,
			updated_at = excluded.updated_at
	`, campaignID, status, errMsg, run, now, now)
	if err != nil {
		return fmt.Errorf("failed to set sync status: %w", err)
	}
	return nil
}

// RecordSyncRun appends one completed sync pass to the run history.
func RecordSyncRun(db *sql.DB, run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := db.Exec(`
		INSERT INTO sync_log (
			id, run_id, campaign_id, mode,
			activities_fetched, activities_new, leads_seen, leads_enriched,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.RunID, run.CampaignID, run.Mode,
		run.ActivitiesFetched, run.ActivitiesNew, run.LeadsSeen, run.LeadsEnriched,
		run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// GetLastSyncRun returns the most recent run for a campaign, or nil.
func GetLastSyncRun(db *sql.DB, campaignID string) (*models.SyncRun, error) {
	var run models.SyncRun
	err := db.QueryRow(`
		SELECT id, run_id, campaign_id, mode,
			activities_fetched, activities_new, leads_seen, leads_enriched,
			started_at, finished_at
		FROM sync_log
		WHERE campaign_id = ?
		ORDER BY finished_at DESC LIMIT 1
	`, campaignID).Scan(
		&run.ID, &run.RunID, &run.CampaignID, &run.Mode,
		&run.ActivitiesFetched, &run.ActivitiesNew, &run.LeadsSeen, &run.LeadsEnriched,
		&run.StartedAt, &run.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync run: %w", err)
	}
	return &run, nil
}
