// ABOUTME: Transactional persistence of one sync pass
// ABOUTME: Campaign, leads, then activities commit or roll back together
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ikoerber/lemlist/models"
)

// SyncBatch is everything one sync pass wants to persist atomically.
// Leads go in before activities so the join targets exist.
type SyncBatch struct {
	Campaign   *models.Campaign
	Leads      []models.Lead
	Activities []models.Activity
}

// SaveSyncBatch writes a whole sync pass in one transaction and
// returns how many of the activities were not cached before. A failure
// anywhere leaves the store exactly as it was.
func SaveSyncBatch(db *sql.DB, batch *SyncBatch) (newActivities int, err error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin sync batch: %w", err)
	}
	defer tx.Rollback()

	if batch.Campaign != nil {
		if err := upsertCampaignTx(tx, batch.Campaign); err != nil {
			return 0, err
		}
	}
	for i := range batch.Leads {
		if err := UpsertLead(tx, &batch.Leads[i]); err != nil {
			return 0, err
		}
	}
	for i := range batch.Activities {
		activity := &batch.Activities[i]
		cached, err := HasActivity(tx, activity.ID)
		if err != nil {
			return 0, err
		}
		if !cached {
			newActivities++
		}
		if err := UpsertActivity(tx, activity); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sync batch: %w", err)
	}
	return newActivities, nil
}

func upsertCampaignTx(tx *sql.Tx, campaign *models.Campaign) error {
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now()
	}
	_, err := tx.Exec(`
		INSERT INTO campaigns (id, name, status, last_synced_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status
	`, campaign.ID, campaign.Name, campaign.Status, campaign.LastSyncedAt, campaign.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign: %w", err)
	}
	return nil
}
