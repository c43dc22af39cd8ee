// ABOUTME: Campaign database operations
// ABOUTME: Upserts synced campaigns, lookups by name, stats and purge
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ikoerber/lemlist/models"
)

// UpsertCampaign inserts or updates a campaign. Name and status always
// reflect the latest remote state; created_at is set once.
func UpsertCampaign(db *sql.DB, campaign *models.Campaign) error {
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now()
	}
	_, err := db.Exec(`
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

// MarkCampaignSynced stamps last_synced_at after a successful sync.
func MarkCampaignSynced(db *sql.DB, campaignID string, at time.Time) error {
	_, err := db.Exec(`UPDATE campaigns SET last_synced_at = ? WHERE id = ?`, at, campaignID)
	if err != nil {
		return fmt.Errorf("failed to mark campaign synced: %w", err)
	}
	return nil
}

// GetCampaign retrieves a campaign by id, or nil when absent.
func GetCampaign(db *sql.DB, id string) (*models.Campaign, error) {
	return scanCampaign(db.QueryRow(`
		SELECT id, name, status, last_synced_at, created_at
		FROM campaigns WHERE id = ?
	`, id))
}

// GetCampaignByName retrieves a campaign by exact name, or nil.
func GetCampaignByName(db *sql.DB, name string) (*models.Campaign, error) {
	return scanCampaign(db.QueryRow(`
		SELECT id, name, status, last_synced_at, created_at
		FROM campaigns WHERE name = ?
	`, name))
}

func scanCampaign(row *sql.Row) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	var lastSynced sql.NullTime
	err := row.Scan(&campaign.ID, &campaign.Name, &campaign.Status, &lastSynced, &campaign.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if lastSynced.Valid {
		campaign.LastSyncedAt = &lastSynced.Time
	}
	return campaign, nil
}

// ListCampaigns returns all cached campaigns ordered by name.
func ListCampaigns(db *sql.DB) ([]models.Campaign, error) {
	rows, err := db.Query(`
		SELECT id, name, status, last_synced_at, created_at
		FROM campaigns ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		var campaign models.Campaign
		var lastSynced sql.NullTime
		if err := rows.Scan(&campaign.ID, &campaign.Name, &campaign.Status, &lastSynced, &campaign.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		if lastSynced.Valid {
			campaign.LastSyncedAt = &lastSynced.Time
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

// GetCampaignStats summarizes the locally cached state of a campaign.
func GetCampaignStats(db *sql.DB, campaignID string) (*models.CampaignStats, error) {
	stats := &models.CampaignStats{}

	err := db.QueryRow(`SELECT COUNT(*) FROM leads WHERE campaign_id = ?`, campaignID).Scan(&stats.Leads)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	err = db.QueryRow(`SELECT COUNT(*) FROM activities WHERE campaign_id = ?`, campaignID).Scan(&stats.Activities)
	if err != nil {
		return nil, fmt.Errorf("failed to count activities: %w", err)
	}
	err = db.QueryRow(`SELECT COUNT(*) FROM leads WHERE campaign_id = ? AND hubspot_id IS NOT NULL`, campaignID).Scan(&stats.LeadsWithHubspot)
	if err != nil {
		return nil, fmt.Errorf("failed to count enriched leads: %w", err)
	}

	var lastSynced sql.NullTime
	err = db.QueryRow(`SELECT last_synced_at FROM campaigns WHERE id = ?`, campaignID).Scan(&lastSynced)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last sync time: %w", err)
	}
	if lastSynced.Valid {
		stats.LastSyncedAt = &lastSynced.Time
	}
	return stats, nil
}

// PurgeCampaign removes a campaign and everything derived from it in
// one transaction: activities, leads, sync state, sync log, campaign.
func PurgeCampaign(db *sql.DB, campaignID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin purge: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM activities WHERE campaign_id = ?`,
		`DELETE FROM leads WHERE campaign_id = ?`,
		`DELETE FROM sync_state WHERE campaign_id = ?`,
		`DELETE FROM sync_log WHERE campaign_id = ?`,
		`DELETE FROM campaigns WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, campaignID); err != nil {
			return fmt.Errorf("failed to purge campaign: %w", err)
		}
	}
	return tx.Commit()
}
