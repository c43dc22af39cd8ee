// ABOUTME: Activity database operations and the incremental watermark
// ABOUTME: Append-mostly event storage with idempotent replays
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ikoerber/lemlist/models"
)

// UpsertActivity inserts an activity, or on replay refreshes only its
// display fields. The event itself never changes once written.
func UpsertActivity(db execer, activity *models.Activity) error {
	if activity.SyncedAt.IsZero() {
		activity.SyncedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO activities (
			id, lead_id, lead_email, campaign_id, type, type_display,
			created_at, details, raw_json, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type_display = excluded.type_display,
			details = excluded.details
	`, activity.ID, activity.LeadID, activity.LeadEmail, activity.CampaignID,
		activity.Type, activity.TypeDisplay, activity.CreatedAt,
		activity.Details, activity.RawJSON, activity.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}
	return nil
}

// HasActivity reports whether an activity id is already cached. It
// runs against the database or an open transaction.
func HasActivity(db execer, id string) (bool, error) {
	var exists int
	err := db.QueryRow(`SELECT 1 FROM activities WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check activity: %w", err)
	}
	return true, nil
}

// GetLatestActivityTimestamp returns the newest activity created_at
// for a campaign, or nil when the campaign has no activities. This is
// the incremental-sync watermark.
func GetLatestActivityTimestamp(db *sql.DB, campaignID string) (*time.Time, error) {
	var created time.Time
	// MAX() loses the column decltype, so the driver would hand back a
	// string instead of a time. ORDER BY keeps the typed column.
	err := db.QueryRow(`
		SELECT created_at FROM activities
		WHERE campaign_id = ?
		ORDER BY created_at DESC LIMIT 1
	`, campaignID).Scan(&created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest activity timestamp: %w", err)
	}
	return &created, nil
}

const activityWithLeadQuery = `
	SELECT a.id, a.lead_id, a.lead_email, a.campaign_id, a.type, a.type_display,
		a.created_at, a.details, a.raw_json, a.synced_at,
		COALESCE(l.first_name, ''), COALESCE(l.last_name, ''),
		l.hubspot_id, l.linkedin_url
	FROM activities a
	LEFT JOIN leads l ON l.lead_id = a.lead_id
`

func queryActivitiesWithLead(db *sql.DB, where string, args ...any) ([]models.ActivityWithLead, error) {
	rows, err := db.Query(activityWithLeadQuery+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.ActivityWithLead
	for rows.Next() {
		var a models.ActivityWithLead
		var typeDisplay, details, rawJSON sql.NullString
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.LeadEmail, &a.CampaignID, &a.Type, &typeDisplay,
			&a.CreatedAt, &details, &rawJSON, &a.SyncedAt,
			&a.LeadFirstName, &a.LeadLastName, &a.LeadHubspotID, &a.LeadLinkedinURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.TypeDisplay = typeDisplay.String
		a.Details = details.String
		a.RawJSON = rawJSON.String
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// GetActivitiesByCampaign returns a campaign's activities joined with
// lead display fields, newest first.
func GetActivitiesByCampaign(db *sql.DB, campaignID string) ([]models.ActivityWithLead, error) {
	return queryActivitiesWithLead(db, ` WHERE a.campaign_id = ? ORDER BY a.created_at DESC`, campaignID)
}

// GetActivitiesByEmail returns every activity for an email address
// across all campaigns, oldest first, the order scoring consumes.
func GetActivitiesByEmail(db *sql.DB, email string) ([]models.ActivityWithLead, error) {
	return queryActivitiesWithLead(db, ` WHERE a.lead_email = ? ORDER BY a.created_at`, email)
}

// CountActivities returns the number of cached activities for a campaign.
func CountActivities(db *sql.DB, campaignID string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM activities WHERE campaign_id = ?`, campaignID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}
