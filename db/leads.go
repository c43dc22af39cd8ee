// ABOUTME: Lead database operations with enrichment-preserving merge
// ABOUTME: Upserts never regress a known enrichment field back to null
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ikoerber/lemlist/models"
)

// UpsertLead inserts or merges a lead keyed by its source lead id.
// Names and email always take the incoming value; the enrichment
// columns keep whichever side is non-null, preferring the incoming one.
// Re-running the same upsert is a no-op.
func UpsertLead(db execer, lead *models.Lead) error {
	now := time.Now()
	if lead.LastUpdated.IsZero() {
		lead.LastUpdated = now
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	_, err := db.Exec(`
		INSERT INTO leads (
			lead_id, campaign_id, email, first_name, last_name,
			hubspot_id, linkedin_url, company, job_title, seniority, phone, location,
			last_updated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(lead_id) DO UPDATE SET
			campaign_id = excluded.campaign_id,
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			hubspot_id = COALESCE(excluded.hubspot_id, leads.hubspot_id),
			linkedin_url = COALESCE(excluded.linkedin_url, leads.linkedin_url),
			company = COALESCE(excluded.company, leads.company),
			job_title = COALESCE(excluded.job_title, leads.job_title),
			seniority = COALESCE(excluded.seniority, leads.seniority),
			phone = COALESCE(excluded.phone, leads.phone),
			location = COALESCE(excluded.location, leads.location),
			last_updated = excluded.last_updated
	`, lead.LeadID, lead.CampaignID, lead.Email, lead.FirstName, lead.LastName,
		lead.HubspotID, lead.LinkedinURL, lead.Company, lead.JobTitle, lead.Seniority,
		lead.Phone, lead.Location, lead.LastUpdated, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert lead: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

const leadColumns = `lead_id, campaign_id, email, first_name, last_name,
	hubspot_id, linkedin_url, company, job_title, seniority, phone, location,
	last_updated, created_at`

func scanLead(scan func(dest ...any) error) (*models.Lead, error) {
	lead := &models.Lead{}
	var firstName, lastName sql.NullString
	err := scan(
		&lead.LeadID, &lead.CampaignID, &lead.Email, &firstName, &lastName,
		&lead.HubspotID, &lead.LinkedinURL, &lead.Company, &lead.JobTitle,
		&lead.Seniority, &lead.Phone, &lead.Location,
		&lead.LastUpdated, &lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.FirstName = firstName.String
	lead.LastName = lastName.String
	return lead, nil
}

// GetLead retrieves a lead by its source lead id, or nil when absent.
func GetLead(db *sql.DB, leadID string) (*models.Lead, error) {
	row := db.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE lead_id = ?`, leadID)
	lead, err := scanLead(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func queryLeads(db *sql.DB, query string, args ...any) ([]models.Lead, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// GetLeadsByCampaign returns all leads of a campaign ordered by email.
func GetLeadsByCampaign(db *sql.DB, campaignID string) ([]models.Lead, error) {
	return queryLeads(db, `SELECT `+leadColumns+` FROM leads WHERE campaign_id = ? ORDER BY email`, campaignID)
}

// GetLeadsMissingEnrichment returns up to limit leads of a campaign
// that have no CRM id yet, oldest first. limit <= 0 means no cap.
func GetLeadsMissingEnrichment(db *sql.DB, campaignID string, limit int) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE campaign_id = ? AND hubspot_id IS NULL
		ORDER BY created_at`
	if limit > 0 {
		return queryLeads(db, query+` LIMIT ?`, campaignID, limit)
	}
	return queryLeads(db, query, campaignID)
}

// GetLeadsWithHubspotIDs returns all leads of a campaign that carry a
// CRM id, the population eligible for score write-back.
func GetLeadsWithHubspotIDs(db *sql.DB, campaignID string) ([]models.Lead, error) {
	return queryLeads(db, `SELECT `+leadColumns+` FROM leads
		WHERE campaign_id = ? AND hubspot_id IS NOT NULL ORDER BY email`, campaignID)
}

// UpdateLeadEnrichment merges freshly looked-up enrichment fields into
// an existing lead, same non-regression rule as UpsertLead.
func UpdateLeadEnrichment(db *sql.DB, leadID string, enrichment *models.Lead) error {
	_, err := db.Exec(`
		UPDATE leads SET
			hubspot_id = COALESCE(?, hubspot_id),
			linkedin_url = COALESCE(?, linkedin_url),
			company = COALESCE(?, company),
			job_title = COALESCE(?, job_title),
			phone = COALESCE(?, phone),
			location = COALESCE(?, location),
			last_updated = ?
		WHERE lead_id = ?
	`, enrichment.HubspotID, enrichment.LinkedinURL, enrichment.Company,
		enrichment.JobTitle, enrichment.Phone, enrichment.Location,
		time.Now(), leadID)
	if err != nil {
		return fmt.Errorf("failed to update lead enrichment: %w", err)
	}
	return nil
}

// UpdateLeadSeniority stores a derived seniority level for a lead.
func UpdateLeadSeniority(db *sql.DB, leadID, seniority string) error {
	_, err := db.Exec(`UPDATE leads SET seniority = ?, last_updated = ? WHERE lead_id = ?`,
		seniority, time.Now(), leadID)
	if err != nil {
		return fmt.Errorf("failed to update lead seniority: %w", err)
	}
	return nil
}
