// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	last_synced_at DATETIME,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_name ON campaigns(name);
CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);

CREATE TABLE IF NOT EXISTS leads (
	lead_id TEXT PRIMARY KEY,
	campaign_id TEXT NOT NULL,
	email TEXT NOT NULL,
	first_name TEXT,
	last_name TEXT,
	hubspot_id TEXT,
	linkedin_url TEXT,
	company TEXT,
	job_title TEXT,
	seniority TEXT,
	phone TEXT,
	location TEXT,
	last_updated DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
);

CREATE INDEX IF NOT EXISTS idx_leads_campaign_id ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_leads_hubspot_id ON leads(hubspot_id);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	lead_id TEXT NOT NULL,
	lead_email TEXT NOT NULL,
	campaign_id TEXT NOT NULL,
	type TEXT NOT NULL,
	type_display TEXT,
	created_at DATETIME NOT NULL,
	details TEXT,
	raw_json TEXT,
	synced_at DATETIME NOT NULL,
	FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
);

CREATE INDEX IF NOT EXISTS idx_activities_campaign_created ON activities(campaign_id, created_at);
CREATE INDEX IF NOT EXISTS idx_activities_lead_email ON activities(lead_email);
CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(type);

CREATE TABLE IF NOT EXISTS score_industry_weights (
	industry TEXT PRIMARY KEY,
	weight INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS score_seniority_weights (
	seniority TEXT PRIMARY KEY,
	weight INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
	campaign_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	error_message TEXT,
	last_run_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	campaign_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	activities_fetched INTEGER NOT NULL DEFAULT 0,
	activities_new INTEGER NOT NULL DEFAULT 0,
	leads_seen INTEGER NOT NULL DEFAULT 0,
	leads_enriched INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_log_campaign ON sync_log(campaign_id, finished_at);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
