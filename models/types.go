// ABOUTME: Data models for synced engagement entities
// ABOUTME: Defines Campaign, Lead, Activity structs and status enums
package models

import (
	"time"
)

// Campaign is one outreach campaign as observed from the remote API.
// Created on first sync, mutated on every sync, removed only by purge.
type Campaign struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Campaign status constants.
const (
	CampaignRunning  = "running"
	CampaignDraft    = "draft"
	CampaignPaused   = "paused"
	CampaignEnded    = "ended"
	CampaignArchived = "archived"
)

// Lead is one recipient inside one campaign. Identity is the
// source-assigned lead id, never the email: the same person shows up
// with a different lead id in every campaign they are part of.
//
// The pointer fields are enrichment fields filled in asynchronously;
// the store merges them with first-non-null-wins semantics.
type Lead struct {
	LeadID      string    `json:"lead_id"`
	CampaignID  string    `json:"campaign_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	HubspotID   *string   `json:"hubspot_id,omitempty"`
	LinkedinURL *string   `json:"linkedin_url,omitempty"`
	Company     *string   `json:"company,omitempty"`
	JobTitle    *string   `json:"job_title,omitempty"`
	Seniority   *string   `json:"seniority,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Location    *string   `json:"location,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// Activity is one engagement event. Immutable once written except for
// the display-derived fields (TypeDisplay, Details), which may be
// recomputed idempotently on re-sync.
type Activity struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"lead_id"`
	LeadEmail   string    `json:"lead_email"`
	CampaignID  string    `json:"campaign_id"`
	Type        string    `json:"type"`
	TypeDisplay string    `json:"type_display,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Details     string    `json:"details,omitempty"`
	RawJSON     string    `json:"raw_json,omitempty"`
	SyncedAt    time.Time `json:"synced_at"`
}

// ActivityWithLead joins an activity with its lead's display fields.
type ActivityWithLead struct {
	Activity
	LeadFirstName   string  `json:"lead_first_name,omitempty"`
	LeadLastName    string  `json:"lead_last_name,omitempty"`
	LeadHubspotID   *string `json:"lead_hubspot_id,omitempty"`
	LeadLinkedinURL *string `json:"lead_linkedin_url,omitempty"`
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// SyncState tracks the sync status of one campaign.
type SyncState struct {
	CampaignID   string     `json:"campaign_id"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	LastRunID    *string    `json:"last_run_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SyncRun records one completed sync pass for a campaign.
type SyncRun struct {
	ID                string    `json:"id"`
	RunID             string    `json:"run_id"`
	CampaignID        string    `json:"campaign_id"`
	Mode              string    `json:"mode"`
	ActivitiesFetched int       `json:"activities_fetched"`
	ActivitiesNew     int       `json:"activities_new"`
	LeadsSeen         int       `json:"leads_seen"`
	LeadsEnriched     int       `json:"leads_enriched"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Sync mode constants.
const (
	SyncModeFirstLoad   = "first_load"
	SyncModeIncremental = "incremental"
)

// CampaignStats summarizes the locally cached state of one campaign.
type CampaignStats struct {
	Leads             int        `json:"leads"`
	Activities        int        `json:"activities"`
	LeadsWithHubspot  int        `json:"leads_with_hubspot"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
}
