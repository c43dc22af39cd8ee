// ABOUTME: Tests for campaign storage, stats, and purge
// ABOUTME: Purge removes all derived rows in one transaction
package db

import (
	"testing"
	"time"

	"github.com/ikoerber/lemlist/models"
)

func TestUpsertCampaignUpdatesStatus(t *testing.T) {
	database := openTestDB(t)

	campaign := testCampaign("c1", "Q1")
	if err := UpsertCampaign(database, campaign); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	campaign.Status = models.CampaignEnded
	campaign.Name = "Q1 (closed)"
	if err := UpsertCampaign(database, campaign); err != nil {
		t.Fatalf("UpsertCampaign update failed: %v", err)
	}

	got, err := GetCampaign(database, "c1")
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if got.Status != models.CampaignEnded || got.Name != "Q1 (closed)" {
		t.Errorf("Update not applied: %+v", got)
	}
}

func TestGetCampaignByNameMissing(t *testing.T) {
	database := openTestDB(t)
	got, err := GetCampaignByName(database, "nope")
	if err != nil {
		t.Fatalf("GetCampaignByName failed: %v", err)
	}
	if got != nil {
		t.Error("Expected nil for unknown name")
	}
}

func TestGetCampaignStats(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}
	if err := MarkCampaignSynced(database, "c1", time.Now()); err != nil {
		t.Fatalf("MarkCampaignSynced failed: %v", err)
	}
	for _, lead := range []*models.Lead{
		{LeadID: "l1", CampaignID: "c1", Email: "a@x.com", HubspotID: strPtr("hs-1")},
		{LeadID: "l2", CampaignID: "c1", Email: "b@x.com"},
	} {
		if err := UpsertLead(database, lead); err != nil {
			t.Fatalf("UpsertLead failed: %v", err)
		}
	}
	activity := &models.Activity{ID: "a1", LeadID: "l1", LeadEmail: "a@x.com", CampaignID: "c1", Type: models.ActivityEmailSent, CreatedAt: time.Now()}
	if err := UpsertActivity(database, activity); err != nil {
		t.Fatalf("UpsertActivity failed: %v", err)
	}

	stats, err := GetCampaignStats(database, "c1")
	if err != nil {
		t.Fatalf("GetCampaignStats failed: %v", err)
	}
	if stats.Leads != 2 || stats.Activities != 1 || stats.LeadsWithHubspot != 1 {
		t.Errorf("Stats = %+v", stats)
	}
	if stats.LastSyncedAt == nil {
		t.Error("LastSyncedAt missing")
	}
}

func TestPurgeCampaignRemovesEverything(t *testing.T) {
	database := openTestDB(t)
	for _, c := range []*models.Campaign{testCampaign("c1", "Doomed"), testCampaign("c2", "Kept")} {
		if err := UpsertCampaign(database, c); err != nil {
			t.Fatalf("UpsertCampaign failed: %v", err)
		}
	}
	for _, campaignID := range []string{"c1", "c2"} {
		lead := &models.Lead{LeadID: "l-" + campaignID, CampaignID: campaignID, Email: campaignID + "@x.com"}
		if err := UpsertLead(database, lead); err != nil {
			t.Fatalf("UpsertLead failed: %v", err)
		}
		activity := &models.Activity{ID: "a-" + campaignID, LeadID: lead.LeadID, LeadEmail: lead.Email, CampaignID: campaignID, Type: models.ActivityEmailSent, CreatedAt: time.Now()}
		if err := UpsertActivity(database, activity); err != nil {
			t.Fatalf("UpsertActivity failed: %v", err)
		}
		if err := SetSyncStatus(database, campaignID, models.SyncStatusIdle, "", "run-1"); err != nil {
			t.Fatalf("SetSyncStatus failed: %v", err)
		}
	}

	if err := PurgeCampaign(database, "c1"); err != nil {
		t.Fatalf("PurgeCampaign failed: %v", err)
	}

	if got, _ := GetCampaign(database, "c1"); got != nil {
		t.Error("Campaign survived purge")
	}
	if got, _ := GetLead(database, "l-c1"); got != nil {
		t.Error("Lead survived purge")
	}
	if count, _ := CountActivities(database, "c1"); count != 0 {
		t.Error("Activities survived purge")
	}
	if state, _ := GetSyncState(database, "c1"); state != nil {
		t.Error("Sync state survived purge")
	}

	// The other campaign is untouched.
	if got, _ := GetCampaign(database, "c2"); got == nil {
		t.Error("Unrelated campaign was purged")
	}
	if count, _ := CountActivities(database, "c2"); count != 1 {
		t.Error("Unrelated activities were purged")
	}
}
