// ABOUTME: Tests for the transactional sync batch writer
// ABOUTME: New-activity accounting and replay stability
package db

import (
	"testing"
	"time"

	"github.com/ikoerber/lemlist/models"
)

func TestSaveSyncBatchCountsOnlyNewActivities(t *testing.T) {
	database := openTestDB(t)

	batch := &SyncBatch{
		Campaign: testCampaign("c1", "Q1"),
		Leads: []models.Lead{
			{LeadID: "l1", CampaignID: "c1", Email: "a@x.com"},
		},
		Activities: []models.Activity{
			{ID: "a1", LeadID: "l1", LeadEmail: "a@x.com", CampaignID: "c1", Type: models.ActivityEmailSent, CreatedAt: time.Now()},
			{ID: "a2", LeadID: "l1", LeadEmail: "a@x.com", CampaignID: "c1", Type: models.ActivityEmailOpened, CreatedAt: time.Now()},
		},
	}

	newCount, err := SaveSyncBatch(database, batch)
	if err != nil {
		t.Fatalf("SaveSyncBatch failed: %v", err)
	}
	if newCount != 2 {
		t.Errorf("First save: new = %d, want 2", newCount)
	}

	// Replaying the identical batch writes nothing new.
	newCount, err = SaveSyncBatch(database, batch)
	if err != nil {
		t.Fatalf("SaveSyncBatch replay failed: %v", err)
	}
	if newCount != 0 {
		t.Errorf("Replay: new = %d, want 0", newCount)
	}

	count, err := CountActivities(database, "c1")
	if err != nil {
		t.Fatalf("CountActivities failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Activity count = %d, want 2", count)
	}
}

func TestSaveSyncBatchCreatesCampaign(t *testing.T) {
	database := openTestDB(t)

	_, err := SaveSyncBatch(database, &SyncBatch{Campaign: testCampaign("c9", "New")})
	if err != nil {
		t.Fatalf("SaveSyncBatch failed: %v", err)
	}

	campaign, err := GetCampaign(database, "c9")
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if campaign == nil {
		t.Fatal("Campaign not persisted")
	}
	if campaign.Name != "New" {
		t.Errorf("Name = %q, want New", campaign.Name)
	}
}
