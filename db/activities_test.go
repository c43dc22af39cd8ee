// ABOUTME: Tests for activity storage and the incremental watermark
// ABOUTME: Replay idempotence and typed timestamp retrieval
package db

import (
	"testing"
	"time"

	"github.com/ikoerber/lemlist/models"
)

func TestUpsertActivityReplayIsIdempotent(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	activity := &models.Activity{
		ID:         "a1",
		LeadID:     "l1",
		LeadEmail:  "jo@example.com",
		CampaignID: "c1",
		Type:       models.ActivityEmailReplied,
		CreatedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 3; i++ {
		if err := UpsertActivity(database, activity); err != nil {
			t.Fatalf("UpsertActivity #%d failed: %v", i, err)
		}
	}

	count, err := CountActivities(database, "c1")
	if err != nil {
		t.Fatalf("CountActivities failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 activity after replays, got %d", count)
	}
}

func TestHasActivity(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	cached, err := HasActivity(database, "a1")
	if err != nil {
		t.Fatalf("HasActivity failed: %v", err)
	}
	if cached {
		t.Error("Expected a1 to be unknown before insert")
	}

	activity := &models.Activity{
		ID:         "a1",
		LeadID:     "l1",
		LeadEmail:  "jo@example.com",
		CampaignID: "c1",
		Type:       models.ActivityEmailSent,
		CreatedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := UpsertActivity(database, activity); err != nil {
		t.Fatalf("UpsertActivity failed: %v", err)
	}

	cached, err = HasActivity(database, "a1")
	if err != nil {
		t.Fatalf("HasActivity failed: %v", err)
	}
	if !cached {
		t.Error("Expected a1 to be cached after insert")
	}
}

func TestGetLatestActivityTimestamp(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	watermark, err := GetLatestActivityTimestamp(database, "c1")
	if err != nil {
		t.Fatalf("GetLatestActivityTimestamp failed: %v", err)
	}
	if watermark != nil {
		t.Error("Expected nil watermark for empty campaign")
	}

	newest := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	timestamps := []time.Time{
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		newest,
		time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
	}
	for i, ts := range timestamps {
		activity := &models.Activity{
			ID:         string(rune('a' + i)),
			LeadID:     "l1",
			LeadEmail:  "jo@example.com",
			CampaignID: "c1",
			Type:       models.ActivityEmailSent,
			CreatedAt:  ts,
		}
		if err := UpsertActivity(database, activity); err != nil {
			t.Fatalf("UpsertActivity failed: %v", err)
		}
	}

	watermark, err = GetLatestActivityTimestamp(database, "c1")
	if err != nil {
		t.Fatalf("GetLatestActivityTimestamp failed: %v", err)
	}
	if watermark == nil {
		t.Fatal("Expected a watermark")
	}
	if !watermark.Equal(newest) {
		t.Errorf("Watermark = %v, want %v", watermark, newest)
	}
}

func TestGetActivitiesByEmailCrossesCampaigns(t *testing.T) {
	database := openTestDB(t)
	for _, c := range []*models.Campaign{testCampaign("c1", "Q1"), testCampaign("c2", "Q2")} {
		if err := UpsertCampaign(database, c); err != nil {
			t.Fatalf("UpsertCampaign failed: %v", err)
		}
	}
	for _, lead := range []*models.Lead{
		{LeadID: "l1", CampaignID: "c1", Email: "jo@example.com", FirstName: "Jo"},
		{LeadID: "l2", CampaignID: "c2", Email: "jo@example.com", FirstName: "Jo"},
	} {
		if err := UpsertLead(database, lead); err != nil {
			t.Fatalf("UpsertLead failed: %v", err)
		}
	}

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	activities := []*models.Activity{
		{ID: "a2", LeadID: "l2", LeadEmail: "jo@example.com", CampaignID: "c2", Type: models.ActivityEmailReplied, CreatedAt: base.Add(time.Hour)},
		{ID: "a1", LeadID: "l1", LeadEmail: "jo@example.com", CampaignID: "c1", Type: models.ActivityEmailSent, CreatedAt: base},
		{ID: "a3", LeadID: "l1", LeadEmail: "other@example.com", CampaignID: "c1", Type: models.ActivityEmailSent, CreatedAt: base},
	}
	for _, activity := range activities {
		if err := UpsertActivity(database, activity); err != nil {
			t.Fatalf("UpsertActivity failed: %v", err)
		}
	}

	got, err := GetActivitiesByEmail(database, "jo@example.com")
	if err != nil {
		t.Fatalf("GetActivitiesByEmail failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 activities, got %d", len(got))
	}
	// Oldest first, across both campaigns.
	if got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("Wrong order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].LeadFirstName != "Jo" {
		t.Errorf("Join missing lead fields, got %q", got[0].LeadFirstName)
	}
}
