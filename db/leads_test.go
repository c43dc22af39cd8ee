// ABOUTME: Tests for lead upserts and the enrichment merge rule
// ABOUTME: Non-null values must never regress to null on replay
package db

import (
	"testing"

	"github.com/ikoerber/lemlist/models"
)

func TestUpsertLeadMergeNeverRegresses(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	enriched := &models.Lead{
		LeadID:     "lead-1",
		CampaignID: "c1",
		Email:      "jo@example.com",
		FirstName:  "Jo",
		HubspotID:  strPtr("hs-1"),
		JobTitle:   strPtr("VP Sales"),
	}
	if err := UpsertLead(database, enriched); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}

	// A later sync sees the same lead without enrichment data.
	bare := &models.Lead{
		LeadID:     "lead-1",
		CampaignID: "c1",
		Email:      "jo@example.com",
		FirstName:  "Joanna",
	}
	if err := UpsertLead(database, bare); err != nil {
		t.Fatalf("UpsertLead replay failed: %v", err)
	}

	got, err := GetLead(database, "lead-1")
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.FirstName != "Joanna" {
		t.Errorf("FirstName = %q, names always take the incoming value", got.FirstName)
	}
	if got.HubspotID == nil || *got.HubspotID != "hs-1" {
		t.Error("HubspotID regressed to null on replay")
	}
	if got.JobTitle == nil || *got.JobTitle != "VP Sales" {
		t.Error("JobTitle regressed to null on replay")
	}
}

func TestUpsertLeadIncomingEnrichmentWins(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	first := &models.Lead{LeadID: "lead-1", CampaignID: "c1", Email: "jo@example.com", Company: strPtr("Acme")}
	if err := UpsertLead(database, first); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}
	second := &models.Lead{LeadID: "lead-1", CampaignID: "c1", Email: "jo@example.com", Company: strPtr("Acme GmbH")}
	if err := UpsertLead(database, second); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}

	got, err := GetLead(database, "lead-1")
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.Company == nil || *got.Company != "Acme GmbH" {
		t.Error("Incoming non-null enrichment must replace the stored value")
	}
}

func TestSameEmailDifferentLeadIDsStaysSeparate(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}
	if err := UpsertCampaign(database, testCampaign("c2", "Q2")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	for _, lead := range []*models.Lead{
		{LeadID: "lead-a", CampaignID: "c1", Email: "jo@example.com"},
		{LeadID: "lead-b", CampaignID: "c2", Email: "jo@example.com"},
	} {
		if err := UpsertLead(database, lead); err != nil {
			t.Fatalf("UpsertLead failed: %v", err)
		}
	}

	c1, err := GetLeadsByCampaign(database, "c1")
	if err != nil {
		t.Fatalf("GetLeadsByCampaign failed: %v", err)
	}
	c2, err := GetLeadsByCampaign(database, "c2")
	if err != nil {
		t.Fatalf("GetLeadsByCampaign failed: %v", err)
	}
	if len(c1) != 1 || len(c2) != 1 {
		t.Fatalf("Expected one lead per campaign, got %d and %d", len(c1), len(c2))
	}
}

func TestGetLeadsMissingEnrichmentHonorsLimit(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}

	leads := []*models.Lead{
		{LeadID: "l1", CampaignID: "c1", Email: "a@x.com"},
		{LeadID: "l2", CampaignID: "c1", Email: "b@x.com"},
		{LeadID: "l3", CampaignID: "c1", Email: "c@x.com", HubspotID: strPtr("hs-3")},
	}
	for _, lead := range leads {
		if err := UpsertLead(database, lead); err != nil {
			t.Fatalf("UpsertLead failed: %v", err)
		}
	}

	missing, err := GetLeadsMissingEnrichment(database, "c1", 1)
	if err != nil {
		t.Fatalf("GetLeadsMissingEnrichment failed: %v", err)
	}
	if len(missing) != 1 {
		t.Errorf("Expected 1 lead with limit 1, got %d", len(missing))
	}

	all, err := GetLeadsMissingEnrichment(database, "c1", 0)
	if err != nil {
		t.Fatalf("GetLeadsMissingEnrichment failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 unenriched leads, got %d", len(all))
	}
}

func TestUpdateLeadEnrichment(t *testing.T) {
	database := openTestDB(t)
	if err := UpsertCampaign(database, testCampaign("c1", "Q1")); err != nil {
		t.Fatalf("UpsertCampaign failed: %v", err)
	}
	if err := UpsertLead(database, &models.Lead{LeadID: "l1", CampaignID: "c1", Email: "a@x.com", Phone: strPtr("+1 555")}); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}

	err := UpdateLeadEnrichment(database, "l1", &models.Lead{
		HubspotID:   strPtr("hs-1"),
		LinkedinURL: strPtr("https://linkedin.com/in/a"),
	})
	if err != nil {
		t.Fatalf("UpdateLeadEnrichment failed: %v", err)
	}

	got, err := GetLead(database, "l1")
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.HubspotID == nil || *got.HubspotID != "hs-1" {
		t.Error("HubspotID not stored")
	}
	if got.Phone == nil || *got.Phone != "+1 555" {
		t.Error("Existing phone must survive an enrichment update without one")
	}
}
