// ABOUTME: Tests for lead/activity extraction from raw events
// ABOUTME: Alias merging, distinct-lead identity, fallback ids
package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/models"
)

func TestBuildBatchMergesLeadAliases(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	campaign := &models.Campaign{ID: "c1", Name: "Q1"}
	events := []api.LemlistActivity{
		{
			ID: "a1", LeadID: "l1", Type: models.ActivityEmailSent, CreatedAt: base,
			LeadEmail: "jo@example.com", LeadFirstName: "Jo",
		},
		{
			ID: "a2", LeadID: "l1", Type: models.ActivityEmailOpened, CreatedAt: base.Add(time.Hour),
			Email: "jo-alias@example.com", LastName: "Koerber",
			CompanyName: "Acme", HubspotLeadID: "hs-1",
		},
	}

	batch := buildBatch(campaign, events)

	require.Len(t, batch.Leads, 1)
	lead := batch.Leads[0]
	assert.Equal(t, "l1", lead.LeadID)
	// First non-empty value wins; the alias from the later event does
	// not displace the email already captured.
	assert.Equal(t, "jo@example.com", lead.Email)
	assert.Equal(t, "Jo", lead.FirstName)
	assert.Equal(t, "Koerber", lead.LastName)
	require.NotNil(t, lead.Company)
	assert.Equal(t, "Acme", *lead.Company)
	require.NotNil(t, lead.HubspotID)
	assert.Equal(t, "hs-1", *lead.HubspotID)

	require.Len(t, batch.Activities, 2)
	assert.Equal(t, "a1", batch.Activities[0].ID)
	assert.Equal(t, models.DisplayForType(models.ActivityEmailSent), batch.Activities[0].TypeDisplay)
}

func TestBuildBatchSameEmailTwoLeadIDs(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	campaign := &models.Campaign{ID: "c1", Name: "Q1"}
	events := []api.LemlistActivity{
		{ID: "a1", LeadID: "l1", LeadEmail: "shared@example.com", Type: models.ActivityEmailSent, CreatedAt: base},
		{ID: "a2", LeadID: "l2", LeadEmail: "shared@example.com", Type: models.ActivityEmailSent, CreatedAt: base},
	}

	batch := buildBatch(campaign, events)
	require.Len(t, batch.Leads, 2)
	assert.Equal(t, "l1", batch.Leads[0].LeadID)
	assert.Equal(t, "l2", batch.Leads[1].LeadID)
}

func TestBuildBatchDropsEventsWithoutPersistableLead(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	campaign := &models.Campaign{ID: "c1", Name: "Q1"}
	events := []api.LemlistActivity{
		{ID: "a1", Type: models.ActivityEmailSent, CreatedAt: base},
		{ID: "a2", LeadEmail: "ghost@example.com", Type: models.ActivityEmailSent, CreatedAt: base},
		{ID: "a3", LeadID: "l1", Type: models.ActivityEmailSent, CreatedAt: base},
		{ID: "a4", LeadID: "l2", LeadEmail: "jo@example.com", Type: models.ActivityEmailSent, CreatedAt: base},
	}

	batch := buildBatch(campaign, events)
	// Only the fully identified event survives; the others would leave
	// activity rows referencing no lead.
	require.Len(t, batch.Activities, 1)
	assert.Equal(t, "a4", batch.Activities[0].ID)
	require.Len(t, batch.Leads, 2)
}

func TestActivityIDFallsBackToComposite(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := api.LemlistActivity{
		LeadID: "l1", Type: models.ActivityEmailOpened, CreatedAt: at,
	}
	assert.Equal(t, "l1|emailsOpened|1772359200000", activityID(&event))

	event.ID = "real-id"
	assert.Equal(t, "real-id", activityID(&event))
}

func TestActivityDetailsPrefersSubject(t *testing.T) {
	event := api.LemlistActivity{Subject: "Intro", Message: "Hi there", URL: "https://x.test"}
	assert.Equal(t, "Intro", activityDetails(&event))

	event.Subject = ""
	assert.Equal(t, "https://x.test", activityDetails(&event))

	event.URL = ""
	assert.Equal(t, "Hi there", activityDetails(&event))
}

func TestBuildBatchLinkedinURLAliases(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	campaign := &models.Campaign{ID: "c1", Name: "Q1"}
	events := []api.LemlistActivity{
		{
			ID: "a1", LeadID: "l1", LeadEmail: "jo@example.com",
			Type: models.ActivityLinkedinVisitDone, CreatedAt: base,
			LinkedinPublicURL: "https://linkedin.com/in/jo",
		},
	}

	batch := buildBatch(campaign, events)
	require.Len(t, batch.Leads, 1)
	require.NotNil(t, batch.Leads[0].LinkedinURL)
	assert.Equal(t, "https://linkedin.com/in/jo", *batch.Leads[0].LinkedinURL)
}
