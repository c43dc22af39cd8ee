// ABOUTME: Tests for duplicate detection, deletion policy, and drift reports
// ABOUTME: Uses an in-memory fake of the CRM note API
package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/models"
)

type fakeNotesClient struct {
	contacts    []api.HubSpotContact
	notesByID   map[string][]api.HubSpotNote
	deleted     [][]string
	failDeletes bool
}

func (f *fakeNotesClient) GetAllContacts(ctx context.Context, properties []string, withCompanies bool) ([]api.HubSpotContact, error) {
	return f.contacts, nil
}

func (f *fakeNotesClient) GetNotesForContact(ctx context.Context, contactID string) ([]api.HubSpotNote, error) {
	return f.notesByID[contactID], nil
}

func (f *fakeNotesClient) BatchDeleteNotes(ctx context.Context, noteIDs []string) error {
	if f.failDeletes {
		return errors.New("archive endpoint unavailable")
	}
	batch := make([]string, len(noteIDs))
	copy(batch, noteIDs)
	f.deleted = append(f.deleted, batch)
	return nil
}

func crmNote(id, body, timestamp string) api.HubSpotNote {
	note := api.HubSpotNote{ID: id}
	note.Properties.Body = body
	note.Properties.Timestamp = timestamp
	return note
}

func TestFindDuplicatesIgnoresMessageBodies(t *testing.T) {
	parsed := []ParsedNote{
		{NoteID: "n1", ContactID: "42", ActivityType: models.ActivityEmailReplied, Campaign: "Q1", Step: 2, Message: "sounds good"},
		{NoteID: "n2", ContactID: "42", ActivityType: models.ActivityEmailReplied, Campaign: "Q1", Step: 2, Message: "completely different text"},
		{NoteID: "n3", ContactID: "42", ActivityType: models.ActivityEmailReplied, Campaign: "Q1", Step: 3},
		{NoteID: "n4", ContactID: "99", ActivityType: models.ActivityEmailReplied, Campaign: "Q1", Step: 2},
	}

	groups := FindDuplicates(parsed)
	require.Len(t, groups, 1, "differing messages do not split a group; other step/contact do")
	assert.Len(t, groups[0].Notes, 2)
}

func TestFindDuplicatesSortsOldestFirst(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	parsed := []ParsedNote{
		{NoteID: "newer", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1, CreatedAt: base.Add(time.Hour)},
		{NoteID: "older", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1, CreatedAt: base},
	}

	groups := FindDuplicates(parsed)
	require.Len(t, groups, 1)
	assert.Equal(t, "older", groups[0].Notes[0].NoteID)
	assert.Equal(t, "newer", groups[0].Notes[1].NoteID)
}

func TestDeleteDuplicatesKeepsNewest(t *testing.T) {
	client := &fakeNotesClient{}
	analyzer := NewAnalyzer(client, nil, nil)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	groups := FindDuplicates([]ParsedNote{
		{NoteID: "old", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1, CreatedAt: base},
		{NoteID: "mid", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1, CreatedAt: base.Add(time.Hour)},
		{NoteID: "new", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1, CreatedAt: base.Add(2 * time.Hour)},
	})

	stats, err := analyzer.DeleteDuplicates(context.Background(), groups, true)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Deleted)
	require.Len(t, client.deleted, 1)
	assert.ElementsMatch(t, []string{"old", "mid"}, client.deleted[0])
}

func TestDeleteDuplicatesKeepsOldest(t *testing.T) {
	client := &fakeNotesClient{}
	analyzer := NewAnalyzer(client, nil, nil)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	groups := FindDuplicates([]ParsedNote{
		{NoteID: "old", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1, CreatedAt: base},
		{NoteID: "new", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1, CreatedAt: base.Add(time.Hour)},
	})

	stats, err := analyzer.DeleteDuplicates(context.Background(), groups, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, [][]string{{"new"}}, client.deleted)
}

func TestDeleteDuplicatesFailedBatchIsNotFatal(t *testing.T) {
	client := &fakeNotesClient{failDeletes: true}
	analyzer := NewAnalyzer(client, nil, nil)

	groups := FindDuplicates([]ParsedNote{
		{NoteID: "a", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1},
		{NoteID: "b", ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1", Step: 1},
	})

	stats, err := analyzer.DeleteDuplicates(context.Background(), groups, true)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Deleted)
	assert.Equal(t, 1, stats.FailedBatches)
}

func TestFetchAllNotesParsesAndCountsForeign(t *testing.T) {
	client := &fakeNotesClient{
		contacts: []api.HubSpotContact{
			{ID: "42", Properties: map[string]string{"email": "Jo@Example.com"}},
		},
		notesByID: map[string][]api.HubSpotNote{
			"42": {
				crmNote("n1", "Email opened from campaign Q1 - (step 1)", "2026-02-01T09:00:00Z"),
				crmNote("n2", "Spoke at the conference, follow up later", "2026-02-02T09:00:00Z"),
			},
		},
	}
	analyzer := NewAnalyzer(client, nil, nil)

	var progress [][2]int
	fetched, err := analyzer.FetchAllNotes(context.Background(), func(current, total int) {
		progress = append(progress, [2]int{current, total})
	})
	require.NoError(t, err)

	require.Len(t, fetched.Parsed, 1)
	assert.Equal(t, 1, fetched.Foreign)
	assert.Equal(t, "jo@example.com", fetched.EmailByContact["42"], "emails are lowercased")
	assert.Equal(t, [][2]int{{1, 1}}, progress)
	assert.Equal(t, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), fetched.Parsed[0].CreatedAt)
}

func TestCompareWithStoreReportsSymmetricDifference(t *testing.T) {
	fetched := &ContactNotes{
		Parsed: []ParsedNote{
			{ContactID: "42", ActivityType: models.ActivityEmailOpened, Campaign: "Q1"},
			{ContactID: "42", ActivityType: models.ActivityEmailReplied, Campaign: "Q1"},
		},
		EmailByContact: map[string]string{"42": "jo@example.com"},
	}
	activities := []models.ActivityWithLead{
		{Activity: models.Activity{LeadEmail: "JO@example.com", CampaignID: "c1", Type: models.ActivityEmailOpened}},
		{Activity: models.Activity{LeadEmail: "jo@example.com", CampaignID: "c1", Type: models.ActivityEmailClicked}},
	}

	report := CompareWithStore(fetched, activities, map[string]string{"c1": "Q1"})

	require.Len(t, report.OnlyInCRM, 1)
	assert.Equal(t, models.ActivityEmailReplied, report.OnlyInCRM[0].ActivityType)
	require.Len(t, report.OnlyInStore, 1)
	assert.Equal(t, models.ActivityEmailClicked, report.OnlyInStore[0].ActivityType)
}
