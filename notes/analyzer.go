// ABOUTME: CRM note reconciliation: duplicate detection and drift reports
// ABOUTME: Read-mostly analysis, mutates only when asked to delete duplicates
package notes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/models"
)

// NotesClient is the slice of the CRM API the analyzer needs.
type NotesClient interface {
	GetAllContacts(ctx context.Context, properties []string, withCompanies bool) ([]api.HubSpotContact, error)
	GetNotesForContact(ctx context.Context, contactID string) ([]api.HubSpotNote, error)
	BatchDeleteNotes(ctx context.Context, noteIDs []string) error
}

// ProgressFunc reports (current, total) while a long fetch runs. It is
// observational only.
type ProgressFunc func(current, total int)

// Analyzer inspects CRM notes written by the annotation pipeline.
type Analyzer struct {
	client NotesClient
	parser Parser
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil parser gets the standard
// template parser.
func NewAnalyzer(client NotesClient, parser Parser, logger *slog.Logger) *Analyzer {
	if parser == nil {
		parser = TemplateParser{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{client: client, parser: parser, logger: logger}
}

// ContactNotes is everything fetched for the analysis pass: parsed
// notes plus the contact id → email mapping needed for drift checks.
type ContactNotes struct {
	Parsed         []ParsedNote
	Foreign        int
	EmailByContact map[string]string
}

// FetchAllNotes pulls every contact's notes and parses them. Notes
// that do not match the template are counted as foreign and dropped.
func (a *Analyzer) FetchAllNotes(ctx context.Context, progress ProgressFunc) (*ContactNotes, error) {
	contacts, err := a.client.GetAllContacts(ctx, []string{"email"}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	result := &ContactNotes{EmailByContact: make(map[string]string, len(contacts))}
	for i, contact := range contacts {
		if email := contact.Properties["email"]; email != "" {
			result.EmailByContact[contact.ID] = strings.ToLower(email)
		}
		rawNotes, err := a.client.GetNotesForContact(ctx, contact.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch notes for contact %s: %w", contact.ID, err)
		}
		for _, raw := range rawNotes {
			note := Note{
				ID:        raw.ID,
				ContactID: contact.ID,
				Body:      raw.Properties.Body,
				CreatedAt: parseNoteTime(raw.Properties.Timestamp, raw.Properties.CreateDate),
			}
			parsed, ok := a.parser.Parse(note)
			if !ok {
				result.Foreign++
				continue
			}
			result.Parsed = append(result.Parsed, *parsed)
		}
		if progress != nil {
			progress(i+1, len(contacts))
		}
	}

	a.logger.Info("fetched notes",
		"contacts", len(contacts),
		"parsed", len(result.Parsed),
		"foreign", result.Foreign)
	return result, nil
}

func parseNoteTime(timestamp, createDate string) time.Time {
	for _, s := range []string{timestamp, createDate} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// duplicateKey identifies one logical annotation. Message bodies are
// deliberately excluded: two notes about the same event are duplicates
// even when their free text differs.
type duplicateKey struct {
	ContactID    string
	ActivityType string
	Campaign     string
	Step         int
}

// DuplicateGroup is a set of notes recording the same event.
type DuplicateGroup struct {
	Notes []ParsedNote
}

// FindDuplicates groups parsed notes by (contact, type, campaign,
// step) and returns the groups with more than one member, members
// sorted oldest first.
func FindDuplicates(parsed []ParsedNote) []DuplicateGroup {
	byKey := make(map[duplicateKey][]ParsedNote)
	var order []duplicateKey
	for _, note := range parsed {
		key := duplicateKey{note.ContactID, note.ActivityType, note.Campaign, note.Step}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], note)
	}

	var groups []DuplicateGroup
	for _, key := range order {
		notes := byKey[key]
		if len(notes) < 2 {
			continue
		}
		sort.Slice(notes, func(i, j int) bool {
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		})
		groups = append(groups, DuplicateGroup{Notes: notes})
	}
	return groups
}

// DeleteStats reports the outcome of a duplicate cleanup.
type DeleteStats struct {
	Deleted       int
	FailedBatches int
}

const deleteBatchSize = 100

// DeleteDuplicates removes all but one note per group, keeping the
// newest member when keepNewest is set, otherwise the oldest. Deletes
// run in bounded batches; a failed batch is logged and counted, not
// fatal.
func (a *Analyzer) DeleteDuplicates(ctx context.Context, groups []DuplicateGroup, keepNewest bool) (*DeleteStats, error) {
	var doomed []string
	for _, group := range groups {
		notes := group.Notes
		if keepNewest {
			notes = notes[:len(notes)-1]
		} else {
			notes = notes[1:]
		}
		for _, note := range notes {
			doomed = append(doomed, note.NoteID)
		}
	}

	stats := &DeleteStats{}
	for start := 0; start < len(doomed); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(doomed) {
			end = len(doomed)
		}
		batch := doomed[start:end]
		if err := a.client.BatchDeleteNotes(ctx, batch); err != nil {
			a.logger.Warn("failed to delete note batch", "size", len(batch), "error", err)
			stats.FailedBatches++
			continue
		}
		stats.Deleted += len(batch)
	}
	return stats, nil
}

// Triple identifies one engagement event for drift comparison.
type Triple struct {
	Email        string
	ActivityType string
	Campaign     string
}

// DriftReport is the symmetric difference between the CRM's notes and
// the local cache. Diagnostic only; nothing acts on it automatically.
type DriftReport struct {
	OnlyInCRM   []Triple
	OnlyInStore []Triple
}

// CompareWithStore builds (email, type, campaign) triples from parsed
// notes and from cached activities and reports what each side has that
// the other lacks. campaignNames maps campaign ids to names, since
// notes carry names while the cache keys by id.
func CompareWithStore(notes *ContactNotes, activities []models.ActivityWithLead, campaignNames map[string]string) *DriftReport {
	crmSet := make(map[Triple]bool)
	for _, note := range notes.Parsed {
		email, ok := notes.EmailByContact[note.ContactID]
		if !ok {
			continue
		}
		crmSet[Triple{email, note.ActivityType, note.Campaign}] = true
	}

	storeSet := make(map[Triple]bool)
	for i := range activities {
		activity := &activities[i]
		name, ok := campaignNames[activity.CampaignID]
		if !ok {
			name = activity.CampaignID
		}
		storeSet[Triple{strings.ToLower(activity.LeadEmail), activity.Type, name}] = true
	}

	report := &DriftReport{}
	for triple := range crmSet {
		if !storeSet[triple] {
			report.OnlyInCRM = append(report.OnlyInCRM, triple)
		}
	}
	for triple := range storeSet {
		if !crmSet[triple] {
			report.OnlyInStore = append(report.OnlyInStore, triple)
		}
	}
	sortTriples(report.OnlyInCRM)
	sortTriples(report.OnlyInStore)
	return report
}

func sortTriples(triples []Triple) {
	sort.Slice(triples, func(i, j int) bool {
		a, b := triples[i], triples[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		if a.Campaign != b.Campaign {
			return a.Campaign < b.Campaign
		}
		return a.ActivityType < b.ActivityType
	})
}
