// ABOUTME: CRM API client for contacts, companies, and note annotations
// ABOUTME: Cursor-paginated reads plus batch read/update/archive endpoints
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHubSpotBaseURL = "https://api.hubapi.com"

	// HubSpotBatchLimit is the CRM's hard cap on records per batch call.
	HubSpotBatchLimit = 100

	// defaultBatchDelay keeps batch calls under the 4 req/s batch-API budget.
	defaultBatchDelay = 250 * time.Millisecond
)

// HubSpotOptions configures the CRM client.
type HubSpotOptions struct {
	APIToken   string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	BatchDelay time.Duration
	Sleep      SleepFunc
	Logger     *slog.Logger
}

// HubSpotClient talks to the CRM with bearer-token auth.
type HubSpotClient struct {
	core       *Client
	batchDelay time.Duration
	sleep      SleepFunc
}

// NewHubSpotClient creates a client for the CRM API.
func NewHubSpotClient(opts HubSpotOptions) *HubSpotClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultHubSpotBaseURL
	}
	batchDelay := opts.BatchDelay
	if batchDelay <= 0 {
		batchDelay = defaultBatchDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	token := opts.APIToken
	core := NewClient(ClientOptions{
		BaseURL: baseURL,
		Auth: func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		},
		HTTPClient: opts.HTTPClient,
		MaxRetries: opts.MaxRetries,
		UserAgent:  "lemsync/1.0",
		Sleep:      sleep,
		Logger:     opts.Logger,
	})
	return &HubSpotClient{core: core, batchDelay: batchDelay, sleep: sleep}
}

// ContactUpdate is one (record id, property map) pair for a batch
// property update. Property values must never be null for unknown
// fields; callers omit the key instead.
type ContactUpdate struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// HubSpotContact is one CRM contact with requested properties and,
// optionally, its company associations.
type HubSpotContact struct {
	ID           string            `json:"id"`
	Properties   map[string]string `json:"properties"`
	Associations struct {
		Companies struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		} `json:"companies"`
	} `json:"associations"`
}

// FirstCompanyID returns the contact's first associated company id, or
// empty when there is none.
func (c *HubSpotContact) FirstCompanyID() string {
	if len(c.Associations.Companies.Results) == 0 {
		return ""
	}
	return c.Associations.Companies.Results[0].ID
}

// HubSpotCompany is one CRM company with requested properties.
type HubSpotCompany struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// HubSpotNote is one free-text annotation attached to a contact.
type HubSpotNote struct {
	ID         string `json:"id"`
	Properties struct {
		Body       string `json:"hs_note_body"`
		Timestamp  string `json:"hs_timestamp"`
		CreateDate string `json:"hs_createdate"`
	} `json:"properties"`
	ContactID string `json:"-"`
}

type pagedResponse struct {
	Results []json.RawMessage `json:"results"`
	Paging  struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// VerifyToken reports whether the API token is valid.
func (c *HubSpotClient) VerifyToken(ctx context.Context) (bool, error) {
	query := url.Values{"limit": {"1"}}
	_, err := c.core.Execute(ctx, http.MethodGet, "/crm/v3/objects/contacts", query, nil)
	if errors.Is(err, ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateContactProperties patches a single contact.
func (c *HubSpotClient) UpdateContactProperties(ctx context.Context, contactID string, properties map[string]string) error {
	payload := map[string]any{"properties": properties}
	_, err := c.core.Execute(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+url.PathEscape(contactID), nil, payload)
	return err
}

// BatchUpdateContacts updates up to HubSpotBatchLimit contacts in one
// call. Callers chunk larger sets and space calls with BatchDelay.
func (c *HubSpotClient) BatchUpdateContacts(ctx context.Context, updates []ContactUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > HubSpotBatchLimit {
		return fmt.Errorf("batch update limited to %d contacts, got %d", HubSpotBatchLimit, len(updates))
	}
	payload := map[string]any{"inputs": updates}
	_, err := c.core.Execute(ctx, http.MethodPost, "/crm/v3/objects/contacts/batch/update", nil, payload)
	return err
}

// BatchDelay is the configured pause between batch-endpoint calls.
func (c *HubSpotClient) BatchDelay() time.Duration {
	return c.batchDelay
}

// GetAllContacts fetches every contact with the given properties,
// optionally including company associations.
func (c *HubSpotClient) GetAllContacts(ctx context.Context, properties []string, withCompanies bool) ([]HubSpotContact, error) {
	return FetchAllCursor(ctx, c.batchDelay, c.sleep, func(ctx context.Context, after string) ([]HubSpotContact, string, error) {
		query := url.Values{
			"limit":      {fmt.Sprint(HubSpotBatchLimit)},
			"properties": {strings.Join(properties, ",")},
		}
		if withCompanies {
			query.Set("associations", "companies")
		}
		if after != "" {
			query.Set("after", after)
		}
		body, err := c.core.Execute(ctx, http.MethodGet, "/crm/v3/objects/contacts", query, nil)
		if err != nil {
			return nil, "", err
		}
		var page pagedResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, "", fmt.Errorf("failed to decode contacts page: %w", err)
		}
		contacts := make([]HubSpotContact, 0, len(page.Results))
		for _, raw := range page.Results {
			var contact HubSpotContact
			if err := json.Unmarshal(raw, &contact); err != nil {
				return nil, "", fmt.Errorf("failed to decode contact: %w", err)
			}
			contacts = append(contacts, contact)
		}
		return contacts, page.Paging.Next.After, nil
	})
}

// BatchGetCompanies fetches companies by id, chunked to the batch
// limit, returning a map keyed by company id.
func (c *HubSpotClient) BatchGetCompanies(ctx context.Context, companyIDs []string, properties []string) (map[string]HubSpotCompany, error) {
	result := make(map[string]HubSpotCompany, len(companyIDs))
	for start := 0; start < len(companyIDs); start += HubSpotBatchLimit {
		end := start + HubSpotBatchLimit
		if end > len(companyIDs) {
			end = len(companyIDs)
		}
		inputs := make([]map[string]string, 0, end-start)
		for _, id := range companyIDs[start:end] {
			inputs = append(inputs, map[string]string{"id": id})
		}
		payload := map[string]any{
			"inputs":     inputs,
			"properties": properties,
		}
		body, err := c.core.Execute(ctx, http.MethodPost, "/crm/v3/objects/companies/batch/read", nil, payload)
		if err != nil {
			return nil, err
		}
		var page struct {
			Results []HubSpotCompany `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode companies batch: %w", err)
		}
		for _, company := range page.Results {
			result[company.ID] = company
		}
		if end < len(companyIDs) {
			if err := c.sleep(ctx, c.batchDelay); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// GetNotesForContact fetches all notes attached to a contact via the
// associations sub-resource. A contact without notes yields an empty
// slice, not an error.
func (c *HubSpotClient) GetNotesForContact(ctx context.Context, contactID string) ([]HubSpotNote, error) {
	path := "/crm/v4/objects/contacts/" + url.PathEscape(contactID) + "/associations/notes"
	type assoc struct {
		ToObjectID json.Number `json:"toObjectId"`
	}
	associations, err := FetchAllCursor(ctx, c.batchDelay, c.sleep, func(ctx context.Context, after string) ([]assoc, string, error) {
		query := url.Values{"limit": {fmt.Sprint(HubSpotBatchLimit)}}
		if after != "" {
			query.Set("after", after)
		}
		body, err := c.core.Execute(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, "", err
		}
		var page struct {
			Results []assoc `json:"results"`
			Paging  struct {
				Next struct {
					After string `json:"after"`
				} `json:"next"`
			} `json:"paging"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, "", fmt.Errorf("failed to decode note associations: %w", err)
		}
		return page.Results, page.Paging.Next.After, nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	notes := make([]HubSpotNote, 0, len(associations))
	for _, a := range associations {
		note, err := c.GetNote(ctx, a.ToObjectID.String())
		if err != nil {
			return nil, err
		}
		if note != nil {
			note.ContactID = contactID
			notes = append(notes, *note)
		}
	}
	return notes, nil
}

// GetNote fetches one note by id, or nil when it does not exist.
func (c *HubSpotClient) GetNote(ctx context.Context, noteID string) (*HubSpotNote, error) {
	query := url.Values{"properties": {"hs_note_body,hs_timestamp,hs_createdate"}}
	body, err := c.core.Execute(ctx, http.MethodGet, "/crm/v3/objects/notes/"+url.PathEscape(noteID), query, nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var note HubSpotNote
	if err := json.Unmarshal(body, &note); err != nil {
		return nil, fmt.Errorf("failed to decode note: %w", err)
	}
	return &note, nil
}

// BatchDeleteNotes archives up to HubSpotBatchLimit notes in one call.
func (c *HubSpotClient) BatchDeleteNotes(ctx context.Context, noteIDs []string) error {
	if len(noteIDs) == 0 {
		return nil
	}
	if len(noteIDs) > HubSpotBatchLimit {
		return fmt.Errorf("batch delete limited to %d notes, got %d", HubSpotBatchLimit, len(noteIDs))
	}
	inputs := make([]map[string]string, 0, len(noteIDs))
	for _, id := range noteIDs {
		inputs = append(inputs, map[string]string{"id": id})
	}
	payload := map[string]any{"inputs": inputs}
	// The archive endpoint answers 204 No Content on success.
	_, err := c.core.Execute(ctx, http.MethodPost, "/crm/v3/objects/notes/batch/archive", nil, payload)
	return err
}

// ListContactCompanyAssociations fetches the contact → first company
// mapping for every contact in the portal.
func (c *HubSpotClient) ListContactCompanyAssociations(ctx context.Context) (map[string]string, error) {
	contacts, err := c.GetAllContacts(ctx, []string{"email"}, true)
	if err != nil {
		return nil, err
	}
	assoc := make(map[string]string, len(contacts))
	for _, contact := range contacts {
		if companyID := contact.FirstCompanyID(); companyID != "" {
			assoc[contact.ID] = companyID
		}
	}
	return assoc, nil
}

// BatchGetCompanyIndustries fetches the industry property for the given
// companies, returning a company id → industry map. Companies without
// an industry are omitted.
func (c *HubSpotClient) BatchGetCompanyIndustries(ctx context.Context, companyIDs []string) (map[string]string, error) {
	companies, err := c.BatchGetCompanies(ctx, companyIDs, []string{"industry"})
	if err != nil {
		return nil, err
	}
	industries := make(map[string]string, len(companies))
	for id, company := range companies {
		if industry := company.Properties["industry"]; industry != "" {
			industries[id] = industry
		}
	}
	return industries, nil
}
