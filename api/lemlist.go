// ABOUTME: Outreach platform API client for campaigns, activities, and lead lookups
// ABOUTME: Offset-paginated fetches with noise filtering and open-event deduplication
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ikoerber/lemlist/models"
)

const (
	defaultLemlistBaseURL = "https://api.lemlist.com/api"
	defaultPageLimit      = 100
	defaultPageDelay      = 100 * time.Millisecond
	defaultQuotaThreshold = 5
)

// LemlistOptions configures the outreach platform client.
type LemlistOptions struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	MaxRetries     int
	PageLimit      int
	PageDelay      time.Duration
	QuotaThreshold int
	Sleep          SleepFunc
	Logger         *slog.Logger
}

// LemlistClient talks to the outreach platform. Rate budget is 20
// requests per 2 seconds per key; the core client watches the
// X-RateLimit-Remaining header and pauses when it runs low.
type LemlistClient struct {
	core      *Client
	pageLimit int
	pageDelay time.Duration
	sleep     SleepFunc
}

// NewLemlistClient creates a client authenticating with basic auth:
// empty username, API key as password.
func NewLemlistClient(opts LemlistOptions) *LemlistClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultLemlistBaseURL
	}
	pageLimit := opts.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	pageDelay := opts.PageDelay
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	quotaThreshold := opts.QuotaThreshold
	if quotaThreshold <= 0 {
		quotaThreshold = defaultQuotaThreshold
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	apiKey := opts.APIKey
	core := NewClient(ClientOptions{
		BaseURL: baseURL,
		Auth: func(req *http.Request) {
			req.SetBasicAuth("", apiKey)
		},
		HTTPClient:     opts.HTTPClient,
		MaxRetries:     opts.MaxRetries,
		UserAgent:      "lemsync/1.0",
		QuotaThreshold: quotaThreshold,
		Sleep:          sleep,
		Logger:         opts.Logger,
	})
	return &LemlistClient{
		core:      core,
		pageLimit: pageLimit,
		pageDelay: pageDelay,
		sleep:     sleep,
	}
}

// LemlistCampaign is one campaign as returned by the campaigns listing.
type LemlistCampaign struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// LemlistActivity is one raw engagement event. Raw retains the original
// payload for audit storage.
type LemlistActivity struct {
	ID                  string    `json:"_id"`
	Type                string    `json:"type"`
	CreatedAt           time.Time `json:"createdAt"`
	CampaignID          string    `json:"campaignId"`
	LeadID              string    `json:"leadId"`
	LeadEmail           string    `json:"leadEmail"`
	Email               string    `json:"email"`
	LeadFirstName       string    `json:"leadFirstName"`
	FirstName           string    `json:"firstName"`
	LeadLastName        string    `json:"leadLastName"`
	LastName            string    `json:"lastName"`
	LeadCompanyName     string    `json:"leadCompanyName"`
	CompanyName         string    `json:"companyName"`
	JobTitle            string    `json:"jobTitle"`
	LeadPhone           string    `json:"leadPhone"`
	Phone               string    `json:"phone"`
	Location            string    `json:"location"`
	HubspotLeadID       string    `json:"hubspotLeadId"`
	LinkedinURL         string    `json:"linkedinUrl"`
	LinkedinURLSalesNav string    `json:"linkedinUrlSalesNav"`
	LinkedinPublicURL   string    `json:"linkedinPublicUrl"`
	Subject             string    `json:"subject"`
	URL                 string    `json:"url"`
	Message             string    `json:"message"`
	EmailTemplateID     string    `json:"emailTemplateId"`
	SequenceStep        int       `json:"sequenceStep"`

	Raw json.RawMessage `json:"-"`
}

// LemlistLead is the detail record returned by the per-email lookup.
type LemlistLead struct {
	ID                string `json:"_id"`
	Email             string `json:"email"`
	HubspotLeadID     string `json:"hubspotLeadId"`
	LinkedinURL       string `json:"linkedinUrl"`
	LinkedinPublicURL string `json:"linkedinPublicUrl"`
	Linkedin          string `json:"linkedin"`
	LinkedInURL       string `json:"linkedInUrl"`
	CompanyName       string `json:"companyName"`
	JobTitle          string `json:"jobTitle"`
	Phone             string `json:"phone"`
	Location          string `json:"location"`
}

// BestLinkedinURL returns the first non-empty of the profile URL
// aliases the API uses interchangeably.
func (l *LemlistLead) BestLinkedinURL() string {
	for _, u := range []string{l.LinkedinURL, l.LinkedinPublicURL, l.Linkedin, l.LinkedInURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// VerifyToken reports whether the API key is valid. Non-auth errors
// propagate; they indicate problems a new key would not fix.
func (c *LemlistClient) VerifyToken(ctx context.Context) (bool, error) {
	query := url.Values{"limit": {"1"}}
	_, err := c.core.Execute(ctx, http.MethodGet, "/campaigns", query, nil)
	if errors.Is(err, ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetAllCampaigns fetches every campaign, optionally filtered by status.
func (c *LemlistClient) GetAllCampaigns(ctx context.Context, status string) ([]LemlistCampaign, error) {
	return FetchAllOffset(ctx, c.pageLimit, c.pageDelay, c.sleep, func(ctx context.Context, offset int) ([]LemlistCampaign, error) {
		query := url.Values{
			"limit":  {fmt.Sprint(c.pageLimit)},
			"offset": {fmt.Sprint(offset)},
		}
		if status != "" {
			query.Set("status", status)
		}
		body, err := c.core.Execute(ctx, http.MethodGet, "/campaigns", query, nil)
		if err != nil {
			return nil, err
		}
		var page []LemlistCampaign
		if err := decodeList(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode campaigns page: %w", err)
		}
		return page, nil
	})
}

// GetAllActivities fetches every activity for a campaign, dropping
// noise types and deduplicating repeated email-open events.
func (c *LemlistClient) GetAllActivities(ctx context.Context, campaignID string) ([]LemlistActivity, error) {
	activities, err := FetchAllOffset(ctx, c.pageLimit, c.pageDelay, c.sleep, func(ctx context.Context, offset int) ([]LemlistActivity, error) {
		query := url.Values{
			"campaignId": {campaignID},
			"limit":      {fmt.Sprint(c.pageLimit)},
			"offset":     {fmt.Sprint(offset)},
		}
		body, err := c.core.Execute(ctx, http.MethodGet, "/activities", query, nil)
		if err != nil {
			return nil, err
		}
		return decodeActivities(body)
	})
	if err != nil {
		return nil, err
	}

	filtered := activities[:0]
	for _, act := range activities {
		if !models.FilteredActivityTypes[act.Type] {
			filtered = append(filtered, act)
		}
	}
	return DeduplicateActivities(filtered), nil
}

// GetLeadDetails fetches the detail record for one lead by email.
// Returns nil when the lead is unknown to the platform.
func (c *LemlistClient) GetLeadDetails(ctx context.Context, email string) (*LemlistLead, error) {
	body, err := c.core.Execute(ctx, http.MethodGet, "/leads/"+url.PathEscape(email), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// The API returns a single-element list.
	var leads []LemlistLead
	if err := decodeList(body, &leads); err != nil {
		return nil, fmt.Errorf("failed to decode lead details: %w", err)
	}
	if len(leads) == 0 {
		return nil, nil
	}
	return &leads[0], nil
}

// DeduplicateActivities keeps only the first email-open event per
// (lead email, template, sequence step); email clients reload tracking
// pixels and inflate open counts otherwise. Order is preserved.
func DeduplicateActivities(activities []LemlistActivity) []LemlistActivity {
	type openKey struct {
		email    string
		template string
		step     int
	}
	seen := make(map[openKey]bool)
	result := make([]LemlistActivity, 0, len(activities))
	for _, act := range activities {
		if act.Type == models.ActivityEmailOpened {
			key := openKey{act.LeadEmail, act.EmailTemplateID, act.SequenceStep}
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		result = append(result, act)
	}
	return result
}

// decodeActivities decodes a page of activities, retaining each raw
// payload alongside the parsed struct.
func decodeActivities(body []byte) ([]LemlistActivity, error) {
	var raws []json.RawMessage
	if err := decodeList(body, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode activities page: %w", err)
	}
	activities := make([]LemlistActivity, 0, len(raws))
	for _, raw := range raws {
		var act LemlistActivity
		if err := json.Unmarshal(raw, &act); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		act.Raw = raw
		activities = append(activities, act)
	}
	return activities, nil
}

// decodeList decodes a response that is either a JSON array or a single
// object, which some endpoints return for one-element results.
func decodeList(body []byte, out any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err == nil {
		return nil
	}
	// Wrap a lone object in a one-element array and retry.
	wrapped := make([]byte, 0, len(body)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, body...)
	wrapped = append(wrapped, ']')
	return json.Unmarshal(wrapped, out)
}
