// ABOUTME: Lead and activity extraction from raw engagement events
// ABOUTME: Alias-tolerant field picking and fallback activity identifiers
package sync

import (
	"fmt"

	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/db"
	"github.com/ikoerber/lemlist/models"
)

// buildBatch turns raw events into a persistable batch: the distinct
// leads they reference, then the activities themselves. Lead identity
// is the source lead id; the same email under two lead ids in two
// campaigns stays two leads.
func buildBatch(campaign *models.Campaign, activities []api.LemlistActivity) *db.SyncBatch {
	batch := &db.SyncBatch{Campaign: campaign}

	leadIndex := make(map[string]int)
	for i := range activities {
		act := &activities[i]
		leadID := act.LeadID
		if leadID == "" {
			continue
		}
		idx, seen := leadIndex[leadID]
		if !seen {
			batch.Leads = append(batch.Leads, models.Lead{
				LeadID:     leadID,
				CampaignID: campaign.ID,
			})
			idx = len(batch.Leads) - 1
			leadIndex[leadID] = idx
		}
		mergeLeadFields(&batch.Leads[idx], act)
	}

	for i := range activities {
		act := &activities[i]
		// An activity row must reference a persisted lead; events
		// without a lead id or email cannot meet that and are dropped.
		if act.LeadID == "" || leadEmail(act) == "" {
			continue
		}
		batch.Activities = append(batch.Activities, models.Activity{
			ID:          activityID(act),
			LeadID:      act.LeadID,
			LeadEmail:   leadEmail(act),
			CampaignID:  campaign.ID,
			Type:        act.Type,
			TypeDisplay: models.DisplayForType(act.Type),
			CreatedAt:   act.CreatedAt,
			Details:     activityDetails(act),
			RawJSON:     string(act.Raw),
		})
	}
	return batch
}

// mergeLeadFields fills lead fields from an event, keeping the first
// non-empty value seen. Events repeat the same lead data with varying
// completeness.
func mergeLeadFields(lead *models.Lead, act *api.LemlistActivity) {
	if lead.Email == "" {
		lead.Email = leadEmail(act)
	}
	if lead.FirstName == "" {
		lead.FirstName = firstNonEmpty(act.LeadFirstName, act.FirstName)
	}
	if lead.LastName == "" {
		lead.LastName = firstNonEmpty(act.LeadLastName, act.LastName)
	}
	if lead.HubspotID == nil {
		setIfNonEmpty(&lead.HubspotID, act.HubspotLeadID)
	}
	if lead.LinkedinURL == nil {
		setIfNonEmpty(&lead.LinkedinURL, firstNonEmpty(act.LinkedinURL, act.LinkedinPublicURL, act.LinkedinURLSalesNav))
	}
	if lead.Company == nil {
		setIfNonEmpty(&lead.Company, firstNonEmpty(act.LeadCompanyName, act.CompanyName))
	}
	if lead.JobTitle == nil {
		setIfNonEmpty(&lead.JobTitle, act.JobTitle)
	}
	if lead.Phone == nil {
		setIfNonEmpty(&lead.Phone, firstNonEmpty(act.LeadPhone, act.Phone))
	}
	if lead.Location == nil {
		setIfNonEmpty(&lead.Location, act.Location)
	}
}

func leadEmail(act *api.LemlistActivity) string {
	return firstNonEmpty(act.LeadEmail, act.Email)
}

// activityID prefers the source event id. Events without one get a
// composite natural key; it is a best-effort dedup key, two same-typed
// events at the same timestamp would collide.
func activityID(act *api.LemlistActivity) string {
	if act.ID != "" {
		return act.ID
	}
	return fmt.Sprintf("%s|%s|%d", act.LeadID, act.Type, act.CreatedAt.UnixMilli())
}

// activityDetails picks the most informative payload field for display.
func activityDetails(act *api.LemlistActivity) string {
	return firstNonEmpty(act.Subject, act.URL, act.Message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
