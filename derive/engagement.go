// ABOUTME: Engagement scoring from a lead's full activity history
// ABOUTME: Signed per-type weights, clamped sum, status label with overrides
package derive

import (
	"time"

	"github.com/ikoerber/lemlist/models"
)

// Score bounds. Raw sums outside this range report the bound, never
// the raw value.
const (
	ScoreMin = -20
	ScoreMax = 50
)

// staleAfter demotes a score-based status when the lead has gone quiet.
const staleAfter = 90 * 24 * time.Hour

// ActivityWeights maps event types to their signed score contribution.
// Types not listed contribute nothing.
var ActivityWeights = map[string]int{
	models.ActivityEmailOpened:            1,
	models.ActivityEmailClicked:           3,
	models.ActivityEmailReplied:           5,
	models.ActivityLinkedinInviteAccepted: 4,
	models.ActivityLinkedinReplied:        5,
	models.ActivityCallAnswered:           4,
	models.ActivityInterested:             10,
	models.ActivityEmailBounced:           -5,
	models.ActivityEmailFailed:            -3,
	models.ActivityEmailUnsubscribed:      -8,
	models.ActivityNotInterested:          -10,
}

// Engagement status labels.
const (
	StatusBounced       = "bounced"
	StatusNotInterested = "not_interested"
	StatusUnsubscribed  = "unsubscribed"
	StatusHot           = "hot"
	StatusWarm          = "warm"
	StatusLukewarm      = "lukewarm"
	StatusCold          = "cold"
)

// EngagementResult is the derived engagement state of one person.
type EngagementResult struct {
	Score           int
	Status          string
	TotalActivities int
	LastActivityAt  *time.Time
}

// ComputeEngagement scores a lead's activities across all campaigns.
// Engagement is a property of the person, so callers pass the
// cross-campaign activity set for one email address.
//
// A bounce anywhere in the history forces the bounced status no matter
// how positive the score is; explicit disinterest and unsubscribes
// likewise override the score ladder, in that order of precedence.
func ComputeEngagement(activities []models.ActivityWithLead, now time.Time) EngagementResult {
	result := EngagementResult{TotalActivities: len(activities)}

	var bounced, notInterested, unsubscribed bool
	score := 0
	for i := range activities {
		activity := &activities[i]
		score += ActivityWeights[activity.Type]
		switch activity.Type {
		case models.ActivityEmailBounced:
			bounced = true
		case models.ActivityNotInterested:
			notInterested = true
		case models.ActivityEmailUnsubscribed:
			unsubscribed = true
		}
		if result.LastActivityAt == nil || activity.CreatedAt.After(*result.LastActivityAt) {
			t := activity.CreatedAt
			result.LastActivityAt = &t
		}
	}

	if score > ScoreMax {
		score = ScoreMax
	}
	if score < ScoreMin {
		score = ScoreMin
	}
	result.Score = score

	switch {
	case bounced:
		result.Status = StatusBounced
	case notInterested:
		result.Status = StatusNotInterested
	case unsubscribed:
		result.Status = StatusUnsubscribed
	default:
		result.Status = scoreStatus(score)
		if result.LastActivityAt != nil && now.Sub(*result.LastActivityAt) > staleAfter {
			result.Status = demote(result.Status)
		}
	}
	return result
}

func scoreStatus(score int) string {
	switch {
	case score >= 15:
		return StatusHot
	case score >= 5:
		return StatusWarm
	case score > 0:
		return StatusLukewarm
	default:
		return StatusCold
	}
}

// demote steps a score-based status down one level for stale leads.
func demote(status string) string {
	switch status {
	case StatusHot:
		return StatusWarm
	case StatusWarm:
		return StatusLukewarm
	case StatusLukewarm:
		return StatusCold
	default:
		return status
	}
}
