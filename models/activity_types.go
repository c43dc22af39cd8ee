// ABOUTME: Activity type vocabulary shared by sync, derivation, and notes
// ABOUTME: Maps canonical event types to display names and filters noise types
package models

// Canonical activity types as emitted by the outreach platform.
const (
	ActivityEmailSent              = "emailsSent"
	ActivityEmailOpened            = "emailsOpened"
	ActivityEmailClicked           = "emailsClicked"
	ActivityEmailReplied           = "emailsReplied"
	ActivityEmailBounced           = "emailsBounced"
	ActivityEmailFailed            = "emailsFailed"
	ActivityEmailUnsubscribed      = "emailsUnsubscribed"
	ActivityLinkedinVisitDone      = "linkedinVisitDone"
	ActivityLinkedinSent           = "linkedinSent"
	ActivityLinkedinOpened         = "linkedinOpened"
	ActivityLinkedinReplied        = "linkedinReplied"
	ActivityLinkedinInviteDone     = "linkedinInviteDone"
	ActivityLinkedinInviteAccepted = "linkedinInviteAccepted"
	ActivityCallDone               = "aircallDone"
	ActivityCallAnswered           = "aircallAnswered"
	ActivityManualDone             = "manualDone"
	ActivityInterested             = "interested"
	ActivityNotInterested          = "notInterested"
	ActivityOutOfOffice            = "outOfOffice"
	ActivitySkipped                = "skipped"
)

// FilteredActivityTypes are dropped at fetch time; they carry no
// engagement signal and bloat the cache.
var FilteredActivityTypes = map[string]bool{
	"hasEmailAddress": true,
	"conditionChosen": true,
}

// ActivityTypeDisplay maps canonical types to human-readable labels.
// Unknown types fall back to the raw type string.
var ActivityTypeDisplay = map[string]string{
	ActivityEmailSent:              "Email sent",
	ActivityEmailOpened:            "Email opened",
	ActivityEmailClicked:           "Email clicked",
	ActivityEmailReplied:           "Email replied",
	ActivityEmailBounced:           "Email bounced",
	ActivityEmailFailed:            "Email failed",
	ActivityEmailUnsubscribed:      "Unsubscribed",
	ActivityLinkedinVisitDone:      "LinkedIn profile visited",
	ActivityLinkedinSent:           "LinkedIn message sent",
	ActivityLinkedinOpened:         "LinkedIn message opened",
	ActivityLinkedinReplied:        "LinkedIn replied",
	ActivityLinkedinInviteDone:     "LinkedIn invite sent",
	ActivityLinkedinInviteAccepted: "LinkedIn invite accepted",
	ActivityCallDone:               "Call done",
	ActivityCallAnswered:           "Call answered",
	ActivityManualDone:             "Manual task done",
	ActivityInterested:             "Marked interested",
	ActivityNotInterested:          "Marked not interested",
	ActivityOutOfOffice:            "Out of office",
	ActivitySkipped:                "Skipped",
}

// DisplayForType returns the display label for an activity type.
func DisplayForType(activityType string) string {
	if display, ok := ActivityTypeDisplay[activityType]; ok {
		return display
	}
	return activityType
}
