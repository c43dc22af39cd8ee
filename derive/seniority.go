// ABOUTME: Seniority classification from free-text job titles
// ABOUTME: Ordered pattern cascade, first match wins, most senior first
package derive

import (
	"regexp"
	"strings"
)

// Seniority levels, most senior first.
const (
	SeniorityOwner    = "owner"
	SeniorityDirector = "director"
	SeniorityManager  = "manager"
	SenioritySenior   = "senior"
	SeniorityEmployee = "employee"
)

// seniorityRules are checked in order; the first matching rule
// classifies the title. Ordering matters: "Senior Team Lead" must land
// on manager, not senior, so the lead pattern sits above the senior
// one.
var seniorityRules = []struct {
	level   string
	pattern *regexp.Regexp
}{
	{SeniorityOwner, regexp.MustCompile(`(?i)\b(owner|founder|co-?founder|partner|president|ceo|cto|cfo|coo|cmo|cio|chief)\b`)},
	{SeniorityDirector, regexp.MustCompile(`(?i)\b(vp|vice president|director|head of)\b`)},
	{SeniorityManager, regexp.MustCompile(`(?i)\b(manager|lead|principal)\b`)},
	{SenioritySenior, regexp.MustCompile(`(?i)\b(senior|sr\.?|staff)\b`)},
}

// vicePresident collapses to "vp" before the cascade runs, so the
// owner group's "president" cannot capture vice presidents.
var vicePresident = regexp.MustCompile(`(?i)\bvice\s+president\b`)

// ClassifySeniority maps a job title onto a seniority level. An empty
// or whitespace title is unknown and yields the empty string; any
// non-empty title that matches no rule is a plain employee.
func ClassifySeniority(jobTitle string) string {
	title := strings.TrimSpace(jobTitle)
	if title == "" {
		return ""
	}
	title = vicePresident.ReplaceAllString(title, "vp")
	for _, rule := range seniorityRules {
		if rule.pattern.MatchString(title) {
			return rule.level
		}
	}
	return SeniorityEmployee
}
