// ABOUTME: Fit scoring from industry and seniority lookup tables
// ABOUTME: Snapshot-based weights, missing inputs score zero and are counted
package derive

// WeightSnapshot is a read-only copy of both weight tables, loaded
// once at the start of a derivation batch so a concurrent table edit
// cannot split one batch across two weight sets.
type WeightSnapshot struct {
	Industry  map[string]int
	Seniority map[string]int
}

// DefaultIndustryWeights seeds the industry table on first init.
var DefaultIndustryWeights = map[string]int{
	"COMPUTER_SOFTWARE":                   10,
	"INFORMATION_TECHNOLOGY_AND_SERVICES": 9,
	"INTERNET":                            9,
	"FINANCIAL_SERVICES":                  7,
	"MARKETING_AND_ADVERTISING":           6,
	"MANAGEMENT_CONSULTING":               5,
	"TELECOMMUNICATIONS":                  4,
	"RETAIL":                              2,
	"EDUCATION_MANAGEMENT":                1,
}

// DefaultSeniorityWeights seeds the seniority table on first init.
var DefaultSeniorityWeights = map[string]int{
	SeniorityOwner:    10,
	SeniorityDirector: 8,
	SeniorityManager:  6,
	SenioritySenior:   4,
	SeniorityEmployee: 2,
}

// FitResult is one lead's fit scores. A zero score with the matching
// counter bumped means "could not compute", not "bad fit".
type FitResult struct {
	IndustryScore  int
	SeniorityScore int
	Seniority      string
}

// FitCounters tracks the three distinct reasons a fit dimension could
// not be computed, reported separately.
type FitCounters struct {
	MissingCompany   int
	UnmappedIndustry int
	UnknownSeniority int
}

// ComputeFit scores one lead against a weight snapshot. industry is
// the CRM's industry value for the lead's company, empty when the lead
// has no company association. jobTitle feeds the seniority cascade.
func ComputeFit(snapshot WeightSnapshot, industry, jobTitle string, counters *FitCounters) FitResult {
	var result FitResult

	if industry == "" {
		counters.MissingCompany++
	} else if weight, ok := snapshot.Industry[industry]; ok {
		result.IndustryScore = weight
	} else {
		counters.UnmappedIndustry++
	}

	result.Seniority = ClassifySeniority(jobTitle)
	if result.Seniority == "" {
		counters.UnknownSeniority++
	} else if weight, ok := snapshot.Seniority[result.Seniority]; ok {
		result.SeniorityScore = weight
	}

	return result
}
