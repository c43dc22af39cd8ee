// ABOUTME: Note template parsing for engagement annotations in the CRM
// ABOUTME: Pattern match, HTML stripping, and phrase to activity type mapping
package notes

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ikoerber/lemlist/models"
)

// Note is one CRM annotation in parser-ready form.
type Note struct {
	ID        string
	ContactID string
	Body      string
	CreatedAt time.Time
}

// ParsedNote is a note recognized as one of ours.
type ParsedNote struct {
	NoteID       string
	ContactID    string
	ActivityType string
	Phrase       string
	Campaign     string
	Step         int
	Message      string
	CreatedAt    time.Time
}

// Parser recognizes notes written by a particular annotation format.
// Parse returns false for foreign notes; that is never an error.
type Parser interface {
	Parse(note Note) (*ParsedNote, bool)
}

var (
	notePattern    = regexp.MustCompile(`(?s)^(.+?)\s+from\s+campaign\s+(.+?)\s*-\s*\(step\s+(\d+)\)`)
	messagePattern = regexp.MustCompile(`(?s)Text:\s*(.+)$`)
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
)

// phraseTypes maps lowercased note phrases back to canonical activity
// types. Built from the display labels the annotations were written
// with.
var phraseTypes = func() map[string]string {
	m := make(map[string]string, len(models.ActivityTypeDisplay))
	for activityType, display := range models.ActivityTypeDisplay {
		m[strings.ToLower(display)] = activityType
	}
	return m
}()

// TemplateParser parses the standard annotation template:
//
//	<phrase> from campaign <name> - (step <n>)
//	Text: <message>
//
// The Text block is optional. Bodies may carry HTML markup, which is
// stripped before matching.
type TemplateParser struct{}

func (TemplateParser) Parse(note Note) (*ParsedNote, bool) {
	body := strings.TrimSpace(stripHTML(note.Body))
	match := notePattern.FindStringSubmatch(body)
	if match == nil {
		return nil, false
	}

	phrase := strings.TrimSpace(match[1])
	// Phrases outside the known vocabulary keep their verbatim text as
	// the activity type, so such notes still group for deduplication.
	activityType, ok := phraseTypes[strings.ToLower(phrase)]
	if !ok {
		activityType = phrase
	}
	step, err := strconv.Atoi(match[3])
	if err != nil {
		return nil, false
	}

	parsed := &ParsedNote{
		NoteID:       note.ID,
		ContactID:    note.ContactID,
		ActivityType: activityType,
		Phrase:       phrase,
		Campaign:     strings.TrimSpace(match[2]),
		Step:         step,
		CreatedAt:    note.CreatedAt,
	}
	if msg := messagePattern.FindStringSubmatch(body); msg != nil {
		parsed.Message = strings.TrimSpace(msg[1])
	}
	return parsed, true
}

// MultiParser tries each parser in order and returns the first match.
type MultiParser []Parser

func (p MultiParser) Parse(note Note) (*ParsedNote, bool) {
	for _, parser := range p {
		if parsed, ok := parser.Parse(note); ok {
			return parsed, true
		}
	}
	return nil, false
}

// stripHTML removes markup tags and decodes the entities the CRM
// editor emits, leaving plain text.
func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
