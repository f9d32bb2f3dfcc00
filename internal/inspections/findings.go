// findings.go implements the finding parser: a pure function that turns an
// inspector's free-text findings into prioritized follow-up candidates, one
// candidate per non-blank line.
//
// Classification is driven by an ordered rule table rather than scattered
// conditionals so the behavior is independently testable and extensible
// without touching control flow: explicit prefix markers first, then a
// case-insensitive scan for critical keywords. Lines matching neither rule
// produce no candidate.
package inspections

import (
	"strings"

	"github.com/facilityhub/facilityhub/internal/db/models"
)

// Finding is one prioritized follow-up candidate parsed from findings text.
type Finding struct {
	Priority    models.Priority
	Description string
}

// prefixRules are checked in order against the start of each line. The first
// matching marker wins.
var prefixRules = []struct {
	Marker   string
	Priority models.Priority
}{
	{"URGENT", models.PriorityUrgent},
	{"HIGH", models.PriorityHigh},
}

// criticalKeywords escalate an unmarked line to HIGH when any of them occurs
// anywhere in the line (case-insensitive).
var criticalKeywords = []string{
	"critical",
	"urgent",
	"immediate",
	"safety hazard",
	"emergency",
	"severe",
	"dangerous",
}

// ParseFindings parses free-text findings into an ordered list of follow-up
// candidates, preserving input line order. It is pure and total: no I/O, no
// partial failure.
func ParseFindings(text string) []Finding {
	var findings []Finding

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if priority, ok := matchPrefix(line); ok {
			findings = append(findings, Finding{Priority: priority, Description: line})
			continue
		}

		if containsCriticalKeyword(line) {
			findings = append(findings, Finding{Priority: models.PriorityHigh, Description: line})
		}
	}

	return findings
}

// matchPrefix reports whether the line begins with an explicit priority
// marker. The marker must be followed by a separator (colon, space, or dash)
// or the end of the line, so "URGENTLY ..." is not treated as a marker.
func matchPrefix(line string) (models.Priority, bool) {
	for _, rule := range prefixRules {
		if !strings.HasPrefix(line, rule.Marker) {
			continue
		}
		rest := line[len(rule.Marker):]
		if rest == "" || rest[0] == ':' || rest[0] == ' ' || rest[0] == '-' {
			return rule.Priority, true
		}
	}
	return "", false
}

func containsCriticalKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
