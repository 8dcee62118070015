package insider

import (
	"regexp"
	"strings"
	"time"
)

// TenB51Result represents the result of analyzing text for 10b5-1 plan information
type TenB51Result struct {
	Is10b51Plan        bool
	TenB51AdoptionDate *string // ISO-8601 format (YYYY-MM-DD), nil if not found
}

var (
	// Detect 10b5-1 plan references (various formats: 10b5-1, 10b5–1, Rule 10b5-1, etc.)
	re10b51 = regexp.MustCompile(`(?i)\b(rule\s*)?10b5[-–]?1\b`)

	// Positive language indicating active plan usage (not cancellation/termination)
	rePositive = regexp.MustCompile(`(?i)\b(pursuant\s+to|adopted|in\s+accordance\s+with|under|effected\s+pursuant\s+to)\b`)

	months = `(?:January|February|March|April|May|June|July|August|September|October|November|December|` +
		`Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)`

	// "adopted ... on March 13, 2025" or "entered into ... in September 2025"
	reAdoptionDate = regexp.MustCompile(
		`(?i)\b(adopted|established|entered\s+into).*?\b(on|in)\s+` +
			`(` + months + `\s+\d{1,2},\s+\d{4}|` + months + `\s+\d{4})`,
	)
)

var adoptionLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2006",
	"Jan 2006",
}

// parseAdoptionDate converts a footnote date phrase to ISO-8601, nil if it does not parse
func parseAdoptionDate(raw string) *string {
	raw = strings.TrimSpace(raw)
	for _, layout := range adoptionLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// Extract10b51 analyzes footnote text for an active 10b5-1 trading plan and
// its adoption date
func Extract10b51(text string) TenB51Result {
	result := TenB51Result{}

	// Mentions of cancelled or terminated plans carry no positive language
	if !re10b51.MatchString(text) || !rePositive.MatchString(text) {
		return result
	}
	result.Is10b51Plan = true

	if match := reAdoptionDate.FindStringSubmatch(text); len(match) >= 4 {
		result.TenB51AdoptionDate = parseAdoptionDate(match[3])
	}

	return result
}

// PlanFootnotes returns the ids of footnotes describing an active 10b5-1
// plan, mapped to the adoption date ("" when the footnote gives none)
func PlanFootnotes(notes []Footnote) map[string]string {
	plans := make(map[string]string)
	for _, fn := range notes {
		analysis := Extract10b51(fn.Text)
		if !analysis.Is10b51Plan {
			continue
		}
		plans[fn.ID] = ""
		if analysis.TenB51AdoptionDate != nil {
			plans[fn.ID] = *analysis.TenB51AdoptionDate
		}
	}
	return plans
}

// rowPlan reports whether any of a row's footnotes is a 10b5-1 plan footnote
func rowPlan(footnotes []string, plans map[string]string) (bool, *string) {
	for _, id := range footnotes {
		if date, ok := plans[id]; ok {
			if date == "" {
				return true, nil
			}
			return true, &date
		}
	}
	return false, nil
}
