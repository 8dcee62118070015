package insider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract10b51(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		expectedIs10b51 bool
		expectedDate    *string
	}{
		{
			name:            "No 10b5-1 mention",
			text:            "This is a regular footnote about something else.",
			expectedIs10b51: false,
		},
		{
			name:            "10b5-1 with date - March 13, 2025",
			text:            "The purchases reported in this Form 4 were effected pursuant to a Rule 10b5-1 trading plan adopted by the reporting person on March 13, 2025.",
			expectedIs10b51: true,
			expectedDate:    stringPtr("2025-03-13"),
		},
		{
			name:            "10b5-1 with month only",
			text:            "Shares were purchased under a Rule 10b5-1 plan entered into in September 2025.",
			expectedIs10b51: true,
			expectedDate:    stringPtr("2025-09-01"),
		},
		{
			name:            "10b5-1 without date",
			text:            "Shares were bought pursuant to a 10b5-1 trading plan adopted by the Reporting Person in accordance with Rule 10b5-1 of the Securities Exchange Act of 1934, as amended.",
			expectedIs10b51: true,
		},
		{
			name:            "10b5-1 without positive language",
			text:            "The 10b5-1 plan was terminated on March 13, 2025.",
			expectedIs10b51: false,
		},
		{
			name:            "en dash variation",
			text:            "Pursuant to Rule 10b5–1 trading plan adopted on January 5, 2024.",
			expectedIs10b51: true,
			expectedDate:    stringPtr("2024-01-05"),
		},
		{
			name:            "Date with single digit day",
			text:            "Trading plan adopted pursuant to Rule 10b5-1 on May 5, 2024.",
			expectedIs10b51: true,
			expectedDate:    stringPtr("2024-05-05"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract10b51(tt.text)

			assert.Equal(t, tt.expectedIs10b51, result.Is10b51Plan)
			assert.Equal(t, tt.expectedDate, result.TenB51AdoptionDate)
		})
	}
}

func TestParseAdoptionDate(t *testing.T) {
	tests := []struct {
		input    string
		expected *string
	}{
		{"March 13, 2025", stringPtr("2025-03-13")},
		{"Jan 5, 2024", stringPtr("2024-01-05")},
		{"December 1, 2023", stringPtr("2023-12-01")},
		{"June 2024", stringPtr("2024-06-01")},
		{"Invalid date", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseAdoptionDate(tt.input))
		})
	}
}

func TestPlanFootnotes(t *testing.T) {
	notes := []Footnote{
		{ID: "1", Text: "The price reported is a weighted average price."},
		{ID: "2", Text: "Purchased pursuant to a Rule 10b5-1 trading plan adopted on March 13, 2025."},
		{ID: "3", Text: "Purchased under a 10b5-1 plan."},
	}

	plans := PlanFootnotes(notes)
	assert.Equal(t, map[string]string{"2": "2025-03-13", "3": ""}, plans)

	isPlan, date := rowPlan([]string{"1", "2"}, plans)
	assert.True(t, isPlan)
	assert.Equal(t, stringPtr("2025-03-13"), date)

	isPlan, date = rowPlan([]string{"3"}, plans)
	assert.True(t, isPlan)
	assert.Nil(t, date)

	isPlan, _ = rowPlan([]string{"1"}, plans)
	assert.False(t, isPlan)
}

// Helper function to create string pointers
func stringPtr(s string) *string {
	return &s
}
