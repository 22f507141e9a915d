package merge

import (
	"fmt"
	"strings"
	"time"

	"github.com/faizmokh/worklog/internal/logbook"
)

// Report styles. Any other value produces a general summary.
const (
	StyleExecutive       = "executive"
	StyleDetailed        = "detailed"
	StyleChronological   = "chronological"
	StyleAccomplishments = "accomplishments"
	StyleSummary         = "summary"
)

// Styles lists the recognised report styles in display order.
func Styles() []string {
	return []string{StyleSummary, StyleExecutive, StyleDetailed, StyleChronological, StyleAccomplishments}
}

// promptDateLayout renders dates as "Jul 4, 2025", the form the filter parses back.
const promptDateLayout = "Jan 2, 2006"

const mergeSystemPrompt = `You are an AI journaling assistant that maintains a yearly worklog in Markdown format.

You will receive:
1. A list of new work wins (tasks, accomplishments)
2. The current worklog

Update the worklog as follows:

- Group all tasks under relevant **topic headers** (e.g., "Products", "Get Started Page", etc.).
- If a topic already exists in the log, append the new entries to that section.
- If the topic is new, create a new section header and add entries underneath it.
- For each entry:
- Use the exact phrasing provided by the user.
- Add today's date in parentheses at the end, using the date provided in the user prompt.
- Do not group tasks under "Today's entries" or any date-based header.
- Do not generate summaries or sub-bullets.
- Maintain a clean, organized, topical structure.

Only return the full updated Markdown document.`

var reportSystemPrompts = map[string]string{
	StyleExecutive:       "You are creating an executive summary report. Focus on high-level achievements, major milestones, and strategic accomplishments. Group by themes/projects and highlight business impact. Keep it concise and professional for leadership review.",
	StyleDetailed:        "You are creating a detailed report. Organize all entries by category/project, maintain specific details, and present a comprehensive view of all work completed. Include technical details and maintain the original structure while improving readability.",
	StyleChronological:   "You are creating a chronological report. Organize entries by month, showing progression over time. Within each month, group by theme/project. This should tell the story of work evolution during the specified period.",
	StyleAccomplishments: "You are creating an accomplishments-focused report. Filter and highlight only major achievements, completed projects, successful launches, and significant milestones. Ignore routine tasks and focus on impactful wins.",
}

const summarySystemPrompt = "You are creating a summary report. Organize the content logically by theme/project and present it in a clear, professional format suitable for review purposes."

func reportSystemPrompt(style string) string {
	if prompt, ok := reportSystemPrompts[style]; ok {
		return prompt
	}
	return summarySystemPrompt
}

func mergeUserPrompt(current string, entries []string, today time.Time) string {
	return fmt.Sprintf("Here is the current worklog:\n\n%s\n\nHere are new work entries to add:\n\n%s\n\nToday's date is: %s",
		current,
		strings.Join(entries, "\n"),
		today.Format(promptDateLayout),
	)
}

func reportUserPrompt(style string, r logbook.DateRange, filtered string) string {
	return fmt.Sprintf("Please create a %s summary report for the period from %s to %s.\n\nHere is the filtered worklog content:\n\n%s\n\nGenerate a well-formatted, professional report in Markdown format.",
		style,
		r.Start.Format("2006-01-02"),
		r.End.Format("2006-01-02"),
		filtered,
	)
}
