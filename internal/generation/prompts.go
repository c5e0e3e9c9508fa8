package generation

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/types"
)

const systemPrompt = `You are a planning assistant that writes structured day-by-day roadmaps.

You MUST output ONLY a JSON object with exactly these fields:
{
  "title": "short roadmap title",
  "description": "one or two sentences describing the roadmap",
  "tasks": [
    {"day": 1, "title": "short task title", "description": "what to do that day"}
  ]
}

Rules:
- Produce exactly one task per requested day, in ascending day order.
- Use the absolute day numbers you are given, not numbers relative to the range.
- Task titles must be unique within the roadmap and never empty.
- Do not wrap the JSON in markdown or add commentary.`

var categoryIntro = map[types.Category]string{
	types.CategoryAcademic:    "an academic study roadmap (subjects, exam preparation)",
	types.CategoryLongTerm:    "a long-term goal roadmap (career, projects)",
	types.CategoryPersonality: "a personality development roadmap (confidence, communication, leadership)",
	types.CategoryAdditional:  "an additional skills roadmap (coding, cooking, music)",
}

func buildChunkPrompt(form category.Form, start types.Date, totalDays, from, to int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %s for %q.\n", categoryIntro[form.Category()], form.Subject())
	fmt.Fprintf(&b, "The whole plan spans %d days starting %s.\n", totalDays, start)
	if brief := form.Brief(); brief != "" {
		b.WriteString("\nDetails:\n")
		b.WriteString(brief)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nReturn tasks for days %d through %d only (%d tasks).", from, to, to-from+1)
	if from > 1 {
		b.WriteString(" Continue the progression from the earlier days; the title and description may repeat the ones you would give the whole plan.")
	}
	return b.String()
}
