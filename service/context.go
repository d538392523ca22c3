package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"peoplescourt-backend/models"
)

const (
	// caseBodyLimit caps how much of a precedent's body goes into the
	// court context
	caseBodyLimit = 1000
	// commentBodyLimit caps each hydrated comment excerpt
	commentBodyLimit = 200
)

// truncate cuts s to at most limit bytes, backing up to the nearest rune
// boundary so multi-byte characters are never split
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// BuildCourtContext renders the single deterministic text block consumed by
// the judge: the scenario, the jury polling (fixed label order, 2-decimal
// percentages), and the numbered precedents with their top comments. The
// judge prompt depends on this exact layout; change it only together with
// the prompt.
func BuildCourtContext(
	scenario string,
	consensus models.ConsensusDistribution,
	precedents []models.Precedent,
) string {
	var b strings.Builder

	b.WriteString("### CURRENT EVIDENCE PROVIDED BY THE PLAINTIFF:\n\n")
	b.WriteString(scenario)
	b.WriteString("\n\n")

	b.WriteString("### PRE-DELIBERATION JURY POLLING:\n")
	for _, label := range models.VerdictLabels {
		fmt.Fprintf(&b, "- %s: %.2f%%\n", label, consensus[label]*100)
	}
	b.WriteString("\n")

	b.WriteString("### RELEVANT CASE LAW (PRECEDENTS):\n\n")
	for i, p := range precedents {
		fmt.Fprintf(&b, "CASE %d: ID `%s` - Title: %s\n", i+1, p.ID, p.Title)
		fmt.Fprintf(&b, "Official Reddit Verdict: %s\n", p.Verdict)
		fmt.Fprintf(&b, "Facts: %s...\n", truncate(p.Body, caseBodyLimit))
		b.WriteString("Top Judgments from the Jury:\n")
		for _, c := range p.Comments {
			fmt.Fprintf(&b, "- %s (Score %d): %s...\n", c.Author, c.Score, truncate(c.Body, commentBodyLimit))
		}
		b.WriteString("\n---\n")
	}

	return b.String()
}
