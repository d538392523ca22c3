package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"peoplescourt-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCourtContext(t *testing.T) {
	consensus := models.ConsensusDistribution{
		models.VerdictNTA: 0.6054,
		models.VerdictYTA: 0.25,
		models.VerdictESH: 0.1,
		models.VerdictNAH: 0.0446,
	}
	precedents := []models.Precedent{
		models.NewHydratedPrecedent(models.CaseDocument{
			ID:      "abc123",
			Title:   "AITA for testing",
			Body:    strings.Repeat("x", 1500),
			Verdict: models.VerdictYTA,
			Score:   4200,
			Comments: []models.TopComment{
				{Author: "top_commenter", Body: strings.Repeat("y", 300), Score: 999},
			},
		}, 0.027),
	}

	ctx := BuildCourtContext("my scenario text", consensus, precedents)

	t.Run("sections in order", func(t *testing.T) {
		evidence := strings.Index(ctx, "### CURRENT EVIDENCE PROVIDED BY THE PLAINTIFF:")
		polling := strings.Index(ctx, "### PRE-DELIBERATION JURY POLLING:")
		caselaw := strings.Index(ctx, "### RELEVANT CASE LAW (PRECEDENTS):")
		require.GreaterOrEqual(t, evidence, 0)
		assert.Greater(t, polling, evidence)
		assert.Greater(t, caselaw, polling)
	})

	t.Run("scenario included verbatim", func(t *testing.T) {
		assert.Contains(t, ctx, "my scenario text")
	})

	t.Run("consensus rendered in fixed order with two decimals", func(t *testing.T) {
		assert.Contains(t, ctx, "- NTA: 60.54%\n- YTA: 25.00%\n- ESH: 10.00%\n- NAH: 4.46%\n")
	})

	t.Run("precedents are 1-indexed with id and verdict", func(t *testing.T) {
		assert.Contains(t, ctx, "CASE 1: ID `abc123` - Title: AITA for testing")
		assert.Contains(t, ctx, "Official Reddit Verdict: YTA")
	})

	t.Run("body truncated to 1000 characters", func(t *testing.T) {
		assert.Contains(t, ctx, "Facts: "+strings.Repeat("x", 1000)+"...")
		assert.NotContains(t, ctx, strings.Repeat("x", 1001))
	})

	t.Run("comments truncated to 200 characters with author and score", func(t *testing.T) {
		assert.Contains(t, ctx, "- top_commenter (Score 999): "+strings.Repeat("y", 200)+"...")
		assert.NotContains(t, ctx, strings.Repeat("y", 201))
	})

	t.Run("deterministic", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			assert.Equal(t, ctx, BuildCourtContext("my scenario text", consensus, precedents))
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		assert.Equal(t, "hello", truncate("hello", 10))
		assert.Equal(t, "hello", truncate("hello", 5))
	})

	t.Run("long strings are cut to the limit", func(t *testing.T) {
		got := truncate(strings.Repeat("x", 50), 10)
		assert.Equal(t, strings.Repeat("x", 10), got)
	})

	t.Run("never splits a multi-byte rune", func(t *testing.T) {
		// "é" is two bytes; the limit lands in the middle of it
		s := strings.Repeat("x", 9) + "é and more"
		got := truncate(s, 10)
		assert.Equal(t, strings.Repeat("x", 9), got)
		assert.True(t, utf8.ValidString(got))
	})

	t.Run("cut text stays valid UTF-8 at every limit", func(t *testing.T) {
		s := "наша справа, правда 😀"
		for limit := 1; limit < len(s); limit++ {
			got := truncate(s, limit)
			assert.True(t, utf8.ValidString(got), "limit %d produced invalid UTF-8", limit)
			assert.LessOrEqual(t, len(got), limit)
		}
	})
}
