package models

// Citation is one entry of the judge's structured ruling: a reference to a
// case id plus a one-line comparison with the scenario at hand.
type Citation struct {
	CaseID     string `json:"case_id"`
	Comparison string `json:"comparison"`
}

// Precedent is a case document enriched at query time with its fused
// retrieval rank and, after deliberation, the judge's comparison. It exists
// only for the duration of one adjudication request.
//
// A precedent is either hydrated (full corpus data present) or unresolved:
// the judge cited a case id outside the hydrated set. Unresolved citations
// carry only ID and Comparison; the omitempty tags keep the rendered JSON
// free of zero-valued corpus fields.
type Precedent struct {
	ID             string       `json:"id"`
	Title          string       `json:"title,omitempty"`
	Body           string       `json:"text,omitempty"`
	Verdict        Verdict      `json:"verdict,omitempty"`
	Score          int          `json:"score,omitempty"`
	RelevanceScore float64      `json:"relevance_score,omitempty"`
	Comments       []TopComment `json:"comments,omitempty"`
	Comparison     string       `json:"comparison,omitempty"`

	// Hydrated distinguishes corpus-backed precedents from pass-through
	// citations. Not part of the wire format.
	Hydrated bool `json:"-"`
}

// NewHydratedPrecedent builds a precedent from a corpus document and its
// fused ranking score
func NewHydratedPrecedent(doc CaseDocument, relevance float64) Precedent {
	return Precedent{
		ID:             doc.ID,
		Title:          doc.Title,
		Body:           doc.Body,
		Verdict:        doc.Verdict,
		Score:          doc.Score,
		RelevanceScore: relevance,
		Comments:       doc.Comments,
		Hydrated:       true,
	}
}

// NewUnresolvedPrecedent wraps a citation whose case id did not match any
// hydrated precedent. It is passed through verbatim, never dropped.
func NewUnresolvedPrecedent(cite Citation) Precedent {
	return Precedent{
		ID:         cite.CaseID,
		Comparison: cite.Comparison,
	}
}
