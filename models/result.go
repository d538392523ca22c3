package models

// RankedHit is a (document id, score) pair produced by one retrieval source.
// Score semantics differ by source: cosine similarity for vector hits, BM25
// relevance for keyword hits, fused RRF score for hybrid rankings. Scores
// are never compared across sources; only rank positions cross the fusion
// boundary.
type RankedHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// ConsensusDistribution maps each verdict category to a probability,
// summing to ~1. Produced by the jury classifier per request; this service
// passes it through without normalizing.
type ConsensusDistribution map[Verdict]float64

// Diagnostics carries the raw rank lists from one retrieval pass
type Diagnostics struct {
	Vector  []RankedHit `json:"vector"`
	Keyword []RankedHit `json:"keyword"`
	Hybrid  []RankedHit `json:"hybrid"`
}

// AdjudicationResult is the fully enriched outcome of one adjudication.
// Built once per request; immutable after construction.
type AdjudicationResult struct {
	Verdict          Verdict               `json:"verdict"`
	OpeningStatement string                `json:"opening_statement"`
	Facts            string                `json:"facts"`
	Precedents       []Precedent           `json:"precedents"`
	Deliberation     string                `json:"deliberation"`
	Consensus        ConsensusDistribution `json:"consensus"`
	Diagnostics      *Diagnostics          `json:"diagnostics,omitempty"`
}
