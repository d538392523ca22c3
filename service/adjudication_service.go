package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"peoplescourt-backend/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingAPIKey    = errors.New("GEMINI_API_KEY must be provided or set in environment")
	ErrNoPrecedents     = errors.New("no relevant precedents found")
	ErrClassifierFailed = errors.New("jury polling failed")
	ErrMalformedRuling  = errors.New("judge returned a malformed ruling")
	ErrRetrievalFailed  = errors.New("failed to retrieve precedents")
)

const (
	// defaultPrecedentCount is how many precedents go before the judge when
	// the request does not say otherwise
	defaultPrecedentCount = 3
	// classifyTimeout bounds one jury poll
	classifyTimeout = 30 * time.Second
	// defaultGenerateTimeout bounds one full judge deliberation stream
	defaultGenerateTimeout = 2 * time.Minute
)

// TranscriptStore archives raw judge output for offline diagnosis. Satisfied
// by the storage package backends.
type TranscriptStore interface {
	Put(ctx context.Context, key string, data io.Reader) error
}

// AdjudicationService is the per-request orchestration state machine:
// retrieval and jury polling (concurrent), context assembly, streamed
// deliberation, and result enrichment. It holds no state across requests;
// any number of adjudications may run concurrently over the same shared
// collaborators.
type AdjudicationService struct {
	retrieval       *RetrievalService
	embedder        Embedder
	jury            Jury
	judge           Judge
	transcripts     TranscriptStore
	apiKey          string
	kPrecedents     int
	generateTimeout time.Duration
}

// AdjudicationServiceOption is a functional option for AdjudicationService
type AdjudicationServiceOption func(*AdjudicationService)

// WithRetrievalService sets the retrieval coordinator
func WithRetrievalService(retrieval *RetrievalService) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.retrieval = retrieval
	}
}

// WithEmbedder sets the scenario embedder
func WithEmbedder(embedder Embedder) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.embedder = embedder
	}
}

// WithJury sets the verdict classifier client
func WithJury(jury Jury) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.jury = jury
	}
}

// WithJudge sets the generation client
func WithJudge(judge Judge) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.judge = judge
	}
}

// WithTranscriptStore sets the raw-output archive. Optional; without it,
// malformed rulings are only logged.
func WithTranscriptStore(store TranscriptStore) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.transcripts = store
	}
}

// WithAPIKey sets the generation-service credential checked at request init
func WithAPIKey(apiKey string) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.apiKey = apiKey
	}
}

// WithPrecedentCount sets the default number of precedents per request
func WithPrecedentCount(k int) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.kPrecedents = k
	}
}

// WithGenerateTimeout overrides the deliberation stream deadline
func WithGenerateTimeout(d time.Duration) AdjudicationServiceOption {
	return func(s *AdjudicationService) {
		s.generateTimeout = d
	}
}

// NewAdjudicationService creates a new adjudication service
func NewAdjudicationService(opts ...AdjudicationServiceOption) *AdjudicationService {
	s := &AdjudicationService{
		kPrecedents:     defaultPrecedentCount,
		generateTimeout: defaultGenerateTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// judgeRuling mirrors the structured-output schema the judge is constrained
// to (see rulingSchema)
type judgeRuling struct {
	Verdict          string            `json:"verdict"`
	OpeningStatement string            `json:"opening_statement"`
	Facts            string            `json:"facts"`
	Precedents       []models.Citation `json:"precedents"`
	Deliberation     string            `json:"deliberation"`
}

// Adjudicate runs one full adjudication and returns its ordered event
// stream. The channel is closed after the terminal event (final_result or
// error). Cancelling ctx stops the pipeline; nothing is emitted after
// cancellation.
func (s *AdjudicationService) Adjudicate(ctx context.Context, scenario string, k int) <-chan models.Event {
	events := make(chan models.Event)
	go func() {
		defer close(events)
		s.run(ctx, scenario, k, events)
	}()
	return events
}

// emit pushes one event unless the caller has gone away
func emit(ctx context.Context, events chan<- models.Event, ev models.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *AdjudicationService) run(ctx context.Context, scenario string, k int, events chan<- models.Event) {
	if k <= 0 {
		k = s.kPrecedents
	}
	requestID := uuid.New()

	// Init: without a generation credential there is nothing to deliberate
	// with; fail before touching the corpus.
	if s.apiKey == "" {
		emit(ctx, events, models.ErrorEvent(models.ErrorData{Message: ErrMissingAPIKey.Error()}))
		return
	}

	if !emit(ctx, events, models.StatusEvent("The court is now in session. Reviewing the evidence...")) {
		return
	}
	if !emit(ctx, events, models.StatusEvent("Searching the case law for precedents and polling the jury...")) {
		return
	}

	// Retrieval and jury polling have no ordering dependency; run them
	// concurrently and wait for both before building the court context.
	var (
		retrieval *RetrievalResult
		consensus models.ConsensusDistribution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vector, err := s.embedder.Encode(gctx, scenario)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
		}
		retrieval, err = s.retrieval.Retrieve(gctx, vector, scenario, k)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, classifyTimeout)
		defer cancel()
		var err error
		consensus, err = s.jury.Predict(cctx, scenario)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrClassifierFailed, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("Adjudication %s failed during evidence gathering: %v", requestID, err)
		emit(ctx, events, models.ErrorEvent(models.ErrorData{Message: err.Error()}))
		return
	}

	diagnostics := &models.Diagnostics{
		Vector:  retrieval.VectorHits,
		Keyword: retrieval.KeywordHits,
		Hybrid:  retrieval.FusedRanking,
	}

	// An empty docket is a reportable outcome, not a fault: the caller
	// still gets the jury's read on the scenario.
	if len(retrieval.Precedents) == 0 {
		emit(ctx, events, models.ErrorEvent(models.ErrorData{
			Message:     ErrNoPrecedents.Error(),
			Consensus:   consensus,
			Diagnostics: diagnostics,
		}))
		return
	}

	if !emit(ctx, events, models.StatusEvent("The judge is deliberating...")) {
		return
	}

	courtContext := BuildCourtContext(scenario, consensus, retrieval.Precedents)

	genCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	var raw strings.Builder
	for chunk := range s.judge.AdjudicateStream(genCtx, courtContext) {
		if chunk.Err != nil {
			log.Printf("Adjudication %s failed during deliberation: %v", requestID, chunk.Err)
			emit(ctx, events, models.ErrorEvent(models.ErrorData{Message: chunk.Err.Error()}))
			return
		}
		raw.WriteString(chunk.Text)
		if !emit(ctx, events, models.TokenEvent(chunk.Text)) {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	// A stream cut off by the deliberation deadline may close without an
	// error chunk; the truncated accumulation must not be mistaken for a
	// malformed ruling.
	if genCtx.Err() != nil {
		log.Printf("Adjudication %s: deliberation cut off (%v)", requestID, genCtx.Err())
		emit(ctx, events, models.ErrorEvent(models.ErrorData{
			Message: fmt.Sprintf("%s: %v", ErrGenerationFailed, genCtx.Err()),
		}))
		return
	}

	var ruling judgeRuling
	if err := json.Unmarshal([]byte(raw.String()), &ruling); err != nil {
		s.archiveTranscript(ctx, requestID, raw.String())
		log.Printf("Adjudication %s: malformed ruling (%v), %d raw bytes archived", requestID, err, raw.Len())
		emit(ctx, events, models.ErrorEvent(models.ErrorData{Message: ErrMalformedRuling.Error()}))
		return
	}

	result := s.enrich(&ruling, retrieval.Precedents, consensus, diagnostics)
	emit(ctx, events, models.FinalResultEvent(result))
}

// enrich merges the judge's citations with the hydrated precedent data.
// Citations matching a hydrated case absorb its corpus fields; unknown case
// ids pass through verbatim with only id and comparison set.
func (s *AdjudicationService) enrich(
	ruling *judgeRuling,
	precedents []models.Precedent,
	consensus models.ConsensusDistribution,
	diagnostics *models.Diagnostics,
) *models.AdjudicationResult {
	hydrated := make(map[string]models.Precedent, len(precedents))
	for _, p := range precedents {
		hydrated[p.ID] = p
	}

	enriched := make([]models.Precedent, 0, len(ruling.Precedents))
	for _, cite := range ruling.Precedents {
		if p, ok := hydrated[cite.CaseID]; ok {
			p.Comparison = cite.Comparison
			enriched = append(enriched, p)
		} else {
			enriched = append(enriched, models.NewUnresolvedPrecedent(cite))
		}
	}

	return &models.AdjudicationResult{
		Verdict:          models.Verdict(ruling.Verdict),
		OpeningStatement: ruling.OpeningStatement,
		Facts:            ruling.Facts,
		Precedents:       enriched,
		Deliberation:     ruling.Deliberation,
		Consensus:        consensus,
		Diagnostics:      diagnostics,
	}
}

// archiveTranscript stores the raw judge output for diagnosis. Best effort;
// the adjudication outcome does not depend on it.
func (s *AdjudicationService) archiveTranscript(ctx context.Context, requestID uuid.UUID, raw string) {
	if s.transcripts == nil {
		return
	}
	key := fmt.Sprintf("transcripts/%s/%s.json", requestID.String()[:2], requestID)
	if err := s.transcripts.Put(ctx, key, strings.NewReader(raw)); err != nil {
		log.Printf("Warning: failed to archive transcript %s: %v", key, err)
	}
}
