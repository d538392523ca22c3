package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"peoplescourt-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdjudicator replays a canned event sequence
type fakeAdjudicator struct {
	events       []models.Event
	lastScenario string
	lastK        int
}

func (f *fakeAdjudicator) Adjudicate(ctx context.Context, scenario string, k int) <-chan models.Event {
	f.lastScenario = scenario
	f.lastK = k
	out := make(chan models.Event)
	go func() {
		defer close(out)
		for _, ev := range f.events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func setupRouter(adjudicator *fakeAdjudicator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAdjudicationHandler(adjudicator)
	router := gin.New()
	router.POST("/api/adjudicate", handler.Adjudicate)
	router.POST("/api/adjudicate/stream", handler.AdjudicateStream)
	return router
}

// closeNotifyRecorder adds http.CloseNotifier, which gin's Context.Stream
// requires but httptest.ResponseRecorder does not implement.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
	router.ServeHTTP(rec, req)
	return rec.ResponseRecorder
}

func sampleResult() *models.AdjudicationResult {
	return &models.AdjudicationResult{
		Verdict:          models.VerdictNTA,
		OpeningStatement: "Order in the court.",
		Facts:            "The plaintiff left early.",
		Precedents: []models.Precedent{
			{ID: "abc123", Title: "AITA for testing", Comparison: "Close match", Hydrated: true},
		},
		Deliberation: "The precedents are clear.",
		Consensus:    models.ConsensusDistribution{models.VerdictNTA: 1.0},
	}
}

func TestAdjudicate_Success(t *testing.T) {
	adjudicator := &fakeAdjudicator{events: []models.Event{
		models.StatusEvent("The court is now in session."),
		models.TokenEvent(`{"verdict":`),
		models.FinalResultEvent(sampleResult()),
	}}
	router := setupRouter(adjudicator)

	rec := postJSON(t, router, "/api/adjudicate", `{"scenario": "AITA for testing?", "k_precedents": 5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AITA for testing?", adjudicator.lastScenario)
	assert.Equal(t, 5, adjudicator.lastK)

	var body struct {
		Success bool                      `json:"success"`
		Data    models.AdjudicationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, models.VerdictNTA, body.Data.Verdict)
	require.Len(t, body.Data.Precedents, 1)
	assert.Equal(t, "abc123", body.Data.Precedents[0].ID)
}

func TestAdjudicate_ErrorEvent(t *testing.T) {
	adjudicator := &fakeAdjudicator{events: []models.Event{
		models.StatusEvent("The court is now in session."),
		models.ErrorEvent(models.ErrorData{Message: "no relevant precedents found"}),
	}}
	router := setupRouter(adjudicator)

	rec := postJSON(t, router, "/api/adjudicate", `{"scenario": "AITA for testing?"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ADJUDICATION_FAILED", body.Error.Code)
	assert.Equal(t, "no relevant precedents found", body.Error.Message)
}

func TestAdjudicate_NoFinalResult(t *testing.T) {
	adjudicator := &fakeAdjudicator{events: []models.Event{
		models.StatusEvent("The court is now in session."),
	}}
	router := setupRouter(adjudicator)

	rec := postJSON(t, router, "/api/adjudicate", `{"scenario": "AITA for testing?"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NO_RESULT", body.Error.Code)
}

func TestAdjudicate_InvalidRequest(t *testing.T) {
	router := setupRouter(&fakeAdjudicator{})

	t.Run("missing scenario", func(t *testing.T) {
		rec := postJSON(t, router, "/api/adjudicate", `{"k_precedents": 3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := postJSON(t, router, "/api/adjudicate", `{"scenario": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdjudicateStream_FramesEvents(t *testing.T) {
	adjudicator := &fakeAdjudicator{events: []models.Event{
		models.StatusEvent("The court is now in session."),
		models.TokenEvent("fragment one"),
		models.TokenEvent("fragment two"),
		models.FinalResultEvent(sampleResult()),
	}}
	router := setupRouter(adjudicator)

	rec := postJSON(t, router, "/api/adjudicate/stream", `{"scenario": "AITA for testing?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 4)

	var types []models.EventType
	for _, frame := range frames {
		require.True(t, strings.HasPrefix(frame, "data: "), "frame %q missing data prefix", frame)
		var ev struct {
			Event models.EventType `json:"event"`
			Data  json.RawMessage  `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		types = append(types, ev.Event)
	}
	assert.Equal(t, []models.EventType{
		models.EventStatus,
		models.EventToken,
		models.EventToken,
		models.EventFinalResult,
	}, types)

	last := strings.TrimPrefix(frames[3], "data: ")
	var final struct {
		Data models.AdjudicationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(last), &final))
	assert.Equal(t, models.VerdictNTA, final.Data.Verdict)
}

func TestAdjudicateStream_ErrorEventIsFramedNotStatusCoded(t *testing.T) {
	adjudicator := &fakeAdjudicator{events: []models.Event{
		models.StatusEvent("The court is now in session."),
		models.ErrorEvent(models.ErrorData{Message: "jury polling failed"}),
	}}
	router := setupRouter(adjudicator)

	rec := postJSON(t, router, "/api/adjudicate/stream", `{"scenario": "AITA for testing?"}`)

	// Headers are already out by the time the pipeline fails; the error
	// travels inside the stream.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"event":"error"`)
	assert.Contains(t, rec.Body.String(), "jury polling failed")
}

func TestAdjudicateStream_InvalidRequest(t *testing.T) {
	router := setupRouter(&fakeAdjudicator{})

	rec := postJSON(t, router, "/api/adjudicate/stream", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
}
