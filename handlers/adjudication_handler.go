package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"peoplescourt-backend/models"

	"github.com/gin-gonic/gin"
)

// Adjudicator runs one adjudication and streams its events. Implemented by
// service.AdjudicationService.
type Adjudicator interface {
	Adjudicate(ctx context.Context, scenario string, k int) <-chan models.Event
}

// AdjudicationHandler handles HTTP requests for adjudications
type AdjudicationHandler struct {
	adjudicator Adjudicator
}

// NewAdjudicationHandler creates a new adjudication handler
func NewAdjudicationHandler(adjudicator Adjudicator) *AdjudicationHandler {
	return &AdjudicationHandler{
		adjudicator: adjudicator,
	}
}

// AdjudicateRequest represents the request body for an adjudication
type AdjudicateRequest struct {
	Scenario    string `json:"scenario" binding:"required"`
	KPrecedents int    `json:"k_precedents"`
}

// Adjudicate handles POST /api/adjudicate. It blocks until the pipeline
// terminates and returns only the final result, discarding status and token
// events.
func (h *AdjudicationHandler) Adjudicate(c *gin.Context) {
	var req AdjudicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	log.Printf("Received adjudication request: %.50s...", req.Scenario)

	var final *models.AdjudicationResult
	for event := range h.adjudicator.Adjudicate(c.Request.Context(), req.Scenario, req.KPrecedents) {
		switch event.Event {
		case models.EventFinalResult:
			if result, ok := event.Data.(*models.AdjudicationResult); ok {
				final = result
			}
		case models.EventError:
			message := "adjudication failed"
			if data, ok := event.Data.(models.ErrorData); ok {
				message = data.Message
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ADJUDICATION_FAILED",
					"message": message,
				},
			})
			return
		}
	}

	if final == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_RESULT",
				"message": "Adjudication complete but no final result generated",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    final,
	})
}

// AdjudicateStream handles POST /api/adjudicate/stream. Events are written
// as Server-Sent Events, one JSON object per event:
// data: {"event": ..., "data": ...}
func (h *AdjudicationHandler) AdjudicateStream(c *gin.Context) {
	var req AdjudicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	log.Printf("Received streaming adjudication request: %.50s...", req.Scenario)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events := h.adjudicator.Adjudicate(c.Request.Context(), req.Scenario, req.KPrecedents)
	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event: %v", err)
			return false
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		return true
	})
}
