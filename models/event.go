package models

// EventType tags one entry of the adjudication event stream
type EventType string

const (
	EventStatus      EventType = "status"
	EventToken       EventType = "token"
	EventFinalResult EventType = "final_result"
	EventError       EventType = "error"
)

// Event is one element of the ordered stream emitted during a single
// adjudication. Consumers read events in emission order; there is no replay.
type Event struct {
	Event EventType   `json:"event"`
	Data  interface{} `json:"data"`
}

// ErrorData is the payload of an error event. Consensus and Diagnostics are
// populated when the failure happened after the jury poll (for example the
// no-precedents termination path), so callers still get the evidence that
// was gathered before the pipeline stopped.
type ErrorData struct {
	Message     string                `json:"message"`
	Consensus   ConsensusDistribution `json:"consensus,omitempty"`
	Diagnostics *Diagnostics          `json:"diagnostics,omitempty"`
}

// StatusEvent reports progress through the adjudication state machine
func StatusEvent(message string) Event {
	return Event{Event: EventStatus, Data: message}
}

// TokenEvent carries one raw text fragment from the judge's stream
func TokenEvent(text string) Event {
	return Event{Event: EventToken, Data: text}
}

// FinalResultEvent carries the enriched result; always the last event of a
// successful run
func FinalResultEvent(result *AdjudicationResult) Event {
	return Event{Event: EventFinalResult, Data: result}
}

// ErrorEvent terminates the stream with a failure or a reportable empty
// outcome
func ErrorEvent(data ErrorData) Event {
	return Event{Event: EventError, Data: data}
}
