package task

import (
	"sync"
	"time"
)

// Origin marks who started a task.
type Origin string

const (
	OriginInternal Origin = "INTERNAL"
	OriginExternal Origin = "EXTERNAL"
)

// Operation identifies the kind of command a task carries. Each operation
// brings its own payload type; the task envelope is shared.
type Operation string

const (
	OpSetChargingProfile     Operation = "SetChargingProfile"
	OpClearChargingProfile   Operation = "ClearChargingProfile"
	OpGetCompositeSchedule   Operation = "GetCompositeSchedule"
	OpRemoteStartTransaction Operation = "RemoteStartTransaction"
	OpRemoteStopTransaction  Operation = "RemoteStopTransaction"
)

// Result is the terminal outcome recorded for one targeted charge box.
// Exactly one of Response or ErrorMessage is set.
type Result struct {
	Response     *string
	ErrorMessage *string
}

// Terminal reports whether an outcome has been recorded.
func (r Result) Terminal() bool {
	return r.Response != nil || r.ErrorMessage != nil
}

// CommunicationTask tracks one logical command dispatched to one or more
// charge boxes until every target has reported a terminal outcome. The id is
// assigned by the store at registration.
type CommunicationTask struct {
	id        int
	operation Operation
	origin    Origin
	caller    string
	payload   interface{}
	startedAt time.Time

	mu      sync.Mutex
	endedAt *time.Time
	results map[string]Result
	pending int
}

// New builds a task targeting the given charge boxes. Result slots are seeded
// up front so that request count is fixed at creation.
func New(op Operation, origin Origin, caller string, payload interface{}, targets []string) *CommunicationTask {
	results := make(map[string]Result, len(targets))
	for _, chargeBoxID := range targets {
		results[chargeBoxID] = Result{}
	}
	return &CommunicationTask{
		operation: op,
		origin:    origin,
		caller:    caller,
		payload:   payload,
		startedAt: time.Now().UTC(),
		results:   results,
		pending:   len(results),
	}
}

// ID returns the store-assigned identifier (zero before registration).
func (t *CommunicationTask) ID() int { return t.id }

// Operation returns the command kind.
func (t *CommunicationTask) Operation() Operation { return t.operation }

// Origin returns who started the task.
func (t *CommunicationTask) Origin() Origin { return t.origin }

// Caller returns the free-form caller marker.
func (t *CommunicationTask) Caller() string { return t.caller }

// Payload returns the domain request this task carries.
func (t *CommunicationTask) Payload() interface{} { return t.payload }

// StartedAt returns the creation instant.
func (t *CommunicationTask) StartedAt() time.Time { return t.startedAt }

// EndedAt returns the completion instant, nil while in flight.
func (t *CommunicationTask) EndedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endedAt
}

// RecordResponse stores a successful device status for one charge box.
// recorded is false if the box is not a target or already has a terminal
// outcome, so a racing duplicate callback cannot double-count. completed is
// true only for the one call that records the final outstanding outcome.
func (t *CommunicationTask) RecordResponse(chargeBoxID, status string) (recorded, completed bool) {
	return t.record(chargeBoxID, Result{Response: &status})
}

// RecordFailure stores a transport or protocol failure for one charge box.
func (t *CommunicationTask) RecordFailure(chargeBoxID, message string) (recorded, completed bool) {
	return t.record(chargeBoxID, Result{ErrorMessage: &message})
}

func (t *CommunicationTask) record(chargeBoxID string, outcome Result) (recorded, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.results[chargeBoxID]
	if !ok || existing.Terminal() {
		return false, false
	}

	t.results[chargeBoxID] = outcome
	t.pending--
	if t.pending == 0 {
		now := time.Now().UTC()
		t.endedAt = &now
		return true, true
	}
	return true, false
}

// Completed reports whether every target has a terminal outcome. A completed
// task never becomes in-flight again.
func (t *CommunicationTask) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending == 0
}

// RequestCount returns the number of targeted charge boxes.
func (t *CommunicationTask) RequestCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.results)
}

// ResponseCount returns the number of terminal outcomes recorded so far.
func (t *CommunicationTask) ResponseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.results) - t.pending
}

// Results returns a copy of the per-charge-box outcomes.
func (t *CommunicationTask) Results() map[string]Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Result, len(t.results))
	for k, v := range t.results {
		out[k] = v
	}
	return out
}

// Overview is a read-only summary of a task for listings.
type Overview struct {
	TaskID        int        `json:"taskId"`
	Operation     Operation  `json:"operation"`
	Origin        Origin     `json:"origin"`
	Caller        string     `json:"caller,omitempty"`
	Start         time.Time  `json:"start"`
	End           *time.Time `json:"end,omitempty"`
	RequestCount  int        `json:"requestCount"`
	ResponseCount int        `json:"responseCount"`
}

// Overview snapshots the task summary.
func (t *CommunicationTask) Overview() Overview {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Overview{
		TaskID:        t.id,
		Operation:     t.operation,
		Origin:        t.origin,
		Caller:        t.caller,
		Start:         t.startedAt,
		End:           t.endedAt,
		RequestCount:  len(t.results),
		ResponseCount: len(t.results) - t.pending,
	}
}
