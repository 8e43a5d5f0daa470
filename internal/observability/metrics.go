package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the HTTP surface and the
// notification pipeline.
type Metrics struct {
	mu                 sync.Mutex
	requestCount       map[string]int64
	errorCount         map[string]int64
	eventsReceived     int64
	eventsMatched      int64
	enrichmentFailures int64
	dispatchSucceeded  int64
	dispatchFailed     int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests           map[string]int64 `json:"requests"`
	Errors             map[string]int64 `json:"errors"`
	EventsReceived     int64            `json:"events_received"`
	EventsMatched      int64            `json:"events_matched"`
	EnrichmentFailures int64            `json:"enrichment_failures"`
	DispatchSucceeded  int64            `json:"dispatch_succeeded"`
	DispatchFailed     int64            `json:"dispatch_failed"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEvent counts an inbound webhook event handed to the pipeline.
func (m *Metrics) RecordEvent() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsReceived++
}

// RecordMatch counts an event classified into the monitored program.
func (m *Metrics) RecordMatch() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsMatched++
}

// RecordEnrichmentFailure counts a degraded (unenriched) pipeline run.
func (m *Metrics) RecordEnrichmentFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrichmentFailures++
}

// RecordDispatch counts a single destination send outcome.
func (m *Metrics) RecordDispatch(success bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.dispatchSucceeded++
	} else {
		m.dispatchFailed++
	}
}

// SnapshotCounters copies the current counter values.
func (m *Metrics) SnapshotCounters() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:           make(map[string]int64, len(m.requestCount)),
		Errors:             make(map[string]int64, len(m.errorCount)),
		EventsReceived:     m.eventsReceived,
		EventsMatched:      m.eventsMatched,
		EnrichmentFailures: m.enrichmentFailures,
		DispatchSucceeded:  m.dispatchSucceeded,
		DispatchFailed:     m.dispatchFailed,
	}
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	return snap
}
