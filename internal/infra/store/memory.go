// Package store holds analysis results in memory for the lifetime of the
// process. Results never survive a restart and there is no update or delete
// operation; retention is a bounded FIFO so a long-running server does not
// grow without limit.
package store

import (
	"fmt"
	"sync"
	"time"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

const DefaultCapacity = 1000

type record struct {
	result domain.Result
	at     time.Time
}

// Memory is an insertion-ordered in-memory analysis store. A single mutex
// guards the counter and map together so concurrent Puts never hand out the
// same id.
type Memory struct {
	mu       sync.Mutex
	capacity int
	next     int
	order    []string
	records  map[string]record

	now func() time.Time
}

func New(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		records:  make(map[string]record),
		now:      time.Now,
	}
}

// Put stores a result and returns its generated analysis id: the engine name
// plus a monotonically increasing counter. The counter never resets, so ids
// are unique even after old records are evicted.
func (m *Memory) Put(res domain.Result) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := res.Tool
	if prefix == "" {
		prefix = "analysis"
	}
	id := fmt.Sprintf("%s_%d", prefix, m.next)
	m.next++

	m.records[id] = record{result: res, at: m.now()}
	m.order = append(m.order, id)
	if len(m.order) > m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.records, oldest)
	}
	return id
}

func (m *Memory) Get(id string) (domain.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return domain.Result{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return rec.result, nil
}

// List returns a summary of every stored record in insertion order.
func (m *Memory) List() []domain.RecordSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.RecordSummary, 0, len(m.order))
	for _, id := range m.order {
		rec := m.records[id]
		out = append(out, domain.RecordSummary{
			AnalysisID: id,
			Tool:       rec.result.Tool,
			Success:    rec.result.Success,
			StoredAt:   rec.at,
		})
	}
	return out
}
