package midi

import (
	"sort"
	"sync"
)

// EventQueue holds events ordered by sample offset. Events with equal
// offsets keep their insertion order.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
	sorted bool
}

func NewEventQueue() *EventQueue {
	return &EventQueue{
		events: make([]Event, 0, 128),
		sorted: true,
	}
}

func (q *EventQueue) Add(event Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, event)
	q.sorted = false
}

func (q *EventQueue) AddMultiple(events []Event) {
	if len(events) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, events...)
	q.sorted = false
}

// rangeLocked returns the index span of events in [startSample, endSample).
func (q *EventQueue) rangeLocked(startSample, endSample int32) (int, int) {
	if !q.sorted {
		q.sortEvents()
	}

	startIdx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].SampleOffset() >= startSample
	})
	endIdx := startIdx
	for endIdx < len(q.events) && q.events[endIdx].SampleOffset() < endSample {
		endIdx++
	}
	return startIdx, endIdx
}

// GetEventsInRange returns a copy of the events in [startSample, endSample).
func (q *EventQueue) GetEventsInRange(startSample, endSample int32) []Event {
	return q.AppendEventsInRange(nil, startSample, endSample)
}

// AppendEventsInRange appends the events in [startSample, endSample) to dst
// and returns it, allocating only when dst is too small.
func (q *EventQueue) AppendEventsInRange(dst []Event, startSample, endSample int32) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	startIdx, endIdx := q.rangeLocked(startSample, endSample)
	if startIdx == endIdx {
		return dst
	}
	return append(dst, q.events[startIdx:endIdx]...)
}

func (q *EventQueue) GetAllEvents() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.sorted {
		q.sortEvents()
	}

	result := make([]Event, len(q.events))
	copy(result, q.events)
	return result
}

func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.events)
	q.events = q.events[:0]
	q.sorted = true
}

// RemoveProcessedEvents drops every event at or before upToSample.
func (q *EventQueue) RemoveProcessedEvents(upToSample int32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.sorted {
		q.sortEvents()
	}

	keepIdx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].SampleOffset() > upToSample
	})

	if keepIdx > 0 {
		n := copy(q.events, q.events[keepIdx:])
		clear(q.events[n:])
		q.events = q.events[:n]
	}
}

func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *EventQueue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *EventQueue) sortEvents() {
	sort.SliceStable(q.events, func(i, j int) bool {
		return q.events[i].SampleOffset() < q.events[j].SampleOffset()
	})
	q.sorted = true
}

// EventProcessor consumes events in offset order.
type EventProcessor interface {
	ProcessEvent(event Event)
}

// ProcessEvents delivers the events in [startSample, endSample) to processor.
func (q *EventQueue) ProcessEvents(processor EventProcessor, startSample, endSample int32) {
	for _, event := range q.GetEventsInRange(startSample, endSample) {
		processor.ProcessEvent(event)
	}
}
