package midi

import (
	"testing"
)

func TestEventQueue(t *testing.T) {
	q := NewEventQueue()

	if !q.IsEmpty() {
		t.Error("Expected queue to be empty")
	}
	if q.Size() != 0 {
		t.Errorf("Expected size 0, got %d", q.Size())
	}

	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 100}, NoteNumber: 60, Velocity: 100})
	q.Add(NoteOffEvent{BaseEvent: BaseEvent{Offset: 200}, NoteNumber: 60, Velocity: 0})
	q.Add(ClockEvent{BaseEvent{Offset: 50}})

	if q.IsEmpty() {
		t.Error("Expected queue to not be empty")
	}
	if q.Size() != 3 {
		t.Errorf("Expected size 3, got %d", q.Size())
	}

	q.Clear()
	if !q.IsEmpty() {
		t.Error("Expected queue to be empty after Clear")
	}
}

func TestEventQueueSorting(t *testing.T) {
	q := NewEventQueue()

	q.AddMultiple([]Event{
		NoteOnEvent{BaseEvent: BaseEvent{Offset: 300}, NoteNumber: 62, Velocity: 100},
		NoteOnEvent{BaseEvent: BaseEvent{Offset: 100}, NoteNumber: 60, Velocity: 100},
		NoteOnEvent{BaseEvent: BaseEvent{Offset: 200}, NoteNumber: 61, Velocity: 100},
	})

	events := q.GetAllEvents()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	offsets := []int32{100, 200, 300}
	for i, event := range events {
		if event.SampleOffset() != offsets[i] {
			t.Errorf("Event %d: expected offset %d, got %d", i, offsets[i], event.SampleOffset())
		}
	}
}

func TestEventQueueStableOrder(t *testing.T) {
	q := NewEventQueue()

	// A clock tick emits NoteOff then NoteOn at the same offset.
	q.Add(ClockEvent{BaseEvent{Offset: 10}})
	q.Add(NoteOffEvent{BaseEvent: BaseEvent{Offset: 10}, NoteNumber: 60})
	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 10}, NoteNumber: 64})
	q.Add(ClockEvent{BaseEvent{Offset: 5}})

	events := q.GetAllEvents()
	want := []EventType{EventTypeClock, EventTypeClock, EventTypeNoteOff, EventTypeNoteOn}
	for i, e := range events {
		if e.Type() != want[i] {
			t.Errorf("Event %d: expected %v, got %v", i, want[i], e.Type())
		}
	}
	if events[0].SampleOffset() != 5 {
		t.Errorf("Expected earliest clock first, got offset %d", events[0].SampleOffset())
	}
}

func TestGetEventsInRange(t *testing.T) {
	q := NewEventQueue()

	for i, offset := range []int32{0, 50, 100, 150, 200} {
		q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: offset}, NoteNumber: 60 + uint8(i), Velocity: 100})
	}

	tests := []struct {
		start    int32
		end      int32
		expected int
	}{
		{0, 100, 2},
		{50, 150, 2},
		{100, 200, 2},
		{0, 250, 5},
		{250, 300, 0},
		{-50, 0, 0},
	}

	for _, tt := range tests {
		events := q.GetEventsInRange(tt.start, tt.end)
		if len(events) != tt.expected {
			t.Errorf("Range [%d, %d): expected %d events, got %d",
				tt.start, tt.end, tt.expected, len(events))
		}
	}
}

func TestAppendEventsInRangeReusesBuffer(t *testing.T) {
	q := NewEventQueue()
	for i := int32(0); i < 4; i++ {
		q.Add(ClockEvent{BaseEvent{Offset: i * 10}})
	}
	q.GetAllEvents()

	buf := make([]Event, 0, 8)
	allocs := testing.AllocsPerRun(10, func() {
		buf = q.AppendEventsInRange(buf[:0], 0, 40)
	})
	if allocs != 0 {
		t.Errorf("AppendEventsInRange allocated %.0f times per run", allocs)
	}
	if len(buf) != 4 {
		t.Errorf("Expected 4 events, got %d", len(buf))
	}
}

func TestRemoveProcessedEvents(t *testing.T) {
	q := NewEventQueue()

	for i := int32(0); i < 5; i++ {
		q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: i * 50}, NoteNumber: 60 + uint8(i), Velocity: 100})
	}

	// Removes 0, 50 and 100.
	q.RemoveProcessedEvents(125)

	if q.Size() != 2 {
		t.Errorf("Expected 2 events remaining, got %d", q.Size())
	}

	remaining := q.GetAllEvents()
	if len(remaining) != 2 {
		t.Fatalf("Expected 2 remaining events, got %d", len(remaining))
	}
	if remaining[0].SampleOffset() != 150 {
		t.Errorf("Expected first remaining event at offset 150, got %d", remaining[0].SampleOffset())
	}
	if remaining[1].SampleOffset() != 200 {
		t.Errorf("Expected second remaining event at offset 200, got %d", remaining[1].SampleOffset())
	}
}

type testEventProcessor struct {
	processedEvents []Event
}

func (p *testEventProcessor) ProcessEvent(event Event) {
	p.processedEvents = append(p.processedEvents, event)
}

func TestProcessEvents(t *testing.T) {
	q := NewEventQueue()
	processor := &testEventProcessor{}

	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 50}, NoteNumber: 60, Velocity: 100})
	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 150}, NoteNumber: 61, Velocity: 100})
	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 250}, NoteNumber: 62, Velocity: 100})

	q.ProcessEvents(processor, 0, 200)

	if len(processor.processedEvents) != 2 {
		t.Fatalf("Expected 2 processed events, got %d", len(processor.processedEvents))
	}
	if processor.processedEvents[0].SampleOffset() != 50 {
		t.Errorf("Expected first event at offset 50, got %d", processor.processedEvents[0].SampleOffset())
	}
	if processor.processedEvents[1].SampleOffset() != 150 {
		t.Errorf("Expected second event at offset 150, got %d", processor.processedEvents[1].SampleOffset())
	}
}

func TestConcurrentAccess(t *testing.T) {
	q := NewEventQueue()
	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			q.Add(ClockEvent{BaseEvent{Offset: int32(i)}})
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = q.GetEventsInRange(0, 100)
			_ = q.Size()
		}
		done <- true
	}()

	<-done
	<-done

	if q.Size() != 100 {
		t.Errorf("Expected 100 events, got %d", q.Size())
	}
}
