package events

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	d := NewDispatcher()

	var got atomic.Value
	d.Subscribe("application.submitted", func(e Event) {
		got.Store(e)
	})

	d.Publish(ApplicationSubmitted{ApplicationID: 1, ApplicantID: 2, ScholarshipID: 3})
	d.Wait()

	e, ok := got.Load().(ApplicationSubmitted)
	if !ok {
		t.Fatalf("handler did not receive event")
	}
	if e.ApplicationID != 1 || e.ApplicantID != 2 || e.ScholarshipID != 3 {
		t.Errorf("unexpected event payload: %+v", e)
	}
}

func TestPublishSkipsUnrelatedSubscribers(t *testing.T) {
	d := NewDispatcher()

	var calls atomic.Int32
	d.Subscribe("application.approved", func(Event) {
		calls.Add(1)
	})

	d.Publish(ApplicationRejected{ApplicationID: 1})
	d.Wait()

	if calls.Load() != 0 {
		t.Errorf("handler for a different event was invoked %d times", calls.Load())
	}
}

func TestWildcardSubscriber(t *testing.T) {
	d := NewDispatcher()

	var calls atomic.Int32
	d.Subscribe("*", func(Event) {
		calls.Add(1)
	})

	d.Publish(ApplicationApproved{ApplicationID: 1})
	d.Publish(InterviewScheduled{ApplicationID: 1, ScheduledAt: time.Now()})
	d.Wait()

	if calls.Load() != 2 {
		t.Errorf("expected 2 deliveries, got %d", calls.Load())
	}
}

func TestHandlerPanicDoesNotPropagate(t *testing.T) {
	d := NewDispatcher()

	d.Subscribe("stipend.recorded", func(Event) {
		panic("boom")
	})
	var calls atomic.Int32
	d.Subscribe("stipend.recorded", func(Event) {
		calls.Add(1)
	})

	d.Publish(StipendRecorded{ApplicationID: 9, Amount: 5000})
	d.Wait()

	if calls.Load() != 1 {
		t.Errorf("second handler should still run, got %d calls", calls.Load())
	}
}
