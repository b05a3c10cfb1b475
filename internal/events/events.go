package events

import (
	"log/slog"
	"sync"
	"time"
)

// Event is a domain event emitted by the application lifecycle services.
type Event interface {
	Name() string
}

// ApplicationSubmitted fires when an applicant submits or resubmits an application.
type ApplicationSubmitted struct {
	ApplicationID uint
	ApplicantID   uint
	ScholarshipID uint
	Resubmission  bool
	OccurredAt    time.Time
}

func (ApplicationSubmitted) Name() string { return "application.submitted" }

// ApplicationFlaggedIncomplete fires when verification sends an application
// back to the applicant.
type ApplicationFlaggedIncomplete struct {
	ApplicationID uint
	ApplicantID   uint
	Reason        string
	OccurredAt    time.Time
}

func (ApplicationFlaggedIncomplete) Name() string { return "application.flagged_incomplete" }

// ApplicationApproved fires after a slot has been reserved for the applicant.
type ApplicationApproved struct {
	ApplicationID uint
	ApplicantID   uint
	ScholarshipID uint
	OccurredAt    time.Time
}

func (ApplicationApproved) Name() string { return "application.approved" }

// ApplicationRejected fires on a reject decision or a revocation.
type ApplicationRejected struct {
	ApplicationID uint
	ApplicantID   uint
	ScholarshipID uint
	Revoked       bool
	OccurredAt    time.Time
}

func (ApplicationRejected) Name() string { return "application.rejected" }

// InterviewScheduled fires when an interview is first scheduled.
type InterviewScheduled struct {
	ApplicationID uint
	ApplicantID   uint
	ScheduledAt   time.Time
	Location      string
}

func (InterviewScheduled) Name() string { return "interview.scheduled" }

// InterviewRescheduled fires when staff confirms a new interview slot.
type InterviewRescheduled struct {
	ApplicationID uint
	ApplicantID   uint
	ScheduledAt   time.Time
	Location      string
	Reason        string
}

func (InterviewRescheduled) Name() string { return "interview.rescheduled" }

// InterviewCompleted fires when scores and a recommendation are recorded.
type InterviewCompleted struct {
	ApplicationID  uint
	ApplicantID    uint
	MeanScore      float64
	Recommendation string
}

func (InterviewCompleted) Name() string { return "interview.completed" }

// StipendRecorded fires when a disbursement is recorded for a beneficiary.
type StipendRecorded struct {
	ApplicationID uint
	ApplicantID   uint
	Amount        float64
	Status        string
	OccurredAt    time.Time
}

func (StipendRecorded) Name() string { return "stipend.recorded" }

// Handler processes a single event. Handlers must be safe for concurrent use.
type Handler func(Event)

// Dispatcher fans events out to registered handlers. Publishing never blocks
// the caller; each handler runs in its own goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for the given event name. Use "*" to receive
// every event.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Publish delivers the event asynchronously to all matching handlers.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.handlers[e.Name()])+len(d.handlers["*"]))
	handlers = append(handlers, d.handlers[e.Name()]...)
	handlers = append(handlers, d.handlers["*"]...)
	d.mu.RUnlock()

	for _, h := range handlers {
		d.wg.Add(1)
		go func(h Handler) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Event handler panicked", "event", e.Name(), "panic", r)
				}
			}()
			h(e)
		}(h)
	}
}

// Wait blocks until all in-flight handlers have finished. Used during
// shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
