package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/recurrence"
	"github.com/mwhitlock/lexcal/internal/store"
)

// Scheduler periodically checks for event reminders to send.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	events   *store.EventStore
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler that ticks every minute.
func NewScheduler(svc *Service, pushStore *store.PushStore, eventStore *store.EventStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		events:   eventStore,
		logger:   logger.With("component", "push-scheduler"),
		interval: 60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now().UTC())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// dueReminder is one occurrence whose reminder fires inside the tick window.
type dueReminder struct {
	Key     string
	Title   string
	Start   time.Time
	Minutes int
}

// dueReminders computes which reminders fire in [now, now+window). Recurring
// templates are expanded so every occurrence gets its own reminder, keyed by
// the occurrence instance key.
func dueReminders(candidates []store.ReminderCandidate, now time.Time, window time.Duration) []dueReminder {
	var due []dueReminder
	for _, c := range candidates {
		lead := time.Duration(c.Minutes) * time.Minute

		if !c.IsRecurring || !c.RecurrenceRule.Valid {
			fireAt := c.StartTime.Add(-lead)
			if !fireAt.Before(now) && fireAt.Before(now.Add(window)) {
				key := recurrence.InstanceKey{TemplateID: c.EventID, Start: c.StartTime}
				due = append(due, dueReminder{Key: key.String(), Title: c.Title, Start: c.StartTime, Minutes: c.Minutes})
			}
			continue
		}

		pattern, err := recurrence.Parse(c.RecurrenceRule.String)
		if err != nil {
			continue
		}
		template := model.Event{
			ID:          c.EventID,
			Title:       c.Title,
			Start:       c.StartTime,
			End:         c.EndTime,
			IsRecurring: true,
			Recurrence:  &pattern,
		}
		// An occurrence is due when start-lead lands in the tick window,
		// i.e. start is in [now+lead, now+lead+window).
		instances, err := recurrence.Expand(template, now.Add(lead), now.Add(lead+window-time.Nanosecond))
		if err != nil {
			continue
		}
		for _, inst := range instances {
			key := recurrence.InstanceKey{TemplateID: c.EventID, Start: inst.Start}
			due = append(due, dueReminder{Key: key.String(), Title: c.Title, Start: inst.Start, Minutes: c.Minutes})
		}
	}
	return due
}

func (s *Scheduler) tick(now time.Time) {
	candidates, err := s.events.ListReminderCandidates()
	if err != nil {
		s.logger.Error("list reminder candidates", "error", err)
		return
	}

	due := dueReminders(candidates, now, s.interval)
	if len(due) == 0 {
		return
	}

	subs, err := s.push.ListAll()
	if err != nil {
		s.logger.Error("list subscriptions", "error", err)
		return
	}

	for _, d := range due {
		sent, err := s.push.WasSent(d.Key, d.Minutes)
		if err != nil {
			s.logger.Error("check reminder log", "error", err)
			continue
		}
		if sent {
			continue
		}

		payload := Payload{
			Title: "Event Reminder",
			Body:  fmt.Sprintf("%s starts in %d minutes", d.Title, d.Minutes),
			URL:   "/calendar",
			Tag:   d.Key,
		}
		for i := range subs {
			if err := s.service.Send(&subs[i], payload); err != nil {
				if errors.Is(err, ErrExpired) {
					s.push.DeleteByEndpoint(subs[i].Endpoint)
				} else {
					s.logger.Error("send reminder", "event", d.Key, "error", err)
				}
			}
		}

		if err := s.push.RecordSent(d.Key, d.Minutes); err != nil {
			s.logger.Error("record reminder sent", "error", err)
		}
	}
}
