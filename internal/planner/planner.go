package planner

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mwhitlock/lexcal/internal/auth"
	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/store"
)

// Notifier receives change notifications after a successful persist, so other
// connected clients can refetch.
type Notifier interface {
	Notify(entity, action, id string)
}

// Planner owns the authoritative in-memory collections (my calendars, other
// calendars, events) and keeps them synchronized with the database. Mutations
// are optimistic: the cache reflects the user's intent immediately, and a
// failed write surfaces an error without rolling the cache back.
type Planner struct {
	logger     *slog.Logger
	calendars  *store.CalendarStore
	events     *store.EventStore
	satellites *store.SatelliteStore
	types      *store.EventTypeRegistry
	notifier   Notifier

	mu             sync.Mutex
	myCalendars    []model.Calendar
	otherCalendars []model.Calendar
	cache          []model.Event
	loading        bool
	lastErr        error
}

func New(db *sql.DB, logger *slog.Logger) *Planner {
	return &Planner{
		logger:     logger.With("component", "planner"),
		calendars:  store.NewCalendarStore(db),
		events:     store.NewEventStore(db),
		satellites: store.NewSatelliteStore(db),
		types:      store.NewEventTypeRegistry(db),
	}
}

// SetNotifier wires a change broadcaster. May be left unset in tests.
func (p *Planner) SetNotifier(n Notifier) {
	p.notifier = n
}

func (p *Planner) notify(entity, action, id string) {
	if p.notifier != nil {
		p.notifier.Notify(entity, action, id)
	}
}

// Snapshot is a copy of the cache for rendering.
type Snapshot struct {
	MyCalendars    []model.Calendar `json:"my_calendars"`
	OtherCalendars []model.Calendar `json:"other_calendars"`
	Events         []model.Event    `json:"events"`
	Loading        bool             `json:"loading"`
	Err            error            `json:"-"`
}

func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := Snapshot{
		MyCalendars:    append([]model.Calendar(nil), p.myCalendars...),
		OtherCalendars: append([]model.Calendar(nil), p.otherCalendars...),
		Events:         make([]model.Event, 0, len(p.cache)),
		Loading:        p.loading,
		Err:            p.lastErr,
	}
	for _, e := range p.cache {
		snap.Events = append(snap.Events, e.Clone())
	}
	return snap
}

// FetchCalendars loads every calendar row and partitions it: calendars owned
// by the current user, and calendars owned by others that are public or
// firm-wide. Without an authenticated user both sets come back empty.
// Checked state is session-local and survives the refetch; new calendars
// start checked.
func (p *Planner) FetchCalendars(ctx context.Context) error {
	userID := auth.UserID(ctx)
	if userID == "" {
		p.mu.Lock()
		p.myCalendars = []model.Calendar{}
		p.otherCalendars = []model.Calendar{}
		p.mu.Unlock()
		return nil
	}

	p.setLoading(true)
	defer p.setLoading(false)

	all, err := p.calendars.List()
	if err != nil {
		p.mu.Lock()
		p.myCalendars = []model.Calendar{}
		p.otherCalendars = []model.Calendar{}
		p.lastErr = &model.RemoteError{Op: "fetch calendars", Err: err}
		p.mu.Unlock()
		p.logger.Error("fetch calendars failed", "error", err)
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	checked := make(map[string]bool)
	for _, c := range append(p.myCalendars, p.otherCalendars...) {
		checked[c.ID] = c.Checked
	}

	mine := []model.Calendar{}
	other := []model.Calendar{}
	for _, c := range all {
		if was, ok := checked[c.ID]; ok {
			c.Checked = was
		} else {
			c.Checked = true
		}
		switch {
		case c.OwnedBy(userID):
			mine = append(mine, c)
		case c.SharedVisible():
			other = append(other, c)
		}
	}
	p.myCalendars = mine
	p.otherCalendars = other
	p.lastErr = nil
	return nil
}

// FetchEvents loads every event row, maps it to the domain shape, and merges
// each event's attendees, reminder, and documents. A failed read degrades to
// an empty collection with the error recorded.
func (p *Planner) FetchEvents(ctx context.Context) error {
	if auth.UserID(ctx) == "" {
		p.mu.Lock()
		p.cache = []model.Event{}
		p.mu.Unlock()
		return nil
	}

	p.setLoading(true)
	defer p.setLoading(false)

	rows, err := p.events.List()
	if err != nil {
		p.failFetch("fetch events", err)
		return nil
	}

	typeCache := make(map[string]store.TypeInfo)
	typeByID := func(id string) (store.TypeInfo, bool) {
		if info, ok := typeCache[id]; ok {
			return info, ok
		}
		et, err := p.types.GetByID(id)
		if err != nil || et == nil {
			return store.TypeInfo{}, false
		}
		info := store.TypeInfo{Name: et.Name, Color: et.Color}
		typeCache[id] = info
		return info, true
	}

	colors := p.calendarColors()
	calendarColor := func(id string) (string, bool) {
		color, ok := colors[id]
		return color, ok
	}

	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		e, err := store.ToDomain(row, typeByID, calendarColor)
		if err != nil {
			p.failFetch("map event", err)
			return nil
		}
		if e.Attendees, err = p.satellites.Attendees(e.ID); err != nil {
			p.failFetch("fetch attendees", err)
			return nil
		}
		if e.Reminder, err = p.satellites.Reminder(e.ID); err != nil {
			p.failFetch("fetch reminder", err)
			return nil
		}
		if e.Documents, err = p.satellites.Documents(e.ID); err != nil {
			p.failFetch("fetch documents", err)
			return nil
		}
		events = append(events, e)
	}

	p.mu.Lock()
	p.cache = events
	p.lastErr = nil
	p.mu.Unlock()
	return nil
}

func (p *Planner) failFetch(op string, err error) {
	p.mu.Lock()
	p.cache = []model.Event{}
	p.lastErr = &model.RemoteError{Op: op, Err: err}
	p.mu.Unlock()
	p.logger.Error("fetch degraded to empty", "op", op, "error", err)
}

func (p *Planner) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
}

func (p *Planner) calendarColors() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	colors := make(map[string]string, len(p.myCalendars)+len(p.otherCalendars))
	for _, c := range p.myCalendars {
		colors[c.ID] = c.Color
	}
	for _, c := range p.otherCalendars {
		colors[c.ID] = c.Color
	}
	return colors
}

// SetCalendarChecked flips the session-local visibility toggle. Returns false
// when the calendar is not in either cached set.
func (p *Planner) SetCalendarChecked(id string, checked bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.myCalendars {
		if p.myCalendars[i].ID == id {
			p.myCalendars[i].Checked = checked
			return true
		}
	}
	for i := range p.otherCalendars {
		if p.otherCalendars[i].ID == id {
			p.otherCalendars[i].Checked = checked
			return true
		}
	}
	return false
}

// CreateCalendar creates a calendar owned by the current user. The cache is
// updated before the write; a failed write leaves the optimistic entry in
// place and reports persisted=false.
func (p *Planner) CreateCalendar(ctx context.Context, c model.Calendar) (*model.Calendar, model.MutationResult, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, model.MutationResult{}, model.ErrUnauthenticated
	}
	if c.Name == "" {
		return nil, model.MutationResult{}, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	c.ID = uuid.NewString()
	c.OwnerID = userID
	c.Checked = true

	p.mu.Lock()
	p.myCalendars = append(p.myCalendars, c)
	p.mu.Unlock()

	created, err := p.calendars.Create(c)
	if err != nil {
		rerr := &model.RemoteError{Op: "create calendar", Err: err}
		p.recordErr(rerr)
		return &c, model.MutationResult{Applied: true}, rerr
	}
	created.Checked = true
	p.notify("calendar", "created", created.ID)
	return created, model.MutationResult{Applied: true, Persisted: true}, nil
}

func (p *Planner) UpdateCalendar(ctx context.Context, c model.Calendar) (*model.Calendar, model.MutationResult, error) {
	if auth.UserID(ctx) == "" {
		return nil, model.MutationResult{}, model.ErrUnauthenticated
	}
	if err := store.ValidateID("id", c.ID); err != nil {
		return nil, model.MutationResult{}, err
	}

	p.mu.Lock()
	replaceCalendar(p.myCalendars, c)
	replaceCalendar(p.otherCalendars, c)
	p.mu.Unlock()

	updated, err := p.calendars.Update(c)
	if err != nil {
		rerr := &model.RemoteError{Op: "update calendar", Err: err}
		p.recordErr(rerr)
		return &c, model.MutationResult{Applied: true}, rerr
	}
	updated.Checked = c.Checked
	p.notify("calendar", "updated", c.ID)
	return updated, model.MutationResult{Applied: true, Persisted: true}, nil
}

// DeleteCalendar removes the calendar and, mirroring the storage cascade,
// drops its cached events too.
func (p *Planner) DeleteCalendar(ctx context.Context, id string) (model.MutationResult, error) {
	if auth.UserID(ctx) == "" {
		return model.MutationResult{}, model.ErrUnauthenticated
	}
	if err := store.ValidateID("id", id); err != nil {
		return model.MutationResult{}, err
	}

	p.mu.Lock()
	p.myCalendars = filterCalendars(p.myCalendars, id)
	p.otherCalendars = filterCalendars(p.otherCalendars, id)
	kept := p.cache[:0]
	for _, e := range p.cache {
		if e.CalendarID != id {
			kept = append(kept, e)
		}
	}
	p.cache = kept
	p.mu.Unlock()

	if err := p.calendars.Delete(id); err != nil {
		rerr := &model.RemoteError{Op: "delete calendar", Err: err}
		p.recordErr(rerr)
		return model.MutationResult{Applied: true}, rerr
	}
	p.notify("calendar", "deleted", id)
	return model.MutationResult{Applied: true, Persisted: true}, nil
}

// CreateEvent validates, applies the event to the cache, writes the primary
// row, then reconciles the satellite collections. Satellite failures are
// logged and never fail the create.
func (p *Planner) CreateEvent(ctx context.Context, e model.Event) (*model.Event, model.MutationResult, error) {
	if auth.UserID(ctx) == "" {
		return nil, model.MutationResult{}, model.ErrUnauthenticated
	}
	e.NormalizeAllDay()
	if err := store.ValidateEventForCreate(e); err != nil {
		return nil, model.MutationResult{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	p.mu.Lock()
	p.cache = append(p.cache, e.Clone())
	p.mu.Unlock()

	if e.Type != "" && e.TypeID == "" {
		id, err := p.types.Resolve(e.Type, e.Color)
		if err != nil {
			return p.failEventWrite(e, "resolve event type", err)
		}
		e.TypeID = id
	}

	row, err := store.ToRow(e)
	if err != nil {
		return p.failEventWrite(e, "map event", err)
	}
	if _, err := p.events.Create(row); err != nil {
		return p.failEventWrite(e, "create event", err)
	}

	p.reconcileSatellites(e)
	p.notify("event", "created", e.ID)
	return &e, model.MutationResult{Applied: true, Persisted: true}, nil
}

// UpdateEvent prefers an already-known type id over a fresh name lookup; the
// literal type name "default" clears the type entirely.
func (p *Planner) UpdateEvent(ctx context.Context, e model.Event) (*model.Event, model.MutationResult, error) {
	if auth.UserID(ctx) == "" {
		return nil, model.MutationResult{}, model.ErrUnauthenticated
	}
	e.NormalizeAllDay()
	if err := store.ValidateEventForUpdate(e); err != nil {
		return nil, model.MutationResult{}, err
	}

	p.mu.Lock()
	replaceEvent(p.cache, e)
	p.mu.Unlock()

	switch {
	case e.Type == "default":
		e.TypeID = ""
	case e.TypeID != "":
		// keep the known id
	case e.Type != "":
		id, err := p.types.Resolve(e.Type, e.Color)
		if err != nil {
			return p.failEventWrite(e, "resolve event type", err)
		}
		e.TypeID = id
	}

	row, err := store.ToRow(e)
	if err != nil {
		return p.failEventWrite(e, "map event", err)
	}
	if _, err := p.events.Update(row); err != nil {
		return p.failEventWrite(e, "update event", err)
	}

	p.reconcileSatellites(e)
	p.notify("event", "updated", e.ID)
	return &e, model.MutationResult{Applied: true, Persisted: true}, nil
}

// DeleteEvent removes satellite rows explicitly before the primary row rather
// than relying on the cascade alone.
func (p *Planner) DeleteEvent(ctx context.Context, id string) (model.MutationResult, error) {
	if auth.UserID(ctx) == "" {
		return model.MutationResult{}, model.ErrUnauthenticated
	}
	if err := store.ValidateID("id", id); err != nil {
		return model.MutationResult{}, err
	}

	p.mu.Lock()
	kept := p.cache[:0]
	for _, e := range p.cache {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	p.cache = kept
	p.mu.Unlock()

	if err := p.satellites.DeleteAll(id); err != nil {
		rerr := &model.RemoteError{Op: "delete event satellites", Err: err}
		p.recordErr(rerr)
		return model.MutationResult{Applied: true}, rerr
	}
	if err := p.events.Delete(id); err != nil {
		rerr := &model.RemoteError{Op: "delete event", Err: err}
		p.recordErr(rerr)
		return model.MutationResult{Applied: true}, rerr
	}
	p.notify("event", "deleted", id)
	return model.MutationResult{Applied: true, Persisted: true}, nil
}

func (p *Planner) failEventWrite(e model.Event, op string, err error) (*model.Event, model.MutationResult, error) {
	rerr := &model.RemoteError{Op: op, Err: err}
	p.recordErr(rerr)
	return &e, model.MutationResult{Applied: true}, rerr
}

func (p *Planner) reconcileSatellites(e model.Event) {
	if err := p.satellites.ReconcileAttendees(e.ID, e.Attendees); err != nil {
		p.logger.Error("attendee reconcile failed", "event_id", e.ID, "error", err)
	}
	if err := p.satellites.ReconcileReminder(e.ID, e.Reminder); err != nil {
		p.logger.Error("reminder reconcile failed", "event_id", e.ID, "error", err)
	}
	if err := p.satellites.ReconcileDocuments(e.ID, e.Documents); err != nil {
		p.logger.Error("document reconcile failed", "event_id", e.ID, "error", err)
	}
}

func (p *Planner) recordErr(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

func replaceCalendar(cals []model.Calendar, c model.Calendar) {
	for i := range cals {
		if cals[i].ID == c.ID {
			c.Checked = cals[i].Checked
			cals[i] = c
			return
		}
	}
}

func filterCalendars(cals []model.Calendar, id string) []model.Calendar {
	kept := cals[:0]
	for _, c := range cals {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return kept
}

func replaceEvent(events []model.Event, e model.Event) {
	for i := range events {
		if events[i].ID == e.ID {
			events[i] = e.Clone()
			return
		}
	}
}
