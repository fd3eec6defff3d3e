package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mwhitlock/lexcal/internal/auth"
	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/planner"
)

// authedContext returns a context for one user; reuse it across requests in a
// test so calendar ownership stays consistent.
func authedContext() context.Context {
	return auth.WithAuth(context.Background(), auth.AuthContext{UserID: uuid.NewString(), SessionID: 1})
}

func authedRequest(ctx context.Context, method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(ctx)
}

func newAPIHandlers(t *testing.T) (*CalendarHandler, *EventHandler, *ScheduleHandler) {
	t.Helper()
	db := setupHandlerDB(t)
	p := planner.New(db, testLogger())
	return NewCalendarHandler(p, testLogger()),
		NewEventHandler(p, testLogger()),
		NewScheduleHandler(p, testLogger())
}

func TestCalendarCreateAndToggle(t *testing.T) {
	calH, _, _ := newAPIHandlers(t)
	ctx := authedContext()

	rec := httptest.NewRecorder()
	calH.Create(rec, authedRequest(ctx, http.MethodPost, "/api/calendars", `{"name":"Litigation","color":"#ef4444"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	var created model.Calendar
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || !created.Checked {
		t.Fatalf("created = %+v, want id and checked", created)
	}

	req := authedRequest(ctx, http.MethodPut, "/api/calendars/"+created.ID+"/checked", `{"checked":false}`)
	req.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	calH.SetChecked(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rec.Code, rec.Body.String())
	}

	req = authedRequest(ctx, http.MethodPut, "/api/calendars/"+uuid.NewString()+"/checked", `{"checked":true}`)
	req.SetPathValue("id", uuid.NewString())
	rec = httptest.NewRecorder()
	calH.SetChecked(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("toggle unknown id status = %d, want 404", rec.Code)
	}
}

func TestCalendarCreateUnauthenticated(t *testing.T) {
	calH, _, _ := newAPIHandlers(t)

	rec := httptest.NewRecorder()
	calH.Create(rec, httptest.NewRequest(http.MethodPost, "/api/calendars", strings.NewReader(`{"name":"X"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestEventCreateValidationMapsTo400(t *testing.T) {
	calH, eventH, _ := newAPIHandlers(t)
	ctx := authedContext()

	rec := httptest.NewRecorder()
	calH.Create(rec, authedRequest(ctx, http.MethodPost, "/api/calendars", `{"name":"General"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create calendar status = %d", rec.Code)
	}

	// Missing title and times
	rec = httptest.NewRecorder()
	eventH.Create(rec, authedRequest(ctx, http.MethodPost, "/api/events", `{"calendar_id":"`+uuid.NewString()+`"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestEventCreateAndList(t *testing.T) {
	calH, eventH, _ := newAPIHandlers(t)
	ctx := authedContext()

	rec := httptest.NewRecorder()
	calH.Create(rec, authedRequest(ctx, http.MethodPost, "/api/calendars", `{"name":"General"}`))
	var cal model.Calendar
	if err := json.Unmarshal(rec.Body.Bytes(), &cal); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}

	body := `{"calendar_id":"` + cal.ID + `","title":"Deposition prep",` +
		`"start":"2024-06-03T14:00:00Z","end":"2024-06-03T15:00:00Z"}`
	rec = httptest.NewRecorder()
	eventH.Create(rec, authedRequest(ctx, http.MethodPost, "/api/events", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	eventH.List(rec, authedRequest(ctx, http.MethodGet, "/api/events", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var events []model.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Deposition prep" {
		t.Errorf("events = %+v, want one deposition prep", events)
	}
}

func TestScheduleValidatesRange(t *testing.T) {
	_, _, schedH := newAPIHandlers(t)
	ctx := authedContext()

	rec := httptest.NewRecorder()
	schedH.Get(rec, authedRequest(ctx, http.MethodGet, "/api/schedule?start=not-a-time&end=2024-06-30T00:00:00Z", ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad start status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	schedH.Get(rec, authedRequest(ctx, http.MethodGet, "/api/schedule?start=2024-06-30T00:00:00Z&end=2024-06-01T00:00:00Z", ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d, want 400", rec.Code)
	}
}

func TestScheduleExpandsWithinRange(t *testing.T) {
	calH, eventH, schedH := newAPIHandlers(t)
	ctx := authedContext()

	rec := httptest.NewRecorder()
	calH.Create(rec, authedRequest(ctx, http.MethodPost, "/api/calendars", `{"name":"General"}`))
	var cal model.Calendar
	if err := json.Unmarshal(rec.Body.Bytes(), &cal); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}

	body := `{"calendar_id":"` + cal.ID + `","title":"Weekly review",` +
		`"start":"2024-06-03T09:00:00Z","end":"2024-06-03T09:30:00Z",` +
		`"is_recurring":true,"recurrence_pattern":{"frequency":"weekly","interval":1,"occurrences":3}}`
	rec = httptest.NewRecorder()
	eventH.Create(rec, authedRequest(ctx, http.MethodPost, "/api/events", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	schedH.Get(rec, authedRequest(ctx, http.MethodGet,
		"/api/schedule?start=2024-06-01T00:00:00Z&end=2024-06-30T00:00:00Z", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule status = %d: %s", rec.Code, rec.Body.String())
	}
	var events []model.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("got %d instances, want 3", len(events))
	}
}
