package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pawsuite/bookingrules/booking"
	"github.com/pawsuite/bookingrules/rules"
)

// fakeBookingStore is an in-memory BookingStore for handler tests.
type fakeBookingStore struct {
	bookings map[string]*booking.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*booking.Booking)}
}

func (s *fakeBookingStore) Add(b *booking.Booking) error {
	s.bookings[b.ID] = b
	return nil
}

func (s *fakeBookingStore) Get(id string) (*booking.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s not found", id)
	}
	return b, nil
}

func (s *fakeBookingStore) ListOpen() ([]*booking.Booking, error) {
	var open []*booking.Booking
	for _, b := range s.bookings {
		if b.Status != booking.StatusCompleted && b.Status != booking.StatusCancelled {
			open = append(open, b)
		}
	}
	return open, nil
}

func newTestServer(t *testing.T) (*Server, *fakeBookingStore, *rules.InMemoryExecutionLog) {
	t.Helper()

	engine, err := rules.NewEngine(rules.NewInMemoryRuleStore(), nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	bookings := newFakeBookingStore()
	execLog := rules.NewInMemoryExecutionLog()
	return NewServer(nil, engine, bookings, execLog), bookings, execLog
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d, want 200", rec.Code)
	}

	body := decode[map[string]string](t, rec)
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestCreateAndGetRule(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/rules", CreateRuleRequest{
		Name:   "High Value",
		Active: true,
		Conditions: []rules.RuleCondition{
			{Field: rules.FieldPrice, Operator: rules.OpGreaterThan, Value: "200"},
		},
		Actions: []rules.RuleAction{
			{Type: rules.ActionNotify, Parameters: map[string]string{"message": "big one"}},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule returned %d: %s", rec.Code, rec.Body.String())
	}

	created := decode[rules.BusinessRule](t, rec)
	if created.ID == "" {
		t.Fatal("created rule should carry a generated ID")
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get rule returned %d", rec.Code)
	}
	got := decode[rules.BusinessRule](t, rec)
	if got.Name != "High Value" {
		t.Errorf("Name = %q, want High Value", got.Name)
	}
}

func TestCreateRuleValidation(t *testing.T) {
	server, _, _ := newTestServer(t)

	testCases := []struct {
		name string
		req  CreateRuleRequest
	}{
		{"missing name", CreateRuleRequest{Active: true}},
		{
			"unknown field",
			CreateRuleRequest{Name: "Bad", Conditions: []rules.RuleCondition{
				{Field: rules.FieldRef("petName"), Operator: rules.OpEquals, Value: "Rex"},
			}},
		},
		{
			"unknown action",
			CreateRuleRequest{Name: "Bad", Actions: []rules.RuleAction{
				{Type: rules.ActionKind("escalate")},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, server, http.MethodPost, "/api/v1/rules", tc.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("create returned %d, want 400", rec.Code)
			}
		})
	}
}

func TestListRulesIncludesInactive(t *testing.T) {
	server, _, _ := newTestServer(t)

	for _, req := range []CreateRuleRequest{
		{Name: "On", Active: true},
		{Name: "Off", Active: false},
	} {
		if rec := doJSON(t, server, http.MethodPost, "/api/v1/rules", req); rec.Code != http.StatusCreated {
			t.Fatalf("create returned %d", rec.Code)
		}
	}

	rec := doJSON(t, server, http.MethodGet, "/api/v1/rules", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}

	body := decode[map[string][]*rules.BusinessRule](t, rec)
	if len(body["rules"]) != 2 {
		t.Errorf("listed %d rules, want 2 (inactive included)", len(body["rules"]))
	}
}

func TestUpdateAndDeleteRule(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/rules", CreateRuleRequest{Name: "Before", Active: true})
	created := decode[rules.BusinessRule](t, rec)

	rec = doJSON(t, server, http.MethodPut, "/api/v1/rules/"+created.ID, CreateRuleRequest{Name: "After", Active: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	got := decode[rules.BusinessRule](t, rec)
	if got.Name != "After" || got.Active {
		t.Errorf("update not applied: %+v", got)
	}

	rec = doJSON(t, server, http.MethodDelete, "/api/v1/rules/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete returned %d, want 404", rec.Code)
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/bookings", booking.Booking{
		ClientID:    "client-9",
		ServiceType: "Dog Walking",
		Price:       75,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create booking returned %d: %s", rec.Code, rec.Body.String())
	}

	created := decode[booking.Booking](t, rec)
	if created.ID == "" {
		t.Fatal("created booking should carry a generated ID")
	}
	if created.Status != booking.StatusPending {
		t.Errorf("Status = %q, want pending default", created.Status)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/bookings/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get booking returned %d", rec.Code)
	}
}

func TestCreateBookingRequiresFields(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/bookings", booking.Booking{Price: 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create returned %d, want 400", rec.Code)
	}
}

func TestEvaluateInlineBooking(t *testing.T) {
	server, _, execLog := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/rules", CreateRuleRequest{
		Name:   "Completed",
		Active: true,
		Conditions: []rules.RuleCondition{
			{Field: rules.FieldStatus, Operator: rules.OpEquals, Value: booking.StatusCompleted},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule returned %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodPost, "/api/v1/evaluate", EvaluateRequest{
		Booking: &booking.Booking{
			ID:          "booking-1",
			ClientID:    "client-9",
			ServiceType: "Dog Walking",
			Status:      booking.StatusCompleted,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate returned %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[EvaluateResponse](t, rec)
	if resp.BookingID != "booking-1" {
		t.Errorf("BookingID = %q", resp.BookingID)
	}
	if len(resp.Executions) != 1 || !resp.Executions[0].Result {
		t.Fatalf("expected one fired execution, got %+v", resp.Executions)
	}

	// Audit records landed in the log.
	persisted, err := execLog.ListByEntity("booking-1")
	if err != nil {
		t.Fatalf("ListByEntity failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Errorf("expected 1 persisted execution, got %d", len(persisted))
	}
}

func TestEvaluateStoredBooking(t *testing.T) {
	server, bookings, _ := newTestServer(t)

	if err := bookings.Add(&booking.Booking{
		ID:          "booking-2",
		ClientID:    "client-9",
		ServiceType: "Cat Sitting",
		Status:      booking.StatusApproved,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	rec := doJSON(t, server, http.MethodPost, "/api/v1/evaluate", EvaluateRequest{BookingID: "booking-2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate returned %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[EvaluateResponse](t, rec)
	if resp.BookingID != "booking-2" {
		t.Errorf("BookingID = %q", resp.BookingID)
	}
}

func TestEvaluateMissingBooking(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/evaluate", EvaluateRequest{BookingID: "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("evaluate returned %d, want 404", rec.Code)
	}
}

func TestEvaluateRequiresSubject(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/evaluate", EvaluateRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("evaluate returned %d, want 400", rec.Code)
	}
}

func TestListExecutionEndpoints(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/rules", CreateRuleRequest{Name: "Always", Active: true})
	rule := decode[rules.BusinessRule](t, rec)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/evaluate", EvaluateRequest{
		Booking: &booking.Booking{ID: "booking-3", ClientID: "c", ServiceType: "s"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate returned %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/bookings/booking-3/executions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("booking executions returned %d", rec.Code)
	}
	byBooking := decode[map[string][]*rules.RuleExecution](t, rec)
	if len(byBooking["executions"]) != 1 {
		t.Errorf("expected 1 execution for booking, got %d", len(byBooking["executions"]))
	}

	rec = doJSON(t, server, http.MethodGet, "/api/v1/rules/"+rule.ID+"/executions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rule executions returned %d", rec.Code)
	}
	byRule := decode[map[string][]*rules.RuleExecution](t, rec)
	if len(byRule["executions"]) != 1 {
		t.Errorf("expected 1 execution for rule, got %d", len(byRule["executions"]))
	}
}

func TestSweepEvaluatesOpenBookings(t *testing.T) {
	server, bookings, execLog := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/rules", CreateRuleRequest{Name: "Always", Active: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule returned %d", rec.Code)
	}

	for id, status := range map[string]string{
		"open-1":   booking.StatusPending,
		"open-2":   booking.StatusApproved,
		"closed-1": booking.StatusCompleted,
	} {
		if err := bookings.Add(&booking.Booking{ID: id, ClientID: "c", ServiceType: "s", Status: status}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	server.sweep()

	for _, id := range []string{"open-1", "open-2"} {
		execs, err := execLog.ListByEntity(id)
		if err != nil {
			t.Fatalf("ListByEntity failed: %v", err)
		}
		if len(execs) != 1 {
			t.Errorf("expected 1 execution for %s, got %d", id, len(execs))
		}
	}

	closed, err := execLog.ListByEntity("closed-1")
	if err != nil {
		t.Fatalf("ListByEntity failed: %v", err)
	}
	if len(closed) != 0 {
		t.Errorf("completed booking should not be swept, got %d executions", len(closed))
	}
}
