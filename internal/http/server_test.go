package http

import (
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/persistence"
	"expensetracker/internal/persistence/memory"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }

// failingStore fails whichever operations are flagged. fetchErrAfterWrite
// starts failing fetches once an add or delete has succeeded.
type failingStore struct {
	*memory.Store
	fetchErr           error
	addErr             error
	deleteErr          error
	fetchErrAfterWrite error
}

func (f *failingStore) FetchExpenses(ctx context.Context) ([]core.Expense, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.Store.FetchExpenses(ctx)
}

func (f *failingStore) AddExpense(ctx context.Context, e core.NewExpense) (int64, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	id, err := f.Store.AddExpense(ctx, e)
	if err == nil && f.fetchErrAfterWrite != nil {
		f.fetchErr = f.fetchErrAfterWrite
	}
	return id, err
}

func (f *failingStore) DeleteExpense(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	err := f.Store.DeleteExpense(ctx, id)
	if err == nil && f.fetchErrAfterWrite != nil {
		f.fetchErr = f.fetchErrAfterWrite
	}
	return err
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func seededStore() *memory.Store {
	return memory.NewWithRecords([]core.Expense{
		{ID: 1, Date: "2024-01-05", Category: "Food", Amount: "12.50", Description: "Lunch"},
		{ID: 2, Date: "2024-01-06", Category: "Bills", Amount: "40", Description: "Power"},
	})
}

func newTestServer(store persistence.Collaborator) *Server {
	return NewServer(":0", store, WithClock(fixedNow), WithLogger(quietLogger()))
}

func postForm(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestIndexRendersRecords(t *testing.T) {
	srv := newTestServer(seededStore())

	rr := get(srv.Handler, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"<title>Expense Tracker App</title>",
		"<td>2024-01-05</td>", "<td>Food</td>", "<td>12.50</td>", "<td>Lunch</td>",
		`value="2024-03-05"`,
		"2 expenses, total 52.50",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
}

func TestIndexUsesWindowTitle(t *testing.T) {
	srv := NewServer(":0", memory.New(), WithLogger(quietLogger()),
		WithWindow(Window{Title: "Household", Width: 800, Height: 600}))

	body := get(srv.Handler, "/").Body.String()
	if !strings.Contains(body, "<title>Household</title>") {
		t.Fatalf("title not rendered")
	}
	if !strings.Contains(body, `data-width="800"`) {
		t.Fatalf("window width not rendered")
	}
}

func TestIndexFetchFailureStillRenders(t *testing.T) {
	srv := newTestServer(&failingStore{Store: memory.New(), fetchErr: errors.New("db down")})

	rr := get(srv.Handler, "/")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Failed to load expenses") {
		t.Fatalf("missing error dialog")
	}
}

func TestAddExpense(t *testing.T) {
	store := seededStore()
	srv := newTestServer(store)

	rr := postForm(t, srv.Handler, "/expenses", url.Values{
		"date":        {"2024-02-01"},
		"category":    {"Rent"},
		"amount":      {"900"},
		"description": {"February"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("add status=%d body=%s", rr.Code, rr.Body.String())
	}

	records, _ := store.FetchExpenses(context.Background())
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	got := records[2]
	if got.Date != "2024-02-01" || got.Category != "Rent" || got.Amount != "900" || got.Description != "February" {
		t.Fatalf("stored %+v", got)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "<td>February</td>") {
		t.Errorf("new row not rendered")
	}
	// Inputs reset after a successful add
	if !strings.Contains(body, `id="amount" name="amount" type="text" inputmode="decimal" value=""`) {
		t.Errorf("amount not cleared")
	}
	if !strings.Contains(body, `value="2024-03-05"`) {
		t.Errorf("date not reset to today")
	}
	if got := testutil.ToFloat64(srv.metrics.expensesAdded); got != 1 {
		t.Errorf("expenses_added_total=%v, want 1", got)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		message string
	}{
		{
			name:    "empty amount",
			values:  url.Values{"category": {"Food"}, "amount": {""}, "description": {"Lunch"}},
			message: "Amount and Description cannot be empty",
		},
		{
			name:    "empty description",
			values:  url.Values{"category": {"Food"}, "amount": {"5"}, "description": {""}},
			message: "Amount and Description cannot be empty",
		},
		{
			name:    "bad date",
			values:  url.Values{"date": {"05/03/2024"}, "category": {"Food"}, "amount": {"5"}, "description": {"x"}},
			message: "Date must be in YYYY-MM-DD format",
		},
		{
			name:    "unknown category",
			values:  url.Values{"category": {"Travel"}, "amount": {"5"}, "description": {"x"}},
			message: "Unknown category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			srv := newTestServer(store)

			rr := postForm(t, srv.Handler, "/expenses", tt.values)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d, want 422", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.message) {
				t.Errorf("body missing %q", tt.message)
			}
			records, _ := store.FetchExpenses(context.Background())
			if len(records) != 2 {
				t.Errorf("records=%d, want 2", len(records))
			}
			if got := testutil.ToFloat64(srv.metrics.formRejections.WithLabelValues(applog.OpAdd, applog.ErrorTypeValidation)); got != 1 {
				t.Errorf("form_rejections_total=%v, want 1", got)
			}
		})
	}
}

func TestAddExpenseStoresTextAsTyped(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		description string
	}{
		{"surrounding spaces", " 12.50 ", "  Lunch "},
		{"whitespace only amount", "   ", "Tip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			srv := newTestServer(store)

			rr := postForm(t, srv.Handler, "/expenses", url.Values{
				"date":        {"2024-02-01"},
				"category":    {"Food"},
				"amount":      {tt.amount},
				"description": {tt.description},
			})
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d, want 200", rr.Code)
			}
			records, _ := store.FetchExpenses(context.Background())
			if len(records) != 1 {
				t.Fatalf("records=%d, want 1", len(records))
			}
			if records[0].Amount != tt.amount || records[0].Description != tt.description {
				t.Errorf("stored amount=%q description=%q, want %q %q",
					records[0].Amount, records[0].Description, tt.amount, tt.description)
			}
		})
	}
}

func TestAddExpenseRefreshFailureCountsAdd(t *testing.T) {
	store := &failingStore{Store: memory.New(), fetchErrAfterWrite: errors.New("db gone")}
	srv := newTestServer(store)

	rr := postForm(t, srv.Handler, "/expenses", url.Values{
		"category": {"Food"}, "amount": {"4"}, "description": {"Bread"},
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	if got := testutil.ToFloat64(srv.metrics.expensesAdded); got != 1 {
		t.Errorf("expenses_added_total=%v, want 1", got)
	}
	if n := testutil.CollectAndCount(srv.metrics.formRejections); n != 0 {
		t.Errorf("form_rejections_total has %d series, want 0", n)
	}
}

func TestAddExpenseKeepsInputsOnFailure(t *testing.T) {
	srv := newTestServer(&failingStore{Store: memory.New(), addErr: errors.New("disk full")})

	rr := postForm(t, srv.Handler, "/expenses", url.Values{
		"date":        {"2024-02-01"},
		"category":    {"Bills"},
		"amount":      {"33"},
		"description": {"Water"},
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Failed to add expense") {
		t.Errorf("missing error dialog")
	}
	if !strings.Contains(body, `value="Water"`) || !strings.Contains(body, `value="33"`) {
		t.Errorf("posted inputs not preserved")
	}
	if !strings.Contains(body, `<option value="Bills" selected>`) {
		t.Errorf("posted category not preserved")
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	store := seededStore()
	srv := newTestServer(store)

	rr := postForm(t, srv.Handler, "/expenses/delete", url.Values{"selected": {"1"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Are you sure you want to delete this expense?") {
		t.Fatalf("confirm dialog not rendered")
	}
	if !strings.Contains(body, `<input type="hidden" name="selected" value="1">`) {
		t.Errorf("confirm form does not carry the selection")
	}
	records, _ := store.FetchExpenses(context.Background())
	if len(records) != 2 {
		t.Fatalf("deleted before confirmation")
	}
	if n := testutil.CollectAndCount(srv.metrics.formRejections); n != 0 {
		t.Errorf("asking for confirmation recorded %d rejection series", n)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	store := seededStore()
	srv := newTestServer(store)

	rr := postForm(t, srv.Handler, "/expenses/delete", url.Values{"selected": {"1"}, "confirm": {"yes"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	records, _ := store.FetchExpenses(context.Background())
	if len(records) != 1 || records[0].ID != 2 {
		t.Fatalf("records after delete = %+v", records)
	}
	if strings.Contains(rr.Body.String(), "<td>Lunch</td>") {
		t.Errorf("deleted row still rendered")
	}
	if got := testutil.ToFloat64(srv.metrics.expensesDeleted); got != 1 {
		t.Errorf("expenses_deleted_total=%v, want 1", got)
	}
}

func TestDeleteDeclined(t *testing.T) {
	store := seededStore()
	srv := newTestServer(store)

	rr := postForm(t, srv.Handler, "/expenses/delete", url.Values{"selected": {"1"}, "confirm": {"no"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	records, _ := store.FetchExpenses(context.Background())
	if len(records) != 2 {
		t.Fatalf("declined delete removed a record")
	}
	if strings.Contains(rr.Body.String(), "Are you sure") {
		t.Errorf("question asked again after an answer")
	}
}

func TestDeleteRejected(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{"no selection", url.Values{"confirm": {"yes"}}},
		{"unknown id", url.Values{"selected": {"99"}, "confirm": {"yes"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			srv := newTestServer(store)

			rr := postForm(t, srv.Handler, "/expenses/delete", tt.values)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d, want 422", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "Please select a row to delete.") {
				t.Errorf("missing selection warning")
			}
			records, _ := store.FetchExpenses(context.Background())
			if len(records) != 2 {
				t.Errorf("records=%d, want 2", len(records))
			}
		})
	}
}

func TestDeletePersistenceFailure(t *testing.T) {
	srv := newTestServer(&failingStore{Store: seededStore(), deleteErr: errors.New("locked")})

	rr := postForm(t, srv.Handler, "/expenses/delete", url.Values{"selected": {"2"}, "confirm": {"yes"}})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Failed to delete expense") {
		t.Errorf("missing error dialog")
	}
	if !strings.Contains(body, `value="2" aria-label="Select expense 2" checked`) {
		t.Errorf("row selection not kept after failure")
	}
}

func TestDeleteRefreshFailureCountsDelete(t *testing.T) {
	store := &failingStore{Store: seededStore(), fetchErrAfterWrite: errors.New("db gone")}
	srv := newTestServer(store)

	rr := postForm(t, srv.Handler, "/expenses/delete", url.Values{"selected": {"1"}, "confirm": {"yes"}})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Failed to load expenses") {
		t.Errorf("missing reload error dialog")
	}
	records, _ := store.Store.FetchExpenses(context.Background())
	if len(records) != 1 {
		t.Fatalf("records=%d, want 1", len(records))
	}
	if got := testutil.ToFloat64(srv.metrics.expensesDeleted); got != 1 {
		t.Errorf("expenses_deleted_total=%v, want 1", got)
	}
	if n := testutil.CollectAndCount(srv.metrics.formRejections); n != 0 {
		t.Errorf("form_rejections_total has %d series, want 0", n)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(seededStore())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(srv.Handler, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s content type=%q", path, ct)
		}
	}
}

func TestReadyFailsWhenStoreDown(t *testing.T) {
	srv := newTestServer(&failingStore{Store: memory.New(), fetchErr: errors.New("db down")})

	rr := get(srv.Handler, "/readyz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "db down") {
		t.Errorf("readiness body does not report the failure")
	}
}

func TestTemplateNotLoaded(t *testing.T) {
	srv := NewServer(":0", memory.New(), WithLogger(quietLogger()), WithTemplates(nil))

	if rr := get(srv.Handler, "/"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("index status=%d, want 500", rr.Code)
	}
	if rr := get(srv.Handler, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
}

func TestTemplateExecutionError(t *testing.T) {
	broken := template.Must(template.New("index.html").Parse(`{{.Missing.Field}}`))
	srv := NewServer(":0", memory.New(), WithLogger(quietLogger()), WithTemplates(broken))

	if rr := get(srv.Handler, "/"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := newTestServer(seededStore())

	rr := get(srv.Handler, "/")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("missing security headers")
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "form-action 'self'") {
		t.Errorf("unexpected CSP %q", csp)
	}

	metrics := get(srv.Handler, "/metrics")
	if metrics.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", metrics.Code)
	}
	if !strings.Contains(metrics.Body.String(), `expense_tracker_http_request_duration_seconds_count{route="GET /{$}",status="200"} 1`) {
		t.Errorf("request duration not recorded:\n%s", metrics.Body.String())
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(memory.New())

	rr := get(srv.Handler, "/static/style.css")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Cache-Control=%q", cc)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(memory.New())
	if rr := get(srv.Handler, "/nope"); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rr.Code)
	}
}
