package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/form"
	applog "expensetracker/internal/log"
)

// readyTimeout bounds the collaborator probe in /readyz.
const readyTimeout = 10 * time.Second

// page is the view model for index.html.
type page struct {
	Window           Window
	Categories       []string
	Inputs           form.Inputs
	SelectedCategory string
	Headers          []string
	Rows             [][]string
	Selected         string
	Dialogs          []Dialog
	Confirm          *Dialog
	Summary          core.Summary
}

func (s *Server) newForm(d form.Dialogs) *form.Form {
	return form.New(s.store, d, form.WithClock(s.now))
}

// handleIndex renders a fresh form over the current records.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	dialogs := newPageDialogs(Unanswered)
	f := s.newForm(dialogs)

	status := http.StatusOK
	if err := s.refresh(r, f, dialogs); err != nil {
		status = http.StatusInternalServerError
	}
	s.render(w, r, status, f, dialogs, "")
}

// handleAddExpense submits the posted inputs. The page is re-rendered in all
// cases: cleared after a successful add, with the posted values otherwise.
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req := parseAddRequest(r)

	dialogs := newPageDialogs(Unanswered)
	f := s.newForm(dialogs)
	if err := s.refresh(r, f, dialogs); err != nil {
		s.render(w, r, http.StatusInternalServerError, f, dialogs, "")
		return
	}

	f.SetInputs(req.Inputs)
	f.SetCategory(req.Category)
	submitted := f.Inputs()

	err := f.SubmitAdd(r.Context())
	status := s.recordOutcome(r, applog.OpAdd, err, dialogs)
	if err == nil || errors.Is(err, form.ErrRefresh) {
		s.metrics.expensesAdded.Inc()
		applog.FromRequest(r).LogExpenseAdded(r.Context(), submitted.Date, req.Category, submitted.Amount)
	}
	s.render(w, r, status, f, dialogs, "")
}

// handleDeleteExpense selects the posted row and deletes it once the user
// has confirmed. Without a confirm answer the page asks the question.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req := parseDeleteRequest(r)

	dialogs := newPageDialogs(req.Answer)
	f := s.newForm(dialogs)
	if err := s.refresh(r, f, dialogs); err != nil {
		s.render(w, r, http.StatusInternalServerError, f, dialogs, "")
		return
	}

	if req.Selected != "" {
		f.Table().SelectByKey(req.Selected)
	}

	err := f.SubmitDelete(r.Context())
	if dialogs.Pending() != nil {
		// First step of every delete: the question is shown, nothing was refused.
		s.render(w, r, http.StatusOK, f, dialogs, req.Selected)
		return
	}
	status := s.recordOutcome(r, applog.OpDelete, err, dialogs)

	selected := ""
	switch {
	case err == nil || errors.Is(err, form.ErrRefresh):
		s.metrics.expensesDeleted.Inc()
		id, _ := strconv.ParseInt(req.Selected, 10, 64)
		applog.FromRequest(r).LogExpenseDeleted(r.Context(), id)
	case core.IsPersistence(err):
		// A failed delete keeps the row selected so the user can retry.
		selected = req.Selected
	}
	s.render(w, r, status, f, dialogs, selected)
}

// refresh loads the table. A failure keeps the page usable with an empty
// table and an error dialog.
func (s *Server) refresh(r *http.Request, f *form.Form, dialogs *pageDialogs) error {
	if err := f.RefreshTable(r.Context()); err != nil {
		applog.FromRequest(r).LogError(r.Context(), "Failed to load expenses", err,
			applog.ComponentForm, applog.OpRefresh, nil)
		dialogs.Critical("Error", "Failed to load expenses")
		return err
	}
	return nil
}

// recordOutcome maps a form error to an HTTP status and records the
// rejection in logs and metrics.
func (s *Server) recordOutcome(r *http.Request, op string, err error, dialogs *pageDialogs) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, form.ErrRefresh) {
		// The change is stored; only the reload failed.
		applog.FromRequest(r).LogError(r.Context(), "Failed to reload expenses", err,
			applog.ComponentForm, applog.OpRefresh, nil)
		dialogs.Critical("Error", "Failed to load expenses")
		return http.StatusInternalServerError
	}

	status, kind := classify(err)
	if kind == applog.ErrorTypeInternal {
		dialogs.Critical("Error", "Unexpected error")
	}
	s.metrics.formRejections.WithLabelValues(op, kind).Inc()

	sl := applog.FromRequest(r)
	if status >= http.StatusInternalServerError {
		sl.LogError(r.Context(), "Form action failed", err, applog.ComponentForm, op, nil)
	} else {
		sl.LogFormRejected(r.Context(), op, kind, err)
	}
	return status
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, form.ErrCancelled):
		return http.StatusOK, applog.ErrorTypeCancelled
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case core.IsPersistence(err):
		return http.StatusInternalServerError, applog.ErrorTypePersistence
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// render executes the page into a buffer so a template failure can still
// produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, f *form.Form, dialogs *pageDialogs, selected string) {
	if s.templates == nil {
		http.Error(w, "Template not loaded", http.StatusInternalServerError)
		return
	}

	rows := f.Table().Rows()
	in := f.Inputs()
	categories := f.CategoryOptions()
	selectedCategory := ""
	if in.Category >= 0 && in.Category < len(categories) {
		selectedCategory = categories[in.Category]
	}

	data := page{
		Window:           s.window,
		Categories:       categories,
		Inputs:           in,
		SelectedCategory: selectedCategory,
		Headers:          form.Headers,
		Rows:             rows,
		Selected:         selected,
		Dialogs:          dialogs.Shown(),
		Confirm:          dialogs.Pending(),
		Summary:          core.Summarize(rowsToExpenses(rows)),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromRequest(r).LogError(r.Context(), "Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender, nil)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// rowsToExpenses reads table rows back into records so the summary always
// matches what is displayed.
func rowsToExpenses(rows [][]string) []core.Expense {
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(form.Headers) {
			continue
		}
		id, _ := strconv.ParseInt(row[0], 10, 64)
		out = append(out, core.Expense{
			ID:          id,
			Date:        row[1],
			Category:    row[2],
			Amount:      row[3],
			Description: row[4],
		})
	}
	return out
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, err := s.store.FetchExpenses(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
