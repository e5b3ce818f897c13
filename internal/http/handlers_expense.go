package http

import (
	"net/http"
	"strings"
	"time"

	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/services"
)

// expenseRequest is the body of both create and update. Absent fields stay nil.
type expenseRequest struct {
	Amount      *core.Money `json:"amount"`
	Category    *string     `json:"category"`
	Description *string     `json:"description"`
	Date        *string     `json:"date"`
}

func (req expenseRequest) date() (*time.Time, error) {
	if req.Date == nil || strings.TrimSpace(*req.Date) == "" {
		return nil, nil
	}
	t, err := ParseDate("date", *req.Date)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (req expenseRequest) input() (services.ExpenseInput, error) {
	var in services.ExpenseInput
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.Category != nil {
		in.Category = core.Category(strings.TrimSpace(*req.Category))
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	date, err := req.date()
	if err != nil {
		return services.ExpenseInput{}, err
	}
	in.Date = date
	return in, nil
}

func (req expenseRequest) patch() (services.ExpensePatch, error) {
	p := services.ExpensePatch{Amount: req.Amount, Description: req.Description}
	if req.Category != nil {
		c := core.Category(strings.TrimSpace(*req.Category))
		p.Category = &c
	}
	date, err := req.date()
	if err != nil {
		return services.ExpensePatch{}, err
	}
	p.Date = date
	return p, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error creating expense")
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err, "Error creating expense")
		return
	}
	e, err := s.expenses.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err, "Error creating expense")
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		applog.FieldUserID, e.UserID,
		applog.FieldExpenseID, e.ID,
		applog.FieldCategory, e.Category,
		applog.FieldAmountCents, e.Amount.Cents)
	writeSuccess(w, http.StatusCreated, "Expense created successfully", map[string]any{"expense": e})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := ParseExpenseFilter(r.URL.Query(), true)
	if err != nil {
		writeError(w, r, err, "Error fetching expenses")
		return
	}
	page, err := s.expenses.List(r.Context(), userID(r), f)
	if err != nil {
		writeError(w, r, err, "Error fetching expenses")
		return
	}
	writeSuccess(w, http.StatusOK, "", page)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Error fetching expense")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"expense": e})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "Error updating expense")
		return
	}
	p, err := req.patch()
	if err != nil {
		writeError(w, r, err, "Error updating expense")
		return
	}
	e, err := s.expenses.Update(r.Context(), userID(r), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err, "Error updating expense")
		return
	}
	writeSuccess(w, http.StatusOK, "Expense updated successfully", map[string]any{"expense": e})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Error deleting expense")
		return
	}
	writeSuccess(w, http.StatusOK, "Expense deleted successfully", nil)
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "Error fetching expense summary")
		return
	}
	summary, err := s.engine.Summary(r.Context(), userID(r), rng.Start, rng.End)
	if err != nil {
		writeError(w, r, err, "Error fetching expense summary")
		return
	}
	writeSuccess(w, http.StatusOK, "", summary)
}
