package http

import (
	"net/http"

	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/services"
)

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var in services.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "Error setting budget")
		return
	}
	b, created, err := s.budgets.Set(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err, "Error setting budget")
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Budget set",
		applog.FieldUserID, b.UserID,
		applog.FieldCategory, b.Category,
		applog.FieldMonth, b.Month,
		"created", created)
	if created {
		writeSuccess(w, http.StatusCreated, "Budget created successfully", map[string]any{"budget": b})
		return
	}
	writeSuccess(w, http.StatusOK, "Budget updated successfully", map[string]any{"budget": b})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err, "Error fetching budgets")
		return
	}
	budgets, err := s.budgets.List(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, err, "Error fetching budgets")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"budgets": budgets})
}

func (s *Server) handleCurrentMonthBudgets(w http.ResponseWriter, r *http.Request) {
	report, err := s.budgets.CurrentMonth(r.Context(), userID(r), s.now())
	if err != nil {
		writeError(w, r, err, "Error fetching current month budgets")
		return
	}
	writeSuccess(w, http.StatusOK, "", report)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var in struct {
		MonthlyLimit *core.Money `json:"monthlyLimit"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "Error updating budget")
		return
	}
	if in.MonthlyLimit == nil {
		writeError(w, r, core.NewValidationError("monthlyLimit", "is required"), "Error updating budget")
		return
	}
	b, err := s.budgets.UpdateLimit(r.Context(), userID(r), r.PathValue("id"), *in.MonthlyLimit)
	if err != nil {
		writeError(w, r, err, "Error updating budget")
		return
	}
	writeSuccess(w, http.StatusOK, "Budget updated successfully", map[string]any{"budget": b})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Error deleting budget")
		return
	}
	writeSuccess(w, http.StatusOK, "Budget deleted successfully", nil)
}
