package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"finsight/internal/export"
	applog "finsight/internal/log"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.exportExpenses(w, r, export.CSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.exportExpenses(w, r, export.XLSX)
}

// exportExpenses renders every matching expense, newest first, as a file
// download. An empty selection is a 404 rather than an empty file.
func (s *Server) exportExpenses(w http.ResponseWriter, r *http.Request, f export.Format) {
	failMsg := fmt.Sprintf("Error exporting %s", f)

	filter, err := ParseExpenseFilter(r.URL.Query(), false)
	if err != nil {
		writeError(w, r, err, failMsg)
		return
	}
	page, err := s.expenses.List(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, r, err, failMsg)
		return
	}
	if len(page.Expenses) == 0 {
		writeFailure(w, http.StatusNotFound, "No expenses found for the specified criteria", "")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, page.Expenses); err != nil {
		writeError(w, r, err, failMsg)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
		applog.FieldUserID, userID(r),
		applog.FieldOperation, applog.OpExport,
		"format", string(f),
		"count", len(page.Expenses))

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, f.Filename(s.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
