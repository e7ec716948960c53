package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// handleMineStatusReport streams the XLSX status export.
// GET /api/v1/reports/mine-status?mine_id=   (empty mine_id → all mines)
func (s *Server) handleMineStatusReport(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.requireGlobal(w, user, domain.PermViewReports) {
		return
	}

	mineID := r.URL.Query().Get("mine_id")
	data, err := s.reports.GenerateMineStatusReport(r.Context(), mineID)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("mine-status-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
