package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/authz"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/repository"
)

// handleAlerts lists alerts.
// GET /api/v1/alerts?mine_id=&sector_id=&tier=&acknowledged=&from=&to=&page=&size=
// A sector_id filter is authorized in that sector's scope, anything wider
// needs the global view_alerts permission.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filters := repository.AlertFilters{}

	if v := q.Get("mine_id"); v != "" {
		filters.MineID = &v
	}
	if v := q.Get("sector_id"); v != "" {
		filters.SectorID = &v
	}
	if v := q.Get("tier"); v != "" {
		tier, err := domain.ParseStatusTier(v)
		if err != nil {
			writeFail(w, http.StatusUnprocessableEntity, "invalid tier filter")
			return
		}
		filters.Tier = &tier
	}
	if v := q.Get("acknowledged"); v != "" {
		acked := v == "true"
		filters.Acknowledged = &acked
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeFail(w, http.StatusUnprocessableEntity, "invalid from timestamp")
			return
		}
		filters.StartTime = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeFail(w, http.StatusUnprocessableEntity, "invalid to timestamp")
			return
		}
		filters.EndTime = &t
	}

	if filters.SectorID != nil && filters.MineID != nil {
		if !s.requireSector(w, user, domain.PermViewSectorAlerts, *filters.MineID, *filters.SectorID) {
			return
		}
	} else if !s.requireGlobal(w, user, domain.PermViewAlerts) {
		return
	}

	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)
	alerts, total, err := s.alerts.ListAlerts(r.Context(), filters, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": alerts, "total": total})
}

// handleAlertByID serves one alert.
// GET  /api/v1/alerts/{id}              → alert
// POST /api/v1/alerts/{id}/acknowledge  → acknowledge (idempotent)
func (s *Server) handleAlertByID(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	alertID, sub, _ := strings.Cut(rest, "/")
	if alertID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	alert, err := s.alerts.GetAlert(r.Context(), alertID)
	if err != nil {
		writeError(w, err)
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.authorizeAlert(user, alert, domain.PermViewAlerts, domain.PermViewSectorAlerts) {
			writeDenied(w)
			return
		}
		writeJSON(w, http.StatusOK, alert)

	case "acknowledge":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.authorizeAlert(user, alert, domain.PermManageAlerts, domain.PermManageSectorAlerts) {
			writeDenied(w)
			return
		}
		if err := s.alerts.AcknowledgeAlert(r.Context(), alertID, user.UserID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// authorizeAlert allows either the global permission or the sector
// permission in the alert's own sector. Mine-level alerts carry no sector
// and fall back to the global check alone.
func (s *Server) authorizeAlert(user *domain.User, alert *domain.Alert, global domain.GlobalPermission, sector domain.SectorPermission) bool {
	if s.gate.Authorize(user, string(global), authz.Global()) {
		return true
	}
	if alert.SectorID == "" {
		return false
	}
	return s.gate.Authorize(user, string(sector), authz.Sector(alert.MineID, alert.SectorID))
}
