package httpapi

import (
	"net/http"
	"strings"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// handleRoles serves the role collection. All role and user management is
// gated on the global manage_users permission.
// GET  /api/v1/roles → list
// POST /api/v1/roles → create
func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if !s.requireGlobal(w, user, domain.PermManageUsers) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		roles, err := s.roles.ListRoles(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": roles, "total": len(roles)})

	case http.MethodPost:
		var payload struct {
			Name        string   `json:"name"`
			Permissions []string `json:"permissions"`
		}
		if err := readBodyJSON(r, 1<<20, &payload); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid body")
			return
		}
		role, err := s.roles.CreateRole(r.Context(), payload.Name, payload.Permissions)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, role)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleRoleByID serves one role.
// DELETE /api/v1/roles/{id}              → delete (only when unheld)
// PUT    /api/v1/roles/{id}/permissions  → replace permission set atomically
func (s *Server) handleRoleByID(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if !s.requireGlobal(w, user, domain.PermManageUsers) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/roles/")
	roleID, sub, _ := strings.Cut(rest, "/")
	if roleID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := s.roles.DeleteRole(r.Context(), roleID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "permissions":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Permissions []string `json:"permissions"`
		}
		if err := readBodyJSON(r, 1<<20, &payload); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid body")
			return
		}
		if err := s.roles.UpdateRolePermissions(r.Context(), roleID, payload.Permissions); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleUsers serves the user collection.
// GET  /api/v1/users → list (paged)
// POST /api/v1/users → create
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if !s.requireGlobal(w, user, domain.PermManageUsers) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		page := parseInt(r.URL.Query().Get("page"), 1)
		size := parseInt(r.URL.Query().Get("size"), 50)
		users, total, err := s.users.ListUsers(r.Context(), page, size)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": users, "total": total})

	case http.MethodPost:
		var payload struct {
			Name   string `json:"name"`
			Email  string `json:"email"`
			RoleID string `json:"role_id"`
		}
		if err := readBodyJSON(r, 1<<20, &payload); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid body")
			return
		}
		created, err := s.users.CreateUser(r.Context(), payload.Name, payload.Email, payload.RoleID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleUserByID serves one user.
// GET    /api/v1/users/{id}                → user with sector access
// DELETE /api/v1/users/{id}                → delete (last-admin protected)
// PUT    /api/v1/users/{id}/role           → change role (last-admin protected)
// PUT    /api/v1/users/{id}/sector-access  → set one (mine, sector) override
// DELETE /api/v1/users/{id}/sector-access  → remove one override
func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}
	if !s.requireGlobal(w, user, domain.PermManageUsers) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/users/")
	userID, sub, _ := strings.Cut(rest, "/")
	if userID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			target, err := s.users.GetUser(r.Context(), userID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, target)
		case http.MethodDelete:
			if err := s.users.DeleteUser(r.Context(), userID); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	case "role":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			RoleID string `json:"role_id"`
		}
		if err := readBodyJSON(r, 1<<16, &payload); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid body")
			return
		}
		if err := s.users.ChangeUserRole(r.Context(), userID, payload.RoleID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "sector-access":
		switch r.Method {
		case http.MethodPut:
			var payload struct {
				MineID      string   `json:"mine_id"`
				SectorID    string   `json:"sector_id"`
				Permissions []string `json:"permissions"`
			}
			if err := readBodyJSON(r, 1<<20, &payload); err != nil {
				writeFail(w, http.StatusBadRequest, "invalid body")
				return
			}
			if err := s.users.SetSectorAccess(r.Context(), userID, payload.MineID, payload.SectorID, payload.Permissions); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			mineID := r.URL.Query().Get("mine_id")
			sectorID := r.URL.Query().Get("sector_id")
			if mineID == "" || sectorID == "" {
				writeFail(w, http.StatusBadRequest, "mine_id and sector_id are required")
				return
			}
			if err := s.users.RemoveSectorAccess(r.Context(), userID, mineID, sectorID); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
