package httpapi

import (
	"net/http"
	"strings"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// handleMines serves the mine collection.
// GET  /api/v1/mines        → list
// POST /api/v1/mines        → create
func (s *Server) handleMines(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !s.requireGlobal(w, user, domain.PermViewAllMines) {
			return
		}
		mines, err := s.mines.ListMines(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": mines, "total": len(mines)})

	case http.MethodPost:
		if !s.requireGlobal(w, user, domain.PermManageSensors) {
			return
		}
		var payload domain.Mine
		if err := readBodyJSON(r, 1<<20, &payload); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid body")
			return
		}
		mine, err := s.mines.CreateMine(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, mine)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleMineByID serves one mine and its subresources.
// GET    /api/v1/mines/{id}          → hierarchy
// DELETE /api/v1/mines/{id}          → delete (cascades)
// GET    /api/v1/mines/{id}/status   → derived status dashboard
// PUT    /api/v1/mines/{id}/status   → operational status change
// GET    /api/v1/mines/{id}/sectors  → list sectors
// POST   /api/v1/mines/{id}/sectors  → create sector
func (s *Server) handleMineByID(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/mines/")
	mineID, sub, _ := strings.Cut(rest, "/")
	if mineID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			if !s.requireGlobal(w, user, domain.PermViewAllMines) {
				return
			}
			mine, err := s.mines.GetMineHierarchy(r.Context(), mineID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, mine)
		case http.MethodDelete:
			if !s.requireGlobal(w, user, domain.PermManageSensors) {
				return
			}
			if err := s.mines.DeleteMine(r.Context(), mineID); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	case "status":
		switch r.Method {
		case http.MethodGet:
			if !s.requireGlobal(w, user, domain.PermViewAllMines) {
				return
			}
			status, err := s.mines.GetMineStatus(r.Context(), mineID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, status)
		case http.MethodPut:
			if !s.requireGlobal(w, user, domain.PermManageSensors) {
				return
			}
			var payload struct {
				Status domain.MineStatus `json:"status"`
			}
			if err := readBodyJSON(r, 1<<16, &payload); err != nil {
				writeFail(w, http.StatusBadRequest, "invalid body")
				return
			}
			if !payload.Status.Valid() {
				writeFail(w, http.StatusUnprocessableEntity, "invalid mine status")
				return
			}
			if err := s.mines.UpdateMineStatus(r.Context(), mineID, payload.Status); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	case "sectors":
		switch r.Method {
		case http.MethodGet:
			if !s.requireGlobal(w, user, domain.PermViewAllMines) {
				return
			}
			mine, err := s.mines.GetMineHierarchy(r.Context(), mineID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": mine.Sectors, "total": len(mine.Sectors)})
		case http.MethodPost:
			if !s.requireGlobal(w, user, domain.PermManageSensors) {
				return
			}
			var payload domain.Sector
			if err := readBodyJSON(r, 1<<20, &payload); err != nil {
				writeFail(w, http.StatusBadRequest, "invalid body")
				return
			}
			payload.MineID = mineID
			if payload.Status != "" && !payload.Status.Valid() {
				writeFail(w, http.StatusUnprocessableEntity, "invalid sector status")
				return
			}
			sector, err := s.mines.CreateSector(r.Context(), payload)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, sector)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleSectorByID serves one sector and its subresources. Authorization is
// scoped: the gate resolves sector-implied global permissions and per-user
// SectorAccess overrides.
// GET  /api/v1/sectors/{id}          → sector
// PUT  /api/v1/sectors/{id}          → update (name, level, status)
// GET  /api/v1/sectors/{id}/status   → derived tier
// GET  /api/v1/sectors/{id}/sensors  → list sensors
// POST /api/v1/sectors/{id}/sensors  → create sensor
func (s *Server) handleSectorByID(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sectors/")
	sectorID, sub, _ := strings.Cut(rest, "/")
	if sectorID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// The scope needs the owning mine, so the sector loads before the
	// permission check. Existence is not a secret here.
	sector, err := s.mines.GetSector(r.Context(), sectorID)
	if err != nil {
		writeError(w, err)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			if !s.requireSector(w, user, domain.PermViewSector, sector.MineID, sector.SectorID) {
				return
			}
			writeJSON(w, http.StatusOK, sector)
		case http.MethodPut:
			if !s.requireSector(w, user, domain.PermManageSector, sector.MineID, sector.SectorID) {
				return
			}
			var payload domain.Sector
			if err := readBodyJSON(r, 1<<20, &payload); err != nil {
				writeFail(w, http.StatusBadRequest, "invalid body")
				return
			}
			payload.SectorID = sector.SectorID
			payload.MineID = sector.MineID
			if payload.Status == "" {
				payload.Status = sector.Status
			}
			if !payload.Status.Valid() {
				writeFail(w, http.StatusUnprocessableEntity, "invalid sector status")
				return
			}
			if err := s.mines.UpdateSector(r.Context(), payload); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	case "status":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.requireSector(w, user, domain.PermViewSector, sector.MineID, sector.SectorID) {
			return
		}
		tier, err := s.mines.GetSectorTier(r.Context(), sector.SectorID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sector_id": sector.SectorID, "tier": tier})

	case "sensors":
		switch r.Method {
		case http.MethodGet:
			if !s.requireSector(w, user, domain.PermViewSectorSensors, sector.MineID, sector.SectorID) {
				return
			}
			sensors, err := s.mines.ListSectorSensors(r.Context(), sector.SectorID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": sensors, "total": len(sensors)})
		case http.MethodPost:
			if !s.requireSector(w, user, domain.PermManageSectorSensors, sector.MineID, sector.SectorID) {
				return
			}
			var payload domain.Sensor
			if err := readBodyJSON(r, 1<<20, &payload); err != nil {
				writeFail(w, http.StatusBadRequest, "invalid body")
				return
			}
			payload.SectorID = sector.SectorID
			sensor, err := s.mines.CreateSensor(r.Context(), payload)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, sensor)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleSensorByID serves one sensor.
// GET /api/v1/sensors/{id}          → sensor
// PUT /api/v1/sensors/{id}/status   → lifecycle status change
// GET /api/v1/sensors/{id}/reading  → latest cached reading
func (s *Server) handleSensorByID(w http.ResponseWriter, r *http.Request) {
	user, ok := s.caller(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/sensors/")
	sensorID, sub, _ := strings.Cut(rest, "/")
	if sensorID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	sensor, err := s.mines.GetSensor(r.Context(), sensorID)
	if err != nil {
		writeError(w, err)
		return
	}
	sector, err := s.mines.GetSector(r.Context(), sensor.SectorID)
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
		if !s.requireSector(w, user, domain.PermViewSectorSensors, sector.MineID, sector.SectorID) {
			return
		}
		writeJSON(w, http.StatusOK, sensor)

	case "status":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.requireSector(w, user, domain.PermManageSectorSensors, sector.MineID, sector.SectorID) {
			return
		}
		var payload struct {
			Status domain.SensorStatus `json:"status"`
		}
		if err := readBodyJSON(r, 1<<16, &payload); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid body")
			return
		}
		if !payload.Status.Valid() {
			writeFail(w, http.StatusUnprocessableEntity, "invalid sensor status")
			return
		}
		if err := s.mines.UpdateSensorStatus(r.Context(), sensorID, payload.Status); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "reading":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.requireSector(w, user, domain.PermViewSectorSensors, sector.MineID, sector.SectorID) {
			return
		}
		reading, err := s.readings.GetLatestReading(r.Context(), sensorID)
		if err != nil {
			writeFail(w, http.StatusNotFound, "no recent reading")
			return
		}
		writeJSON(w, http.StatusOK, reading)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
