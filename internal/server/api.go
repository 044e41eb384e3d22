package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"zonegraph/internal/database"
	"zonegraph/internal/protocol"
	"zonegraph/pkg/maps"
	"zonegraph/pkg/zones"
)

// layoutResponse is the full JSON view of a stored layout.
type layoutResponse struct {
	protocol.LayoutInfo
	Rows     []string             `json:"rows"`
	Gateways [][]int              `json:"gateways"`
	Stats    protocol.StatsInfo   `json:"stats"`
	Links    []layoutLinkResponse `json:"links"`
}

type layoutLinkResponse struct {
	Gateway  int     `json:"gateway"`
	Side     int     `json:"side"`
	Target   int     `json:"target"`
	Distance float64 `json:"distance"`
}

type runEventResponse struct {
	ID        int64  `json:"id"`
	State     string `json:"state"`
	Zones     int    `json:"zones"`
	Gateways  int    `json:"gateways"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}

type statusResponse struct {
	Version string `json:"version"`
	Schema  int    `json:"schema"`
	Layouts int    `json:"layouts"`
	Maps    int    `json:"maps"`
	Clients int    `json:"clients"`
}

// handleStatus reports the server version and what it holds.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	schema, err := s.db.SchemaVersion()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read schema version")
		return
	}
	layouts, err := s.db.LayoutCount()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count layouts")
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{
		Version: Version,
		Schema:  schema,
		Layouts: layouts,
		Maps:    len(maps.Registry),
		Clients: s.hub.ClientCount(),
	})
}

// handleListMaps returns the embedded sample maps.
func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, protocol.MapListPayload{Maps: mapInfos()})
}

// handleMapGateways returns a sample map's gateways in the text list format.
func (s *Server) handleMapGateways(w http.ResponseWriter, r *http.Request) {
	m := maps.Get(chi.URLParam(r, "id"))
	if m == nil {
		respondError(w, http.StatusNotFound, "map not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	if err := zones.WriteGatewayList(w, m.Gateways); err != nil {
		log.Printf("Failed to write gateway list: %v", err)
	}
}

type zoneResponse struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Zone int `json:"zone"`
}

// handleMapZone returns the zone of one tile of a sample map.
func (s *Server) handleMapZone(w http.ResponseWriter, r *http.Request) {
	m := maps.Get(chi.URLParam(r, "id"))
	if m == nil {
		respondError(w, http.StatusNotFound, "map not found")
		return
	}
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil || !m.InBounds(x, y) {
		respondError(w, http.StatusBadRequest, "x and y must name a tile on the map")
		return
	}
	respondJSON(w, http.StatusOK, zoneResponse{X: x, Y: y, Zone: int(m.ZoneAt(x, y))})
}

// handleListLayouts returns all stored layouts.
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := s.db.ListLayouts()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list layouts")
		return
	}
	payload := protocol.LayoutListPayload{Layouts: make([]protocol.LayoutInfo, 0, len(layouts))}
	for _, l := range layouts {
		payload.Layouts = append(payload.Layouts, layoutInfo(l))
	}
	respondJSON(w, http.StatusOK, payload)
}

// handleCreateLayout processes a map and stores the result.
func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	var req protocol.ProcessMapPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Store = true

	res, err := s.process(req, nil)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	payload, err := resultPayload(res)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, payload)
}

// handleGetLayout returns a stored layout.
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.db.GetLayout(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newLayoutResponse(l))
}

// handleGetShared returns a stored layout by share code.
func (s *Server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	l, err := s.db.GetLayoutByCode(chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newLayoutResponse(l))
}

// handleGetZoneMap returns a stored layout's binary zone map.
func (s *Server) handleGetZoneMap(w http.ResponseWriter, r *http.Request) {
	l, err := s.db.GetLayout(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(l.ZoneMap)))
	w.WriteHeader(http.StatusOK)
	w.Write(l.ZoneMap)
}

// handleGetHistory returns a stored layout's processing run history.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.db.GetLayout(id); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	events, err := s.db.GetRunHistory(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	resp := make([]runEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, runEventResponse{
			ID:        e.ID,
			State:     e.State,
			Zones:     e.Zones,
			Gateways:  e.Gateways,
			Message:   e.Message,
			CreatedAt: e.CreatedAt.UnixMilli(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleDeleteLayout removes a stored layout.
func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteLayout(chi.URLParam(r, "id")); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func newLayoutResponse(l *database.Layout) layoutResponse {
	resp := layoutResponse{
		LayoutInfo: layoutInfo(&l.LayoutInfo),
		Rows:       l.Rows,
		Gateways:   l.Gateways,
		Stats:      statsInfo(l.Stats),
		Links:      make([]layoutLinkResponse, 0, len(l.Links)),
	}
	for _, link := range l.Links {
		resp.Links = append(resp.Links, layoutLinkResponse(link))
	}
	return resp
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	switch errorCode(err) {
	case protocol.ErrCodeMapNotFound, protocol.ErrCodeLayoutNotFound:
		return http.StatusNotFound
	case protocol.ErrCodeInvalidMap, protocol.ErrCodeTooManyZones:
		return http.StatusBadRequest
	case protocol.ErrCodeProcessFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
