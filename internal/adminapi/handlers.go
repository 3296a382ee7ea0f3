package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/mimicgate/mimicgate/internal/domain"
)

// EndpointReader is the read surface adminapi needs from the Behavior
// Store: list every learned endpoint, or fetch one by its key.
type EndpointReader interface {
	List() []domain.Endpoint
	Get(endpointKey string) (domain.Endpoint, bool)
}

// EndpointsHandler serves GET /admin/endpoints and GET /admin/endpoints/{id}.
type EndpointsHandler struct {
	store EndpointReader
}

func NewEndpointsHandler(store EndpointReader) *EndpointsHandler {
	return &EndpointsHandler{store: store}
}

func (h *EndpointsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

// Get expects the {id} path segment to be the URL-escaped endpoint key
// (e.g. "GET%20%2Fusers%2F%7Bid%7D"), since a key embeds both the method
// and a normalized path pattern.
func (h *EndpointsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := url.QueryUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "endpoint id is not validly escaped")
		return
	}
	e, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "endpoint_not_found", "no endpoint with that id has been observed")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ModeController is the surface adminapi needs from dispatch's ModeRegistry.
type ModeController interface {
	Get() domain.Mode
	Set(m domain.Mode)
}

// ModeHandler serves POST /admin/mode.
type ModeHandler struct {
	registry ModeController
}

func NewModeHandler(registry ModeController) *ModeHandler {
	return &ModeHandler{registry: registry}
}

func (h *ModeHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode domain.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.Mode != domain.ModeProxy && req.Mode != domain.ModeMock {
		writeError(w, http.StatusBadRequest, "invalid_mode", "mode must be \"proxy\" or \"mock\"")
		return
	}
	h.registry.Set(req.Mode)
	writeJSON(w, http.StatusOK, map[string]domain.Mode{"mode": req.Mode})
}

// ChaosController is the surface adminapi needs from dispatch's
// ChaosRegistry.
type ChaosController interface {
	Global() domain.ChaosProfile
	SetGlobal(p domain.ChaosProfile)
	For(endpointKey string) domain.ChaosProfile
	SetEndpoint(endpointKey string, p domain.ChaosProfile)
}

// ChaosHandler serves GET|POST /admin/chaos.
type ChaosHandler struct {
	registry ChaosController
}

func NewChaosHandler(registry ChaosController) *ChaosHandler {
	return &ChaosHandler{registry: registry}
}

func (h *ChaosHandler) Get(w http.ResponseWriter, r *http.Request) {
	if endpoint := r.URL.Query().Get("endpoint"); endpoint != "" {
		writeJSON(w, http.StatusOK, h.registry.For(endpoint))
		return
	}
	writeJSON(w, http.StatusOK, h.registry.Global())
}

func (h *ChaosHandler) Set(w http.ResponseWriter, r *http.Request) {
	var profile domain.ChaosProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if profile.FailureProbability < 0 || profile.FailureProbability > 1 {
		writeError(w, http.StatusBadRequest, "invalid_probability", "failure_probability must be in [0,1]")
		return
	}

	if endpoint := r.URL.Query().Get("endpoint"); endpoint != "" {
		h.registry.SetEndpoint(endpoint, profile)
	} else {
		h.registry.SetGlobal(profile)
	}
	writeJSON(w, http.StatusOK, profile)
}

// DriftAlertStore is the surface adminapi needs from internal/storage.
type DriftAlertStore interface {
	ListDriftAlerts(ctx context.Context, unresolvedOnly bool) ([]*domain.DriftAlert, error)
	ResolveDriftAlert(ctx context.Context, id string) error
}

// DriftAlertsHandler serves the /admin/drift-alerts surface.
type DriftAlertsHandler struct {
	store DriftAlertStore
}

func NewDriftAlertsHandler(store DriftAlertStore) *DriftAlertsHandler {
	return &DriftAlertsHandler{store: store}
}

func (h *DriftAlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	unresolvedOnly := r.URL.Query().Get("unresolved_only") == "true"
	alerts, err := h.store.ListDriftAlerts(r.Context(), unresolvedOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list drift alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *DriftAlertsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.ResolveDriftAlert(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "drift_alert_not_found", "no unresolved drift alert with that id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "resolved": "true"})
}

// HealthReader is the surface adminapi needs from internal/health.Monitor.
type HealthReader interface {
	Get(endpointKey string) (domain.HealthMetric, bool)
	List() []domain.HealthMetric
	Global() domain.GlobalHealth
}

// HealthHandler serves the /admin/health surface.
type HealthHandler struct {
	monitor HealthReader
}

func NewHealthHandler(monitor HealthReader) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

func (h *HealthHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.List())
}

func (h *HealthHandler) Global(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Global())
}

func (h *HealthHandler) ByEndpoint(w http.ResponseWriter, r *http.Request) {
	id, err := url.QueryUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "endpoint id is not validly escaped")
		return
	}
	metric, ok := h.monitor.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "endpoint_not_found", "no health data for that endpoint")
		return
	}
	writeJSON(w, http.StatusOK, metric)
}
