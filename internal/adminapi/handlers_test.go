package adminapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mimicgate/mimicgate/internal/domain"
)

type fakeEndpointReader struct {
	endpoints map[string]domain.Endpoint
}

func (f *fakeEndpointReader) List() []domain.Endpoint {
	out := make([]domain.Endpoint, 0, len(f.endpoints))
	for _, e := range f.endpoints {
		out = append(out, e)
	}
	return out
}

func (f *fakeEndpointReader) Get(key string) (domain.Endpoint, bool) {
	e, ok := f.endpoints[key]
	return e, ok
}

func TestEndpointsHandlerGetUnescapesID(t *testing.T) {
	key := "GET /users/{id}"
	reader := &fakeEndpointReader{endpoints: map[string]domain.Endpoint{key: {ID: key}}}
	h := NewEndpointsHandler(reader)

	r := chi.NewRouter()
	r.Get("/admin/endpoints/{id}", h.Get)

	req := httptest.NewRequest(http.MethodGet, "/admin/endpoints/"+url.QueryEscape(key), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), key) {
		t.Errorf("expected body to contain endpoint id, got %s", rec.Body.String())
	}
}

func TestEndpointsHandlerGetUnknownReturns404(t *testing.T) {
	reader := &fakeEndpointReader{endpoints: map[string]domain.Endpoint{}}
	h := NewEndpointsHandler(reader)

	r := chi.NewRouter()
	r.Get("/admin/endpoints/{id}", h.Get)

	req := httptest.NewRequest(http.MethodGet, "/admin/endpoints/"+url.QueryEscape("GET /nope"), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code"`) {
		t.Errorf("expected error envelope, got %s", rec.Body.String())
	}
}

type fakeModeController struct {
	mode domain.Mode
}

func (f *fakeModeController) Get() domain.Mode  { return f.mode }
func (f *fakeModeController) Set(m domain.Mode) { f.mode = m }

func TestModeHandlerRejectsInvalidMode(t *testing.T) {
	reg := &fakeModeController{mode: domain.ModeProxy}
	h := NewModeHandler(reg)

	req := httptest.NewRequest(http.MethodPost, "/admin/mode", strings.NewReader(`{"mode":"bogus"}`))
	rec := httptest.NewRecorder()
	h.Set(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if reg.mode != domain.ModeProxy {
		t.Error("mode should not have changed")
	}
}

func TestModeHandlerAcceptsValidMode(t *testing.T) {
	reg := &fakeModeController{mode: domain.ModeProxy}
	h := NewModeHandler(reg)

	req := httptest.NewRequest(http.MethodPost, "/admin/mode", strings.NewReader(`{"mode":"mock"}`))
	rec := httptest.NewRecorder()
	h.Set(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if reg.mode != domain.ModeMock {
		t.Errorf("mode = %q, want mock", reg.mode)
	}
}

type fakeDriftStore struct {
	alerts   []*domain.DriftAlert
	resolved map[string]bool
}

func (f *fakeDriftStore) ListDriftAlerts(ctx context.Context, unresolvedOnly bool) ([]*domain.DriftAlert, error) {
	if !unresolvedOnly {
		return f.alerts, nil
	}
	var out []*domain.DriftAlert
	for _, a := range f.alerts {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeDriftStore) ResolveDriftAlert(ctx context.Context, id string) error {
	for _, a := range f.alerts {
		if a.ID == id {
			a.Resolved = true
			return nil
		}
	}
	return errNotFound
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

func TestDriftAlertsHandlerFiltersUnresolved(t *testing.T) {
	store := &fakeDriftStore{alerts: []*domain.DriftAlert{
		{ID: "a", Resolved: false},
		{ID: "b", Resolved: true},
	}}
	h := NewDriftAlertsHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/admin/drift-alerts?unresolved_only=true", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"id":"b"`) {
		t.Errorf("expected resolved alert to be filtered out, got %s", rec.Body.String())
	}
}

type fakeChaosController struct {
	global domain.ChaosProfile
	perEP  map[string]domain.ChaosProfile
}

func (f *fakeChaosController) Global() domain.ChaosProfile { return f.global }
func (f *fakeChaosController) SetGlobal(p domain.ChaosProfile) { f.global = p }
func (f *fakeChaosController) For(key string) domain.ChaosProfile {
	if p, ok := f.perEP[key]; ok {
		return p
	}
	return f.global
}
func (f *fakeChaosController) SetEndpoint(key string, p domain.ChaosProfile) {
	if f.perEP == nil {
		f.perEP = make(map[string]domain.ChaosProfile)
	}
	f.perEP[key] = p
}

func TestChaosHandlerRejectsInvalidProbability(t *testing.T) {
	reg := &fakeChaosController{}
	h := NewChaosHandler(reg)

	req := httptest.NewRequest(http.MethodPost, "/admin/chaos", strings.NewReader(`{"failure_probability":1.5}`))
	rec := httptest.NewRecorder()
	h.Set(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
