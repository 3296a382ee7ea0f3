package dispatch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mimicgate/mimicgate/internal/behavior"
	"github.com/mimicgate/mimicgate/internal/buffer"
	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/generate"
	"github.com/mimicgate/mimicgate/internal/jsonval"
	"github.com/mimicgate/mimicgate/internal/schema"
	"go.uber.org/zap"
)

func newTestCore(t *testing.T, mode domain.Mode) (*Core, *buffer.RingBuffer) {
	t.Helper()
	store := behavior.New()
	q := buffer.New(16)
	c := &Core{
		Store:           store,
		Generator:       generate.New(),
		Chaos:           NewChaosRegistry(),
		Mode:            NewModeRegistry(mode),
		Queue:           q,
		Logger:          zap.NewNop(),
		FailoverEnabled: true,
	}
	return c, q
}

func TestServeHTTPMockModeColdStartReturnsEmptyObject(t *testing.T) {
	c, q := newTestCore(t, domain.ModeMock)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	rec := httptest.NewRecorder()

	c.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	tx, ok := q.Dequeue()
	if !ok {
		t.Fatal("expected a transaction to be enqueued")
	}
	if !tx.Mocked {
		t.Error("expected Mocked=true")
	}
}

func TestServeHTTPMockModeUsesLearnedSchema(t *testing.T) {
	c, q := newTestCore(t, domain.ModeMock)

	seed, err := jsonval.Parse([]byte(`{"id":1,"name":"Ada"}`))
	if err != nil {
		t.Fatalf("parse seed: %v", err)
	}
	respSchema := schema.Infer(seed)
	c.Store.Record("GET /users/{id}", http.MethodGet, "/users/{id}", 12, http.StatusOK, nil, respSchema, nil, []byte(`{"id":1,"name":"Ada"}`), time.Now())

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "name") {
		t.Errorf("expected generated body to contain a name field, got %s", rec.Body.String())
	}

	if _, ok := q.Dequeue(); !ok {
		t.Fatal("expected a transaction to be enqueued")
	}
}
