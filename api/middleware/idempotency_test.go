package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type fakeIdempotencyStore struct {
	values map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func newIdempotentRouter(store *fakeIdempotencyStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/orders/complete", func(w http.ResponseWriter, _ *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"ok":true}}`))
	})
	r.Get("/api/v1/orders", func(w http.ResponseWriter, _ *http.Request) {
		*hits++
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	body := `{"order_ids":[1]}`
	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders/complete", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "abc-123")
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/orders/complete", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "abc-123")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, second)

	if hits != 1 {
		t.Fatalf("expected handler to run once, ran %d times", hits)
	}
	if w1.Body.String() != w2.Body.String() {
		t.Fatalf("replayed body mismatch: %q vs %q", w1.Body.String(), w2.Body.String())
	}
	if got := w2.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("replayed content type %q", got)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders/complete", strings.NewReader(`{"order_ids":[1]}`))
	first.Header.Set("Idempotency-Key", "abc-123")
	router.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/orders/complete", strings.NewReader(`{"order_ids":[2]}`))
	second.Header.Set("Idempotency-Key", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, second)

	if hits != 1 {
		t.Fatalf("expected handler to run once, ran %d times", hits)
	}
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for key reuse, got %d", w.Code)
	}
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/complete", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if hits != 0 {
		t.Fatalf("handler must not run without the header")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if hits != 1 {
		t.Fatalf("expected handler to run, ran %d times", hits)
	}
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
