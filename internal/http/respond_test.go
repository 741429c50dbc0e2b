package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/domain"
)

func TestRespondRepoError(t *testing.T) {
	srv := &Server{logger: zap.NewNop()}

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", domain.Invalid("maxAge", "must be >= minAge"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"not found", fmt.Errorf("load: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unique", &domain.StoreError{Op: "addMovie", Code: domain.CodeUniqueViolation, Err: errors.New("dup")}, http.StatusConflict, "CONFLICT"},
		{"foreign key", &domain.StoreError{Op: "addActor", Code: domain.CodeForeignKeyViolation, Err: errors.New("fk")}, http.StatusConflict, "CONFLICT"},
		{"store", &domain.StoreError{Op: "listActors", Err: errors.New("connection reset")}, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.respondRepoError(rec, "test op", tt.err)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantBody {
				t.Fatalf("code = %s, want %s", body.Code, tt.wantBody)
			}
		})
	}
}

func TestDecodeIDParam(t *testing.T) {
	for raw, ok := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false, "": false} {
		req := attachURLParam(httptest.NewRequest(http.MethodGet, "/actors/x", nil), "id", raw)
		_, err := decodeIDParam(req)
		if (err == nil) != ok {
			t.Fatalf("decodeIDParam(%q) err = %v, want ok=%v", raw, err, ok)
		}
	}
}

func TestRequireBearerGuardsMutations(t *testing.T) {
	srv := &Server{logger: zap.NewNop()}
	srv.cfg.AuthToken = "secret"

	called := false
	h := srv.requireBearer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/actors?industry=X", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("status = %d called = %v, want 401 without calling next", rec.Code, called)
	}

	req := httptest.NewRequest(http.MethodDelete, "/actors?industry=X", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || !called {
		t.Fatalf("status = %d called = %v, want pass-through", rec.Code, called)
	}
}
