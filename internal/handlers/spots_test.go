package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"parking_spot/internal/models"
	"parking_spot/internal/service"
)

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestListSpots(t *testing.T) {
	three := 3
	spots := &mockSpots{spots: []models.SpotState{
		{ID: "Vaga-01", Status: "OCUPADA", DistanceCm: &three},
		{ID: "Vaga-02", Status: "LIVRE"},
	}}
	r := newTestRouter(&service.Service{Spots: spots})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/vagas", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("Cache-Control: got %q", got)
	}
	want := `[{"id":"Vaga-01","status":"OCUPADA"},{"id":"Vaga-02","status":"LIVRE"}]`
	if strings.TrimSpace(w.Body.String()) != want {
		t.Fatalf("body: got %s, want %s", w.Body.String(), want)
	}
}

func TestListSpots_EmptyIsArray(t *testing.T) {
	r := newTestRouter(&service.Service{Spots: &mockSpots{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/vagas", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", w.Body.String())
	}
}

func TestListSpots_Error(t *testing.T) {
	r := newTestRouter(&service.Service{Spots: &mockSpots{listErr: errors.New("db down")}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/vagas", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestPostSpot(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ingestErr  error
		wantCode   int
		wantIngest bool
	}{
		{"full snapshot", `{"id":"Vaga-01","status":"OCUPADA","distancia_cm":3,"nivel_ruido_raw":40}`, nil, http.StatusOK, true},
		{"status only", `{"id":"Vaga-01","status":"LIVRE"}`, nil, http.StatusOK, true},
		{"missing id", `{"status":"LIVRE"}`, nil, http.StatusBadRequest, false},
		{"missing status", `{"id":"Vaga-01"}`, nil, http.StatusBadRequest, false},
		{"malformed json", `{"id":`, nil, http.StatusBadRequest, false},
		{"invalid status", `{"id":"Vaga-01","status":"X"}`, service.ErrInvalidSpot, http.StatusBadRequest, true},
		{"store failure", `{"id":"Vaga-01","status":"LIVRE"}`, errors.New("locked"), http.StatusInternalServerError, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spots := &mockSpots{ingestErr: tc.ingestErr}
			r := newTestRouter(&service.Service{Spots: spots})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/vagas", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if got := len(spots.ingested) == 1; got != tc.wantIngest {
				t.Fatalf("ingest called=%v want %v", got, tc.wantIngest)
			}
		})
	}
}

func TestPostSpot_PassesTelemetry(t *testing.T) {
	spots := &mockSpots{}
	r := newTestRouter(&service.Service{Spots: spots})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vagas",
		bytes.NewBufferString(`{"id":"Vaga-07","status":"MOVIMENTACAO","distancia_cm":4,"nivel_ruido_raw":950}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	got := spots.ingested[0]
	if got.ID != "Vaga-07" || *got.DistanceCm != 4 || *got.NoiseRaw != 950 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["success"] != true {
		t.Fatalf("expected success=true, got %v", m)
	}
}

func TestGetSpot(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		getErr   error
		wantCode int
	}{
		{"found", "valid", nil, http.StatusOK},
		{"not found", "valid", service.ErrSpotNotFound, http.StatusNotFound},
		{"store error", "valid", errors.New("boom"), http.StatusInternalServerError},
		{"unauthenticated", "", nil, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spots := &mockSpots{one: models.SpotState{ID: "Vaga-01", Status: "LIVRE"}, getErr: tc.getErr}
			s := &service.Service{Spots: spots, Authorization: &mockAuth{parseID: 1}}
			r := newTestRouter(s)

			w := httptest.NewRecorder()
			req := withHeaders(httptest.NewRequest(http.MethodGet, "/api/v1/spots/Vaga-01", nil), authHeader(tc.token))
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d", w.Code, tc.wantCode)
			}
			if tc.token != "" && spots.lastGet != "Vaga-01" {
				t.Fatalf("expected lookup of Vaga-01, got %q", spots.lastGet)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vagas", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "/api/vagas") {
		t.Fatalf("dashboard should poll /api/vagas")
	}
}
