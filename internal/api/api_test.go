package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imcadom/entregas/internal/auth"
	"github.com/imcadom/entregas/internal/db"
	"github.com/imcadom/entregas/internal/model"
	"github.com/imcadom/entregas/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret))
	t.Cleanup(server.Close)

	if _, err := auth.Register(context.Background(), database, "Ana Pérez", "ana", "secreta"); err != nil {
		t.Fatalf("register: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"usuario": "ana", "contrasena": "secreta"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if login.Token == "" {
		t.Fatal("empty token from login")
	}

	return server, database, login.Token
}

func authRequest(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func insert(t *testing.T, database *sql.DB, equipment, recipient string) *model.Delivery {
	t.Helper()
	d, err := store.InsertDelivery(context.Background(), database, model.DeliveryFields{
		EquipmentName: equipment,
		EquipmentType: "Teléfono",
		RecipientName: recipient,
	}, "")
	if err != nil {
		t.Fatalf("insert delivery: %v", err)
	}
	return d
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"usuario":"ana","contrasena":"mala"}`, http.StatusUnauthorized},
		{"unknown user", `{"usuario":"nadie","contrasena":"secreta"}`, http.StatusUnauthorized},
		{"missing password", `{"usuario":"ana"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatalf("login request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/entregas")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = authRequest(t, http.MethodGet, server.URL+"/api/entregas", "garbage")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", resp.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	resp := authRequest(t, http.MethodPost, server.URL+"/api/auth/logout", token)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d", resp.StatusCode)
	}

	resp = authRequest(t, http.MethodGet, server.URL+"/api/entregas", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestDeliveriesAPIFlow(t *testing.T) {
	server, database, token := setupTestServer(t)

	first := insert(t, database, "Galaxy A54", "Luis")
	second := insert(t, database, "iPhone 13", "Marta")

	// Active list, newest first.
	resp := authRequest(t, http.MethodGet, server.URL+"/api/entregas", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var active []model.Delivery
	json.NewDecoder(resp.Body).Decode(&active)
	if len(active) != 2 || active[0].ID != second.ID {
		t.Fatalf("unexpected active list: %+v", active)
	}

	// Search.
	resp = authRequest(t, http.MethodGet, server.URL+"/api/entregas?busqueda=MARTA", token)
	active = nil
	json.NewDecoder(resp.Body).Decode(&active)
	if len(active) != 1 || active[0].ID != second.ID {
		t.Errorf("search: unexpected result %+v", active)
	}

	// Return one.
	resp = authRequest(t, http.MethodPost, fmt.Sprintf("%s/api/entregas/%d/devolver", server.URL, first.ID), token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from devolver, got %d", resp.StatusCode)
	}
	var returned model.Delivery
	json.NewDecoder(resp.Body).Decode(&returned)
	if !returned.Returned || returned.ReturnedAt == nil {
		t.Errorf("expected returned record with timestamp, got %+v", returned)
	}

	resp = authRequest(t, http.MethodGet, server.URL+"/api/devueltos", token)
	var done []model.Delivery
	json.NewDecoder(resp.Body).Decode(&done)
	if len(done) != 1 || done[0].ID != first.ID {
		t.Errorf("unexpected returned list: %+v", done)
	}

	resp = authRequest(t, http.MethodGet, fmt.Sprintf("%s/api/entregas/%d", server.URL, second.ID), token)
	var got model.Delivery
	json.NewDecoder(resp.Body).Decode(&got)
	if got.RecipientName != "Marta" || got.Returned {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestDeliveriesAPIErrors(t *testing.T) {
	server, _, token := setupTestServer(t)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/entregas/99", http.StatusNotFound},
		{http.MethodGet, "/api/entregas/abc", http.StatusBadRequest},
		{http.MethodPost, "/api/entregas/99/devolver", http.StatusNotFound},
	}

	for _, tt := range tests {
		resp := authRequest(t, tt.method, server.URL+tt.path, token)
		if resp.StatusCode != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, resp.StatusCode)
		}
	}

	resp := authRequest(t, http.MethodGet, server.URL+"/api/devueltos", token)
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	if got := bytes.TrimSpace(body.Bytes()); string(got) != "[]" {
		t.Errorf("expected empty JSON list, got %s", got)
	}
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var seen int
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		seen = w.(*statusRecorder).status
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if rec.Code != http.StatusTeapot || seen != http.StatusTeapot {
		t.Errorf("expected 418 recorded, got %d / %d", rec.Code, seen)
	}
}
