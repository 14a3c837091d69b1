package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"

	"github.com/tair/rfid-textile/internal/lot"
	lothttp "github.com/tair/rfid-textile/internal/lot/delivery/http"
	"github.com/tair/rfid-textile/internal/lot/testutil"
	"github.com/tair/rfid-textile/pkg/auth"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type server struct {
	router *mux.Router
	token  string
}

func newServer(t *testing.T) *server {
	t.Helper()

	db := testutil.NewDB(t)
	svc, err := lot.InitializeService(db, nil, nil, nil, lot.Settings{WorkerCacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("InitializeService: %v", err)
	}

	router := mux.NewRouter()
	svc.HTTP.RegisterRoutes(router,
		lothttp.AuthMiddleware(testSecret, true),
		lothttp.NewRateLimiter(nil, 10, time.Minute, nil).Middleware,
	)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	svc.HTTP.RegisterHealthCheck(router, sqlDB)

	token, err := auth.GenerateToken(auth.Claims{
		UserID:   testutil.ResponsibleID,
		Nom:      "Sami",
		Prenom:   "Trabelsi",
		Role:     "operateur",
		ChaineID: testutil.ChaineID,
	}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	return &server{router: router, token: token}
}

func (s *server) do(t *testing.T, method, path string, body interface{}, authed bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/lots", nil, false)
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Success {
		t.Fatalf("expected success=false")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lots", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	bad := httptest.NewRecorder()
	s.router.ServeHTTP(bad, req)
	expectStatus(t, bad, http.StatusUnauthorized)
}

func TestReaderRoutesSkipAuth(t *testing.T) {
	s := newServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/lot-history/stock", nil, false)
	expectStatus(t, rec, http.StatusOK)

	// Must reach the store handler, not PUT/DELETE /api/lots/{lot_id}.
	rec, env := s.do(t, http.MethodPost, "/api/lots/stockage", map[string]string{"epc": "UNKNOWN"}, false)
	expectStatus(t, rec, http.StatusNotFound)
	if env.Code != "not_found" {
		t.Fatalf("code = %q, want not_found", env.Code)
	}
}

func TestCreateLot(t *testing.T) {
	s := newServer(t)

	body := map[string]interface{}{
		"epc":         "E1",
		"taille":      "32",
		"couleur":     "Bleu",
		"temps_debut": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	}
	rec, env := s.do(t, http.MethodPost, "/api/lots", body, true)
	expectStatus(t, rec, http.StatusCreated)

	var created struct {
		LotID        string `json:"lot_id"`
		ChaineID     string `json:"chaine_id"`
		OperateurNom string `json:"operateur_nom"`
		Statut       string `json:"statut"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode lot: %v", err)
	}
	if created.LotID != "LOT001" {
		t.Fatalf("lot_id = %q, want LOT001", created.LotID)
	}
	if created.ChaineID != testutil.ChaineID {
		t.Fatalf("chaine_id = %q, want the caller's line %q", created.ChaineID, testutil.ChaineID)
	}
	if created.OperateurNom != "Sami Trabelsi" {
		t.Fatalf("operateur_nom = %q", created.OperateurNom)
	}
	if created.Statut != "en_attente" {
		t.Fatalf("statut = %q, want en_attente", created.Statut)
	}

	rec, env = s.do(t, http.MethodPost, "/api/lots", body, true)
	expectStatus(t, rec, http.StatusConflict)
	if env.Code != "conflict" {
		t.Fatalf("code = %q, want conflict", env.Code)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/lots", `{"epc":`, true)
	expectStatus(t, rec, http.StatusBadRequest)

	rec, _ = s.do(t, http.MethodGet, "/api/lots/LOT001", nil, true)
	expectStatus(t, rec, http.StatusOK)
	rec, _ = s.do(t, http.MethodGet, "/api/lots/LOT999", nil, true)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestLotLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/lots", map[string]string{"epc": "E1", "taille": "32"}, true)
	expectStatus(t, rec, http.StatusCreated)

	for _, epc := range []string{"G1", "G2"} {
		rec, _ = s.do(t, http.MethodPost, "/api/jeans", map[string]string{"epc": epc, "lot_id": "LOT001"}, true)
		expectStatus(t, rec, http.StatusCreated)
	}

	rec, env := s.do(t, http.MethodPost, "/api/jeans", map[string]string{"epc": "G1", "lot_id": "LOT001"}, true)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Code != "conflict" {
		t.Fatalf("duplicate garment code = %q, want conflict", env.Code)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/jeans?epc=G2", nil, true)
	expectStatus(t, rec, http.StatusOK)

	rec, env = s.do(t, http.MethodPut, "/api/lots/LOT001", map[string]string{"statut": "termine"}, true)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Code != "conflict" {
		t.Fatalf("skip transition code = %q, want conflict", env.Code)
	}

	rec, _ = s.do(t, http.MethodPut, "/api/lots/LOT001", map[string]string{
		"statut":      "en_cours",
		"ouvrier_nom": testutil.WorkerFullName,
	}, true)
	expectStatus(t, rec, http.StatusOK)

	rec, env = s.do(t, http.MethodPut, "/api/lots/LOT001", map[string]string{"statut": "termine"}, true)
	expectStatus(t, rec, http.StatusOK)
	var finished struct {
		QuantiteFinale *int `json:"quantite_finale"`
	}
	if err := json.Unmarshal(env.Data, &finished); err != nil {
		t.Fatalf("decode lot: %v", err)
	}
	if finished.QuantiteFinale == nil || *finished.QuantiteFinale != 1 {
		t.Fatalf("quantite_finale = %v, want 1", finished.QuantiteFinale)
	}

	rec, env = s.do(t, http.MethodPut, "/api/lots/LOT001", map[string]string{"statut": "termine"}, true)
	expectStatus(t, rec, http.StatusOK)
	if env.Message != "Lot already in requested status" {
		t.Fatalf("message = %q", env.Message)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/lots/stockage", map[string]string{"epc": "E1"}, false)
	expectStatus(t, rec, http.StatusOK)
	rec, _ = s.do(t, http.MethodPost, "/api/lots/stockage", map[string]string{"epc": "E1"}, false)
	expectStatus(t, rec, http.StatusNotFound)

	rec, env = s.do(t, http.MethodPost, "/api/lots/detect-count", `{"lot_id":"LOT001","detected_count":"three"}`, false)
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error != "detected_count must be a non-negative integer" {
		t.Fatalf("error = %q", env.Error)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/lots/detect-count", map[string]interface{}{"lot_id": "LOT001", "detected_count": -1}, false)
	expectStatus(t, rec, http.StatusBadRequest)

	rec, env = s.do(t, http.MethodPost, "/api/lots/detect-count", map[string]interface{}{"lot_id": "LOT001", "detected_count": 0}, false)
	expectStatus(t, rec, http.StatusOK)
	var detected struct {
		Reconciliation struct {
			Delta int    `json:"delta"`
			Kind  string `json:"kind"`
		} `json:"reconciliation"`
	}
	if err := json.Unmarshal(env.Data, &detected); err != nil {
		t.Fatalf("decode detection: %v", err)
	}
	if detected.Reconciliation.Delta != 1 || detected.Reconciliation.Kind != "missing" {
		t.Fatalf("reconciliation = %+v, want delta 1 missing", detected.Reconciliation)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lot-history/discrepancies/export", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	export := httptest.NewRecorder()
	s.router.ServeHTTP(export, req)
	expectStatus(t, export, http.StatusOK)

	f, err := excelize.OpenReader(bytes.NewReader(export.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Discrepancies")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one lot", len(rows))
	}
	if rows[1][0] != "LOT001" || rows[1][5] != "1" || rows[1][6] != "missing" {
		t.Fatalf("row = %v", rows[1])
	}
}

func TestDeleteLotReportsRemovedGarments(t *testing.T) {
	s := newServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/lots", map[string]string{"epc": "E1"}, true)
	expectStatus(t, rec, http.StatusCreated)
	rec, _ = s.do(t, http.MethodPost, "/api/jeans", map[string]string{"epc": "G1", "lot_id": "LOT001"}, true)
	expectStatus(t, rec, http.StatusCreated)

	rec, env := s.do(t, http.MethodDelete, "/api/lots/LOT001", nil, true)
	expectStatus(t, rec, http.StatusOK)
	var data struct {
		LotID   string `json:"lot_id"`
		Removed int    `json:"jeans_supprimes"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.LotID != "LOT001" || data.Removed != 1 {
		t.Fatalf("data = %+v", data)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/lots/LOT001", nil, true)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestHealthCheck(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodGet, "/health", nil, false)
	expectStatus(t, rec, http.StatusOK)
	if !env.Success {
		t.Fatalf("expected healthy response")
	}
}

func TestDateOnlyTimestamps(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/lots", map[string]string{"epc": "E1", "temps_debut": "2024-03-05"}, true)
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		TempsDebut time.Time `json:"temps_debut"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode lot: %v", err)
	}
	if want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC); !created.TempsDebut.Equal(want) {
		t.Fatalf("temps_debut = %v, want %v", created.TempsDebut, want)
	}

	rec, env = s.do(t, http.MethodPost, "/api/lots", map[string]string{"epc": "E2", "temps_debut": "05/03/2024"}, true)
	expectStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(env.Error, "temps_debut") {
		t.Fatalf("error = %q, want it to name temps_debut", env.Error)
	}

	rec, env = s.do(t, http.MethodPost, "/api/jeans", map[string]string{"epc": "G1", "lot_id": "LOT001"}, true)
	expectStatus(t, rec, http.StatusCreated)
	var added struct {
		Jean struct {
			JeanID uint `json:"jean_id"`
		} `json:"jean"`
	}
	if err := json.Unmarshal(env.Data, &added); err != nil {
		t.Fatalf("decode garment: %v", err)
	}
	rec, _ = s.do(t, http.MethodPut, "/api/lots/LOT001", map[string]string{
		"statut":      "en_cours",
		"ouvrier_nom": testutil.WorkerFullName,
	}, true)
	expectStatus(t, rec, http.StatusOK)

	path := fmt.Sprintf("/api/jeans/%d/quality-control", added.Jean.JeanID)
	rec, env = s.do(t, http.MethodPatch, path, map[string]interface{}{
		"lot_id":         "LOT001",
		"date_controle":  "yesterday",
		"raison_defaut":  "couture",
		"responsable_id": testutil.ResponsibleID,
	}, true)
	expectStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(env.Error, "date_controle") {
		t.Fatalf("error = %q, want it to name date_controle", env.Error)
	}

	rec, _ = s.do(t, http.MethodPatch, path, map[string]interface{}{
		"lot_id":         "LOT001",
		"date_controle":  "2024-03-06",
		"raison_defaut":  "couture",
		"responsable_id": testutil.ResponsibleID,
	}, true)
	expectStatus(t, rec, http.StatusOK)
}
