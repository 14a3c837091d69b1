package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/internal/lot/usecase/query"
)

// Commands groups the write side of the lots service
type Commands struct {
	CreateLot     *command.CreateLotHandler
	DeleteLot     *command.DeleteLotHandler
	TransitionLot *command.TransitionLotHandler
	StoreLot      *command.StoreLotHandler
	RecordCount   *command.RecordDetectionHandler
	AddGarment    *command.AddGarmentHandler
	RemoveGarment *command.RemoveGarmentHandler
	RecordDefect  *command.RecordDefectHandler
	UpdateQuality *command.UpdateGarmentQualityHandler
}

// Queries groups the read side of the lots service
type Queries struct {
	GetLot         *query.GetLotHandler
	ListLots       *query.ListLotsHandler
	UnassignedLots *query.ListUnassignedLotsHandler
	GarmentsByLot  *query.GarmentsByLotHandler
	CountGarments  *query.CountGarmentsHandler
	GetGarment     *query.GetGarmentHandler
	Stock          *query.ListStockHandler
	Discrepancies  *query.ListDiscrepanciesHandler
	WorkerProgress *query.WorkerProgressHandler
	GlobalView     *query.GlobalViewHandler
}

// LotHandler handles HTTP requests for lots, garments and reports
type LotHandler struct {
	commands Commands
	queries  Queries
	metrics  *metrics.Metrics
}

// NewLotHandler creates a new lot handler
func NewLotHandler(commands Commands, queries Queries, m *metrics.Metrics) *LotHandler {
	return &LotHandler{commands: commands, queries: queries, metrics: m}
}

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// RegisterRoutes registers all lot routes. Operator routes go through auth,
// reader routes through the rate limiter.
func (h *LotHandler) RegisterRoutes(router *mux.Router, auth, reader func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api").Subrouter()

	// Reader routes first: their paths would otherwise match /api/lots/{lot_id}.
	readers := api.NewRoute().Subrouter()
	readers.Use(reader)
	readers.HandleFunc("/lots/stockage", h.metered("store_lot", h.StoreLot)).Methods("POST")
	readers.HandleFunc("/lots/detect-count", h.metered("detect_count", h.DetectCount)).Methods("POST")
	readers.HandleFunc("/lot-history/stock", h.metered("stock", h.ListStock)).Methods("GET")

	operators := api.NewRoute().Subrouter()
	operators.Use(auth)
	operators.HandleFunc("/lots", h.metered("list_lots", h.ListLots)).Methods("GET")
	operators.HandleFunc("/lots", h.metered("create_lot", h.CreateLot)).Methods("POST")
	operators.HandleFunc("/lots/non-assigned", h.metered("non_assigned_lots", h.ListUnassignedLots)).Methods("GET")
	operators.HandleFunc("/lots/by-epc", h.metered("lot_by_epc", h.GetLotByEPC)).Methods("GET")
	operators.HandleFunc("/lots/{lot_id}", h.metered("get_lot", h.GetLot)).Methods("GET")
	operators.HandleFunc("/lots/{lot_id}", h.metered("transition_lot", h.TransitionLot)).Methods("PUT")
	operators.HandleFunc("/lots/{lot_id}", h.metered("delete_lot", h.DeleteLot)).Methods("DELETE")

	operators.HandleFunc("/jeans", h.metered("add_garment", h.AddGarment)).Methods("POST")
	operators.HandleFunc("/jeans", h.metered("remove_garment", h.RemoveGarment)).Methods("DELETE")
	operators.HandleFunc("/jeans/by-lot", h.metered("garments_by_lot", h.ListGarmentsByLot)).Methods("GET")
	operators.HandleFunc("/jeans/count", h.metered("count_garments", h.CountGarments)).Methods("GET")
	operators.HandleFunc("/jeans/by-epc", h.metered("garment_by_epc", h.GetGarmentByEPC)).Methods("GET")
	operators.HandleFunc("/jeans/{jean_id}/quality-control", h.metered("quality_control", h.RecordDefect)).Methods("PATCH", "POST")
	operators.HandleFunc("/jeans/{jean_id}", h.metered("update_garment", h.UpdateGarmentQuality)).Methods("PUT")

	operators.HandleFunc("/lot-history/discrepancies", h.metered("discrepancies", h.ListDiscrepancies)).Methods("GET")
	operators.HandleFunc("/lot-history/discrepancies/export", h.metered("discrepancies_export", h.ExportDiscrepancies)).Methods("GET")
	operators.HandleFunc("/worker-progress", h.metered("worker_progress", h.WorkerProgress)).Methods("GET")
	operators.HandleFunc("/direction/global-view", h.metered("global_view", h.GlobalView)).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *LotHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Lots service is healthy",
		})
	}).Methods("GET")
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metered wraps handlers with Prometheus metrics
func (h *LotHandler) metered(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.metrics.ObserveRequest(r.Method, endpoint, rw.statusCode, time.Since(start).Seconds())
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

// chaineFor returns the requested production line, falling back to the caller's own
func chaineFor(r *http.Request, requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return claims.ChaineID
	}
	return ""
}
