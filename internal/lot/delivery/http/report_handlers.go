package http

import (
	"net/http"
	"time"

	"github.com/tair/rfid-textile/internal/lot/domain"
)

// ListStock handles GET /api/lot-history/stock
func (h *LotHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.queries.Stock.Handle(r.Context(), r.URL.Query().Get("chaine_id"))
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: stock})
}

// ListDiscrepancies handles GET /api/lot-history/discrepancies
func (h *LotHandler) ListDiscrepancies(w http.ResponseWriter, r *http.Request) {
	report, err := h.queries.Discrepancies.Handle(r.Context(), discrepancyFilter(r))
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: report})
}

// WorkerProgress handles GET /api/worker-progress
func (h *LotHandler) WorkerProgress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.WorkerProgressFilter{
		ChaineID:   chaineFor(r, q.Get("chaine_id")),
		OuvrierNom: q.Get("ouvrier_nom"),
	}
	if raw := q.Get("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondBadRequest(w, "date must be formatted YYYY-MM-DD")
			return
		}
		filter.Day = day
	}

	progress, err := h.queries.WorkerProgress.Handle(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: progress})
}

// GlobalView handles GET /api/direction/global-view. Management sees every line unless chaine_id is given.
func (h *LotHandler) GlobalView(w http.ResponseWriter, r *http.Request) {
	view, err := h.queries.GlobalView.Handle(r.Context(), r.URL.Query().Get("chaine_id"))
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: view})
}

func discrepancyFilter(r *http.Request) domain.DiscrepancyFilter {
	return domain.DiscrepancyFilter{
		ChaineID:       r.URL.Query().Get("chaine_id"),
		OnlyMismatched: queryBool(r, "only_mismatched"),
	}
}
