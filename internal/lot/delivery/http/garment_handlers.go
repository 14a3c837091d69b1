package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/rfid-textile/internal/lot/usecase/command"
)

// AddGarment handles POST /api/jeans
func (h *LotHandler) AddGarment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EPC      string `json:"epc"`
		LotID    string `json:"lot_id"`
		ChaineID string `json:"chaine_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.commands.AddGarment.Handle(r.Context(), command.AddGarmentCommand{
		EPC:      req.EPC,
		LotID:    req.LotID,
		ChaineID: chaineFor(r, req.ChaineID),
	})
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Garment added successfully",
		Data:    result,
	})
}

// RemoveGarment handles DELETE /api/jeans. The epc comes in the body or the query string.
func (h *LotHandler) RemoveGarment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EPC string `json:"epc"`
	}
	if epc := r.URL.Query().Get("epc"); epc != "" {
		req.EPC = epc
	} else if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.commands.RemoveGarment.Handle(r.Context(), command.RemoveGarmentCommand{EPC: req.EPC})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Garment removed successfully",
		Data:    result,
	})
}

// RecordDefect handles PATCH /api/jeans/{jean_id}/quality-control
func (h *LotHandler) RecordDefect(w http.ResponseWriter, r *http.Request) {
	jeanID, err := strconv.ParseUint(mux.Vars(r)["jean_id"], 10, 32)
	if err != nil {
		respondBadRequest(w, "Invalid jean ID")
		return
	}

	var req struct {
		LotID         string `json:"lot_id"`
		DateControle  string `json:"date_controle"`
		Resultat      string `json:"resultat"`
		RaisonDefaut  string `json:"raison_defaut"`
		ResponsableID uint   `json:"responsable_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}
	dateControle, err := parseTimestamp("date_controle", req.DateControle)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	result, err := h.commands.RecordDefect.Handle(r.Context(), command.RecordDefectCommand{
		JeanID:        uint(jeanID),
		LotID:         req.LotID,
		DateControle:  dateControle,
		Resultat:      req.Resultat,
		RaisonDefaut:  req.RaisonDefaut,
		ResponsableID: req.ResponsableID,
	})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Garment marked defective",
		Data:    result,
	})
}

// UpdateGarmentQuality handles PUT /api/jeans/{jean_id}
func (h *LotHandler) UpdateGarmentQuality(w http.ResponseWriter, r *http.Request) {
	jeanID, err := strconv.ParseUint(mux.Vars(r)["jean_id"], 10, 32)
	if err != nil {
		respondBadRequest(w, "Invalid jean ID")
		return
	}

	var req struct {
		StatutQualite string `json:"statut_qualite"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.commands.UpdateQuality.Handle(r.Context(), command.UpdateGarmentQualityCommand{
		JeanID:        uint(jeanID),
		StatutQualite: req.StatutQualite,
	})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Garment updated successfully",
		Data:    result,
	})
}

// ListGarmentsByLot handles GET /api/jeans/by-lot
func (h *LotHandler) ListGarmentsByLot(w http.ResponseWriter, r *http.Request) {
	garments, err := h.queries.GarmentsByLot.Handle(r.Context(), r.URL.Query().Get("lot_id"))
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	epcs := make([]string, 0, len(garments))
	for _, g := range garments {
		epcs = append(epcs, g.EPC)
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: epcs})
}

// CountGarments handles GET /api/jeans/count
func (h *LotHandler) CountGarments(w http.ResponseWriter, r *http.Request) {
	lotID := r.URL.Query().Get("lot_id")
	count, err := h.queries.CountGarments.Handle(r.Context(), lotID)
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"lot_id": lotID,
			"count":  count,
		},
	})
}

// GetGarmentByEPC handles GET /api/jeans/by-epc
func (h *LotHandler) GetGarmentByEPC(w http.ResponseWriter, r *http.Request) {
	garment, err := h.queries.GetGarment.Handle(r.Context(), r.URL.Query().Get("epc"))
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: garment})
}
