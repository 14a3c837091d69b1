package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/internal/lot/usecase/query"
)

// CreateLot handles POST /api/lots
func (h *LotHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EPC        string    `json:"epc"`
		Taille     string    `json:"taille"`
		Couleur    string    `json:"couleur"`
		ChaineID   string    `json:"chaine_id"`
		TempsDebut string `json:"temps_debut"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}
	tempsDebut, err := parseTimestamp("temps_debut", req.TempsDebut)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	cmd := command.CreateLotCommand{
		EPC:        req.EPC,
		Taille:     req.Taille,
		Couleur:    req.Couleur,
		ChaineID:   chaineFor(r, req.ChaineID),
		TempsDebut: tempsDebut,
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		cmd.OperateurNom = claims.FullName()
	}

	lot, err := h.commands.CreateLot.Handle(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Lot created successfully",
		Data:    lot,
	})
}

// ListLots handles GET /api/lots
func (h *LotHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lots, err := h.queries.ListLots.Handle(r.Context(), query.ListLotsQuery{
		ChaineID:   chaineFor(r, q.Get("chaine_id")),
		Statut:     q.Get("statut"),
		Unassigned: queryBool(r, "unassigned"),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: lots})
}

// ListUnassignedLots handles GET /api/lots/non-assigned
func (h *LotHandler) ListUnassignedLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.queries.UnassignedLots.Handle(r.Context(), chaineFor(r, r.URL.Query().Get("chaine_id")))
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: lots})
}

// GetLotByEPC handles GET /api/lots/by-epc
func (h *LotHandler) GetLotByEPC(w http.ResponseWriter, r *http.Request) {
	epc := r.URL.Query().Get("epc")
	if epc == "" {
		respondBadRequest(w, "epc is required")
		return
	}

	lot, err := h.queries.GetLot.Handle(r.Context(), query.GetLotQuery{EPC: epc})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: lot})
}

// GetLot handles GET /api/lots/{lot_id}
func (h *LotHandler) GetLot(w http.ResponseWriter, r *http.Request) {
	lot, err := h.queries.GetLot.Handle(r.Context(), query.GetLotQuery{LotID: mux.Vars(r)["lot_id"]})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: lot})
}

// TransitionLot handles PUT /api/lots/{lot_id}
func (h *LotHandler) TransitionLot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Statut            string `json:"statut"`
		OuvrierNom        string `json:"ouvrier_nom"`
		Localisation      string `json:"localisation"`
		TempsDebutTravail string `json:"temps_debut_travail"`
		TempsFin          string `json:"temps_fin"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}
	debutTravail, err := parseOptionalTimestamp("temps_debut_travail", req.TempsDebutTravail)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	tempsFin, err := parseOptionalTimestamp("temps_fin", req.TempsFin)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	result, err := h.commands.TransitionLot.Handle(r.Context(), command.TransitionLotCommand{
		LotID:             mux.Vars(r)["lot_id"],
		Statut:            req.Statut,
		OuvrierNom:        req.OuvrierNom,
		Localisation:      req.Localisation,
		TempsDebutTravail: debutTravail,
		TempsFin:          tempsFin,
	})
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	message := "Lot updated successfully"
	if !result.Changed {
		message = "Lot already in requested status"
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    result.Lot,
	})
}

// DeleteLot handles DELETE /api/lots/{lot_id}
func (h *LotHandler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	lotID := mux.Vars(r)["lot_id"]
	removed, err := h.commands.DeleteLot.Handle(r.Context(), command.DeleteLotCommand{LotID: lotID})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Lot deleted successfully",
		Data: map[string]interface{}{
			"lot_id":          lotID,
			"jeans_supprimes": removed,
		},
	})
}

// StoreLot handles POST /api/lots/stockage
func (h *LotHandler) StoreLot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EPC string `json:"epc"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.commands.StoreLot.Handle(r.Context(), command.StoreLotCommand{EPC: req.EPC})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Lot stored successfully",
		Data:    result,
	})
}

// DetectCount handles POST /api/lots/detect-count
func (h *LotHandler) DetectCount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LotID         string `json:"lot_id"`
		DetectedCount *int   `json:"detected_count"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "detected_count must be a non-negative integer")
		return
	}

	result, err := h.commands.RecordCount.Handle(r.Context(), command.RecordDetectionCommand{
		LotID:         req.LotID,
		DetectedCount: req.DetectedCount,
	})
	if err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Detected count recorded",
		Data:    result,
	})
}
