package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for the Lots Service
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// CreateLot godoc
// @Summary Create a lot
// @Description Register a new lot tag on a production line. The lot starts en_attente with no garments.
// @Tags Lots
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{epc=string,taille=string,couleur=string,chaine_id=string,temps_debut=string} true "Lot data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/lots [post]
func (h *LotHandler) CreateLotDoc() {}

// ListLots godoc
// @Summary List lots
// @Description List lots of a production line, optionally filtered by status
// @Tags Lots
// @Security BearerAuth
// @Produce json
// @Param chaine_id query string false "Production line (defaults to the caller's)"
// @Param statut query string false "en_attente, en_cours or termine"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=array}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/lots [get]
func (h *LotHandler) ListLotsDoc() {}

// ListUnassignedLots godoc
// @Summary List unassigned lots
// @Description Waiting lots that have no worker yet
// @Tags Lots
// @Security BearerAuth
// @Produce json
// @Param chaine_id query string false "Production line"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/lots/non-assigned [get]
func (h *LotHandler) ListUnassignedLotsDoc() {}

// GetLot godoc
// @Summary Get lot
// @Description Get a lot by its identifier
// @Tags Lots
// @Security BearerAuth
// @Produce json
// @Param lot_id path string true "Lot ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/lots/{lot_id} [get]
func (h *LotHandler) GetLotDoc() {}

// TransitionLot godoc
// @Summary Change lot status
// @Description Move a lot en_attente -> en_cours -> termine. Starting requires ouvrier_nom.
// @Tags Lots
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param lot_id path string true "Lot ID"
// @Param request body object{statut=string,ouvrier_nom=string,localisation=string,temps_debut_travail=string,temps_fin=string} true "Transition"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/lots/{lot_id} [put]
func (h *LotHandler) TransitionLotDoc() {}

// DeleteLot godoc
// @Summary Delete lot
// @Description Delete a lot and every garment attached to it
// @Tags Lots
// @Security BearerAuth
// @Produce json
// @Param lot_id path string true "Lot ID"
// @Success 200 {object} object{success=bool,data=object{lot_id=string,jeans_supprimes=int}}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/lots/{lot_id} [delete]
func (h *LotHandler) DeleteLotDoc() {}

// StoreLot godoc
// @Summary Store a finished lot
// @Description Called by the storage reader. Archives the lot and its garments, then removes them from production.
// @Tags Readers
// @Accept json
// @Produce json
// @Param request body object{epc=string} true "Lot tag"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 429 {object} object{success=bool,error=string}
// @Router /api/lots/stockage [post]
func (h *LotHandler) StoreLotDoc() {}

// DetectCount godoc
// @Summary Record a portal count
// @Description Record how many garment tags a portal read on a stored lot and reconcile with quantite_finale
// @Tags Readers
// @Accept json
// @Produce json
// @Param request body object{lot_id=string,detected_count=int} true "Detection"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/lots/detect-count [post]
func (h *LotHandler) DetectCountDoc() {}

// AddGarment godoc
// @Summary Attach a garment
// @Description Attach a garment tag to a lot and recount the lot
// @Tags Jeans
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{epc=string,lot_id=string,chaine_id=string} true "Garment"
// @Success 201 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/jeans [post]
func (h *LotHandler) AddGarmentDoc() {}

// RemoveGarment godoc
// @Summary Detach a garment
// @Tags Jeans
// @Security BearerAuth
// @Produce json
// @Param epc query string true "Garment tag"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/jeans [delete]
func (h *LotHandler) RemoveGarmentDoc() {}

// RecordDefect godoc
// @Summary Record a defect
// @Description Mark a garment defective and keep a quality control record
// @Tags Jeans
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param jean_id path int true "Garment ID"
// @Param request body object{lot_id=string,date_controle=string,resultat=string,raison_defaut=string,responsable_id=int} true "Control"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/jeans/{jean_id}/quality-control [patch]
func (h *LotHandler) RecordDefectDoc() {}

// ListDiscrepancies godoc
// @Summary Reconciliation report
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param chaine_id query string false "Production line"
// @Param only_mismatched query bool false "Hide lots whose count matched"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/lot-history/discrepancies [get]
func (h *LotHandler) ListDiscrepanciesDoc() {}

// WorkerProgress godoc
// @Summary Worker progress
// @Description Daily completion per worker against the lot target
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param chaine_id query string false "Production line"
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/worker-progress [get]
func (h *LotHandler) WorkerProgressDoc() {}

// GlobalView godoc
// @Summary Management global view
// @Description Archived and live lots with their defective garments and defect reasons
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param chaine_id query string false "Production line, all lines when omitted"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/direction/global-view [get]
func (h *LotHandler) GlobalViewDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *LotHandler) HealthCheckDoc() {}
