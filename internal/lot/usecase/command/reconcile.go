package command

import (
	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// reconciler keeps lot counters equal to what the live garment rows say.
// Counters are only ever rebuilt with COUNT queries under the lot row lock.
type reconciler struct {
	lots     domain.LotRepository
	garments domain.GarmentRepository
	history  domain.HistoryRepository
}

// count loads quantite_initiale and jeans_defectueux from the live garments
func (r reconciler) count(dbc database.Context, lot *domain.Lot) error {
	total, err := r.garments.CountByLot(dbc, lot.LotID)
	if err != nil {
		return err
	}
	defective, err := r.garments.CountByLotAndQuality(dbc, lot.LotID, domain.QualityDefectueux)
	if err != nil {
		return err
	}
	lot.QuantiteInitiale = int(total)
	lot.JeansDefectueux = int(defective)
	return nil
}

// recount refreshes the counters of lot and saves it. quantite_finale is not touched.
func (r reconciler) recount(dbc database.Context, lot *domain.Lot) error {
	if err := r.count(dbc, lot); err != nil {
		return err
	}
	return r.lots.Save(dbc, lot)
}

// resettle is the recompute path of a finished lot: garments not flagged defective
// become ok, counters are recounted, quantite_finale is frozen again and an existing
// history snapshot takes the new counters.
func (r reconciler) resettle(dbc database.Context, lot *domain.Lot) error {
	if _, err := r.garments.SettleQuality(dbc, lot.LotID); err != nil {
		return err
	}
	if err := r.count(dbc, lot); err != nil {
		return err
	}
	lot.Finalize()
	if err := r.lots.Save(dbc, lot); err != nil {
		return err
	}

	h, err := r.history.FindLot(dbc, lot.LotID)
	if domain.IsCode(err, domain.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	h.QuantiteInitiale = lot.QuantiteInitiale
	h.JeansDefectueux = lot.JeansDefectueux
	h.QuantiteFinale = lot.QuantiteFinale
	return r.history.SaveLot(dbc, h)
}
