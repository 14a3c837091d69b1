package query_test

import (
	"context"
	"math"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/directory"
	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/repository"
	"github.com/tair/rfid-textile/internal/lot/testutil"
	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/internal/lot/usecase/query"
	"github.com/tair/rfid-textile/pkg/database"
)

type fixture struct {
	db         *gorm.DB
	create     *command.CreateLotHandler
	add        *command.AddGarmentHandler
	transition *command.TransitionLotHandler
	defect     *command.RecordDefectHandler
	store      *command.StoreLotHandler
	detect     *command.RecordDetectionHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	tx := database.NewGormTxRunner(db)
	lots := repository.NewGormLotRepository()
	garments := repository.NewGormGarmentRepository()
	history := repository.NewGormHistoryRepository()
	dir := directory.NewGormDirectory()

	return &fixture{
		db:         db,
		create:     command.NewCreateLotHandler(tx, lots),
		add:        command.NewAddGarmentHandler(tx, lots, garments, dir, nil),
		transition: command.NewTransitionLotHandler(tx, lots, garments, history, dir, nil, nil),
		defect:     command.NewRecordDefectHandler(tx, lots, garments, repository.NewGormQualityControlRepository(), history, dir),
		store:      command.NewStoreLotHandler(tx, lots, garments, history, nil, nil),
		detect:     command.NewRecordDetectionHandler(tx, history, nil, nil),
	}
}

// lot creates a lot with the given garments and walks it to statut
func (f *fixture) lot(t *testing.T, epc, worker string, garments []string, defects int, statut domain.Status) *domain.Lot {
	t.Helper()
	ctx := context.Background()

	lot, err := f.create.Handle(ctx, command.CreateLotCommand{
		EPC: epc, Taille: "30", Couleur: "bleu", ChaineID: testutil.ChaineID, TempsDebut: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var ids []uint
	for _, g := range garments {
		res, err := f.add.Handle(ctx, command.AddGarmentCommand{EPC: g, LotID: lot.LotID, ChaineID: testutil.ChaineID})
		if err != nil {
			t.Fatalf("add %s: %v", g, err)
		}
		ids = append(ids, res.Garment.JeanID)
	}
	if statut == domain.StatusEnAttente {
		if worker != "" {
			t.Fatalf("en_attente lots cannot carry a worker")
		}
		return lot
	}

	if _, err := f.transition.Handle(ctx, command.TransitionLotCommand{LotID: lot.LotID, Statut: "en_cours", OuvrierNom: worker}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < defects; i++ {
		_, err := f.defect.Handle(ctx, command.RecordDefectCommand{
			JeanID: ids[i], LotID: lot.LotID, DateControle: time.Now().UTC(),
			RaisonDefaut: "couture", ResponsableID: testutil.ResponsibleID,
		})
		if err != nil {
			t.Fatalf("defect: %v", err)
		}
	}
	if statut == domain.StatusEnCours {
		return lot
	}
	if _, err := f.transition.Handle(ctx, command.TransitionLotCommand{LotID: lot.LotID, Statut: "termine"}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if statut == domain.StatusStocke {
		if _, err := f.store.Handle(ctx, command.StoreLotCommand{EPC: epc}); err != nil {
			t.Fatalf("store: %v", err)
		}
	}
	return lot
}

func TestWorkerProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := time.Now().UTC()

	f.lot(t, "W1", testutil.WorkerFullName, []string{"W1A", "W1B", "W1C", "W1D", "W1E"}, 1, domain.StatusStocke)
	f.lot(t, "W2", testutil.WorkerFullName, []string{"W2A", "W2B"}, 0, domain.StatusEnCours)
	f.lot(t, "W3", "", []string{"W3A"}, 0, domain.StatusEnAttente)

	handler := query.NewWorkerProgressHandler(f.db, repository.NewGormReportRepository(), 10)
	progress, err := handler.Handle(ctx, domain.WorkerProgressFilter{ChaineID: testutil.ChaineID, Day: day})
	if err != nil {
		t.Fatalf("worker progress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("expected 1 worker on %s, got %d", testutil.ChaineID, len(progress))
	}

	p := progress[0]
	if p.Nom != testutil.WorkerNom || p.LotsTermines != 1 || p.JeansTermines != 4 || p.JeansDefectueux != 1 {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if p.QuantiteATraiter != 7 {
		t.Fatalf("expected quantite_a_traiter 7 (5 finished + 2 in progress), got %d", p.QuantiteATraiter)
	}
	if math.Abs(p.PourcentageAvancement-8) > 1e-9 {
		t.Fatalf("expected 8%% progress, got %f", p.PourcentageAvancement)
	}

	other, err := handler.Handle(ctx, domain.WorkerProgressFilter{ChaineID: testutil.ChaineID, Day: day.AddDate(0, 0, -2)})
	if err != nil {
		t.Fatalf("worker progress: %v", err)
	}
	if len(other) != 1 || other[0].LotsTermines != 0 || other[0].QuantiteATraiter != 0 {
		t.Fatalf("expected an empty day, got %+v", other)
	}
}

func TestListDiscrepancies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	matched := f.lot(t, "S1", testutil.WorkerFullName, []string{"S1A", "S1B"}, 0, domain.StatusStocke)
	missing := f.lot(t, "S2", testutil.WorkerFullName, []string{"S2A", "S2B", "S2C"}, 1, domain.StatusStocke)
	f.lot(t, "S3", testutil.WorkerFullName, []string{"S3A"}, 0, domain.StatusStocke)

	for lotID, n := range map[string]int{matched.LotID: 2, missing.LotID: 1} {
		n := n
		if _, err := f.detect.Handle(ctx, command.RecordDetectionCommand{LotID: lotID, DetectedCount: &n}); err != nil {
			t.Fatalf("detect %s: %v", lotID, err)
		}
	}

	handler := query.NewListDiscrepanciesHandler(f.db, repository.NewGormReportRepository())

	all, err := handler.Handle(ctx, domain.DiscrepancyFilter{ChaineID: testutil.ChaineID})
	if err != nil {
		t.Fatalf("discrepancies: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 detected lots, got %d", len(all))
	}

	mismatched, err := handler.Handle(ctx, domain.DiscrepancyFilter{OnlyMismatched: true})
	if err != nil {
		t.Fatalf("discrepancies: %v", err)
	}
	if len(mismatched) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(mismatched))
	}
	d := mismatched[0]
	if d.LotID != missing.LotID || d.QuantiteFinale != 2 || d.Delta != 1 || d.Kind != domain.DiscrepancyMissing {
		t.Fatalf("unexpected discrepancy: %+v", d)
	}

	stock, err := query.NewListStockHandler(f.db, repository.NewGormHistoryRepository()).Handle(ctx, testutil.ChaineID)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if len(stock) != 3 {
		t.Fatalf("expected 3 stored lots, got %d", len(stock))
	}
}

func TestLotQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lots := repository.NewGormLotRepository()
	garments := repository.NewGormGarmentRepository()

	waiting := f.lot(t, "L1", "", []string{"L1A", "L1B"}, 0, domain.StatusEnAttente)
	f.lot(t, "L2", testutil.WorkerFullName, []string{"L2A"}, 0, domain.StatusEnCours)

	got, err := query.NewGetLotHandler(f.db, lots).Handle(ctx, query.GetLotQuery{EPC: "l1"})
	if err != nil || got.LotID != waiting.LotID {
		t.Fatalf("get by epc: %v %+v", err, got)
	}
	_, err = query.NewGetLotHandler(f.db, lots).Handle(ctx, query.GetLotQuery{})
	if !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = query.NewGetLotHandler(f.db, lots).Handle(ctx, query.GetLotQuery{LotID: "LOT999"})
	if !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	list := query.NewListLotsHandler(f.db, lots)
	all, err := list.Handle(ctx, query.ListLotsQuery{ChaineID: testutil.ChaineID})
	if err != nil || len(all) != 2 {
		t.Fatalf("list: %v, %d lots", err, len(all))
	}
	if _, err := list.Handle(ctx, query.ListLotsQuery{Statut: "perdu"}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error for unknown statut, got %v", err)
	}

	unassigned, err := query.NewListUnassignedLotsHandler(list).Handle(ctx, testutil.ChaineID)
	if err != nil || len(unassigned) != 1 || unassigned[0].LotID != waiting.LotID {
		t.Fatalf("unassigned: %v %+v", err, unassigned)
	}

	count, err := query.NewCountGarmentsHandler(f.db, garments).Handle(ctx, waiting.LotID)
	if err != nil || count != 2 {
		t.Fatalf("count: %v %d", err, count)
	}
	byLot, err := query.NewGarmentsByLotHandler(f.db, garments).Handle(ctx, waiting.LotID)
	if err != nil || len(byLot) != 2 {
		t.Fatalf("garments by lot: %v %d", err, len(byLot))
	}
	g, err := query.NewGetGarmentHandler(f.db, garments).Handle(ctx, "l1a")
	if err != nil || g.LotID != waiting.LotID {
		t.Fatalf("garment by epc: %v %+v", err, g)
	}
}

func TestGlobalView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := database.NewGormTxRunner(f.db)
	lots := repository.NewGormLotRepository()
	garments := repository.NewGormGarmentRepository()
	history := repository.NewGormHistoryRepository()

	stored := f.lot(t, "V1", testutil.WorkerFullName, []string{"V1A", "V1B", "V1C"}, 1, domain.StatusStocke)
	finished := f.lot(t, "V2", testutil.WorkerFullName, []string{"V2A", "V2B"}, 1, domain.StatusTermine)
	running := f.lot(t, "V3", testutil.WorkerFullName, []string{"V3A", "V3B"}, 0, domain.StatusEnCours)
	waiting := f.lot(t, "V4", "", []string{"V4A"}, 0, domain.StatusEnAttente)

	// Flagged without an inspection record, so no reason is known.
	flagged, err := garments.FindByEPC(database.ReadOnly(ctx, f.db), "V3B")
	if err != nil {
		t.Fatalf("find V3B: %v", err)
	}
	update := command.NewUpdateGarmentQualityHandler(tx, lots, garments, history)
	if _, err := update.Handle(ctx, command.UpdateGarmentQualityCommand{JeanID: flagged.JeanID, StatutQualite: "defectueux"}); err != nil {
		t.Fatalf("flag V3B: %v", err)
	}

	handler := query.NewGlobalViewHandler(f.db, lots, garments, repository.NewGormQualityControlRepository(), history)
	view, err := handler.Handle(ctx, "")
	if err != nil {
		t.Fatalf("global view: %v", err)
	}
	if len(view) != 4 {
		t.Fatalf("expected 4 lots, got %d: %+v", len(view), view)
	}

	byLot := make(map[string]query.GlobalViewEntry, len(view))
	for _, e := range view {
		if _, dup := byLot[e.LotID]; dup {
			t.Fatalf("lot %s listed twice", e.LotID)
		}
		byLot[e.LotID] = e
	}

	tests := []struct {
		lotID   string
		source  string
		statut  domain.Status
		defects []query.DefectiveGarment
	}{
		{stored.LotID, query.SourceHistory, domain.StatusStocke, []query.DefectiveGarment{{EPC: "V1A", RaisonDefaut: "couture"}}},
		{finished.LotID, query.SourceHistory, domain.StatusTermine, []query.DefectiveGarment{{EPC: "V2A", RaisonDefaut: "couture"}}},
		{running.LotID, query.SourceLive, domain.StatusEnCours, []query.DefectiveGarment{{EPC: "V3B", RaisonDefaut: "Non spécifiée"}}},
		{waiting.LotID, query.SourceLive, domain.StatusEnAttente, nil},
	}
	for _, tt := range tests {
		t.Run(tt.lotID, func(t *testing.T) {
			e, ok := byLot[tt.lotID]
			if !ok {
				t.Fatalf("lot %s missing from the view", tt.lotID)
			}
			if e.Source != tt.source || e.Statut != tt.statut {
				t.Fatalf("source/statut = %s/%s, want %s/%s", e.Source, e.Statut, tt.source, tt.statut)
			}
			if len(e.Jeans) != len(tt.defects) {
				t.Fatalf("defective jeans = %+v, want %+v", e.Jeans, tt.defects)
			}
			for i := range tt.defects {
				if e.Jeans[i] != tt.defects[i] {
					t.Fatalf("defective jean %d = %+v, want %+v", i, e.Jeans[i], tt.defects[i])
				}
			}
		})
	}

	if s := byLot[stored.LotID]; s.DateStockage == nil || s.Localisation != testutil.WorkerMachine {
		t.Fatalf("stored lot should carry date_stockage and the machine it was built on: %+v", s)
	}

	other, err := handler.Handle(ctx, testutil.OtherChaineID)
	if err != nil {
		t.Fatalf("global view %s: %v", testutil.OtherChaineID, err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no lots on %s, got %d", testutil.OtherChaineID, len(other))
	}
}
