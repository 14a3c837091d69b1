package command_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/testutil"
	"github.com/tair/rfid-textile/internal/lot/usecase/command"
)

func TestCreateLotValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.create.Handle(ctx, command.CreateLotCommand{EPC: "X1"})
	expectCode(t, err, domain.CodeValidation)

	e.createLot(t, "X2")
	_, err = e.create.Handle(ctx, command.CreateLotCommand{
		EPC:        " x2 ",
		Taille:     "34",
		Couleur:    "noir",
		ChaineID:   testutil.ChaineID,
		TempsDebut: time.Now(),
	})
	expectCode(t, err, domain.CodeConflict)

	next := e.createLot(t, "X3")
	if next.LotID != "LOT002" {
		t.Fatalf("a rejected create consumed a lot id: got %s", next.LotID)
	}
}

func TestAddGarmentRules(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	lot := e.createLot(t, "A1")
	e.addGarment(t, lot.LotID, "GA1")

	t.Run("duplicate epc", func(t *testing.T) {
		_, err := e.add.Handle(ctx, command.AddGarmentCommand{EPC: "ga1", LotID: lot.LotID, ChaineID: testutil.ChaineID})
		expectCode(t, err, domain.CodeConflict)
	})

	t.Run("wrong chaine", func(t *testing.T) {
		_, err := e.add.Handle(ctx, command.AddGarmentCommand{EPC: "GA2", LotID: lot.LotID, ChaineID: testutil.OtherChaineID})
		expectCode(t, err, domain.CodeNotFound)
	})

	t.Run("unknown lot", func(t *testing.T) {
		_, err := e.add.Handle(ctx, command.AddGarmentCommand{EPC: "GA3", LotID: "LOT999", ChaineID: testutil.ChaineID})
		expectCode(t, err, domain.CodeNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := e.add.Handle(ctx, command.AddGarmentCommand{EPC: "GA4"})
		expectCode(t, err, domain.CodeValidation)
	})

	if got := e.lot(t, lot.LotID).QuantiteInitiale; got != 1 {
		t.Fatalf("rejected adds changed quantite_initiale to %d", got)
	}
}

func TestAddGarmentMirrorsActiveAssignment(t *testing.T) {
	e := newEngine(t)
	lot := e.createLot(t, "A2")
	e.moveTo(t, lot.LotID, "en_cours")

	g := e.addGarment(t, lot.LotID, "GB1")
	if g.Statut != domain.StatusEnCours || g.OuvrierNom != testutil.WorkerFullName || g.Localisation != testutil.WorkerMachine {
		t.Fatalf("assignment not mirrored: %+v", g)
	}
	if g.OuvrierID == nil {
		t.Fatalf("ouvrier_id not resolved")
	}
}

func TestAddGarmentAfterTermineKeepsFinale(t *testing.T) {
	e := newEngine(t)
	lot := e.createLot(t, "A3")
	e.addGarment(t, lot.LotID, "GC1")
	e.moveTo(t, lot.LotID, "en_cours")
	e.moveTo(t, lot.LotID, "termine")

	g := e.addGarment(t, lot.LotID, "GC2")
	if g.StatutQualite != domain.QualityOK || g.Statut != domain.StatusTermine {
		t.Fatalf("late garment: expected ok/termine, got %s/%s", g.StatutQualite, g.Statut)
	}
	got := e.lot(t, lot.LotID)
	if got.QuantiteInitiale != 2 || *got.QuantiteFinale != 1 {
		t.Fatalf("expected initiale 2 and frozen finale 1, got %d/%d", got.QuantiteInitiale, *got.QuantiteFinale)
	}
}

func TestConcurrentScansKeepCountsExact(t *testing.T) {
	e := newEngine(t)
	lot := e.createLot(t, "C1")

	const scans = 20
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < scans; i++ {
		epc := fmt.Sprintf("GC%02d", i)
		g.Go(func() error {
			_, err := e.add.Handle(ctx, command.AddGarmentCommand{EPC: epc, LotID: lot.LotID, ChaineID: testutil.ChaineID})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent adds: %v", err)
	}

	got := e.lot(t, lot.LotID)
	if got.QuantiteInitiale != scans {
		t.Fatalf("expected quantite_initiale %d, got %d", scans, got.QuantiteInitiale)
	}
	if n := e.count(t, &domain.Garment{}, "lot_id = ?", lot.LotID); n != scans {
		t.Fatalf("expected %d garment rows, got %d", scans, n)
	}
}

func TestConcurrentDuplicateScanAttachesOnce(t *testing.T) {
	e := newEngine(t)
	lot := e.createLot(t, "C2")

	const attempts = 8
	results := make([]error, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = e.add.Handle(context.Background(), command.AddGarmentCommand{
				EPC: "DUP", LotID: lot.LotID, ChaineID: testutil.ChaineID,
			})
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case !domain.IsCode(err, domain.CodeConflict):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful attach, got %d", succeeded)
	}
	if got := e.lot(t, lot.LotID).QuantiteInitiale; got != 1 {
		t.Fatalf("expected quantite_initiale 1, got %d", got)
	}
}

func TestRemoveGarmentRecounts(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	lot := e.createLot(t, "R1")
	e.addGarment(t, lot.LotID, "GR1")
	e.addGarment(t, lot.LotID, "GR2")

	res, err := e.remove.Handle(ctx, command.RemoveGarmentCommand{EPC: "gr1"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.EPC != "GR1" || res.Lot.QuantiteInitiale != 1 {
		t.Fatalf("unexpected remove result: %+v", res)
	}

	_, err = e.remove.Handle(ctx, command.RemoveGarmentCommand{EPC: "GR1"})
	expectCode(t, err, domain.CodeNotFound)
}

func TestDeleteLotRemovesGarments(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	lot := e.createLot(t, "D1")
	e.addGarment(t, lot.LotID, "GD1")
	e.addGarment(t, lot.LotID, "GD2")

	removed, err := e.del.Handle(ctx, command.DeleteLotCommand{LotID: lot.LotID})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 garments removed, got %d", removed)
	}
	if n := e.count(t, &domain.Garment{}, "lot_id = ?", lot.LotID); n != 0 {
		t.Fatalf("garments left behind")
	}

	_, err = e.del.Handle(ctx, command.DeleteLotCommand{LotID: lot.LotID})
	expectCode(t, err, domain.CodeNotFound)
}

func TestRecordDefectRules(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	lot := e.createLot(t, "Q1")
	g := e.addGarment(t, lot.LotID, "GQ1")
	other := e.createLot(t, "Q2")

	valid := command.RecordDefectCommand{
		JeanID:        g.JeanID,
		LotID:         lot.LotID,
		DateControle:  time.Now().UTC(),
		RaisonDefaut:  "tache",
		ResponsableID: testutil.ResponsibleID,
	}

	t.Run("lot not started", func(t *testing.T) {
		_, err := e.defect.Handle(ctx, valid)
		expectCode(t, err, domain.CodeValidation)
	})

	e.moveTo(t, lot.LotID, "en_cours")

	t.Run("missing reason", func(t *testing.T) {
		cmd := valid
		cmd.RaisonDefaut = ""
		_, err := e.defect.Handle(ctx, cmd)
		expectCode(t, err, domain.CodeValidation)
	})

	t.Run("resultat other than defectueux", func(t *testing.T) {
		cmd := valid
		cmd.Resultat = "ok"
		_, err := e.defect.Handle(ctx, cmd)
		expectCode(t, err, domain.CodeValidation)
	})

	t.Run("lot mismatch", func(t *testing.T) {
		cmd := valid
		cmd.LotID = other.LotID
		_, err := e.defect.Handle(ctx, cmd)
		expectCode(t, err, domain.CodeValidation)
	})

	t.Run("unknown garment", func(t *testing.T) {
		cmd := valid
		cmd.JeanID = 9999
		_, err := e.defect.Handle(ctx, cmd)
		expectCode(t, err, domain.CodeNotFound)
	})

	t.Run("unknown responsible", func(t *testing.T) {
		cmd := valid
		cmd.ResponsableID = 42
		_, err := e.defect.Handle(ctx, cmd)
		expectCode(t, err, domain.CodeNotFound)
	})

	if n := e.count(t, &domain.QualityControl{}, "jean_id = ?", g.JeanID); n != 0 {
		t.Fatalf("rejected controls were recorded")
	}

	t.Run("flagging twice keeps one defect", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			res, err := e.defect.Handle(ctx, valid)
			if err != nil {
				t.Fatalf("record defect: %v", err)
			}
			if res.Lot.JeansDefectueux != 1 {
				t.Fatalf("expected jeans_defectueux 1, got %d", res.Lot.JeansDefectueux)
			}
		}
		if n := e.count(t, &domain.QualityControl{}, "jean_id = ?", g.JeanID); n != 2 {
			t.Fatalf("expected 2 control records, got %d", n)
		}
	})
}

func TestQualityChangeAfterTermineRefreezes(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	lot := e.createLot(t, "Q3")
	g1 := e.addGarment(t, lot.LotID, "GQ31")
	e.addGarment(t, lot.LotID, "GQ32")
	e.moveTo(t, lot.LotID, "en_cours")
	e.moveTo(t, lot.LotID, "termine")

	res, err := e.defect.Handle(ctx, command.RecordDefectCommand{
		JeanID:        g1.JeanID,
		LotID:         lot.LotID,
		DateControle:  time.Now().UTC(),
		RaisonDefaut:  "dechirure",
		ResponsableID: testutil.ResponsibleID,
	})
	if err != nil {
		t.Fatalf("record defect: %v", err)
	}
	if res.Lot.JeansDefectueux != 1 || *res.Lot.QuantiteFinale != 1 {
		t.Fatalf("expected defectueux 1 and finale 1, got %d/%d", res.Lot.JeansDefectueux, *res.Lot.QuantiteFinale)
	}

	var h domain.LotHistory
	if err := e.db.Where("lot_id = ?", lot.LotID).First(&h).Error; err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.JeansDefectueux != 1 || *h.QuantiteFinale != 1 {
		t.Fatalf("history not refreshed: %+v", h)
	}

	back, err := e.quality.Handle(ctx, command.UpdateGarmentQualityCommand{JeanID: g1.JeanID, StatutQualite: "non verifie"})
	if err != nil {
		t.Fatalf("update quality: %v", err)
	}
	if back.Garment.StatutQualite != domain.QualityOK || *back.Lot.QuantiteFinale != 2 {
		t.Fatalf("expected settled ok and finale 2, got %s/%d", back.Garment.StatutQualite, *back.Lot.QuantiteFinale)
	}

	_, err = e.quality.Handle(ctx, command.UpdateGarmentQualityCommand{JeanID: g1.JeanID, StatutQualite: "bon"})
	expectCode(t, err, domain.CodeValidation)
}
