package command_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/directory"
	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/internal/lot/repository"
	"github.com/tair/rfid-textile/internal/lot/testutil"
	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/kafka"
	"github.com/tair/rfid-textile/pkg/database"
)

type recordingPublisher struct {
	mu            sync.Mutex
	transitions   []kafka.LotTransitionedEvent
	stored        []kafka.LotStoredEvent
	discrepancies []kafka.DetectionDiscrepancyEvent
}

func (p *recordingPublisher) PublishLotTransitioned(_ context.Context, e kafka.LotTransitionedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, e)
	return nil
}

func (p *recordingPublisher) PublishLotStored(_ context.Context, e kafka.LotStoredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stored = append(p.stored, e)
	return nil
}

func (p *recordingPublisher) PublishDetectionDiscrepancy(_ context.Context, e kafka.DetectionDiscrepancyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discrepancies = append(p.discrepancies, e)
	return nil
}

type engine struct {
	db     *gorm.DB
	events *recordingPublisher

	create     *command.CreateLotHandler
	del        *command.DeleteLotHandler
	transition *command.TransitionLotHandler
	store      *command.StoreLotHandler
	detect     *command.RecordDetectionHandler
	add        *command.AddGarmentHandler
	remove     *command.RemoveGarmentHandler
	defect     *command.RecordDefectHandler
	quality    *command.UpdateGarmentQualityHandler
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	db := testutil.NewDB(t)
	tx := database.NewGormTxRunner(db)
	lots := repository.NewLotRepositoryWithTracing(repository.NewGormLotRepository())
	garments := repository.NewGarmentRepositoryWithTracing(repository.NewGormGarmentRepository())
	history := repository.NewHistoryRepositoryWithTracing(repository.NewGormHistoryRepository())
	controls := repository.NewGormQualityControlRepository()
	dir := directory.NewGormDirectory()
	workers := directory.NewCachedWorkerDirectory(dir, nil, time.Minute)
	m := metrics.NewMetrics(nil)
	events := &recordingPublisher{}

	return &engine{
		db:         db,
		events:     events,
		create:     command.NewCreateLotHandler(tx, lots),
		del:        command.NewDeleteLotHandler(tx, lots, garments),
		transition: command.NewTransitionLotHandler(tx, lots, garments, history, workers, events, m),
		store:      command.NewStoreLotHandler(tx, lots, garments, history, events, m),
		detect:     command.NewRecordDetectionHandler(tx, history, events, m),
		add:        command.NewAddGarmentHandler(tx, lots, garments, workers, m),
		remove:     command.NewRemoveGarmentHandler(tx, lots, garments, m),
		defect:     command.NewRecordDefectHandler(tx, lots, garments, controls, history, dir),
		quality:    command.NewUpdateGarmentQualityHandler(tx, lots, garments, history),
	}
}

func (e *engine) createLot(t *testing.T, epc string) *domain.Lot {
	t.Helper()
	lot, err := e.create.Handle(context.Background(), command.CreateLotCommand{
		EPC:          epc,
		Taille:       "32",
		Couleur:      "bleu",
		ChaineID:     testutil.ChaineID,
		TempsDebut:   time.Now().UTC().Add(-time.Hour),
		OperateurNom: "Sami Trabelsi",
	})
	if err != nil {
		t.Fatalf("create lot %s: %v", epc, err)
	}
	return lot
}

func (e *engine) addGarment(t *testing.T, lotID, epc string) *domain.Garment {
	t.Helper()
	res, err := e.add.Handle(context.Background(), command.AddGarmentCommand{
		EPC:      epc,
		LotID:    lotID,
		ChaineID: testutil.ChaineID,
	})
	if err != nil {
		t.Fatalf("add garment %s: %v", epc, err)
	}
	return res.Garment
}

func (e *engine) moveTo(t *testing.T, lotID, statut string) *command.TransitionResult {
	t.Helper()
	cmd := command.TransitionLotCommand{LotID: lotID, Statut: statut}
	if statut == string(domain.StatusEnCours) {
		cmd.OuvrierNom = testutil.WorkerFullName
	}
	res, err := e.transition.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("transition %s to %s: %v", lotID, statut, err)
	}
	return res
}

func (e *engine) lot(t *testing.T, lotID string) domain.Lot {
	t.Helper()
	var lot domain.Lot
	if err := e.db.Where("lot_id = ?", lotID).First(&lot).Error; err != nil {
		t.Fatalf("load lot %s: %v", lotID, err)
	}
	return lot
}

func (e *engine) count(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func intPtr(v int) *int { return &v }

func expectCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := domain.CodeOf(err); got != code {
		t.Fatalf("expected %s error, got %s: %v", code, got, err)
	}
}
