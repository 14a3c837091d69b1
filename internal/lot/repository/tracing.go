package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

var tracer = otel.Tracer("lot-repository")

func startSpan(dbc database.Context, name string, attrs ...attribute.KeyValue) (database.Context, trace.Span) {
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	dbc.Ctx = ctx
	return dbc, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LotRepositoryWithTracing wraps a LotRepository with tracing
type LotRepositoryWithTracing struct {
	next domain.LotRepository
}

// NewLotRepositoryWithTracing creates a new lot repository with tracing
func NewLotRepositoryWithTracing(next domain.LotRepository) *LotRepositoryWithTracing {
	return &LotRepositoryWithTracing{next: next}
}

func (r *LotRepositoryWithTracing) NextLotID(dbc database.Context) (string, error) {
	dbc, span := startSpan(dbc, "repository.lot.NextLotID")
	id, err := r.next.NextLotID(dbc)
	span.SetAttributes(attribute.String("lot.id", id))
	endSpan(span, err)
	return id, err
}

func (r *LotRepositoryWithTracing) Create(dbc database.Context, lot *domain.Lot) error {
	dbc, span := startSpan(dbc, "repository.lot.Create",
		attribute.String("lot.id", lot.LotID),
		attribute.String("lot.epc", lot.EPC),
		attribute.String("lot.chaine_id", lot.ChaineID),
	)
	err := r.next.Create(dbc, lot)
	endSpan(span, err)
	return err
}

func (r *LotRepositoryWithTracing) FindByID(dbc database.Context, lotID string) (*domain.Lot, error) {
	dbc, span := startSpan(dbc, "repository.lot.FindByID", attribute.String("lot.id", lotID))
	lot, err := r.next.FindByID(dbc, lotID)
	endSpan(span, err)
	return lot, err
}

func (r *LotRepositoryWithTracing) FindByEPC(dbc database.Context, epc string) (*domain.Lot, error) {
	dbc, span := startSpan(dbc, "repository.lot.FindByEPC", attribute.String("lot.epc", epc))
	lot, err := r.next.FindByEPC(dbc, epc)
	endSpan(span, err)
	return lot, err
}

func (r *LotRepositoryWithTracing) LockByID(dbc database.Context, lotID string) (*domain.Lot, error) {
	dbc, span := startSpan(dbc, "repository.lot.LockByID", attribute.String("lot.id", lotID))
	lot, err := r.next.LockByID(dbc, lotID)
	if lot != nil {
		span.SetAttributes(
			attribute.String("lot.statut", string(lot.Statut)),
			attribute.Int("lot.quantite_initiale", lot.QuantiteInitiale),
		)
	}
	endSpan(span, err)
	return lot, err
}

func (r *LotRepositoryWithTracing) LockByEPC(dbc database.Context, epc string) (*domain.Lot, error) {
	dbc, span := startSpan(dbc, "repository.lot.LockByEPC", attribute.String("lot.epc", epc))
	lot, err := r.next.LockByEPC(dbc, epc)
	if lot != nil {
		span.SetAttributes(attribute.String("lot.id", lot.LotID), attribute.String("lot.statut", string(lot.Statut)))
	}
	endSpan(span, err)
	return lot, err
}

func (r *LotRepositoryWithTracing) ExistsByEPC(dbc database.Context, epc string) (bool, error) {
	dbc, span := startSpan(dbc, "repository.lot.ExistsByEPC", attribute.String("lot.epc", epc))
	ok, err := r.next.ExistsByEPC(dbc, epc)
	endSpan(span, err)
	return ok, err
}

func (r *LotRepositoryWithTracing) List(dbc database.Context, filter domain.LotFilter) ([]domain.Lot, error) {
	dbc, span := startSpan(dbc, "repository.lot.List",
		attribute.String("filter.chaine_id", filter.ChaineID),
		attribute.Bool("filter.unassigned", filter.Unassigned),
	)
	lots, err := r.next.List(dbc, filter)
	span.SetAttributes(attribute.Int("result.count", len(lots)))
	endSpan(span, err)
	return lots, err
}

func (r *LotRepositoryWithTracing) Save(dbc database.Context, lot *domain.Lot) error {
	dbc, span := startSpan(dbc, "repository.lot.Save",
		attribute.String("lot.id", lot.LotID),
		attribute.String("lot.statut", string(lot.Statut)),
		attribute.Int("lot.quantite_initiale", lot.QuantiteInitiale),
		attribute.Int("lot.jeans_defectueux", lot.JeansDefectueux),
	)
	err := r.next.Save(dbc, lot)
	endSpan(span, err)
	return err
}

func (r *LotRepositoryWithTracing) Delete(dbc database.Context, lotID string) (int64, error) {
	dbc, span := startSpan(dbc, "repository.lot.Delete", attribute.String("lot.id", lotID))
	n, err := r.next.Delete(dbc, lotID)
	span.SetAttributes(attribute.Int64("rows_affected", n))
	endSpan(span, err)
	return n, err
}

// GarmentRepositoryWithTracing wraps a GarmentRepository with tracing
type GarmentRepositoryWithTracing struct {
	next domain.GarmentRepository
}

// NewGarmentRepositoryWithTracing creates a new garment repository with tracing
func NewGarmentRepositoryWithTracing(next domain.GarmentRepository) *GarmentRepositoryWithTracing {
	return &GarmentRepositoryWithTracing{next: next}
}

func (r *GarmentRepositoryWithTracing) Create(dbc database.Context, garment *domain.Garment) error {
	dbc, span := startSpan(dbc, "repository.garment.Create",
		attribute.String("garment.epc", garment.EPC),
		attribute.String("lot.id", garment.LotID),
	)
	err := r.next.Create(dbc, garment)
	span.SetAttributes(attribute.Int("garment.id", int(garment.JeanID)))
	endSpan(span, err)
	return err
}

func (r *GarmentRepositoryWithTracing) FindByID(dbc database.Context, jeanID uint) (*domain.Garment, error) {
	dbc, span := startSpan(dbc, "repository.garment.FindByID", attribute.Int("garment.id", int(jeanID)))
	g, err := r.next.FindByID(dbc, jeanID)
	endSpan(span, err)
	return g, err
}

func (r *GarmentRepositoryWithTracing) FindByEPC(dbc database.Context, epc string) (*domain.Garment, error) {
	dbc, span := startSpan(dbc, "repository.garment.FindByEPC", attribute.String("garment.epc", epc))
	g, err := r.next.FindByEPC(dbc, epc)
	endSpan(span, err)
	return g, err
}

func (r *GarmentRepositoryWithTracing) LockByEPC(dbc database.Context, epc string) (*domain.Garment, error) {
	dbc, span := startSpan(dbc, "repository.garment.LockByEPC", attribute.String("garment.epc", epc))
	g, err := r.next.LockByEPC(dbc, epc)
	endSpan(span, err)
	return g, err
}

func (r *GarmentRepositoryWithTracing) ExistsByEPC(dbc database.Context, epc string) (bool, error) {
	dbc, span := startSpan(dbc, "repository.garment.ExistsByEPC", attribute.String("garment.epc", epc))
	ok, err := r.next.ExistsByEPC(dbc, epc)
	span.SetAttributes(attribute.Bool("garment.exists", ok))
	endSpan(span, err)
	return ok, err
}

func (r *GarmentRepositoryWithTracing) ListByLot(dbc database.Context, lotID string) ([]domain.Garment, error) {
	dbc, span := startSpan(dbc, "repository.garment.ListByLot", attribute.String("lot.id", lotID))
	gs, err := r.next.ListByLot(dbc, lotID)
	span.SetAttributes(attribute.Int("result.count", len(gs)))
	endSpan(span, err)
	return gs, err
}

func (r *GarmentRepositoryWithTracing) CountByLot(dbc database.Context, lotID string) (int64, error) {
	dbc, span := startSpan(dbc, "repository.garment.CountByLot", attribute.String("lot.id", lotID))
	n, err := r.next.CountByLot(dbc, lotID)
	span.SetAttributes(attribute.Int64("result.count", n))
	endSpan(span, err)
	return n, err
}

func (r *GarmentRepositoryWithTracing) CountByLotAndQuality(dbc database.Context, lotID string, quality domain.Quality) (int64, error) {
	dbc, span := startSpan(dbc, "repository.garment.CountByLotAndQuality",
		attribute.String("lot.id", lotID),
		attribute.String("garment.statut_qualite", string(quality)),
	)
	n, err := r.next.CountByLotAndQuality(dbc, lotID, quality)
	span.SetAttributes(attribute.Int64("result.count", n))
	endSpan(span, err)
	return n, err
}

func (r *GarmentRepositoryWithTracing) UpdateQuality(dbc database.Context, jeanID uint, quality domain.Quality) error {
	dbc, span := startSpan(dbc, "repository.garment.UpdateQuality",
		attribute.Int("garment.id", int(jeanID)),
		attribute.String("garment.statut_qualite", string(quality)),
	)
	err := r.next.UpdateQuality(dbc, jeanID, quality)
	endSpan(span, err)
	return err
}

func (r *GarmentRepositoryWithTracing) SyncAssignment(dbc database.Context, lotID string, a domain.Assignment) error {
	dbc, span := startSpan(dbc, "repository.garment.SyncAssignment",
		attribute.String("lot.id", lotID),
		attribute.String("lot.statut", string(a.Statut)),
		attribute.String("lot.localisation", a.Localisation),
	)
	err := r.next.SyncAssignment(dbc, lotID, a)
	endSpan(span, err)
	return err
}

func (r *GarmentRepositoryWithTracing) SettleQuality(dbc database.Context, lotID string) (int64, error) {
	dbc, span := startSpan(dbc, "repository.garment.SettleQuality", attribute.String("lot.id", lotID))
	n, err := r.next.SettleQuality(dbc, lotID)
	span.SetAttributes(attribute.Int64("rows_affected", n))
	endSpan(span, err)
	return n, err
}

func (r *GarmentRepositoryWithTracing) Delete(dbc database.Context, jeanID uint) (int64, error) {
	dbc, span := startSpan(dbc, "repository.garment.Delete", attribute.Int("garment.id", int(jeanID)))
	n, err := r.next.Delete(dbc, jeanID)
	endSpan(span, err)
	return n, err
}

func (r *GarmentRepositoryWithTracing) DeleteByLot(dbc database.Context, lotID string) (int64, error) {
	dbc, span := startSpan(dbc, "repository.garment.DeleteByLot", attribute.String("lot.id", lotID))
	n, err := r.next.DeleteByLot(dbc, lotID)
	span.SetAttributes(attribute.Int64("rows_affected", n))
	endSpan(span, err)
	return n, err
}

// HistoryRepositoryWithTracing wraps a HistoryRepository with tracing
type HistoryRepositoryWithTracing struct {
	next domain.HistoryRepository
}

// NewHistoryRepositoryWithTracing creates a new history repository with tracing
func NewHistoryRepositoryWithTracing(next domain.HistoryRepository) *HistoryRepositoryWithTracing {
	return &HistoryRepositoryWithTracing{next: next}
}

func (r *HistoryRepositoryWithTracing) FindLot(dbc database.Context, lotID string) (*domain.LotHistory, error) {
	dbc, span := startSpan(dbc, "repository.history.FindLot", attribute.String("lot.id", lotID))
	h, err := r.next.FindLot(dbc, lotID)
	endSpan(span, err)
	return h, err
}

func (r *HistoryRepositoryWithTracing) FindStoredLot(dbc database.Context, lotID string) (*domain.LotHistory, error) {
	dbc, span := startSpan(dbc, "repository.history.FindStoredLot", attribute.String("lot.id", lotID))
	h, err := r.next.FindStoredLot(dbc, lotID)
	endSpan(span, err)
	return h, err
}

func (r *HistoryRepositoryWithTracing) CreateLot(dbc database.Context, h *domain.LotHistory) error {
	dbc, span := startSpan(dbc, "repository.history.CreateLot",
		attribute.String("lot.id", h.LotID),
		attribute.String("lot.statut", string(h.Statut)),
	)
	err := r.next.CreateLot(dbc, h)
	endSpan(span, err)
	return err
}

func (r *HistoryRepositoryWithTracing) SaveLot(dbc database.Context, h *domain.LotHistory) error {
	dbc, span := startSpan(dbc, "repository.history.SaveLot",
		attribute.String("lot.id", h.LotID),
		attribute.String("lot.statut", string(h.Statut)),
	)
	err := r.next.SaveLot(dbc, h)
	endSpan(span, err)
	return err
}

func (r *HistoryRepositoryWithTracing) SetDetectedCount(dbc database.Context, lotID string, count int) (int64, error) {
	dbc, span := startSpan(dbc, "repository.history.SetDetectedCount",
		attribute.String("lot.id", lotID),
		attribute.Int("lot.detected_count", count),
	)
	n, err := r.next.SetDetectedCount(dbc, lotID, count)
	endSpan(span, err)
	return n, err
}

func (r *HistoryRepositoryWithTracing) ListStored(dbc database.Context, chaineID string) ([]domain.LotHistory, error) {
	dbc, span := startSpan(dbc, "repository.history.ListStored", attribute.String("filter.chaine_id", chaineID))
	rows, err := r.next.ListStored(dbc, chaineID)
	span.SetAttributes(attribute.Int("result.count", len(rows)))
	endSpan(span, err)
	return rows, err
}

func (r *HistoryRepositoryWithTracing) ListLots(dbc database.Context, chaineID string) ([]domain.LotHistory, error) {
	dbc, span := startSpan(dbc, "repository.history.ListLots", attribute.String("filter.chaine_id", chaineID))
	rows, err := r.next.ListLots(dbc, chaineID)
	span.SetAttributes(attribute.Int("result.count", len(rows)))
	endSpan(span, err)
	return rows, err
}

func (r *HistoryRepositoryWithTracing) GarmentSnapshotExists(dbc database.Context, jeanID uint, lotID string) (bool, error) {
	dbc, span := startSpan(dbc, "repository.history.GarmentSnapshotExists",
		attribute.Int("garment.id", int(jeanID)),
		attribute.String("lot.id", lotID),
	)
	ok, err := r.next.GarmentSnapshotExists(dbc, jeanID, lotID)
	endSpan(span, err)
	return ok, err
}

func (r *HistoryRepositoryWithTracing) CreateGarment(dbc database.Context, h *domain.GarmentHistory) error {
	dbc, span := startSpan(dbc, "repository.history.CreateGarment",
		attribute.Int("garment.id", int(h.JeanID)),
		attribute.String("lot.id", h.LotID),
	)
	err := r.next.CreateGarment(dbc, h)
	endSpan(span, err)
	return err
}

func (r *HistoryRepositoryWithTracing) ListGarments(dbc database.Context, lotID string) ([]domain.GarmentHistory, error) {
	dbc, span := startSpan(dbc, "repository.history.ListGarments", attribute.String("lot.id", lotID))
	rows, err := r.next.ListGarments(dbc, lotID)
	endSpan(span, err)
	return rows, err
}
