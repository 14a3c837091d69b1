package lot

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/delivery/consumer"
	"github.com/tair/rfid-textile/internal/lot/delivery/http"
	"github.com/tair/rfid-textile/internal/lot/directory"
	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/repository"
	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/internal/lot/usecase/query"
	"github.com/tair/rfid-textile/pkg/database"
)

// Settings carries the tunables the handlers need from the service config
type Settings struct {
	WorkerCacheTTL  time.Duration
	DailyTargetLots int
}

// Service is everything the lots binary serves
type Service struct {
	HTTP      *http.LotHandler
	Detection *consumer.DetectionHandler
}

// ProvideLotRepository provides the lot repository with tracing
func ProvideLotRepository() domain.LotRepository {
	return repository.NewLotRepositoryWithTracing(repository.NewGormLotRepository())
}

// ProvideGarmentRepository provides the garment repository with tracing
func ProvideGarmentRepository() domain.GarmentRepository {
	return repository.NewGarmentRepositoryWithTracing(repository.NewGormGarmentRepository())
}

// ProvideHistoryRepository provides the history repository with tracing
func ProvideHistoryRepository() domain.HistoryRepository {
	return repository.NewHistoryRepositoryWithTracing(repository.NewGormHistoryRepository())
}

func ProvideQualityControlRepository() domain.QualityControlRepository {
	return repository.NewGormQualityControlRepository()
}

func ProvideReportRepository() domain.ReportRepository {
	return repository.NewGormReportRepository()
}

func ProvideResponsibleDirectory(d *directory.GormDirectory) domain.ResponsibleDirectory {
	return d
}

// ProvideWorkerDirectory resolves workers through redis when a client is configured
func ProvideWorkerDirectory(d *directory.GormDirectory, redisClient *redis.Client, settings Settings) domain.WorkerDirectory {
	return directory.NewCachedWorkerDirectory(d, redisClient, settings.WorkerCacheTTL)
}

func ProvideTxRunner(db *gorm.DB) database.TxRunner {
	return database.NewGormTxRunner(db)
}

func ProvideWorkerProgressHandler(db *gorm.DB, reports domain.ReportRepository, settings Settings) *query.WorkerProgressHandler {
	return query.NewWorkerProgressHandler(db, reports, settings.DailyTargetLots)
}

// ProvideCommands groups the command handlers
func ProvideCommands(
	create *command.CreateLotHandler,
	del *command.DeleteLotHandler,
	transition *command.TransitionLotHandler,
	store *command.StoreLotHandler,
	count *command.RecordDetectionHandler,
	add *command.AddGarmentHandler,
	remove *command.RemoveGarmentHandler,
	defect *command.RecordDefectHandler,
	quality *command.UpdateGarmentQualityHandler,
) http.Commands {
	return http.Commands{
		CreateLot:     create,
		DeleteLot:     del,
		TransitionLot: transition,
		StoreLot:      store,
		RecordCount:   count,
		AddGarment:    add,
		RemoveGarment: remove,
		RecordDefect:  defect,
		UpdateQuality: quality,
	}
}

// ProvideQueries groups the query handlers
func ProvideQueries(
	get *query.GetLotHandler,
	list *query.ListLotsHandler,
	unassigned *query.ListUnassignedLotsHandler,
	byLot *query.GarmentsByLotHandler,
	count *query.CountGarmentsHandler,
	garment *query.GetGarmentHandler,
	stock *query.ListStockHandler,
	discrepancies *query.ListDiscrepanciesHandler,
	progress *query.WorkerProgressHandler,
	global *query.GlobalViewHandler,
) http.Queries {
	return http.Queries{
		GetLot:         get,
		ListLots:       list,
		UnassignedLots: unassigned,
		GarmentsByLot:  byLot,
		CountGarments:  count,
		GetGarment:     garment,
		Stock:          stock,
		Discrepancies:  discrepancies,
		WorkerProgress: progress,
		GlobalView:     global,
	}
}

func ProvideService(handler *http.LotHandler, detection *consumer.DetectionHandler) *Service {
	return &Service{HTTP: handler, Detection: detection}
}
