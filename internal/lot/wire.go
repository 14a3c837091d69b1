//go:build wireinject
// +build wireinject

package lot

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/delivery/consumer"
	"github.com/tair/rfid-textile/internal/lot/delivery/http"
	"github.com/tair/rfid-textile/internal/lot/directory"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/internal/lot/usecase/query"
)

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideLotRepository,
	ProvideGarmentRepository,
	ProvideHistoryRepository,
	ProvideQualityControlRepository,
	ProvideReportRepository,
	ProvideTxRunner,
)

var DirectorySet = wire.NewSet(
	directory.NewGormDirectory,
	ProvideWorkerDirectory,
	ProvideResponsibleDirectory,
)

var CommandHandlerSet = wire.NewSet(
	command.NewCreateLotHandler,
	command.NewDeleteLotHandler,
	command.NewTransitionLotHandler,
	command.NewStoreLotHandler,
	command.NewRecordDetectionHandler,
	command.NewAddGarmentHandler,
	command.NewRemoveGarmentHandler,
	command.NewRecordDefectHandler,
	command.NewUpdateGarmentQualityHandler,
	ProvideCommands,
)

var QueryHandlerSet = wire.NewSet(
	query.NewGetLotHandler,
	query.NewListLotsHandler,
	query.NewListUnassignedLotsHandler,
	query.NewGarmentsByLotHandler,
	query.NewCountGarmentsHandler,
	query.NewGetGarmentHandler,
	query.NewListStockHandler,
	query.NewListDiscrepanciesHandler,
	query.NewGlobalViewHandler,
	ProvideWorkerProgressHandler,
	ProvideQueries,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	DirectorySet,
	CommandHandlerSet,
	QueryHandlerSet,
)

// InitializeService initializes the lots HTTP handler and Kafka consumer handler
func InitializeService(
	db *gorm.DB,
	redisClient *redis.Client,
	events command.EventPublisher,
	m *metrics.Metrics,
	settings Settings,
) (*Service, error) {
	wire.Build(
		AllHandlersSet,
		http.NewLotHandler,
		consumer.NewDetectionHandler,
		ProvideService,
	)
	return nil, nil
}
