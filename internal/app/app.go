package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/handlers"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/ternarybob/citatum/internal/queue"
	"github.com/ternarybob/citatum/internal/services/deletion"
	"github.com/ternarybob/citatum/internal/services/embeddings"
	"github.com/ternarybob/citatum/internal/services/evidence"
	"github.com/ternarybob/citatum/internal/services/ingest"
	"github.com/ternarybob/citatum/internal/services/loader"
	"github.com/ternarybob/citatum/internal/services/maintenance"
	"github.com/ternarybob/citatum/internal/services/tasks"
	badgerstore "github.com/ternarybob/citatum/internal/storage/badger"
	"github.com/ternarybob/citatum/internal/storage/blob"
	"github.com/ternarybob/citatum/internal/vectorstore"
	"github.com/ternarybob/citatum/internal/worker"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager *badgerstore.Manager
	BlobStore      interfaces.BlobStore
	VectorStore    interfaces.VectorStore
	Embedder       interfaces.EmbeddingService

	EvidenceService    interfaces.EvidenceService
	IngestService      interfaces.IngestService
	DeletionService    interfaces.DeletionService
	TaskService        interfaces.TaskService
	MaintenanceService *maintenance.Service

	QueueManager interfaces.QueueManager
	WorkerPool   interfaces.WorkerPool

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	TopicHandler    *handlers.TopicHandler
	DocumentHandler *handlers.DocumentHandler
	EvidenceHandler *handlers.EvidenceHandler
	TaskHandler     *handlers.TaskHandler
}

func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(ctx); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("vector_store", app.VectorStore.Name()).
		Str("embedding_model", app.Embedder.ModelName()).
		Int("dimension", app.Embedder.Dimension()).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	manager, err := badgerstore.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = manager

	blobs, err := blob.NewStore(&a.Config.Storage.Filesystem, a.Logger)
	if err != nil {
		manager.Close()
		return fmt.Errorf("failed to create blob store: %w", err)
	}
	a.BlobStore = blobs

	return nil
}

func (a *App) initServices(ctx context.Context) error {
	vectors, err := vectorstore.NewFromConfig(&a.Config.VectorStore, a.StorageManager.Store(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create vector store: %w", err)
	}
	a.VectorStore = vectors

	embedder, err := embeddings.NewFromConfig(ctx, &a.Config.Embeddings, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}
	a.Embedder = embedder

	a.EvidenceService = evidence.NewService(vectors, embedder, a.Config.Evidence.VerifyThreshold, a.Logger)

	loaders := loader.NewRegistry(a.Logger)
	a.IngestService = ingest.NewService(a.StorageManager, a.BlobStore, loaders, a.EvidenceService, a.Config, a.Logger)
	a.DeletionService = deletion.NewService(a.StorageManager, a.BlobStore, a.EvidenceService, a.Logger)
	a.TaskService = tasks.NewService(a.StorageManager.Tasks(), a.Logger)
	a.MaintenanceService = maintenance.NewService(a.TaskService, a.Config.Tasks, a.Logger)

	queueName := a.Config.Queue.QueueName
	if queueName == "" {
		queueName = "citatum"
	}
	queueMgr, err := queue.NewBadgerManager(a.StorageManager.Store().Badger(), queueName, a.Config.VisibilityTimeout(), a.Config.Queue.MaxReceive)
	if err != nil {
		return fmt.Errorf("failed to create queue manager: %w", err)
	}
	a.QueueManager = queueMgr

	pool := worker.NewPool(queueMgr, a.TaskService, a.Logger, a.Config.Queue.Concurrency, a.Config.PollInterval(), a.Config.SoftTimeout())
	pool.RegisterExecutor(models.TaskTypeDocumentProcess, worker.ProcessDocumentExecutor(a.IngestService))
	pool.RegisterExecutor(models.TaskTypeDocumentDelete, worker.DeleteDocumentExecutor(a.DeletionService))
	a.WorkerPool = pool

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.TopicHandler = handlers.NewTopicHandler(a.StorageManager, a.DeletionService)
	a.DocumentHandler = handlers.NewDocumentHandler(a.StorageManager, a.BlobStore, a.QueueManager, a.DeletionService, a.Config.Upload)
	a.EvidenceHandler = handlers.NewEvidenceHandler(a.EvidenceService, a.StorageManager, a.Config.Evidence.DefaultLimit)
	a.TaskHandler = handlers.NewTaskHandler(a.TaskService)
}

// Start brings up the background machinery: workers and the maintenance
// scheduler. The HTTP server is started separately by the caller.
func (a *App) Start() error {
	a.WorkerPool.Start()
	if err := a.MaintenanceService.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	return nil
}

// Close shuts components down in reverse dependency order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application...")

	if a.MaintenanceService != nil {
		a.MaintenanceService.Stop()
	}
	if a.WorkerPool != nil {
		a.WorkerPool.Stop()
	}
	if a.QueueManager != nil {
		if err := a.QueueManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close queue manager")
		}
	}
	if a.VectorStore != nil {
		if err := a.VectorStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close vector store")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
