package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	topics interfaces.TopicStorage
	docs   interfaces.DocumentStorage
	chunks interfaces.ChunkStorage
	tasks  interfaces.TaskStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		topics: NewTopicStorage(db, logger),
		docs:   NewDocumentStorage(db, logger),
		chunks: NewChunkStorage(db, logger),
		tasks:  NewTaskStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Topics returns the Topic storage interface
func (m *Manager) Topics() interfaces.TopicStorage {
	return m.topics
}

// Documents returns the Document storage interface
func (m *Manager) Documents() interfaces.DocumentStorage {
	return m.docs
}

// Chunks returns the Chunk storage interface
func (m *Manager) Chunks() interfaces.ChunkStorage {
	return m.chunks
}

// Tasks returns the Task storage interface
func (m *Manager) Tasks() interfaces.TaskStorage {
	return m.tasks
}

// Store returns the underlying badgerhold store, shared with the embedded
// vector backend and the queue.
func (m *Manager) Store() *badgerhold.Store {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
