package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TopicStorage implements the TopicStorage interface for Badger
type TopicStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTopicStorage creates a new TopicStorage instance
func NewTopicStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TopicStorage {
	return &TopicStorage{
		db:     db,
		logger: logger,
	}
}

func (s *TopicStorage) Create(ctx context.Context, topic *models.Topic) error {
	if topic.ID == "" {
		return fmt.Errorf("%w: topic ID is required", models.ErrValidation)
	}
	if topic.Name == "" {
		return fmt.Errorf("%w: topic name is required", models.ErrValidation)
	}

	now := time.Now()
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = now
	}
	topic.UpdatedAt = now

	if err := s.db.Store().Insert(topic.ID, topic); err != nil {
		if err == badgerhold.ErrUniqueExists {
			return fmt.Errorf("%w: topic name %q already exists", models.ErrValidation, topic.Name)
		}
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (s *TopicStorage) Get(ctx context.Context, id string) (*models.Topic, error) {
	var topic models.Topic
	if err := s.db.Store().Get(id, &topic); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: topic %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &topic, nil
}

func (s *TopicStorage) GetByName(ctx context.Context, name string) (*models.Topic, error) {
	var topics []models.Topic
	err := s.db.Store().Find(&topics, badgerhold.Where("Name").Eq(name).Index("Name"))
	if err != nil {
		return nil, fmt.Errorf("failed to find topic: %w", err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: topic named %q", models.ErrNotFound, name)
	}
	return &topics[0], nil
}

func (s *TopicStorage) List(ctx context.Context) ([]*models.Topic, error) {
	var topics []models.Topic
	if err := s.db.Store().Find(&topics, nil); err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	result := make([]*models.Topic, len(topics))
	for i := range topics {
		result[i] = &topics[i]
	}
	return result, nil
}

func (s *TopicStorage) Delete(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Topic{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: topic %s", models.ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return nil
}

func (s *TopicStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Topic{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count topics: %w", err)
	}
	return int(count), nil
}
