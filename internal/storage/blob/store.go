package blob

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// pathAttempts bounds collision probing for unique filenames.
const pathAttempts = 10

// Store is a filesystem blob store rooted at the configured documents
// directory, with one subdirectory per topic and a staging area for
// uploads that have not been processed yet.
type Store struct {
	documentsRoot string
	stagingRoot   string
	logger        arbor.ILogger
}

// NewStore creates the blob store, ensuring both roots exist.
func NewStore(config *common.FilesystemConfig, logger arbor.ILogger) (interfaces.BlobStore, error) {
	for _, dir := range []string{config.Documents, config.Staging} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create blob directory %s: %w", dir, err)
		}
	}
	return &Store{
		documentsRoot: config.Documents,
		stagingRoot:   config.Staging,
		logger:        logger,
	}, nil
}

// GenerateUniquePath probes for a stored filename that does not collide
// with an existing file. Each attempt draws a fresh random key; after the
// attempt budget it fails with models.ErrPathExhausted.
func (s *Store) GenerateUniquePath(topicDir, cleanName string) (string, string, error) {
	dir := filepath.Join(s.documentsRoot, topicDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create topic directory %s: %w", dir, err)
	}

	for i := 0; i < pathAttempts; i++ {
		key := common.RandomFileKey()
		path := filepath.Join(dir, common.StoredFileName(key, cleanName))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return key, path, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s after %d attempts", models.ErrPathExhausted, cleanName, pathAttempts)
}

func (s *Store) Write(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	return nil
}

func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: blob %s", models.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: blob %s", models.ErrNotFound, path)
		}
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}
	return nil
}

func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DocumentPath resolves a stored filename inside a topic directory.
func (s *Store) DocumentPath(topicDir, storedName string) string {
	return filepath.Join(s.documentsRoot, topicDir, storedName)
}

// StagePath resolves a filename inside the staging area.
func (s *Store) StagePath(name string) string {
	return filepath.Join(s.stagingRoot, name)
}
