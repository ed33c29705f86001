// Package storage persists captured network archives to disk.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"pagewright/domain/entities"
)

// HARStore writes HAR documents under the directory named by the HAR_DIR
// environment variable, defaulting to the current working directory.
type HARStore struct {
	dir    string
	logger *logrus.Logger
}

// NewHARStore - creates a store rooted at HAR_DIR
func NewHARStore(logger *logrus.Logger) *HARStore {
	return &HARStore{
		dir:    os.Getenv("HAR_DIR"),
		logger: logger,
	}
}

// Save - writes the document to <HAR_DIR>/<name>.har and returns the path
func (s *HARStore) Save(doc *entities.HAR, name string) (string, error) {
	if doc == nil {
		doc = entities.NewHAR(nil)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode har: %w", err)
	}

	path := filepath.Join(s.dir, name+".har")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write har file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":    path,
		"entries": len(doc.Log.Entries),
	}).Info("saved har file")
	return path, nil
}

// Load - reads a HAR document back from disk. A missing or unreadable file
// yields a skeleton document rather than an error; the archive is a
// diagnostic artifact, never load-bearing test state.
func (s *HARStore) Load(path string) *entities.HAR {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Debug("falling back to empty har")
		return entities.NewHAR(nil)
	}

	var doc entities.HAR
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WithError(err).WithField("path", path).Debug("falling back to empty har")
		return entities.NewHAR(nil)
	}
	if doc.Log.Entries == nil {
		doc.Log.Entries = []entities.HAREntry{}
	}
	return &doc
}
