package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"ha-host-bridge/internal/logger"
)

// Loader reads catalogs from the filesystem.
type Loader struct {
	logger *logger.Logger
}

// NewLoader creates a new catalog loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{
		logger: log,
	}
}

// Load reads a single catalog file or every .json, .yaml and .yml file under
// a directory, merges them in lexical path order, fills defaults and
// validates the result.
func (l *Loader) Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	var merged Catalog
	if !info.IsDir() {
		doc, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		merged.merge(doc)
	} else {
		err = filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !isCatalogFile(path) {
				return nil
			}

			doc, err := l.loadFile(path)
			if err != nil {
				return err
			}
			merged.merge(doc)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	merged.applyDefaults()
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	l.logger.Info("catalog loaded",
		"path", path,
		"scenes", len(merged.Scenes),
		"lights", len(merged.Lights),
		"buttons", len(merged.Buttons))

	return &merged, nil
}

func (l *Loader) loadFile(path string) (Catalog, error) {
	l.logger.Debug("loading catalog file", "path", path)

	var doc Catalog
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error("failed to read catalog file",
			"path", path,
			"error", err)
		return doc, err
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		l.logger.Error("failed to parse catalog file",
			"path", path,
			"error", err)
		return doc, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	l.logger.Debug("catalog file loaded",
		"path", path,
		"scenes", len(doc.Scenes),
		"lights", len(doc.Lights),
		"buttons", len(doc.Buttons))
	return doc, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
