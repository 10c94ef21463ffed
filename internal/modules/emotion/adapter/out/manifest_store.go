package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mindtrack/internal/modules/emotion/domain"
	emotionout "mindtrack/internal/modules/emotion/port/out"
)

// FileManifestStore reads <dataDir>/classifiers/classifiers.json. Relative
// binary paths resolve against dataDir and names must be unique.
type FileManifestStore struct {
	basePath string
	path     string
}

func NewFileManifestStore(dataDir string) emotionout.ManifestStore {
	return &FileManifestStore{basePath: dataDir, path: filepath.Join(dataDir, "classifiers", "classifiers.json")}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read classifier manifest store: %w", err)
	}
	var manifests []domain.Manifest
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode classifier manifests: %w", err)
	}
	seen := make(map[string]struct{}, len(manifests))
	for i := range manifests {
		if _, dup := seen[manifests[i].Name]; dup {
			return nil, fmt.Errorf("duplicate classifier %q in %s", manifests[i].Name, s.path)
		}
		seen[manifests[i].Name] = struct{}{}
		if manifests[i].Binary != "" && !filepath.IsAbs(manifests[i].Binary) {
			manifests[i].Binary = filepath.Clean(filepath.Join(s.basePath, manifests[i].Binary))
		}
	}
	return manifests, nil
}
