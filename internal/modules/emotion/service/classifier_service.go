package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mindtrack/internal/modules/emotion/domain"
	"mindtrack/internal/modules/emotion/dto"
	emotionout "mindtrack/internal/modules/emotion/port/out"
)

const defaultTimeout = 5 * time.Second

type ClassifierService struct {
	store   emotionout.ManifestStore
	host    emotionout.Host
	logger  *slog.Logger
	timeout time.Duration
}

func NewClassifierService(store emotionout.ManifestStore, host emotionout.Host, logger *slog.Logger, timeout time.Duration) *ClassifierService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ClassifierService{store: store, host: host, logger: logger, timeout: timeout}
}

func (s *ClassifierService) List(ctx context.Context) ([]dto.ClassifierInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClassifierInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, dto.ClassifierInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary})
	}
	return out, nil
}

func (s *ClassifierService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.BinaryReachable = fileExists(m.Binary)
		if !result.BinaryReachable {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
			results = append(results, result)
			continue
		}
		result.ChecksumValid = checksumMatches(m.Binary, m.SHA256) == nil
		if !result.ChecksumValid {
			result.Error = "checksum mismatch"
			results = append(results, result)
			continue
		}
		if m.Enabled && s.host != nil {
			meta, err := s.host.GetMetadata(ctx, m)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
				result.Labels = meta.Labels
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Classify runs the first enabled classifier on frame and reports every failure.
func (s *ClassifierService) Classify(ctx context.Context, frame []byte) (domain.Result, error) {
	if err := domain.ValidateFrame(frame); err != nil {
		return domain.Result{}, err
	}
	manifest, err := s.runnableManifest(ctx)
	if err != nil {
		return domain.Result{}, err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.host.Classify(callCtx, manifest, frame)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return domain.Result{}, fmt.Errorf("%w: %s", domain.ErrClassifierTimeout, manifest.Name)
		}
		return domain.Result{}, err
	}
	result.Classifier = manifest.Name
	result.Label = domain.MapRaw(result.Raw)
	return result, nil
}

// Detect is Classify for callers that must keep going: failures are logged
// and reported as neutral.
func (s *ClassifierService) Detect(ctx context.Context, frame []byte) domain.Label {
	result, err := s.Classify(ctx, frame)
	if err != nil {
		if errors.Is(err, domain.ErrNoClassifier) {
			s.logger.Debug("emotion classification skipped", "error", err)
		} else {
			s.logger.Warn("emotion classification degraded to neutral", "error", err)
		}
		return domain.LabelNeutral
	}
	return result.Label
}

func (s *ClassifierService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate classifier name: %s", manifest.Name)
		}
		seen[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func (s *ClassifierService) runnableManifest(ctx context.Context) (domain.Manifest, error) {
	if s.host == nil {
		return domain.Manifest{}, domain.ErrNoClassifier
	}
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return domain.Manifest{}, err
	}
	if len(manifests) == 0 {
		return domain.Manifest{}, domain.ErrNoClassifier
	}
	for _, m := range manifests {
		if !m.Enabled {
			continue
		}
		if err := checksumMatches(m.Binary, m.SHA256); err != nil {
			return domain.Manifest{}, err
		}
		return m, nil
	}
	return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrClassifierDisabled, manifests[0].Name)
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read classifier binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	if hex.EncodeToString(hash[:]) != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
