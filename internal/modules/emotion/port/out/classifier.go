package out

import (
	"context"

	"mindtrack/internal/modules/emotion/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

type Host interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	Classify(ctx context.Context, manifest domain.Manifest, frame []byte) (domain.Result, error)
}
