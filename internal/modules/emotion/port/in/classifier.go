package in

import (
	"context"

	"mindtrack/internal/modules/emotion/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.ClassifierInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	Classify(ctx context.Context, frame []byte) (dto.ClassifyOutput, error)
	// Detect never fails; any classifier problem yields "neutral".
	Detect(ctx context.Context, frame []byte) string
}
