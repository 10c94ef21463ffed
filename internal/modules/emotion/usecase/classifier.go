package usecase

import (
	"context"

	"mindtrack/internal/modules/emotion/dto"
	emotionin "mindtrack/internal/modules/emotion/port/in"
	"mindtrack/internal/modules/emotion/service"
)

type Interactor struct {
	svc *service.ClassifierService
}

func NewInteractor(svc *service.ClassifierService) emotionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.ClassifierInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) Classify(ctx context.Context, frame []byte) (dto.ClassifyOutput, error) {
	result, err := i.svc.Classify(ctx, frame)
	if err != nil {
		return dto.ClassifyOutput{}, err
	}
	return dto.ClassifyOutput{
		Classifier: result.Classifier,
		Raw:        result.Raw,
		Label:      string(result.Label),
		Confidence: result.Confidence,
	}, nil
}

func (i *Interactor) Detect(ctx context.Context, frame []byte) string {
	return string(i.svc.Detect(ctx, frame))
}
