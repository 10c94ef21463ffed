package in

import (
	"context"
	"fmt"
	"os"

	"mindtrack/internal/modules/emotion/dto"
	emotionin "mindtrack/internal/modules/emotion/port/in"
)

type CLIHandler struct {
	usecase emotionin.Usecase
}

func NewCLIHandler(usecase emotionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.ClassifierInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

func (h CLIHandler) ClassifyFile(ctx context.Context, path string) (dto.ClassifyOutput, error) {
	frame, err := os.ReadFile(path)
	if err != nil {
		return dto.ClassifyOutput{}, fmt.Errorf("read frame: %w", err)
	}
	return h.usecase.Classify(ctx, frame)
}
