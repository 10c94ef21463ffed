package in

import (
	"context"

	scheduledto "mindtrack/internal/modules/schedule/dto"
	schedulein "mindtrack/internal/modules/schedule/port/in"
)

type CLIHandler struct {
	usecase schedulein.Usecase
}

func NewCLIHandler(usecase schedulein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Check(ctx context.Context) scheduledto.StatusOutput {
	return h.usecase.Status(ctx)
}
