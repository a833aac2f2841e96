package commands

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/domain/intake"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/generator"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type SubmitApplicationCommand struct {
	BusinessName  string `json:"business_name"`
	LicenseNumber string `json:"license_number"`
	ContactName   string `json:"contact_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

type SubmitApplicationResponse struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
}

type SubmitApplicationHandler struct {
	applications ports.ApplicationRepository
	syncBus      *bus.Bus
	gen          *generator.CodeGenerator
	log          *logger.Logger
}

func NewSubmitApplicationHandler(
	applications ports.ApplicationRepository,
	syncBus *bus.Bus,
	gen *generator.CodeGenerator,
	log *logger.Logger,
) *SubmitApplicationHandler {
	return &SubmitApplicationHandler{
		applications: applications,
		syncBus:      syncBus,
		gen:          gen,
		log:          log,
	}
}

func (h *SubmitApplicationHandler) Handle(ctx context.Context, cmd SubmitApplicationCommand) (*SubmitApplicationResponse, error) {
	app, err := intake.NewApplication(
		h.gen.GenerateApplicationID(),
		cmd.BusinessName,
		cmd.LicenseNumber,
		cmd.ContactName,
		cmd.Email,
		cmd.Phone,
	)
	if err != nil {
		return nil, err
	}

	// One application per license number. A concurrent duplicate slips past
	// this read but the unique index catches it at insert time.
	existing, err := h.applications.GetApplicationByLicense(ctx, app.LicenseNumber)
	if err != nil {
		h.log.Error("Failed to check existing application", "license_number", app.LicenseNumber, "error", err)
	}
	if existing != nil {
		return nil, domainErrors.ErrDuplicateApplication
	}

	if err := h.applications.CreateApplication(ctx, app); err != nil {
		if err == domainErrors.ErrDuplicateApplication {
			return nil, err
		}
		h.log.Error("Failed to persist application", "business_name", app.BusinessName, "error", err)
		return nil, domainErrors.ErrPersistenceFailure
	}

	if h.syncBus != nil {
		payload := map[string]interface{}{
			"application_id": app.ID,
			"business_name":  app.BusinessName,
		}
		if err := h.syncBus.Publish(ctx, event.TypeApplicationSubmitted, payload); err != nil {
			h.log.Warn("Failed to publish sync event", "event_type", event.TypeApplicationSubmitted, "error", err)
		}
	}

	h.log.Info("Business application submitted",
		"application_id", app.ID,
		"business_name", app.BusinessName,
	)

	return &SubmitApplicationResponse{
		ApplicationID: app.ID,
		Status:        string(app.Status),
	}, nil
}
