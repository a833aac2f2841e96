package ports

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/domain/intake"
)

type ApplicationRepository interface {
	CreateApplication(ctx context.Context, a *intake.Application) error
	GetApplicationByID(ctx context.Context, id string) (*intake.Application, error)
	GetApplicationByLicense(ctx context.Context, licenseNumber string) (*intake.Application, error)
	UpdateStatus(ctx context.Context, id string, status intake.Status) error
}
