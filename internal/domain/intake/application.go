package intake

import (
	"strings"
	"time"

	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Application is a wholesale-account request from a licensed business.
// Accounts stay pending until an operator reviews the license.
type Application struct {
	ID            string
	BusinessName  string
	LicenseNumber string
	ContactName   string
	Email         string
	Phone         string
	Status        Status
	CreatedAt     time.Time
}

func NewApplication(id, businessName, licenseNumber, contactName, email, phone string) (*Application, error) {
	businessName = strings.TrimSpace(businessName)
	licenseNumber = strings.TrimSpace(licenseNumber)
	contactName = strings.TrimSpace(contactName)
	email = strings.TrimSpace(email)

	if businessName == "" || licenseNumber == "" || contactName == "" {
		return nil, domainErrors.ErrInvalidApplication
	}

	if !strings.Contains(email, "@") {
		return nil, domainErrors.ErrInvalidApplication
	}

	return &Application{
		ID:            id,
		BusinessName:  businessName,
		LicenseNumber: licenseNumber,
		ContactName:   contactName,
		Email:         email,
		Phone:         strings.TrimSpace(phone),
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (a *Application) Approve() {
	a.Status = StatusApproved
}

func (a *Application) Reject() {
	a.Status = StatusRejected
}
