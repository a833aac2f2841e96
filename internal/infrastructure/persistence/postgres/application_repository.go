package postgres

import (
	"context"
	"database/sql"
	"strings"

	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/intake"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
)

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{
		db: conn.GetDB(),
	}
}

func (r *ApplicationRepository) CreateApplication(ctx context.Context, a *intake.Application) error {
	query := `
		INSERT INTO applications (id, business_name, license_number, contact_name, email, phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := monitoring.InstrumentExec(ctx, r.db, "INSERT", "applications", query,
		a.ID, a.BusinessName, a.LicenseNumber, a.ContactName, a.Email, a.Phone, string(a.Status), a.CreatedAt,
	)
	if err != nil {
		// The unique index on license_number is the final authority on
		// duplicates; the handler's pre-check only narrows the window.
		if strings.Contains(err.Error(), "applications_license_number_key") {
			return domainErrors.ErrDuplicateApplication
		}
		return err
	}

	return nil
}

func (r *ApplicationRepository) GetApplicationByID(ctx context.Context, id string) (*intake.Application, error) {
	query := `
		SELECT id, business_name, license_number, contact_name, email, phone, status, created_at
		FROM applications
		WHERE id = $1
	`

	app, err := r.scanApplication(monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "applications", query, id))
	if err == sql.ErrNoRows {
		return nil, domainErrors.ErrApplicationNotFound
	}
	return app, err
}

// GetApplicationByLicense returns nil without error when no application
// exists for the license.
func (r *ApplicationRepository) GetApplicationByLicense(ctx context.Context, licenseNumber string) (*intake.Application, error) {
	query := `
		SELECT id, business_name, license_number, contact_name, email, phone, status, created_at
		FROM applications
		WHERE license_number = $1
	`

	app, err := r.scanApplication(monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "applications", query, licenseNumber))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return app, err
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status intake.Status) error {
	query := `
		UPDATE applications
		SET status = $2
		WHERE id = $1
	`

	result, err := monitoring.InstrumentExec(ctx, r.db, "UPDATE", "applications", query, id, string(status))
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainErrors.ErrApplicationNotFound
	}

	return nil
}

func (r *ApplicationRepository) scanApplication(row *sql.Row) (*intake.Application, error) {
	var a intake.Application
	var status string

	err := row.Scan(&a.ID, &a.BusinessName, &a.LicenseNumber, &a.ContactName, &a.Email, &a.Phone, &status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.Status = intake.Status(status)
	return &a, nil
}
