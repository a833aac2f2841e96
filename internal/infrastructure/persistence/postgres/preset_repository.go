package postgres

import (
	"context"
	"database/sql"

	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
)

type PresetRepository struct {
	db *sql.DB
}

func NewPresetRepository(conn *Connection) *PresetRepository {
	return &PresetRepository{
		db: conn.GetDB(),
	}
}

func (r *PresetRepository) GetPresets(ctx context.Context) ([]*catalog.Preset, error) {
	query := `
		SELECT id, name, description, created_at
		FROM presets
		ORDER BY name
	`

	rows, err := monitoring.InstrumentQuery(ctx, r.db, "SELECT", "presets", query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*catalog.Preset
	for rows.Next() {
		var p catalog.Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		presets = append(presets, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range presets {
		lines, err := r.getPresetLines(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Lines = lines
	}

	return presets, nil
}

func (r *PresetRepository) GetPresetByID(ctx context.Context, id string) (*catalog.Preset, error) {
	query := `
		SELECT id, name, description, created_at
		FROM presets
		WHERE id = $1
	`

	var p catalog.Preset
	row := monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "presets", query, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domainErrors.ErrPresetNotFound
		}
		return nil, err
	}

	lines, err := r.getPresetLines(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Lines = lines

	return &p, nil
}

func (r *PresetRepository) CreatePreset(ctx context.Context, p *catalog.Preset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	presetQuery := `
		INSERT INTO presets (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, presetQuery, p.ID, p.Name, p.Description, p.CreatedAt); err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO preset_items (preset_id, product_id, quantity)
		VALUES ($1, $2, $3)
	`
	for _, line := range p.Lines {
		if _, err := tx.ExecContext(ctx, lineQuery, p.ID, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PresetRepository) getPresetLines(ctx context.Context, presetID string) ([]catalog.PresetLine, error) {
	query := `
		SELECT product_id, quantity
		FROM preset_items
		WHERE preset_id = $1
		ORDER BY product_id
	`

	rows, err := monitoring.InstrumentQuery(ctx, r.db, "SELECT", "preset_items", query, presetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []catalog.PresetLine
	for rows.Next() {
		var l catalog.PresetLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
