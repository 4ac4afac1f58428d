package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const baseLocationColumns = `
	id, name, address, latitude, longitude, is_active, delivery_radius, created_at`

func scanBaseLocation(row pgx.Row) (BaseLocation, error) {
	var b BaseLocation
	err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Latitude, &b.Longitude, &b.IsActive, &b.DeliveryRadius, &b.CreatedAt)
	return b, err
}

func (s *Store) ListBaseLocations(ctx context.Context, activeOnly bool) ([]BaseLocation, error) {
	query := `SELECT` + baseLocationColumns + ` FROM base_locations`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []BaseLocation
	for rows.Next() {
		b, err := scanBaseLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, b)
	}
	return locations, rows.Err()
}

func (s *Store) GetBaseLocation(ctx context.Context, id uuid.UUID) (BaseLocation, error) {
	row := s.db.QueryRow(ctx, `SELECT`+baseLocationColumns+` FROM base_locations WHERE id = $1`, id)
	return scanBaseLocation(row)
}

type CreateBaseLocationParams struct {
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	IsActive       bool
	DeliveryRadius float64
}

func (s *Store) CreateBaseLocation(ctx context.Context, arg CreateBaseLocationParams) (BaseLocation, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO base_locations (name, address, latitude, longitude, is_active, delivery_radius)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+baseLocationColumns,
		arg.Name, arg.Address, arg.Latitude, arg.Longitude, arg.IsActive, arg.DeliveryRadius,
	)
	return scanBaseLocation(row)
}

type UpdateBaseLocationParams struct {
	ID             uuid.UUID
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	DeliveryRadius float64
}

func (s *Store) UpdateBaseLocation(ctx context.Context, arg UpdateBaseLocationParams) (BaseLocation, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE base_locations
		SET name = $2, address = $3, latitude = $4, longitude = $5, delivery_radius = $6
		WHERE id = $1
		RETURNING`+baseLocationColumns,
		arg.ID, arg.Name, arg.Address, arg.Latitude, arg.Longitude, arg.DeliveryRadius,
	)
	return scanBaseLocation(row)
}

func (s *Store) SetBaseLocationActive(ctx context.Context, id uuid.UUID, active bool) (BaseLocation, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE base_locations SET is_active = $2 WHERE id = $1
		RETURNING`+baseLocationColumns,
		id, active,
	)
	return scanBaseLocation(row)
}

// DeleteBaseLocation removes a base location. Orders keep their
// snapshotted delivery fee; nothing cascades.
func (s *Store) DeleteBaseLocation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM base_locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
