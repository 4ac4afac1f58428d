package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `
	id, name, description, price, category, image_url, is_available,
	customizations, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &m.Price, &m.Category, &m.ImageURL,
		&m.IsAvailable, &m.Customizations, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// ListMenuItemsFilter narrows ListMenuItems. Zero value lists the full
// admin menu.
type ListMenuItemsFilter struct {
	Category      string
	AvailableOnly bool
}

func (s *Store) ListMenuItems(ctx context.Context, filter ListMenuItemsFilter) ([]MenuItem, error) {
	query := `SELECT` + menuItemColumns + ` FROM menu_items`
	var args []any
	where := ""
	if filter.AvailableOnly {
		where = ` WHERE is_available = true`
	}
	if filter.Category != "" {
		if where == "" {
			where = ` WHERE category = $1`
		} else {
			where += ` AND category = $1`
		}
		args = append(args, filter.Category)
	}
	query += where + ` ORDER BY category, name`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (s *Store) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := s.db.QueryRow(ctx, `SELECT`+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

type CreateMenuItemParams struct {
	Name           string
	Description    pgtype.Text
	Price          pgtype.Numeric
	Category       string
	ImageURL       pgtype.Text
	IsAvailable    bool
	Customizations []Customization
}

func (s *Store) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO menu_items (name, description, price, category, image_url, is_available, customizations)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+menuItemColumns,
		arg.Name, arg.Description, arg.Price, arg.Category, arg.ImageURL, arg.IsAvailable, arg.Customizations,
	)
	return scanMenuItem(row)
}

type UpdateMenuItemParams struct {
	ID             uuid.UUID
	Name           string
	Description    pgtype.Text
	Price          pgtype.Numeric
	Category       string
	ImageURL       pgtype.Text
	IsAvailable    bool
	Customizations []Customization
}

func (s *Store) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE menu_items
		SET name = $2, description = $3, price = $4, category = $5,
		    image_url = $6, is_available = $7, customizations = $8,
		    updated_at = now()
		WHERE id = $1
		RETURNING`+menuItemColumns,
		arg.ID, arg.Name, arg.Description, arg.Price, arg.Category,
		arg.ImageURL, arg.IsAvailable, arg.Customizations,
	)
	return scanMenuItem(row)
}

func (s *Store) SetMenuItemAvailability(ctx context.Context, id uuid.UUID, available bool) (MenuItem, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE menu_items SET is_available = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+menuItemColumns,
		id, available,
	)
	return scanMenuItem(row)
}

func (s *Store) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
