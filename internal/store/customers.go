package store

import (
	"context"

	"github.com/google/uuid"
)

// FindCustomerIDByEmail looks up an existing customer row. Existing
// customer data is never overwritten by later orders.
func (s *Store) FindCustomerIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM customers WHERE email = $1`, email).Scan(&id)
	return id, err
}

func (s *Store) InsertCustomer(ctx context.Context, name, email, phone string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone) VALUES ($1, $2, $3)
		RETURNING id`,
		name, email, phone,
	).Scan(&id)
	return id, err
}

// ListCustomerSummaries aggregates historical orders by snapshot email.
// Customers are derived, not maintained: the latest order supplies the
// display name and phone.
func (s *Store) ListCustomerSummaries(ctx context.Context) ([]CustomerSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (customer_info->>'email')
			customer_info->>'name',
			customer_info->>'email',
			customer_info->>'phone',
			count(*) OVER w,
			sum(total) OVER w,
			max(created_at) OVER w
		FROM orders
		WHERE customer_info->>'email' IS NOT NULL AND customer_info->>'email' <> ''
		WINDOW w AS (PARTITION BY customer_info->>'email')
		ORDER BY customer_info->>'email', created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []CustomerSummary
	for rows.Next() {
		var c CustomerSummary
		if err := rows.Scan(&c.Name, &c.Email, &c.Phone, &c.TotalOrders, &c.TotalSpent, &c.LastOrderAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, c)
	}
	return summaries, rows.Err()
}
