package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/customer-publisher/internal/model"
)

// CustomerRepositoryInterface defines methods used by service
type CustomerRepositoryInterface interface {
	Save(ctx context.Context, c *model.CustomerDetails) error
	GetByID(ctx context.Context, id string) (*model.CustomerDetails, error)
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

// Save inserts the customer, or updates it when the id already exists.
func (r *CustomerRepository) Save(ctx context.Context, c *model.CustomerDetails) error {
	query := `
        INSERT INTO customers (id, name, surname, email, mobile, updated_at)
        VALUES ($1, $2, $3, $4, $5, now())
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            surname = EXCLUDED.surname,
            email = EXCLUDED.email,
            mobile = EXCLUDED.mobile,
            updated_at = now()
    `
	if _, err := r.DB.ExecContext(ctx, query, c.ID, c.Name, c.Surname, c.Email, c.Mobile); err != nil {
		return fmt.Errorf("save customer %s: %w", c.ID, err)
	}
	return nil
}

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*model.CustomerDetails, error) {
	query := `
        SELECT id, name, surname, email, mobile
        FROM customers
        WHERE id = $1
    `
	row := r.DB.QueryRowContext(ctx, query, id)

	var c model.CustomerDetails
	if err := row.Scan(&c.ID, &c.Name, &c.Surname, &c.Email, &c.Mobile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}
