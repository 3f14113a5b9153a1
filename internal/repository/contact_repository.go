package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/practicedesk/secretary/internal/domain"
)

type ContactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		INSERT INTO contacts (id, name, phone, notes, created_at)
		VALUES (:id, :name, :phone, :notes, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return domain.Contact{}, fmt.Errorf("failed to create contact: %w", err)
	}

	return c, nil
}

func (r *ContactRepository) Get(ctx context.Context, id string) (domain.Contact, error) {
	query := `SELECT id, name, phone, notes, created_at FROM contacts WHERE id = ?`

	var c domain.Contact
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contact{}, &domain.NotFoundError{Resource: "contact", ID: id}
		}
		return domain.Contact{}, fmt.Errorf("failed to get contact: %w", err)
	}

	return c, nil
}
