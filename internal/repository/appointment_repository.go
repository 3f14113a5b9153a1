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

const appointmentColumns = `id, client_name, phone, date, time, notes, reminder_sent_at, created_at, updated_at`

// AppointmentRepository stores appointments in MySQL.
type AppointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Schedule(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	now := time.Now().UTC().Truncate(time.Second)
	a.ID = uuid.NewString()
	a.ReminderSentAt = nil
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO appointments (id, client_name, phone, date, time, notes, created_at, updated_at)
		VALUES (:id, :client_name, :phone, :date, :time, :notes, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to schedule appointment: %w", err)
	}

	return a, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`

	var a domain.Appointment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, &domain.NotFoundError{Resource: "appointment", ID: id}
		}
		return domain.Appointment{}, fmt.Errorf("failed to get appointment: %w", err)
	}

	return a, nil
}

// Update merges patch into the stored record inside a transaction.
func (r *AppointmentRepository) Update(
	ctx context.Context,
	id string,
	patch domain.AppointmentPatch,
) (domain.Appointment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var a domain.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ? FOR UPDATE`
	if err := tx.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, &domain.NotFoundError{Resource: "appointment", ID: id}
		}
		return domain.Appointment{}, fmt.Errorf("failed to load appointment: %w", err)
	}

	patch.Apply(&a)
	a.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	update := `
		UPDATE appointments
		SET client_name = :client_name, phone = :phone, date = :date, time = :time,
		    notes = :notes, updated_at = :updated_at
		WHERE id = :id
	`
	if _, err := tx.NamedExecContext(ctx, update, a); err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to update appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to commit appointment update: %w", err)
	}

	return a, nil
}

func (r *AppointmentRepository) Cancel(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return false, &domain.NotFoundError{Resource: "appointment", ID: id}
	}

	return true, nil
}

func (r *AppointmentRepository) List(ctx context.Context) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY seq ASC`

	appointments := []domain.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	return appointments, nil
}

func (r *AppointmentRepository) MarkReminded(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET reminder_sent_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark appointment reminded: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return &domain.NotFoundError{Resource: "appointment", ID: id}
	}

	return nil
}
