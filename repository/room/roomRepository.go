package roomrepo

import (
	"context"
	"database/sql"

	"github.com/sunilverma11/town-book/model"
)

type Repo interface {
	Create(ctx context.Context, rm *model.Room) error
	List(ctx context.Context) ([]model.Room, error)
	Detail(ctx context.Context, id int64) (*model.Room, error)
	Delete(ctx context.Context, id int64) (bool, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Room, error)
	UpdateInfo(ctx context.Context, tx *sql.Tx, rm *model.Room) error
	Occupy(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	Release(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, rm *model.Room) error {
	const q = `
		INSERT INTO rooms (name, capacity, description)
		VALUES ($1,$2,$3)
		RETURNING id, current_booking, created_at`
	return r.db.QueryRowContext(ctx, q, rm.Name, rm.Capacity, rm.Description).
		Scan(&rm.ID, &rm.CurrentBooking, &rm.CreatedAt)
}

func (r *repo) List(ctx context.Context) ([]model.Room, error) {
	const q = `
		SELECT id, name, capacity, current_booking, description, created_at
		FROM rooms
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.CurrentBooking, &rm.Description, &rm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Room, error) {
	const q = `
		SELECT id, name, capacity, current_booking, description, created_at
		FROM rooms
		WHERE id = $1`
	var rm model.Room
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.CurrentBooking, &rm.Description, &rm.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Room, error) {
	const q = `
		SELECT id, name, capacity, current_booking, description, created_at
		FROM rooms
		WHERE id = $1
		FOR UPDATE`
	var rm model.Room
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.CurrentBooking, &rm.Description, &rm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// UpdateInfo rewrites name/capacity/description. current_booking is left
// alone; the capacity-vs-bookings guard runs in the service under the same
// row lock.
func (r *repo) UpdateInfo(ctx context.Context, tx *sql.Tx, rm *model.Room) error {
	const q = `
		UPDATE rooms
		SET name = $2, capacity = $3, description = $4
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, rm.ID, rm.Name, rm.Capacity, rm.Description)
	return err
}

// Occupy takes one seat if the room has one left.
func (r *repo) Occupy(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	const q = `
		UPDATE rooms
		SET current_booking = current_booking + 1
		WHERE id = $1
		AND current_booking < capacity`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// Release gives one seat back, never below zero.
func (r *repo) Release(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	const q = `
		UPDATE rooms
		SET current_booking = current_booking - 1
		WHERE id = $1
		AND current_booking > 0`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
