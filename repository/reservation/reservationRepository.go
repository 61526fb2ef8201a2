package reservationrepo

import (
	"context"
	"database/sql"

	"github.com/sunilverma11/town-book/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) error
	List(ctx context.Context, userID *int64) ([]model.Reservation, error)
	Get(ctx context.Context, id int64) (*model.Reservation, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) (bool, error)
	MarkPickedUp(ctx context.Context, id int64) error
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const cols = `id, user_id, type, book_id, room_id, slot_start, slot_end,
       status, pickup_date, return_date, is_picked_up, is_returned, created_at`

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `
		INSERT INTO reservations (user_id, type, book_id, room_id, slot_start, slot_end, pickup_date, return_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, status, created_at`
	return tx.QueryRowContext(ctx, q,
		res.UserID, res.Type, res.BookID, res.RoomID, res.SlotStart, res.SlotEnd,
		res.PickupDate, res.ReturnDate,
	).Scan(&res.ID, &res.Status, &res.CreatedAt)
}

func (r *repo) List(ctx context.Context, userID *int64) ([]model.Reservation, error) {
	const q = `
		SELECT ` + cols + `
		FROM reservations
		WHERE ($1::BIGINT IS NULL OR user_id = $1)
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	const q = `SELECT ` + cols + ` FROM reservations WHERE id = $1`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	const q = `SELECT ` + cols + ` FROM reservations WHERE id = $1 FOR UPDATE`
	var res model.Reservation
	if err := scanReservation(tx.QueryRowContext(ctx, q, id), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) MarkPickedUp(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE reservations SET is_picked_up = TRUE WHERE id = $1`, id)
	return err
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET is_returned = TRUE WHERE id = $1`, id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanReservation(row rowScanner, res *model.Reservation) error {
	return row.Scan(
		&res.ID, &res.UserID, &res.Type, &res.BookID, &res.RoomID, &res.SlotStart, &res.SlotEnd,
		&res.Status, &res.PickupDate, &res.ReturnDate, &res.IsPickedUp, &res.IsReturned, &res.CreatedAt,
	)
}
