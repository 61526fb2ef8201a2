package roomreqrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/sunilverma11/town-book/model"
)

// ListRow carries the request plus the room and user fields shown alongside.
type ListRow struct {
	model.RoomRequest
	RoomName     string `json:"room_name"`
	RoomCapacity int64  `json:"room_capacity"`
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
}

type ListFilter struct {
	UserID     *int64
	Status     *model.RequestStatus
	SortByDate bool
}

type Repo interface {
	Insert(ctx context.Context, userID, roomID int64, date time.Time, purpose string) (*model.RoomRequest, error)
	List(ctx context.Context, f ListFilter) ([]ListRow, error)

	HasPendingForRoomDate(ctx context.Context, userID, roomID int64, date time.Time) (bool, error)
	HasActiveBookingOn(ctx context.Context, userID int64, date time.Time) (bool, error)
	HasApprovedLeaveFor(ctx context.Context, userID, roomID int64, date time.Time) (bool, error)
	CountActiveFor(ctx context.Context, roomID int64, date time.Time) (int64, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.RoomRequest, error)
	MarkProcessed(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, active bool) error
	SubmitLeave(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error
	SetLeaveStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, active bool) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const cols = `id, room_id, user_id, purpose, date, status, request_date,
       is_active, leave_request_status, leave_request_date`

func (r *repo) Insert(ctx context.Context, userID, roomID int64, date time.Time, purpose string) (*model.RoomRequest, error) {
	const q = `
		INSERT INTO room_requests (room_id, user_id, purpose, date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + cols
	return r.scanOne(r.db.QueryRowContext(ctx, q, roomID, userID, purpose, date))
}

func (r *repo) List(ctx context.Context, f ListFilter) ([]ListRow, error) {
	q := `
		SELECT rr.id, rr.room_id, rr.user_id, rr.purpose, rr.date, rr.status, rr.request_date,
		       rr.is_active, rr.leave_request_status, rr.leave_request_date,
		       rm.name, rm.capacity,
		       u.name, u.email
		FROM room_requests rr
		JOIN rooms rm ON rm.id = rr.room_id
		JOIN users u ON u.id = rr.user_id
		WHERE ($1::BIGINT IS NULL OR rr.user_id = $1)
		AND ($2::TEXT IS NULL OR rr.status = $2)`
	if f.SortByDate {
		q += ` ORDER BY rr.date DESC, rr.id DESC`
	} else {
		q += ` ORDER BY rr.request_date DESC, rr.id DESC`
	}
	rows, err := r.db.QueryContext(ctx, q, f.UserID, f.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListRow
	for rows.Next() {
		var row ListRow
		if err := rows.Scan(
			&row.ID, &row.RoomID, &row.UserID, &row.Purpose, &row.Date, &row.Status, &row.RequestDate,
			&row.IsActive, &row.LeaveRequestStatus, &row.LeaveRequestDate,
			&row.RoomName, &row.RoomCapacity,
			&row.UserName, &row.UserEmail,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repo) HasPendingForRoomDate(ctx context.Context, userID, roomID int64, date time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM room_requests
			WHERE user_id = $1 AND room_id = $2 AND date = $3 AND status = 'pending'
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID, roomID, date).Scan(&exists)
	return exists, err
}

// HasActiveBookingOn spans all rooms: one seat per member per day.
func (r *repo) HasActiveBookingOn(ctx context.Context, userID int64, date time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM room_requests
			WHERE user_id = $1 AND date = $2 AND status = 'approved' AND is_active = TRUE
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID, date).Scan(&exists)
	return exists, err
}

func (r *repo) HasApprovedLeaveFor(ctx context.Context, userID, roomID int64, date time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM room_requests
			WHERE user_id = $1 AND room_id = $2 AND date = $3
			AND status = 'approved' AND is_active = FALSE AND leave_request_status = 'approved'
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID, roomID, date).Scan(&exists)
	return exists, err
}

func (r *repo) CountActiveFor(ctx context.Context, roomID int64, date time.Time) (int64, error) {
	const q = `
		SELECT COUNT(*) FROM room_requests
		WHERE room_id = $1 AND date = $2 AND status = 'approved' AND is_active = TRUE`
	var n int64
	err := r.db.QueryRowContext(ctx, q, roomID, date).Scan(&n)
	return n, err
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.RoomRequest, error) {
	const q = `SELECT ` + cols + ` FROM room_requests WHERE id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) MarkProcessed(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, active bool) error {
	const q = `
		UPDATE room_requests
		SET status = $2,
		    is_active = $3
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, active)
	return err
}

func (r *repo) SubmitLeave(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error {
	const q = `
		UPDATE room_requests
		SET leave_request_status = 'pending',
		    leave_request_date = $2
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, at)
	return err
}

func (r *repo) SetLeaveStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, active bool) error {
	const q = `
		UPDATE room_requests
		SET leave_request_status = $2,
		    is_active = $3
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, active)
	return err
}

func (r *repo) scanOne(row *sql.Row) (*model.RoomRequest, error) {
	var rr model.RoomRequest
	err := row.Scan(
		&rr.ID, &rr.RoomID, &rr.UserID, &rr.Purpose, &rr.Date, &rr.Status, &rr.RequestDate,
		&rr.IsActive, &rr.LeaveRequestStatus, &rr.LeaveRequestDate,
	)
	if err != nil {
		return nil, err
	}
	return &rr, nil
}
