package roomsvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sunilverma11/town-book/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound              ErrCode = "NOT_FOUND"
	ErrNameTaken             ErrCode = "NAME_TAKEN"
	ErrCapacityBelowBookings ErrCode = "CAPACITY_BELOW_BOOKINGS"
	ErrBadInput              ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	Create(ctx context.Context, rm *model.Room) error
	List(ctx context.Context) ([]model.Room, error)
	Detail(ctx context.Context, id int64) (*model.Room, error)
	Delete(ctx context.Context, id int64) (bool, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Room, error)
	UpdateInfo(ctx context.Context, tx *sql.Tx, rm *model.Room) error
}

type Service interface {
	Create(ctx context.Context, rm *model.Room) (*model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
	Detail(ctx context.Context, id int64) (*model.Room, error)
	Update(ctx context.Context, rm *model.Room) (*model.Room, error)
	Delete(ctx context.Context, id int64) error
}

// ----- Service implementation -----

type service struct {
	db *sql.DB
	r  Repo
}

func New(db *sql.DB, r Repo) Service { return &service{db: db, r: r} }

func (s *service) Create(ctx context.Context, rm *model.Room) (*model.Room, error) {
	if rm.Name == "" || rm.Capacity < 1 || rm.Description == "" {
		return nil, makeErr(ErrBadInput)
	}
	if err := s.r.Create(ctx, rm); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, makeErr(ErrNameTaken)
		}
		return nil, err
	}
	return rm, nil
}

func (s *service) List(ctx context.Context) ([]model.Room, error) {
	return s.r.List(ctx)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Room, error) {
	rm, err := s.r.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, makeErr(ErrNotFound)
	}
	return rm, nil
}

// Update rewrites name/capacity/description under the row lock so the
// capacity check and the write see the same booking count. current_booking
// itself is never touched here.
func (s *service) Update(ctx context.Context, rm *model.Room) (out *model.Room, err error) {
	if rm.Name == "" || rm.Capacity < 1 || rm.Description == "" {
		return nil, makeErr(ErrBadInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cur, err := s.r.GetForUpdate(ctx, tx, rm.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if rm.Capacity < cur.CurrentBooking {
		return nil, makeErr(ErrCapacityBelowBookings)
	}

	if err = s.r.UpdateInfo(ctx, tx, rm); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			err = makeErr(ErrNameTaken)
		}
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	cur.Name = rm.Name
	cur.Capacity = rm.Capacity
	cur.Description = rm.Description
	return cur, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	found, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return makeErr(ErrNotFound)
	}
	return nil
}
