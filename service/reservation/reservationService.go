package reservationsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sunilverma11/town-book/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrExhausted       ErrCode = "EXHAUSTED"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrBadInput        ErrCode = "BAD_INPUT"
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

type BookRepo interface {
	Detail(ctx context.Context, id int64) (*model.Book, error)
	DecrementAvailable(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	IncrementAvailable(ctx context.Context, tx *sql.Tx, id int64) error
}

type RoomRepo interface {
	Detail(ctx context.Context, id int64) (*model.Room, error)
	Occupy(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	Release(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
}

// Cache is the slice of the catalog cache writers need. Only book counters
// are cached; room mutations never touch it.
type Cache interface {
	Invalidate(ctx context.Context, id int64)
}

type ReservationRepo interface {
	Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) error
	List(ctx context.Context, userID *int64) ([]model.Reservation, error)
	Get(ctx context.Context, id int64) (*model.Reservation, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) (bool, error)
	MarkPickedUp(ctx context.Context, id int64) error
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64) error
}

// CreateParams is the caller-supplied part of a reservation.
type CreateParams struct {
	Type       model.ReservationType
	BookID     *int64
	RoomID     *int64
	SlotStart  *time.Time
	SlotEnd    *time.Time
	PickupDate *time.Time
	ReturnDate *time.Time
}

type Service interface {
	// Create takes availability immediately, without a librarian gate, against
	// the same counters the request workflows use.
	Create(ctx context.Context, userID int64, p CreateParams) (*model.Reservation, error)

	List(ctx context.Context, userID int64, role string) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) (*model.Reservation, error)
	Pickup(ctx context.Context, userID int64, role string, id int64) (*model.Reservation, error)
	// Return hands the copy or seat back; a reservation can be returned once.
	Return(ctx context.Context, userID int64, role string, id int64) (*model.Reservation, error)
}

// ----- Service implementation -----

type service struct {
	db           *sql.DB
	books        BookRepo
	rooms        RoomRepo
	reservations ReservationRepo
	cache        Cache
}

func New(db *sql.DB, books BookRepo, rooms RoomRepo, reservations ReservationRepo, cache Cache) Service {
	return &service{db: db, books: books, rooms: rooms, reservations: reservations, cache: cache}
}

func (s *service) Create(ctx context.Context, userID int64, p CreateParams) (res *model.Reservation, err error) {
	switch p.Type {
	case model.ReservationBook:
		if p.BookID == nil {
			return nil, makeErr(ErrBadInput)
		}
		b, berr := s.books.Detail(ctx, *p.BookID)
		if berr != nil {
			return nil, berr
		}
		if b == nil {
			return nil, makeErr(ErrNotFound)
		}
	case model.ReservationRoom:
		if p.RoomID == nil || p.SlotStart == nil || p.SlotEnd == nil {
			return nil, makeErr(ErrBadInput)
		}
		rm, rerr := s.rooms.Detail(ctx, *p.RoomID)
		if rerr != nil {
			return nil, rerr
		}
		if rm == nil {
			return nil, makeErr(ErrNotFound)
		}
	default:
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

	// Conditional take: the reservation row only exists if the counter moved.
	if p.Type == model.ReservationBook {
		ok, derr := s.books.DecrementAvailable(ctx, tx, *p.BookID)
		if derr != nil {
			err = derr
			return nil, err
		}
		if !ok {
			err = makeErr(ErrExhausted)
			return nil, err
		}
	} else {
		ok, oerr := s.rooms.Occupy(ctx, tx, *p.RoomID)
		if oerr != nil {
			err = oerr
			return nil, err
		}
		if !ok {
			err = makeErr(ErrExhausted)
			return nil, err
		}
	}

	res = &model.Reservation{
		UserID:     userID,
		Type:       p.Type,
		BookID:     p.BookID,
		RoomID:     p.RoomID,
		SlotStart:  p.SlotStart,
		SlotEnd:    p.SlotEnd,
		PickupDate: p.PickupDate,
		ReturnDate: p.ReturnDate,
	}
	if err = s.reservations.Insert(ctx, tx, res); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	if p.Type == model.ReservationBook {
		s.cache.Invalidate(ctx, *p.BookID)
	}
	return res, nil
}

func (s *service) List(ctx context.Context, userID int64, role string) ([]model.Reservation, error) {
	if role == model.RoleLibrarian {
		return s.reservations.List(ctx, nil)
	}
	return s.reservations.List(ctx, &userID)
}

func (s *service) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) (*model.Reservation, error) {
	switch status {
	case model.ReservationPending, model.ReservationApproved, model.ReservationDeclined,
		model.ReservationCompleted, model.ReservationCancelled:
	default:
		return nil, makeErr(ErrBadInput)
	}
	found, err := s.reservations.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, makeErr(ErrNotFound)
	}
	return s.reservations.Get(ctx, id)
}

func (s *service) Pickup(ctx context.Context, userID int64, role string, id int64) (*model.Reservation, error) {
	res, err := s.reservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, makeErr(ErrNotFound)
	}
	if res.UserID != userID && role != model.RoleLibrarian {
		return nil, makeErr(ErrNotOwner)
	}
	if err := s.reservations.MarkPickedUp(ctx, id); err != nil {
		return nil, err
	}
	res.IsPickedUp = true
	return res, nil
}

func (s *service) Return(ctx context.Context, userID int64, role string, id int64) (res *model.Reservation, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err = s.reservations.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if res.UserID != userID && role != model.RoleLibrarian {
		return nil, makeErr(ErrNotOwner)
	}
	if res.IsReturned {
		return nil, makeErr(ErrAlreadyReturned)
	}

	if err = s.reservations.MarkReturned(ctx, tx, id); err != nil {
		return nil, err
	}
	switch res.Type {
	case model.ReservationBook:
		if res.BookID != nil {
			if err = s.books.IncrementAvailable(ctx, tx, *res.BookID); err != nil {
				return nil, err
			}
		}
	case model.ReservationRoom:
		if res.RoomID != nil {
			if _, err = s.rooms.Release(ctx, tx, *res.RoomID); err != nil {
				return nil, err
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	if res.Type == model.ReservationBook && res.BookID != nil {
		s.cache.Invalidate(ctx, *res.BookID)
	}

	res.IsReturned = true
	return res, nil
}
