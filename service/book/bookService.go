package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sunilverma11/town-book/model"
	"github.com/sunilverma11/town-book/repository/catalogcache"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrExhausted       ErrCode = "EXHAUSTED"
	ErrAlreadyBorrowed ErrCode = "ALREADY_BORROWED"
	ErrNotBorrowed     ErrCode = "NOT_BORROWED"
	ErrISBNTaken       ErrCode = "ISBN_TAKEN"
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

const loanPeriod = 14 * 24 * time.Hour

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error)
	DecrementAvailable(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	IncrementAvailable(ctx context.Context, tx *sql.Tx, id int64) error
	SetBorrower(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error
	ClearBorrower(ctx context.Context, tx *sql.Tx, id int64) error
	MarkMatchingRequestReturned(ctx context.Context, tx *sql.Tx, bookID, userID int64) error
}

type Service interface {
	Create(ctx context.Context, b *model.Book) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (*model.Book, error)
	Delete(ctx context.Context, id int64) error

	// Borrow is the legacy path that hands out a copy without a request.
	Borrow(ctx context.Context, userID, bookID int64) (*model.Book, error)
	// Return is the legacy counterpart; it also closes the member's approved
	// borrow request when one exists.
	Return(ctx context.Context, userID, bookID int64) (*model.Book, error)
}

// ----- Service implementation -----

type service struct {
	db    *sql.DB
	r     Repo
	cache *catalogcache.Store
}

func New(db *sql.DB, r Repo, cache *catalogcache.Store) Service {
	return &service{db: db, r: r, cache: cache}
}

func (s *service) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	if b.Title == "" || b.Author == "" || b.ISBN == "" || b.Copies < 1 {
		return nil, makeErr(ErrBadInput)
	}
	if b.AvailableCopies <= 0 || b.AvailableCopies > b.Copies {
		b.AvailableCopies = b.Copies
	}
	if err := s.r.Create(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrISBNTaken)
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, 0)
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) {
	if books, ok := s.cache.GetList(ctx); ok {
		return books, nil
	}
	books, err := s.r.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetList(ctx, books)
	return books, nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	if b, ok := s.cache.GetDetail(ctx, id); ok {
		return b, nil
	}
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	s.cache.SetDetail(ctx, b)
	return b, nil
}

func (s *service) Update(ctx context.Context, b *model.Book) (*model.Book, error) {
	if b.Title == "" || b.Author == "" || b.ISBN == "" || b.Copies < 1 {
		return nil, makeErr(ErrBadInput)
	}
	found, err := s.r.Update(ctx, b)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrISBNTaken)
		}
		return nil, err
	}
	if !found {
		return nil, makeErr(ErrNotFound)
	}
	s.cache.Invalidate(ctx, b.ID)
	return s.r.Detail(ctx, b.ID)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	found, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return makeErr(ErrNotFound)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

func (s *service) Borrow(ctx context.Context, userID, bookID int64) (b *model.Book, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err = s.r.GetForUpdate(ctx, tx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if b.BorrowedBy != nil && *b.BorrowedBy == userID {
		return nil, makeErr(ErrAlreadyBorrowed)
	}

	ok, err := s.r.DecrementAvailable(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if !ok {
		err = makeErr(ErrExhausted)
		return nil, err
	}

	due := time.Now().UTC().Add(loanPeriod)
	if err = s.r.SetBorrower(ctx, tx, bookID, userID, due); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, bookID)
	b.AvailableCopies--
	b.BorrowedBy = &userID
	b.BorrowedDueDate = &due
	return b, nil
}

func (s *service) Return(ctx context.Context, userID, bookID int64) (b *model.Book, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err = s.r.GetForUpdate(ctx, tx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if b.BorrowedBy == nil || *b.BorrowedBy != userID {
		return nil, makeErr(ErrNotBorrowed)
	}

	if err = s.r.MarkMatchingRequestReturned(ctx, tx, bookID, userID); err != nil {
		return nil, err
	}
	if err = s.r.IncrementAvailable(ctx, tx, bookID); err != nil {
		return nil, err
	}
	if err = s.r.ClearBorrower(ctx, tx, bookID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, bookID)
	if b.AvailableCopies < b.Copies {
		b.AvailableCopies++
	}
	b.BorrowedBy = nil
	b.BorrowedDueDate = nil
	return b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
