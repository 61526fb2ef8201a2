// service/book/bookService_test.go
package booksvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sunilverma11/town-book/model"
	"github.com/sunilverma11/town-book/repository/catalogcache"
	booksvc "github.com/sunilverma11/town-book/service/book"
)

type repoMock struct {
	createFn       func(ctx context.Context, b *model.Book) error
	listFn         func(ctx context.Context) ([]model.Book, error)
	detailFn       func(ctx context.Context, id int64) (*model.Book, error)
	updateFn       func(ctx context.Context, b *model.Book) (bool, error)
	deleteFn       func(ctx context.Context, id int64) (bool, error)
	getFn          func(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error)
	decrementFn    func(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	incrementFn    func(ctx context.Context, tx *sql.Tx, id int64) error
	setBorrowerFn  func(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error
	clearFn        func(ctx context.Context, tx *sql.Tx, id int64) error
	markReturnedFn func(ctx context.Context, tx *sql.Tx, bookID, userID int64) error
}

var _ booksvc.Repo = (*repoMock)(nil)

func (m *repoMock) Create(ctx context.Context, b *model.Book) error { return m.createFn(ctx, b) }
func (m *repoMock) List(ctx context.Context) ([]model.Book, error)  { return m.listFn(ctx) }
func (m *repoMock) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return m.detailFn(ctx, id)
}
func (m *repoMock) Update(ctx context.Context, b *model.Book) (bool, error) {
	return m.updateFn(ctx, b)
}
func (m *repoMock) Delete(ctx context.Context, id int64) (bool, error) { return m.deleteFn(ctx, id) }
func (m *repoMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
	return m.getFn(ctx, tx, id)
}
func (m *repoMock) DecrementAvailable(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	return m.decrementFn(ctx, tx, id)
}
func (m *repoMock) IncrementAvailable(ctx context.Context, tx *sql.Tx, id int64) error {
	return m.incrementFn(ctx, tx, id)
}
func (m *repoMock) SetBorrower(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error {
	return m.setBorrowerFn(ctx, tx, id, userID, due)
}
func (m *repoMock) ClearBorrower(ctx context.Context, tx *sql.Tx, id int64) error {
	return m.clearFn(ctx, tx, id)
}
func (m *repoMock) MarkMatchingRequestReturned(ctx context.Context, tx *sql.Tx, bookID, userID int64) error {
	return m.markReturnedFn(ctx, tx, bookID, userID)
}

func newSvc(t *testing.T, m *repoMock) (booksvc.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return booksvc.New(db, m, catalogcache.New(nil, time.Minute)), mock
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newSvc(t, &repoMock{})
	ctx := context.Background()

	cases := []model.Book{
		{Author: "a", ISBN: "i", Copies: 1},
		{Title: "t", ISBN: "i", Copies: 1},
		{Title: "t", Author: "a", Copies: 1},
		{Title: "t", Author: "a", ISBN: "i", Copies: 0},
	}
	for _, b := range cases {
		_, err := s.Create(ctx, &b)
		require.Error(t, err)
		require.Equal(t, booksvc.ErrBadInput, booksvc.Code(err))
	}
}

func TestCreate_DefaultsAvailableToCopies(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) error {
			b.ID = 42
			return nil
		},
	}
	s, _ := newSvc(t, m)

	b, err := s.Create(context.Background(), &model.Book{Title: "t", Author: "a", ISBN: "i", Copies: 3})
	require.NoError(t, err)
	require.Equal(t, int64(42), b.ID)
	require.Equal(t, int64(3), b.AvailableCopies)
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, nil },
	}
	s, _ := newSvc(t, m)

	_, err := s.Detail(context.Background(), 99)
	require.Error(t, err)
	require.Equal(t, booksvc.ErrNotFound, booksvc.Code(err))
}

func TestBorrow_Success(t *testing.T) {
	m := &repoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 1}, nil
		},
		decrementFn: func(ctx context.Context, tx *sql.Tx, id int64) (bool, error) { return true, nil },
		setBorrowerFn: func(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error {
			require.Equal(t, int64(3), userID)
			return nil
		},
	}
	s, mock := newSvc(t, m)
	mock.ExpectBegin()
	mock.ExpectCommit()

	b, err := s.Borrow(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), b.AvailableCopies)
	require.NotNil(t, b.BorrowedBy)
	require.Equal(t, int64(3), *b.BorrowedBy)
	require.NotNil(t, b.BorrowedDueDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrow_SameUserTwice(t *testing.T) {
	uid := int64(3)
	m := &repoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 1, BorrowedBy: &uid}, nil
		},
	}
	s, mock := newSvc(t, m)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Borrow(context.Background(), uid, 7)
	require.Error(t, err)
	require.Equal(t, booksvc.ErrAlreadyBorrowed, booksvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrow_ExhaustedRollsBack(t *testing.T) {
	m := &repoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 0}, nil
		},
		decrementFn: func(ctx context.Context, tx *sql.Tx, id int64) (bool, error) { return false, nil },
		setBorrowerFn: func(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error {
			t.Fatal("must not assign a borrower without a copy")
			return nil
		},
	}
	s, mock := newSvc(t, m)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Borrow(context.Background(), 3, 7)
	require.Error(t, err)
	require.Equal(t, booksvc.ErrExhausted, booksvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReturn_NotBorrowedByCaller(t *testing.T) {
	other := int64(9)
	m := &repoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 1, BorrowedBy: &other}, nil
		},
	}
	s, mock := newSvc(t, m)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Return(context.Background(), 3, 7)
	require.Error(t, err)
	require.Equal(t, booksvc.ErrNotBorrowed, booksvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReturn_Success(t *testing.T) {
	uid := int64(3)
	closedRequest := false
	m := &repoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 1, BorrowedBy: &uid}, nil
		},
		markReturnedFn: func(ctx context.Context, tx *sql.Tx, bookID, userID int64) error {
			closedRequest = true
			return nil
		},
		incrementFn: func(ctx context.Context, tx *sql.Tx, id int64) error { return nil },
		clearFn:     func(ctx context.Context, tx *sql.Tx, id int64) error { return nil },
	}
	s, mock := newSvc(t, m)
	mock.ExpectBegin()
	mock.ExpectCommit()

	b, err := s.Return(context.Background(), uid, 7)
	require.NoError(t, err)
	require.True(t, closedRequest)
	require.Equal(t, int64(2), b.AvailableCopies)
	require.Nil(t, b.BorrowedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}
