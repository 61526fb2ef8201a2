package bookreqsvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sunilverma11/town-book/model"
	bookreqrepo "github.com/sunilverma11/town-book/repository/bookrequest"
	bookreqsvc "github.com/sunilverma11/town-book/service/bookrequest"
)

type bookRepoMock struct {
	detailFn      func(ctx context.Context, id int64) (*model.Book, error)
	decrementFn   func(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	incrementFn   func(ctx context.Context, tx *sql.Tx, id int64) error
	setBorrowerFn func(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error
}

var _ bookreqsvc.BookRepo = (*bookRepoMock)(nil)

func (m *bookRepoMock) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return m.detailFn(ctx, id)
}
func (m *bookRepoMock) DecrementAvailable(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	return m.decrementFn(ctx, tx, id)
}
func (m *bookRepoMock) IncrementAvailable(ctx context.Context, tx *sql.Tx, id int64) error {
	return m.incrementFn(ctx, tx, id)
}
func (m *bookRepoMock) SetBorrower(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error {
	return m.setBorrowerFn(ctx, tx, id, userID, due)
}

type requestRepoMock struct {
	insertFn        func(ctx context.Context, userID, bookID int64) (*model.BookRequest, error)
	listFn          func(ctx context.Context, f bookreqrepo.ListFilter) ([]bookreqsvc.ListRow, error)
	hasPendingFn    func(ctx context.Context, userID, bookID int64) (bool, error)
	getFn           func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error)
	findApprovedFn  func(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error)
	markProcessedFn func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error
	setReturnFn     func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error
}

var _ bookreqsvc.RequestRepo = (*requestRepoMock)(nil)

func (m *requestRepoMock) Insert(ctx context.Context, userID, bookID int64) (*model.BookRequest, error) {
	return m.insertFn(ctx, userID, bookID)
}
func (m *requestRepoMock) List(ctx context.Context, f bookreqrepo.ListFilter) ([]bookreqsvc.ListRow, error) {
	return m.listFn(ctx, f)
}
func (m *requestRepoMock) HasPending(ctx context.Context, userID, bookID int64) (bool, error) {
	return m.hasPendingFn(ctx, userID, bookID)
}
func (m *requestRepoMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
	return m.getFn(ctx, tx, id)
}
func (m *requestRepoMock) FindApprovedUnreturnedForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error) {
	return m.findApprovedFn(ctx, tx, userID, bookID)
}
func (m *requestRepoMock) MarkProcessed(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error {
	return m.markProcessedFn(ctx, tx, id, status, processedBy, reason, due)
}
func (m *requestRepoMock) SetReturnStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error {
	return m.setReturnFn(ctx, tx, id, status, returned)
}

type cacheMock struct{ invalidated []int64 }

var _ bookreqsvc.Cache = (*cacheMock)(nil)

func (m *cacheMock) Invalidate(ctx context.Context, id int64) {
	m.invalidated = append(m.invalidated, id)
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- Create ---

func TestCreate_BookNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	books := &bookRepoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, nil },
	}
	svc := bookreqsvc.New(db, books, &requestRepoMock{}, &cacheMock{})

	_, err := svc.Create(context.Background(), 1, 99)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrNotFound, bookreqsvc.Code(err))
}

func TestCreate_NoCopiesAvailable(t *testing.T) {
	db, _ := newMockDB(t)
	books := &bookRepoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 0}, nil
		},
	}
	svc := bookreqsvc.New(db, books, &requestRepoMock{}, &cacheMock{})

	_, err := svc.Create(context.Background(), 1, 5)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrExhausted, bookreqsvc.Code(err))
}

func TestCreate_DuplicatePending(t *testing.T) {
	db, _ := newMockDB(t)
	books := &bookRepoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 1}, nil
		},
	}
	requests := &requestRepoMock{
		hasPendingFn: func(ctx context.Context, userID, bookID int64) (bool, error) { return true, nil },
	}
	svc := bookreqsvc.New(db, books, requests, &cacheMock{})

	_, err := svc.Create(context.Background(), 1, 5)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrDuplicatePending, bookreqsvc.Code(err))
}

func TestCreate_Success(t *testing.T) {
	db, _ := newMockDB(t)
	books := &bookRepoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, Copies: 2, AvailableCopies: 1}, nil
		},
	}
	requests := &requestRepoMock{
		hasPendingFn: func(ctx context.Context, userID, bookID int64) (bool, error) { return false, nil },
		insertFn: func(ctx context.Context, userID, bookID int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: 10, UserID: userID, BookID: bookID, Status: model.RequestPending}, nil
		},
	}
	svc := bookreqsvc.New(db, books, requests, &cacheMock{})

	req, err := svc.Create(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Equal(t, int64(10), req.ID)
	require.Equal(t, model.RequestPending, req.Status)
}

// --- Process ---

func TestProcess_ApproveTakesCopyAndSetsDueDate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var gotDue time.Time
	books := &bookRepoMock{
		decrementFn: func(ctx context.Context, tx *sql.Tx, id int64) (bool, error) { return true, nil },
		setBorrowerFn: func(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error {
			gotDue = due
			return nil
		},
	}
	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: id, UserID: 3, BookID: 7, Status: model.RequestPending}, nil
		},
		markProcessedFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error {
			require.Equal(t, model.RequestApproved, status)
			require.Equal(t, int64(2), processedBy)
			require.NotNil(t, due)
			return nil
		},
	}
	cache := &cacheMock{}
	svc := bookreqsvc.New(db, books, requests, cache)

	req, err := svc.Process(context.Background(), 10, 2, model.RequestApproved, nil)
	require.NoError(t, err)
	require.Equal(t, model.RequestApproved, req.Status)
	require.NotNil(t, req.DueDate)
	require.WithinDuration(t, time.Now().UTC().Add(bookreqsvc.LoanPeriod), gotDue, time.Minute)
	require.Equal(t, []int64{7}, cache.invalidated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_RejectLeavesCounterAlone(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	books := &bookRepoMock{
		decrementFn: func(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
			t.Fatal("reject must not touch availability")
			return false, nil
		},
	}
	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: id, UserID: 3, BookID: 7, Status: model.RequestPending}, nil
		},
		markProcessedFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error {
			require.Equal(t, model.RequestRejected, status)
			require.Nil(t, due)
			return nil
		},
	}
	cache := &cacheMock{}
	svc := bookreqsvc.New(db, books, requests, cache)

	reason := "damaged copy under repair"
	req, err := svc.Process(context.Background(), 10, 2, model.RequestRejected, &reason)
	require.NoError(t, err)
	require.Equal(t, model.RequestRejected, req.Status)
	require.Nil(t, req.DueDate)
	require.Empty(t, cache.invalidated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_ExhaustedRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	books := &bookRepoMock{
		decrementFn: func(ctx context.Context, tx *sql.Tx, id int64) (bool, error) { return false, nil },
	}
	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: id, UserID: 3, BookID: 7, Status: model.RequestPending}, nil
		},
		markProcessedFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error {
			t.Fatal("must not flip status when the copy take fails")
			return nil
		},
	}
	cache := &cacheMock{}
	svc := bookreqsvc.New(db, books, requests, cache)

	_, err := svc.Process(context.Background(), 10, 2, model.RequestApproved, nil)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrExhausted, bookreqsvc.Code(err))
	require.Empty(t, cache.invalidated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_AlreadyProcessed(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: id, Status: model.RequestApproved}, nil
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	_, err := svc.Process(context.Background(), 10, 2, model.RequestApproved, nil)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrAlreadyProcessed, bookreqsvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	_, err := svc.Process(context.Background(), 404, 2, model.RequestApproved, nil)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrNotFound, bookreqsvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_BadDecision(t *testing.T) {
	db, _ := newMockDB(t)
	svc := bookreqsvc.New(db, &bookRepoMock{}, &requestRepoMock{}, &cacheMock{})

	_, err := svc.Process(context.Background(), 10, 2, model.RequestPending, nil)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrBadDecision, bookreqsvc.Code(err))
}

// --- return round trip ---

func TestSubmitReturn_SetsPending(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	requests := &requestRepoMock{
		findApprovedFn: func(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: 10, UserID: userID, BookID: bookID, Status: model.RequestApproved}, nil
		},
		setReturnFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error {
			require.Equal(t, model.RequestPending, status)
			require.False(t, returned)
			return nil
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	req, err := svc.SubmitReturn(context.Background(), 3, 7)
	require.NoError(t, err)
	require.NotNil(t, req.ReturnStatus)
	require.Equal(t, model.RequestPending, *req.ReturnStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReturn_AlreadyPending(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	pending := model.RequestPending
	requests := &requestRepoMock{
		findApprovedFn: func(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: 10, Status: model.RequestApproved, ReturnStatus: &pending}, nil
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	_, err := svc.SubmitReturn(context.Background(), 3, 7)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrAlreadyPending, bookreqsvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReturn_NoApprovedBorrow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	requests := &requestRepoMock{
		findApprovedFn: func(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	_, err := svc.SubmitReturn(context.Background(), 3, 7)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrNotFound, bookreqsvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessReturn_ApproveGivesCopyBack(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	incremented := false
	books := &bookRepoMock{
		incrementFn: func(ctx context.Context, tx *sql.Tx, id int64) error {
			incremented = true
			return nil
		},
	}
	pending := model.RequestPending
	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: id, BookID: 7, Status: model.RequestApproved, ReturnStatus: &pending}, nil
		},
		setReturnFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error {
			require.Equal(t, model.RequestApproved, status)
			require.True(t, returned)
			return nil
		},
	}
	cache := &cacheMock{}
	svc := bookreqsvc.New(db, books, requests, cache)

	req, err := svc.ProcessReturn(context.Background(), 10, 2, model.RequestApproved)
	require.NoError(t, err)
	require.True(t, incremented)
	require.True(t, req.IsReturned)
	require.Equal(t, []int64{7}, cache.invalidated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessReturn_NoPendingReturn(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: id, Status: model.RequestApproved}, nil
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	_, err := svc.ProcessReturn(context.Background(), 10, 2, model.RequestApproved)
	require.Error(t, err)
	require.Equal(t, bookreqsvc.ErrNoPendingReturn, bookreqsvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessReturn_RejectKeepsCopyOut(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	books := &bookRepoMock{
		incrementFn: func(ctx context.Context, tx *sql.Tx, id int64) error {
			t.Fatal("reject must not restore availability")
			return nil
		},
	}
	pending := model.RequestPending
	requests := &requestRepoMock{
		getFn: func(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error) {
			return &model.BookRequest{ID: id, BookID: 7, Status: model.RequestApproved, ReturnStatus: &pending}, nil
		},
		setReturnFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error {
			require.Equal(t, model.RequestRejected, status)
			require.False(t, returned)
			return nil
		},
	}
	cache := &cacheMock{}
	svc := bookreqsvc.New(db, books, requests, cache)

	req, err := svc.ProcessReturn(context.Background(), 10, 2, model.RequestRejected)
	require.NoError(t, err)
	require.False(t, req.IsReturned)
	require.Empty(t, cache.invalidated)
	require.NoError(t, mock.ExpectationsWereMet())
}

// --- listing ---

func TestList_MemberScopedToOwnRows(t *testing.T) {
	db, _ := newMockDB(t)
	requests := &requestRepoMock{
		listFn: func(ctx context.Context, f bookreqrepo.ListFilter) ([]bookreqsvc.ListRow, error) {
			require.NotNil(t, f.UserID)
			require.Equal(t, int64(3), *f.UserID)
			return nil, nil
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	_, err := svc.List(context.Background(), 3, model.RoleMember, nil)
	require.NoError(t, err)
}

func TestList_LibrarianSeesAll(t *testing.T) {
	db, _ := newMockDB(t)
	requests := &requestRepoMock{
		listFn: func(ctx context.Context, f bookreqrepo.ListFilter) ([]bookreqsvc.ListRow, error) {
			require.Nil(t, f.UserID)
			return nil, nil
		},
	}
	svc := bookreqsvc.New(db, &bookRepoMock{}, requests, &cacheMock{})

	_, err := svc.List(context.Background(), 2, model.RoleLibrarian, nil)
	require.NoError(t, err)
}
