package bookreqsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sunilverma11/town-book/model"
	bookreqrepo "github.com/sunilverma11/town-book/repository/bookrequest"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrExhausted        ErrCode = "EXHAUSTED"
	ErrDuplicatePending ErrCode = "DUPLICATE_PENDING"
	ErrAlreadyProcessed ErrCode = "ALREADY_PROCESSED"
	ErrAlreadyPending   ErrCode = "ALREADY_PENDING"
	ErrNoPendingReturn  ErrCode = "NO_PENDING_RETURN"
	ErrBadDecision      ErrCode = "INVALID_TRANSITION"
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

// LoanPeriod is the fixed borrow window granted on approval.
const LoanPeriod = 14 * 24 * time.Hour

type ListRow = bookreqrepo.ListRow

type BookRepo interface {
	Detail(ctx context.Context, id int64) (*model.Book, error)
	DecrementAvailable(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	IncrementAvailable(ctx context.Context, tx *sql.Tx, id int64) error
	SetBorrower(ctx context.Context, tx *sql.Tx, id, userID int64, due time.Time) error
}

// Cache is the slice of the catalog cache writers need: counter mutations
// must drop the cached list/detail so readers repopulate from the ledger.
type Cache interface {
	Invalidate(ctx context.Context, id int64)
}

type RequestRepo interface {
	Insert(ctx context.Context, userID, bookID int64) (*model.BookRequest, error)
	List(ctx context.Context, f bookreqrepo.ListFilter) ([]ListRow, error)
	HasPending(ctx context.Context, userID, bookID int64) (bool, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.BookRequest, error)
	FindApprovedUnreturnedForUpdate(ctx context.Context, tx *sql.Tx, userID, bookID int64) (*model.BookRequest, error)
	MarkProcessed(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, processedBy int64, reason *string, due *time.Time) error
	SetReturnStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, returned bool) error
}

type Service interface {
	// Create files a pending borrow request for the member.
	Create(ctx context.Context, userID, bookID int64) (*model.BookRequest, error)

	// Process approves or rejects a pending request. Approval takes a copy.
	Process(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus, reason *string) (*model.BookRequest, error)

	// SubmitReturn opens a return sub-request on the member's approved borrow.
	SubmitReturn(ctx context.Context, userID, bookID int64) (*model.BookRequest, error)

	// ProcessReturn closes (or rejects) a pending return. Approval gives the copy back.
	ProcessReturn(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus) (*model.BookRequest, error)

	// List shows everything to librarians and only the caller's rows to members.
	List(ctx context.Context, userID int64, role string, returnStatus *model.RequestStatus) ([]ListRow, error)
	MyRequests(ctx context.Context, userID int64) ([]ListRow, error)
}

// ----- Service implementation -----

type service struct {
	db       *sql.DB
	books    BookRepo
	requests RequestRepo
	cache    Cache
}

func New(db *sql.DB, books BookRepo, requests RequestRepo, cache Cache) Service {
	return &service{db: db, books: books, requests: requests, cache: cache}
}

func (s *service) Create(ctx context.Context, userID, bookID int64) (*model.BookRequest, error) {
	b, err := s.books.Detail(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	if b.AvailableCopies <= 0 {
		return nil, makeErr(ErrExhausted)
	}

	dup, err := s.requests.HasPending(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, makeErr(ErrDuplicatePending)
	}

	return s.requests.Insert(ctx, userID, bookID)
}

// Process re-checks availability under the row lock: the decrement and the
// status flip commit together or not at all.
func (s *service) Process(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus, reason *string) (req *model.BookRequest, err error) {
	if decision != model.RequestApproved && decision != model.RequestRejected {
		return nil, makeErr(ErrBadDecision)
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

	req, err = s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if req.Status != model.RequestPending {
		return nil, makeErr(ErrAlreadyProcessed)
	}

	var due *time.Time
	if decision == model.RequestApproved {
		ok, derr := s.books.DecrementAvailable(ctx, tx, req.BookID)
		if derr != nil {
			err = derr
			return nil, err
		}
		if !ok {
			err = makeErr(ErrExhausted)
			return nil, err
		}
		d := time.Now().UTC().Add(LoanPeriod)
		due = &d
		if err = s.books.SetBorrower(ctx, tx, req.BookID, req.UserID, d); err != nil {
			return nil, err
		}
	}

	if err = s.requests.MarkProcessed(ctx, tx, req.ID, decision, librarianID, reason, due); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	if decision == model.RequestApproved {
		s.cache.Invalidate(ctx, req.BookID)
	}

	now := time.Now().UTC()
	req.Status = decision
	req.ProcessedDate = &now
	req.ProcessedBy = &librarianID
	req.Reason = reason
	req.DueDate = due
	return req, nil
}

func (s *service) SubmitReturn(ctx context.Context, userID, bookID int64) (req *model.BookRequest, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err = s.requests.FindApprovedUnreturnedForUpdate(ctx, tx, userID, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if req.ReturnStatus != nil && *req.ReturnStatus == model.RequestPending {
		return nil, makeErr(ErrAlreadyPending)
	}

	if err = s.requests.SetReturnStatus(ctx, tx, req.ID, model.RequestPending, false); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	pending := model.RequestPending
	req.ReturnStatus = &pending
	return req, nil
}

func (s *service) ProcessReturn(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus) (req *model.BookRequest, err error) {
	if decision != model.RequestApproved && decision != model.RequestRejected {
		return nil, makeErr(ErrBadDecision)
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

	req, err = s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if req.ReturnStatus == nil || *req.ReturnStatus != model.RequestPending {
		return nil, makeErr(ErrNoPendingReturn)
	}

	returned := decision == model.RequestApproved
	if returned {
		if err = s.books.IncrementAvailable(ctx, tx, req.BookID); err != nil {
			return nil, err
		}
	}
	if err = s.requests.SetReturnStatus(ctx, tx, req.ID, decision, returned); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	if returned {
		s.cache.Invalidate(ctx, req.BookID)
	}

	req.ReturnStatus = &decision
	req.IsReturned = returned
	return req, nil
}

func (s *service) List(ctx context.Context, userID int64, role string, returnStatus *model.RequestStatus) ([]ListRow, error) {
	f := bookreqrepo.ListFilter{ReturnStatus: returnStatus}
	if role != model.RoleLibrarian {
		f.UserID = &userID
	}
	return s.requests.List(ctx, f)
}

func (s *service) MyRequests(ctx context.Context, userID int64) ([]ListRow, error) {
	return s.requests.List(ctx, bookreqrepo.ListFilter{UserID: &userID})
}
