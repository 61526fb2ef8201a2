package roomreqsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sunilverma11/town-book/model"
	roomreqrepo "github.com/sunilverma11/town-book/repository/roomrequest"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrExhausted        ErrCode = "EXHAUSTED"
	ErrFullyBooked      ErrCode = "FULLY_BOOKED"
	ErrDuplicatePending ErrCode = "DUPLICATE_PENDING"
	ErrDuplicateBooking ErrCode = "DUPLICATE_BOOKING"
	ErrAlreadyProcessed ErrCode = "ALREADY_PROCESSED"
	ErrNotOwner         ErrCode = "NOT_OWNER"
	ErrNotActive        ErrCode = "NOT_ACTIVE"
	ErrAlreadyPending   ErrCode = "ALREADY_PENDING"
	ErrNoPendingLeave   ErrCode = "NO_PENDING_LEAVE"
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

type ListRow = roomreqrepo.ListRow

type RoomRepo interface {
	Detail(ctx context.Context, id int64) (*model.Room, error)
	Occupy(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	Release(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
}

type RequestRepo interface {
	Insert(ctx context.Context, userID, roomID int64, date time.Time, purpose string) (*model.RoomRequest, error)
	List(ctx context.Context, f roomreqrepo.ListFilter) ([]ListRow, error)
	HasPendingForRoomDate(ctx context.Context, userID, roomID int64, date time.Time) (bool, error)
	HasActiveBookingOn(ctx context.Context, userID int64, date time.Time) (bool, error)
	HasApprovedLeaveFor(ctx context.Context, userID, roomID int64, date time.Time) (bool, error)
	CountActiveFor(ctx context.Context, roomID int64, date time.Time) (int64, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.RoomRequest, error)
	MarkProcessed(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, active bool) error
	SubmitLeave(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error
	SetLeaveStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RequestStatus, active bool) error
}

type Service interface {
	// Create files a pending booking for one seat on one day.
	Create(ctx context.Context, userID, roomID int64, date time.Time, purpose string) (*model.RoomRequest, error)

	// Process approves or rejects a pending booking. Approval occupies a seat.
	Process(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus) (*model.RoomRequest, error)

	// SubmitLeave asks to end the caller's active booking early.
	SubmitLeave(ctx context.Context, userID, requestID int64) (*model.RoomRequest, error)

	// ProcessLeave approves or rejects a pending leave. Approval frees the seat.
	ProcessLeave(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus) (*model.RoomRequest, error)

	List(ctx context.Context) ([]ListRow, error)
	Pending(ctx context.Context) ([]ListRow, error)
	MyRequests(ctx context.Context, userID int64) ([]ListRow, error)
}

// ----- Service implementation -----

type service struct {
	db       *sql.DB
	rooms    RoomRepo
	requests RequestRepo
}

func New(db *sql.DB, rooms RoomRepo, requests RequestRepo) Service {
	return &service{db: db, rooms: rooms, requests: requests}
}

// Create runs the original gauntlet in order: room exists, has spots, no
// duplicate pending for the same room+day, no other active booking that day,
// then the per-day capacity count — unless the member previously booked and
// left this exact room+day, which lets them rebook past the capacity count.
func (s *service) Create(ctx context.Context, userID, roomID int64, date time.Time, purpose string) (*model.RoomRequest, error) {
	day := date.Truncate(24 * time.Hour)

	room, err := s.rooms.Detail(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, makeErr(ErrNotFound)
	}
	if room.Available() <= 0 {
		return nil, makeErr(ErrExhausted)
	}

	dup, err := s.requests.HasPendingForRoomDate(ctx, userID, roomID, day)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, makeErr(ErrDuplicatePending)
	}

	booked, err := s.requests.HasActiveBookingOn(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, makeErr(ErrDuplicateBooking)
	}

	rebook, err := s.requests.HasApprovedLeaveFor(ctx, userID, roomID, day)
	if err != nil {
		return nil, err
	}
	if !rebook {
		active, err := s.requests.CountActiveFor(ctx, roomID, day)
		if err != nil {
			return nil, err
		}
		if active >= room.Capacity {
			return nil, makeErr(ErrFullyBooked)
		}
	}

	return s.requests.Insert(ctx, userID, roomID, day, purpose)
}

// Process re-checks occupancy under the row lock; the seat increment and the
// status flip commit together or not at all.
func (s *service) Process(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus) (req *model.RoomRequest, err error) {
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

	active := false
	if decision == model.RequestApproved {
		ok, oerr := s.rooms.Occupy(ctx, tx, req.RoomID)
		if oerr != nil {
			err = oerr
			return nil, err
		}
		if !ok {
			err = makeErr(ErrExhausted)
			return nil, err
		}
		active = true
	}

	if err = s.requests.MarkProcessed(ctx, tx, req.ID, decision, active); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	req.Status = decision
	req.IsActive = active
	return req, nil
}

func (s *service) SubmitLeave(ctx context.Context, userID, requestID int64) (req *model.RoomRequest, err error) {
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
	if req.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	if req.Status != model.RequestApproved || !req.IsActive {
		return nil, makeErr(ErrNotActive)
	}
	if req.LeaveRequestStatus != nil && *req.LeaveRequestStatus == model.RequestPending {
		return nil, makeErr(ErrAlreadyPending)
	}

	now := time.Now().UTC()
	if err = s.requests.SubmitLeave(ctx, tx, req.ID, now); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	pending := model.RequestPending
	req.LeaveRequestStatus = &pending
	req.LeaveRequestDate = &now
	return req, nil
}

func (s *service) ProcessLeave(ctx context.Context, requestID, librarianID int64, decision model.RequestStatus) (req *model.RoomRequest, err error) {
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
	if req.LeaveRequestStatus == nil || *req.LeaveRequestStatus != model.RequestPending {
		return nil, makeErr(ErrNoPendingLeave)
	}

	active := req.IsActive
	if decision == model.RequestApproved {
		if _, err = s.rooms.Release(ctx, tx, req.RoomID); err != nil {
			return nil, err
		}
		active = false
	}
	if err = s.requests.SetLeaveStatus(ctx, tx, req.ID, decision, active); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	req.LeaveRequestStatus = &decision
	req.IsActive = active
	return req, nil
}

func (s *service) List(ctx context.Context) ([]ListRow, error) {
	return s.requests.List(ctx, roomreqrepo.ListFilter{})
}

func (s *service) Pending(ctx context.Context) ([]ListRow, error) {
	pending := model.RequestPending
	return s.requests.List(ctx, roomreqrepo.ListFilter{Status: &pending})
}

func (s *service) MyRequests(ctx context.Context, userID int64) ([]ListRow, error) {
	return s.requests.List(ctx, roomreqrepo.ListFilter{UserID: &userID, SortByDate: true})
}
