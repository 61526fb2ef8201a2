package roomrequest

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sunilverma11/town-book/app/echoServer/jwtx"
	"github.com/sunilverma11/town-book/model"
	roomreqsvc "github.com/sunilverma11/town-book/service/roomrequest"
)

type Controller struct {
	Svc roomreqsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/room-requests
func (h *Controller) Create(c echo.Context) error {
	var req CreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date, expected YYYY-MM-DD"})
	}

	out, err := h.Svc.Create(c.Request().Context(), jwtx.UserID(c), req.RoomID, date, req.Purpose)
	if err != nil {
		switch roomreqsvc.Code(err) {
		case roomreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		case roomreqsvc.ErrExhausted:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no spots available in this room"})
		case roomreqsvc.ErrDuplicatePending:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have a pending request for this room and date"})
		case roomreqsvc.ErrDuplicateBooking:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have an active booking for this date"})
		case roomreqsvc.ErrFullyBooked:
			return c.JSON(http.StatusConflict, echo.Map{"message": "room is fully booked for this date"})
		default:
			h.Log.Error("room request create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /api/room-requests  (librarian)
func (h *Controller) List(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("room request list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /api/room-requests/pending  (librarian)
func (h *Controller) Pending(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.Pending(c.Request().Context())
	if err != nil {
		h.Log.Error("room request pending list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /api/room-requests/my-requests
func (h *Controller) MyRequests(c echo.Context) error {
	rows, err := h.Svc.MyRequests(c.Request().Context(), jwtx.UserID(c))
	if err != nil {
		h.Log.Error("room request history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// PUT /api/room-requests/:id/process  (librarian)
func (h *Controller) Process(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ProcessReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	out, err := h.Svc.Process(c.Request().Context(), id, jwtx.UserID(c), model.RequestStatus(req.Status))
	if err != nil {
		switch roomreqsvc.Code(err) {
		case roomreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case roomreqsvc.ErrAlreadyProcessed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "request has already been processed"})
		case roomreqsvc.ErrExhausted:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no spots available in this room"})
		case roomreqsvc.ErrBadDecision:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid decision"})
		default:
			h.Log.Error("room request process", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/room-requests/:id/leave
func (h *Controller) SubmitLeave(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.SubmitLeave(c.Request().Context(), jwtx.UserID(c), id)
	if err != nil {
		switch roomreqsvc.Code(err) {
		case roomreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case roomreqsvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "this booking does not belong to you"})
		case roomreqsvc.ErrNotActive:
			return c.JSON(http.StatusConflict, echo.Map{"message": "booking is not active"})
		case roomreqsvc.ErrAlreadyPending:
			return c.JSON(http.StatusConflict, echo.Map{"message": "leave request is already pending"})
		default:
			h.Log.Error("leave request submit", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /api/room-requests/:id/process-leave  (librarian)
func (h *Controller) ProcessLeave(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ProcessLeaveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	out, err := h.Svc.ProcessLeave(c.Request().Context(), id, jwtx.UserID(c), model.RequestStatus(req.Status))
	if err != nil {
		switch roomreqsvc.Code(err) {
		case roomreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case roomreqsvc.ErrNoPendingLeave:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no pending leave request found"})
		case roomreqsvc.ErrBadDecision:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid decision"})
		default:
			h.Log.Error("leave request process", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}
