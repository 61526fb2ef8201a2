package reservation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sunilverma11/town-book/app/echoServer/jwtx"
	"github.com/sunilverma11/town-book/model"
	reservationsvc "github.com/sunilverma11/town-book/service/reservation"
)

type Controller struct {
	Svc reservationsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/reservations
func (h *Controller) Create(c echo.Context) error {
	var req CreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	out, err := h.Svc.Create(c.Request().Context(), jwtx.UserID(c), reservationsvc.CreateParams{
		Type:       model.ReservationType(req.Type),
		BookID:     req.BookID,
		RoomID:     req.RoomID,
		SlotStart:  req.SlotStart,
		SlotEnd:    req.SlotEnd,
		PickupDate: req.PickupDate,
		ReturnDate: req.ReturnDate,
	})
	if err != nil {
		switch reservationsvc.Code(err) {
		case reservationsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reserved item not found"})
		case reservationsvc.ErrExhausted:
			return c.JSON(http.StatusConflict, echo.Map{"message": "nothing available to reserve"})
		case reservationsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("reservation create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /api/reservations
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context(), jwtx.UserID(c), jwtx.Role(c))
	if err != nil {
		h.Log.Error("reservation list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// PUT /api/reservations/:id/status  (librarian)
func (h *Controller) UpdateStatus(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req StatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	out, err := h.Svc.UpdateStatus(c.Request().Context(), id, model.ReservationStatus(req.Status))
	if err != nil {
		switch reservationsvc.Code(err) {
		case reservationsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		case reservationsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("reservation status update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/reservations/:id/pickup
func (h *Controller) Pickup(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.Pickup(c.Request().Context(), jwtx.UserID(c), jwtx.Role(c), id)
	if err != nil {
		switch reservationsvc.Code(err) {
		case reservationsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		case reservationsvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "this reservation does not belong to you"})
		default:
			h.Log.Error("reservation pickup", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/reservations/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.Return(c.Request().Context(), jwtx.UserID(c), jwtx.Role(c), id)
	if err != nil {
		switch reservationsvc.Code(err) {
		case reservationsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		case reservationsvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "this reservation does not belong to you"})
		case reservationsvc.ErrAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "reservation has already been returned"})
		default:
			h.Log.Error("reservation return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}
