package room

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sunilverma11/town-book/app/echoServer/jwtx"
	"github.com/sunilverma11/town-book/model"
	roomsvc "github.com/sunilverma11/town-book/service/room"
)

type Controller struct {
	Svc roomsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type RoomReq struct {
	Name        string `json:"name" validate:"required"`
	Capacity    int64  `json:"capacity" validate:"required,gte=1"`
	Description string `json:"description" validate:"required"`
}

// roomView adds the derived available count the frontend renders.
type roomView struct {
	model.Room
	Available int64 `json:"available"`
}

func view(rm model.Room) roomView { return roomView{Room: rm, Available: rm.Available()} }

// GET /api/rooms
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("room list error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	out := make([]roomView, 0, len(rows))
	for _, rm := range rows {
		out = append(out, view(rm))
	}
	return c.JSON(http.StatusOK, out)
}

// GET /api/rooms/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rm, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if roomsvc.Code(err) == roomsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		}
		h.Log.Error("room detail error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, view(*rm))
}

// POST /api/rooms  (librarian)
func (h *Controller) Create(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	var req RoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	rm, err := h.Svc.Create(c.Request().Context(), &model.Room{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Description: req.Description,
	})
	if err != nil {
		switch roomsvc.Code(err) {
		case roomsvc.ErrNameTaken:
			return c.JSON(http.StatusConflict, echo.Map{"message": "room name already exists"})
		case roomsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("room create error", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, view(*rm))
}

// PUT /api/rooms/:id  (librarian)
func (h *Controller) Update(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req RoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	rm, err := h.Svc.Update(c.Request().Context(), &model.Room{
		ID:          id,
		Name:        req.Name,
		Capacity:    req.Capacity,
		Description: req.Description,
	})
	if err != nil {
		switch roomsvc.Code(err) {
		case roomsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		case roomsvc.ErrCapacityBelowBookings:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "new capacity cannot be less than current number of bookings"})
		case roomsvc.ErrNameTaken:
			return c.JSON(http.StatusConflict, echo.Map{"message": "room name already exists"})
		case roomsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("room update error", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, view(*rm))
}

// DELETE /api/rooms/:id  (librarian)
func (h *Controller) Delete(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if roomsvc.Code(err) == roomsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		}
		h.Log.Error("room delete error", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room deleted successfully"})
}
