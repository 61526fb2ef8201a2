package bookrequest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sunilverma11/town-book/app/echoServer/jwtx"
	"github.com/sunilverma11/town-book/model"
	bookreqsvc "github.com/sunilverma11/town-book/service/bookrequest"
)

type Controller struct {
	Svc bookreqsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /api/book-requests
func (h *Controller) Create(c echo.Context) error {
	var req CreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid := jwtx.UserID(c)

	out, err := h.Svc.Create(c.Request().Context(), uid, req.BookID)
	if err != nil {
		switch bookreqsvc.Code(err) {
		case bookreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bookreqsvc.ErrExhausted:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no copies available for borrowing"})
		case bookreqsvc.ErrDuplicatePending:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have a pending request for this book"})
		default:
			h.Log.Error("book request create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /api/book-requests
// Librarians see every request; members only their own. ?returnStatus=
// narrows to requests with that return sub-status.
func (h *Controller) List(c echo.Context) error {
	uid := jwtx.UserID(c)
	role := jwtx.Role(c)

	var returnStatus *model.RequestStatus
	if v := c.QueryParam("returnStatus"); v != "" {
		rs := model.RequestStatus(v)
		returnStatus = &rs
	}

	rows, err := h.Svc.List(c.Request().Context(), uid, role, returnStatus)
	if err != nil {
		h.Log.Error("book request list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /api/book-requests/my-requests
func (h *Controller) MyRequests(c echo.Context) error {
	rows, err := h.Svc.MyRequests(c.Request().Context(), jwtx.UserID(c))
	if err != nil {
		h.Log.Error("book request history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rows)
}

// PUT /api/book-requests/:id/process  (librarian)
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

	out, err := h.Svc.Process(c.Request().Context(), id, jwtx.UserID(c), model.RequestStatus(req.Status), req.Reason)
	if err != nil {
		switch bookreqsvc.Code(err) {
		case bookreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case bookreqsvc.ErrAlreadyProcessed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "request has already been processed"})
		case bookreqsvc.ErrExhausted:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no copies available for borrowing"})
		case bookreqsvc.ErrBadDecision:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid decision"})
		default:
			h.Log.Error("book request process", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/book-requests/:bookId/return-request
func (h *Controller) SubmitReturn(c echo.Context) error {
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.SubmitReturn(c.Request().Context(), jwtx.UserID(c), bookID)
	if err != nil {
		switch bookreqsvc.Code(err) {
		case bookreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no approved book request found"})
		case bookreqsvc.ErrAlreadyPending:
			return c.JSON(http.StatusConflict, echo.Map{"message": "return request is already pending"})
		default:
			h.Log.Error("return request submit", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /api/book-requests/:id/process-return  (librarian)
func (h *Controller) ProcessReturn(c echo.Context) error {
	if !jwtx.IsLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ProcessReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	out, err := h.Svc.ProcessReturn(c.Request().Context(), id, jwtx.UserID(c), model.RequestStatus(req.Status))
	if err != nil {
		switch bookreqsvc.Code(err) {
		case bookreqsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case bookreqsvc.ErrNoPendingReturn:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no pending return request found"})
		case bookreqsvc.ErrBadDecision:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid decision"})
		default:
			h.Log.Error("return request process", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}
