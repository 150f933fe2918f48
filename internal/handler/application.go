package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campuskeep/dormitory/internal/allocation"
	"github.com/campuskeep/dormitory/internal/repository"
)

// ApplicationHandler exposes the room application workflow: students
// submit and withdraw, managers list and decide.
type ApplicationHandler struct {
	Svc  *allocation.Service
	Apps *repository.ApplicationRepo
}

func NewApplicationHandler(svc *allocation.Service, apps *repository.ApplicationRepo) *ApplicationHandler {
	if svc == nil || apps == nil {
		panic("nil dependency passed to NewApplicationHandler")
	}
	return &ApplicationHandler{Svc: svc, Apps: apps}
}

type submitReq struct {
	BedID uint64 `json:"bed_id"`
}

type rejectReq struct {
	Reason string `json:"reason"`
}

// Submit files an application for the authenticated student.
func (h *ApplicationHandler) Submit(c echo.Context) error {
	studentNo := getStudentNo(c)
	if studentNo == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "student account required"})
	}
	var req submitReq
	if err := c.Bind(&req); err != nil || req.BedID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bed_id required"})
	}

	app, err := h.Svc.Submit(c.Request().Context(), studentNo, req.BedID)
	if err != nil {
		return applicationError(c, err)
	}
	return c.JSON(http.StatusCreated, app)
}

// Mine lists the authenticated student's applications, newest first.
func (h *ApplicationHandler) Mine(c echo.Context) error {
	studentNo := getStudentNo(c)
	if studentNo == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "student account required"})
	}
	apps, err := h.Apps.ListByStudent(c.Request().Context(), studentNo)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}

// Withdraw cancels the student's own pending application.
func (h *ApplicationHandler) Withdraw(c echo.Context) error {
	studentNo := getStudentNo(c)
	if studentNo == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "student account required"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	if err := h.Svc.Withdraw(c.Request().Context(), id, studentNo); err != nil {
		return applicationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns applications for managers, filtered by ?status= when
// given (PENDING/APPROVED/REJECTED).
func (h *ApplicationHandler) List(c echo.Context) error {
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	switch status {
	case "", repository.ApplicationPending, repository.ApplicationApproved, repository.ApplicationRejected:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	apps, err := h.Apps.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}

// Approve confirms a pending application.
func (h *ApplicationHandler) Approve(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	app, loc, err := h.Svc.Approve(c.Request().Context(), id, getUsername(c))
	if err != nil {
		return applicationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"application": app, "assignment": loc})
}

// Reject declines a pending application.
func (h *ApplicationHandler) Reject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	var req rejectReq
	_ = c.Bind(&req)
	if err := h.Svc.Reject(c.Request().Context(), id, getUsername(c), strings.TrimSpace(req.Reason)); err != nil {
		return applicationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// applicationError maps allocation errors onto HTTP statuses. 409 is
// reserved for losing a bed race; failed request preconditions
// (duplicate pending, already assigned, not assigned, not pending)
// are 400.
func applicationError(c echo.Context, err error) error {
	var conflict *repository.BedConflictError
	switch {
	case errors.Is(err, repository.ErrStudentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	case errors.Is(err, repository.ErrApplicationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
	case errors.Is(err, repository.ErrBedNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bed not found"})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "bed unavailable", "bed_status": conflict.Status})
	case errors.Is(err, allocation.ErrBedUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "bed unavailable"})
	case errors.Is(err, allocation.ErrDuplicateApplication):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a pending application already exists"})
	case errors.Is(err, allocation.ErrAlreadyAssigned):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student already has a bed"})
	case errors.Is(err, allocation.ErrNotAssigned):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student has no bed"})
	case errors.Is(err, allocation.ErrNotPending):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "application already processed"})
	case errors.Is(err, allocation.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
}
