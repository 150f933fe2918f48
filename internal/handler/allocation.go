package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campuskeep/dormitory/internal/allocation"
	"github.com/campuskeep/dormitory/internal/repository"
)

// AllocationHandler exposes the manager-driven check-in/check-out
// operations that bypass the application workflow.
type AllocationHandler struct {
	Svc   *allocation.Service
	Stays *repository.StayRecordRepo
}

func NewAllocationHandler(svc *allocation.Service, stays *repository.StayRecordRepo) *AllocationHandler {
	if svc == nil || stays == nil {
		panic("nil dependency passed to NewAllocationHandler")
	}
	return &AllocationHandler{Svc: svc, Stays: stays}
}

type checkInReq struct {
	StudentNo string `json:"student_no"`
	BedID     uint64 `json:"bed_id"`
}

type checkOutReq struct {
	StudentNo string `json:"student_no"`
}

// CheckIn assigns a bed to a student directly.
func (h *AllocationHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.StudentNo = strings.TrimSpace(req.StudentNo)
	if req.StudentNo == "" || req.BedID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_no and bed_id required"})
	}

	loc, err := h.Svc.CheckIn(c.Request().Context(), req.StudentNo, req.BedID, getUsername(c))
	if err != nil {
		return applicationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"assignment": loc})
}

// CheckOut releases the student's current bed.
func (h *AllocationHandler) CheckOut(c echo.Context) error {
	var req checkOutReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.StudentNo) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_no required"})
	}
	if err := h.Svc.CheckOut(c.Request().Context(), strings.TrimSpace(req.StudentNo), getUsername(c)); err != nil {
		return applicationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StayHistory lists a student's stay records, newest first.
func (h *AllocationHandler) StayHistory(c echo.Context) error {
	studentNo := strings.TrimSpace(c.Param("student_no"))
	if studentNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_no required"})
	}
	stays, err := h.Stays.ListByStudent(c.Request().Context(), studentNo)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"stays": stays})
}

// MyStays lists the authenticated student's own stay records.
func (h *AllocationHandler) MyStays(c echo.Context) error {
	studentNo := getStudentNo(c)
	if studentNo == "" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "student account required"})
	}
	stays, err := h.Stays.ListByStudent(c.Request().Context(), studentNo)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"stays": stays})
}
