package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campuskeep/dormitory/internal/repository"
)

// AdminHandler lets managers provision buildings, rooms and student
// profiles, and inspect the audit trail.
type AdminHandler struct {
	Buildings *repository.BuildingRepo
	Rooms     *repository.RoomRepo
	Students  *repository.StudentRepo
	Audit     *repository.AuditLogRepo
}

func NewAdminHandler(b *repository.BuildingRepo, r *repository.RoomRepo, s *repository.StudentRepo, a *repository.AuditLogRepo) *AdminHandler {
	if b == nil || r == nil || s == nil || a == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Buildings: b, Rooms: r, Students: s, Audit: a}
}

type buildingReq struct {
	Name           string `json:"name"`
	Location       string `json:"location"`
	ManagerContact string `json:"manager_contact"`
}

type roomReq struct {
	BuildingID uint64 `json:"building_id"`
	RoomNumber string `json:"room_number"`
	Capacity   uint32 `json:"capacity"`
	RoomType   string `json:"room_type"`
}

type studentReq struct {
	StudentNo string `json:"student_no"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Major     string `json:"major"`
}

// CreateBuilding registers a new building.
func (h *AdminHandler) CreateBuilding(c echo.Context) error {
	var req buildingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	b := &repository.Building{Name: req.Name, Location: req.Location, ManagerContact: req.ManagerContact}
	if err := h.Buildings.Create(c.Request().Context(), b); err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "building name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create building failed"})
	}
	return c.JSON(http.StatusCreated, b)
}

// DeleteBuilding removes a building with its rooms and beds, refused
// while any bed is reserved or occupied.
func (h *AdminHandler) DeleteBuilding(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid building id"})
	}
	if err := h.Buildings.DeleteByID(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBuildingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "building has reserved or occupied beds"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete building failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateRoom provisions a room together with one bed per capacity slot.
func (h *AdminHandler) CreateRoom(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.BuildingID == 0 || req.RoomNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "building_id and room_number required"})
	}
	if req.Capacity == 0 || req.Capacity > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be between 1 and 12"})
	}

	ctx := c.Request().Context()
	if _, err := h.Buildings.GetByID(ctx, req.BuildingID); err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	rm := &repository.Room{
		BuildingID: req.BuildingID,
		RoomNumber: req.RoomNumber,
		Capacity:   req.Capacity,
		RoomType:   strings.ToUpper(strings.TrimSpace(req.RoomType)),
	}
	if err := h.Rooms.CreateWithBeds(ctx, rm); err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room number already exists in building"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, rm)
}

// DeleteRoom removes a room and its beds, refused while any bed is
// reserved or occupied.
func (h *AdminHandler) DeleteRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if err := h.Rooms.DeleteByID(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room has reserved or occupied beds"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateStudent registers a student profile.
func (h *AdminHandler) CreateStudent(c echo.Context) error {
	var req studentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.StudentNo = strings.TrimSpace(req.StudentNo)
	req.Name = strings.TrimSpace(req.Name)
	if req.StudentNo == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_no and name required"})
	}
	gender := strings.ToUpper(strings.TrimSpace(req.Gender))
	if gender != "M" && gender != "F" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gender must be M or F"})
	}

	s := &repository.Student{
		StudentNo: req.StudentNo,
		Name:      req.Name,
		Gender:    gender,
		Phone:     strings.TrimSpace(req.Phone),
		Major:     strings.TrimSpace(req.Major),
	}
	if err := h.Students.Create(c.Request().Context(), s); err != nil {
		if errors.Is(err, repository.ErrStudentExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "student number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create student failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// GetStudent returns one student profile including the current
// assignment.
func (h *AdminHandler) GetStudent(c echo.Context) error {
	studentNo := strings.TrimSpace(c.Param("student_no"))
	s, err := h.Students.GetByNo(c.Request().Context(), studentNo)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// ListStudents returns the student directory.
func (h *AdminHandler) ListStudents(c echo.Context) error {
	students, err := h.Students.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": students})
}

// ListAuditLogs returns the newest audit rows, ?limit= capped at 500.
func (h *AdminHandler) ListAuditLogs(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	logs, err := h.Audit.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"audit_logs": logs})
}
