package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskeep/dormitory/internal/repository"
)

// PublicHandler serves the read-only availability listings. These are
// the highest-traffic endpoints and sit behind the response cache, so
// a few seconds of staleness is acceptable; the write path always
// revalidates against live bed state.
type PublicHandler struct {
	Buildings *repository.BuildingRepo
	Rooms     *repository.RoomRepo
	Beds      *repository.BedRepo
}

func NewPublicHandler(b *repository.BuildingRepo, r *repository.RoomRepo, beds *repository.BedRepo) *PublicHandler {
	if b == nil || r == nil || beds == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Buildings: b, Rooms: r, Beds: beds}
}

// ListBuildings returns all buildings with bed availability counts.
func (h *PublicHandler) ListBuildings(c echo.Context) error {
	list, err := h.Buildings.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, b := range list {
		out = append(out, echo.Map{
			"id":             b.ID,
			"name":           b.Name,
			"location":       b.Location,
			"total_beds":     b.TotalBeds,
			"available_beds": b.AvailableBeds,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"buildings": out})
}

// ListRooms returns a building's rooms with derived occupancy.
func (h *PublicHandler) ListRooms(c echo.Context) error {
	buildingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid building id"})
	}
	if _, err := h.Buildings.GetByID(c.Request().Context(), buildingID); err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rooms, err := h.Rooms.ListByBuilding(c.Request().Context(), buildingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, echo.Map{
			"id":            rm.ID,
			"room_number":   rm.RoomNumber,
			"capacity":      rm.Capacity,
			"room_type":     rm.RoomType,
			"occupied_beds": rm.OccupiedBeds,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// ListBeds returns a room's beds with their live ledger status.
func (h *PublicHandler) ListBeds(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if _, err := h.Rooms.GetByID(c.Request().Context(), roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	beds, err := h.Beds.ListByRoom(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(beds))
	for _, b := range beds {
		out = append(out, echo.Map{
			"id":         b.ID,
			"bed_number": b.BedNumber,
			"status":     b.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"beds": out})
}
