package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskeep/dormitory/internal/allocation"
	"github.com/campuskeep/dormitory/internal/repository"
)

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestApplicationErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"student missing", repository.ErrStudentNotFound, http.StatusNotFound},
		{"application missing", repository.ErrApplicationNotFound, http.StatusNotFound},
		{"bed missing", repository.ErrBedNotFound, http.StatusNotFound},
		{"bed conflict detail", &repository.BedConflictError{BedID: 3, Status: repository.BedReserved}, http.StatusConflict},
		{"bed lost to a concurrent claim", allocation.ErrBedUnavailable, http.StatusConflict},
		{"duplicate pending", allocation.ErrDuplicateApplication, http.StatusBadRequest},
		{"already assigned", allocation.ErrAlreadyAssigned, http.StatusBadRequest},
		{"not assigned", allocation.ErrNotAssigned, http.StatusBadRequest},
		{"not pending", allocation.ErrNotPending, http.StatusBadRequest},
		{"forbidden", allocation.ErrForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodPost, "/v1/applications", "")
			require.NoError(t, applicationError(c, tc.err))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestBedConflictResponseCarriesStatus(t *testing.T) {
	c, rec := newContext(t, http.MethodPost, "/v1/applications", "")
	err := &repository.BedConflictError{BedID: 3, Status: repository.BedOccupied}
	require.NoError(t, applicationError(c, err))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), repository.BedOccupied)
}

func TestSubmitRequiresStudentClaim(t *testing.T) {
	h := &ApplicationHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/applications", `{"bed_id":1}`)
	// No student_no in context: a manager token reached a student route.
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitValidatesBody(t *testing.T) {
	h := &ApplicationHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/applications", `{"bed_id":0}`)
	c.Set("student_no", "S100")
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdrawValidatesID(t *testing.T) {
	h := &ApplicationHandler{}
	c, rec := newContext(t, http.MethodDelete, "/v1/applications/abc", "")
	c.Set("student_no", "S100")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.Withdraw(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	h := &ApplicationHandler{}
	c, rec := newContext(t, http.MethodGet, "/v1/manage/applications?status=SHIPPED", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInValidatesBody(t *testing.T) {
	h := &AllocationHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/manage/check-in", `{"student_no":"","bed_id":0}`)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoomValidatesCapacity(t *testing.T) {
	h := &AdminHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/manage/rooms", `{"building_id":1,"room_number":"101","capacity":0}`)
	require.NoError(t, h.CreateRoom(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateStudentValidatesGender(t *testing.T) {
	h := &AdminHandler{}
	c, rec := newContext(t, http.MethodPost, "/v1/manage/students", `{"student_no":"S100","name":"Alice","gender":"X"}`)
	require.NoError(t, h.CreateStudent(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
