// Package handler defines the HTTP handlers.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id claim from the context. MapClaims
// decodes numbers as float64, so every plausible representation is
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getStudentNo returns the student_no claim for student accounts, or
// an empty string for managers.
func getStudentNo(c echo.Context) string {
	if s, ok := c.Get("student_no").(string); ok {
		return s
	}
	return ""
}

// getUsername returns the username claim, used as the actor in audit
// events.
func getUsername(c echo.Context) string {
	if s, ok := c.Get("username").(string); ok {
		return s
	}
	return ""
}

// pathID parses a :id style path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
