package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response shape used by every endpoint.
// Success tells the client whether the operation worked; Message carries
// a human-readable note, Data the payload and Error the failure reason.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg, Data: data})
}

func created(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: false, Error: msg})
}

// failWith appends the underlying error to the response outside
// production so local debugging does not require log access.
func failWith(c echo.Context, prod bool, status int, msg string, err error) error {
	if !prod && err != nil {
		return c.JSON(status, Envelope{Success: false, Error: msg + ": " + err.Error()})
	}
	return fail(c, status, msg)
}

// getUserID extracts the user_id set by the JWT middleware and converts
// it to uint64. JWT numeric claims arrive as float64 after parsing.
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

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
