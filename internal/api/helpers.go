package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

func writeJSON(c *echo.Context, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.Blob(status, echo.MIMEApplicationJSON, data)
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}

// writeFailure reports an error returned by a primitive.
func writeFailure(c *echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusBadRequest {
		return writeBadRequest(c, err.Error())
	}
	return writeError(c, status, "server_error", err.Error())
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest(fmt.Sprintf("decode request: %v", err))
	}
	return out, nil
}

// flatten packs equal-length rows into one row-major slice.
func flatten[T any](name string, rows [][]T) ([]T, int, error) {
	if len(rows) == 0 {
		return nil, 0, newInvalidRequest(name + " must hold at least one row")
	}
	width := len(rows[0])
	out := make([]T, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, 0, newInvalidRequest(fmt.Sprintf("%s row %d has %d entries, want %d", name, i, len(r), width))
		}
		out = append(out, r...)
	}
	return out, width, nil
}

// unflatten splits a row-major slice into rows of width entries.
func unflatten[T any](flat []T, width int) [][]T {
	if width == 0 {
		return [][]T{}
	}
	rows := make([][]T, 0, len(flat)/width)
	for i := 0; i < len(flat); i += width {
		rows = append(rows, flat[i:i+width])
	}
	return rows
}

func queryInt(c *echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, newInvalidRequest(fmt.Sprintf("missing query parameter %q", name))
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newInvalidRequest(fmt.Sprintf("query parameter %q: %v", name, err))
	}
	return v, nil
}

// maxOutputEntries bounds the result matrix a single request may ask for.
const maxOutputEntries = 1 << 24

func checkOutputSize(rows, cols int) error {
	if rows < 0 || cols < 0 || (cols > 0 && rows > maxOutputEntries/cols) {
		return newInvalidRequest(fmt.Sprintf("result of %d x %d entries exceeds the limit of %d", rows, cols, maxOutputEntries))
	}
	return nil
}

func newDatasetID() string {
	return "ds_" + uuid.NewString()
}
