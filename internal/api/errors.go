package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/knn"
	"github.com/samcharles93/primkit/pkg/segsort"
	"github.com/samcharles93/primkit/pkg/selectk"
	"github.com/samcharles93/primkit/pkg/sparse"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

var clientErrors = []error{
	ErrInvalidRequest,
	selectk.ErrInvalidArgument,
	selectk.ErrUnsupportedK,
	distance.ErrInvalidArgument,
	distance.ErrUnknownMetric,
	knn.ErrInvalidArgument,
	segsort.ErrSizeMismatch,
	segsort.ErrInvalidOffsets,
	sparse.ErrInvalidCSR,
}

// statusFor maps primitive errors to HTTP status codes: argument errors are
// the caller's fault, anything else is ours.
func statusFor(err error) int {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
