package httpadapter

import (
	"net/http"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsInputError(err):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrUsernameTaken):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// outcomeLabel buckets an error for the conversion and auth counters.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsInputError(err), domain.IsKind(err, domain.ErrUnauthorized), domain.IsKind(err, domain.ErrUsernameTaken):
		return "rejected"
	default:
		return "error"
	}
}
