package interfaces

import (
	"log"
	"net/http"

	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

// statusForError maps the service error taxonomy onto HTTP status codes.
// Anything outside the taxonomy is an internal fault and stays opaque.
func statusForError(err error) (int, string) {
	switch {
	case pnlErrors.IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	case pnlErrors.IsNotFoundError(err):
		return http.StatusNotFound, err.Error()
	case pnlErrors.IsPolicyViolationError(err):
		return http.StatusConflict, err.Error()
	case pnlErrors.IsReferentialIntegrityError(err):
		return http.StatusConflict, err.Error()
	case pnlErrors.IsUpstreamUnavailableError(err):
		return http.StatusBadGateway, err.Error()
	default:
		log.Println("Unexpected service error:", err.Error())
		return http.StatusInternalServerError, "Internal server error"
	}
}
