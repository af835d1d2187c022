package transport

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/domain"
	"github.com/comichut/supportdesk/internal/observability"
)

// HTTPError maps a domain error onto the HTTP surface. Unknown errors are
// logged and answered with a generic 500.
func HTTPError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication failed")

	case errors.Is(err, domain.ErrNotAssignedAgent):
		WriteError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrAlreadyClosed):
		WriteError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, domain.ErrConversationClosed):
		WriteError(w, http.StatusConflict, "invalid_state", err.Error())

	case errors.Is(err, domain.ErrInvalidMessage),
		errors.Is(err, domain.ErrMessageTooLarge),
		errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())

	case errors.Is(err, domain.ErrUpstreamUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")

	default:
		observability.GetLogger(r.Context()).Error("internal_error", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
