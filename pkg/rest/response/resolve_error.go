package response

import (
	"errors"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

// ResolveError maps a domain error onto the REST error it should surface as.
// Rerun rejections and remote failures keep the server-supplied message;
// protocol, network and unknown-status failures collapse to a generic 500
// so the caller only sees a retry-suggesting message.
func ResolveError(err error) Error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		ve := NewValidationError()
		ve.SetError(verr.Field, MissedValue, verr.Message)
		return ve
	}

	var rejected *domain.RerunRejectedError
	if errors.As(err, &rejected) {
		return NewForbiddenError(rejected.Error())
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return NewNotFoundError(notFound.Error())
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return NewConflictError(conflict.Error())
	}

	var timeout *domain.TimeoutError
	if errors.As(err, &timeout) {
		return NewTimeoutError(timeout.Error())
	}

	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return NewRemoteError(remote.StatusCode, remote.Message)
	}

	return NewInternalError()
}
