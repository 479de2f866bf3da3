package include

import (
	"github.com/samber/oops"

	confcoreerrors "github.com/strataconf/confcore/errors"
)

// Typed failures a SourceReader can surface before oops wraps them with
// request-scoped context (the locator) for the caller.
const (
	ErrorReasonNotFound    confcoreerrors.ReasonCode = "include_not_found"
	ErrorReasonPermissions confcoreerrors.ReasonCode = "include_permission_error"
	ErrorReasonFetchFailed confcoreerrors.ReasonCode = "include_fetch_failed"
)

func errNotFound(locator string, cause error) error {
	return oops.
		Code(string(ErrorReasonNotFound)).
		With("locator", locator).
		Wrapf(cause, "include source not found")
}

func errPermissions(locator string, cause error) error {
	return oops.
		Code(string(ErrorReasonPermissions)).
		With("locator", locator).
		Wrapf(cause, "include source could not be read")
}

func errFetchFailed(locator string, cause error) error {
	return oops.
		Code(string(ErrorReasonFetchFailed)).
		With("locator", locator).
		Wrapf(cause, "include source fetch failed")
}
