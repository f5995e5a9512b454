// Package shared defines sentinel errors and small utilities used across the
// vault engine. Callers should match errors with errors.Is.
package shared

import "errors"

var (

	// common errors
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrInternal   = errors.New("internal error")

	// folder-specific errors
	ErrCircularReference = errors.New("circular folder reference")

	// version-specific errors
	ErrVersionConflict = errors.New("version number conflict")

	// share-link redemption errors
	ErrLinkNotFound = errors.New("share link not found")
	ErrLinkInactive = errors.New("share link inactive")
	ErrLinkExpired  = errors.New("share link expired")
	ErrLinkMaxUses  = errors.New("share link max uses reached")
	ErrLinkInvalid  = errors.New("share link in invalid state")

	// import-specific errors
	ErrImportConflict     = errors.New("import conflicts require resolution")
	ErrIncompatibleBundle = errors.New("incompatible bundle version")
	ErrMalformedBundle    = errors.New("malformed bundle")
	ErrBadSignature       = errors.New("bundle signature verification failed")
)
