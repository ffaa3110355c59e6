package locker

import "errors"

var (
	ErrAuthentication   = errors.New("AUTHENTICATION_FAILED")
	ErrUploadInProgress = errors.New("UPLOAD_IN_PROGRESS")
	ErrNotReady         = errors.New("RECORD_NOT_READY")
	ErrInvalidDependent = errors.New("INVALID_DEPENDENT")
	ErrNotEditable      = errors.New("FIELD_NOT_EDITABLE")
	ErrNoSession        = errors.New("NOT_LOGGED_IN")
)
