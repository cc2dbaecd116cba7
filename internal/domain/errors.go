package domain

import "errors"

// Validation failures. None of them mutate the session.
var (
	ErrInvalidTransition     = errors.New("invalid page transition")
	ErrWrongPage             = errors.New("action not available on this page")
	ErrTBMIncomplete         = errors.New("photo and hazard acknowledgment both required")
	ErrSafetyLocked          = errors.New("protective-measure photo required before starting work")
	ErrMissingAttachment     = errors.New("attachment required")
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
	ErrUnknownSite           = errors.New("unknown site")
	ErrUnknownWorkType       = errors.New("unknown work type")
	ErrUnknownTarget         = errors.New("unknown emergency target")
)

// ErrArchiveUnavailable wraps any error returned by an ArchivalGateway.
var ErrArchiveUnavailable = errors.New("archive unavailable")
