package services

import "errors"

// Business errors surfaced to callers. Deletes and cascades on missing
// ids are silent no-ops instead; only updates that must return the new
// record report ErrNotFound.
var (
	ErrNotFound              = errors.New("record not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrReportLocked          = errors.New("report is locked")
	ErrDeclineReasonRequired = errors.New("decline reason is required")
)
