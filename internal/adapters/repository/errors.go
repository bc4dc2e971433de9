package repository

import "github.com/okian/podium/internal/domain/errs"

// Sentinel errors for the repository layer.
var (
	ErrEventNotFound      = errs.Sentinel(errs.ErrNotFound, "event not found")
	ErrTeamNotFound       = errs.Sentinel(errs.ErrNotFound, "team not found")
	ErrSubmissionNotFound = errs.Sentinel(errs.ErrNotFound, "submission not found")
	ErrDuplicateID        = errs.Sentinel(errs.ErrConflict, "record with this id already exists")
	ErrClosed             = errs.Sentinel(errs.ErrStore, "store is closed")
)
