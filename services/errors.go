// Package services holds the forum's business rules: target resolution, the
// comment store and thread assembly, the authorization guard and the deletion
// cascade. Controllers translate the sentinel errors below into responses.
package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidParent    = errors.New("invalid parent comment")
	ErrValidationFailed = errors.New("validation failed")
	ErrForbidden        = errors.New("forbidden")
	ErrDeletionFailed   = errors.New("deletion failed")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")
)
