package service

import "errors"

// Sentinel errors let controllers map failures to HTTP statuses without
// string matching.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or access denied")
	ErrReplyPending       = errors.New("a reply is still pending for this session")
)
