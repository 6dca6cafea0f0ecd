package domain

import "errors"

// Client-side failure taxonomy. Every error surfaced by the API client
// unwraps to exactly one of these.
var (
	ErrNetwork      = errors.New("network error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("request rejected")
	ErrServer       = errors.New("server error")
	ErrNoSession    = errors.New("no active session")
	ErrNotFound     = errors.New("not found")
)

// ErrStateNotFound is returned by state repositories when nothing has been
// persisted under the requested name.
var ErrStateNotFound = errors.New("persisted state not found")
