package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptyMessage is returned when a chat turn carries no user text.
var ErrEmptyMessage = errors.New("message is empty")

// ErrMissingSchema is returned when a generation request has no document to develop.
var ErrMissingSchema = errors.New("schema is required")
