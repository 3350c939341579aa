package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrInvalidSeries indicates the requested series is not configured
	ErrInvalidSeries = errors.New("invalid series")

	// ErrNotFound indicates the requested remote file does not exist
	ErrNotFound = errors.New("remote file not found")

	// ErrServerOffline indicates the data host is unreachable
	ErrServerOffline = errors.New("data host is unreachable")

	// ErrDecodeFailed indicates a payload blob could not be decoded
	ErrDecodeFailed = errors.New("payload decode failed")
)
