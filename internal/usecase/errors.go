package usecase

import "errors"

var (
	// ErrNotMounted is returned when an operation runs before a surface is mounted.
	ErrNotMounted = errors.New("session surface is not mounted")
	ErrNoInput    = errors.New("no input file selected")
	ErrNoOutput   = errors.New("no output file selected")

	// ErrBackendFailed wraps thumbnail and conversion failures.
	ErrBackendFailed = errors.New("backend operation failed")

	// ErrBusy is returned while another session operation is outstanding.
	ErrBusy = errors.New("another operation is in progress")
)
