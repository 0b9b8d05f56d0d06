package adr

import "errors"

// Domain-specific errors for controller operations.
var (
	// ErrUnknownUnit is returned by the Manager for an unconfigured unit.
	ErrUnknownUnit = errors.New("adr: unknown unit")

	// ErrAlreadyStarted is returned by Start on a running controller.
	ErrAlreadyStarted = errors.New("adr: controller already started")

	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("adr: controller closed")
)
