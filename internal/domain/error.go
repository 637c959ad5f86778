package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrMissingDevice       = errors.New("device id is required")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrPlanNotFound        = errors.New("unknown plan")
	ErrPaymentVerification = errors.New("payment signature verification failed")
	ErrInvalidExecContext  = errors.New("invalid executor context")
)
