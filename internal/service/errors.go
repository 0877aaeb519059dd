package service

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidRunID indicates the run ID format is invalid.
var ErrInvalidRunID = errors.New("invalid run_id")

// ErrNotFound indicates the requested resource was not found.
var ErrNotFound = errors.New("not found")

// ErrInternal indicates an internal server error.
var ErrInternal = errors.New("internal error")

// ErrInternalQueue indicates an internal queue error.
var ErrInternalQueue = errors.New("internal queue error")

// ErrDelivery indicates the report was built but could not be delivered.
var ErrDelivery = errors.New("report delivery failed")

func validRunID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
