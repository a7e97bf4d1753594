package pipeline

import (
	"context"
	"errors"

	"backend-traildiary/internal/gpx"

	"github.com/gofiber/fiber/v2"
)

// Taxonomy for the dispatcher's own failure modes. Parse failures keep their
// sentinels in internal/gpx; Kind folds both sets into one wire vocabulary.
// Every kind is terminal for the invocation that produced it: callers never
// receive partial telemetry next to an error.
var (
	ErrFileTooLarge       = errors.New("file exceeds configured size cap")
	ErrProcessingTimeout  = errors.New("processing exceeded its time budget")
	ErrPersistenceFailure = errors.New("persisting processed route failed")
)

type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindInvalidFormat      ErrorKind = "INVALID_FORMAT"
	KindEmptyTrack         ErrorKind = "EMPTY_TRACK"
	KindFileTooLarge       ErrorKind = "FILE_TOO_LARGE"
	KindProcessingTimeout  ErrorKind = "PROCESSING_TIMEOUT"
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
	KindInternal           ErrorKind = "INTERNAL"
)

// Kind classifies any pipeline error into its wire code.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, gpx.ErrInvalidFormat):
		return KindInvalidFormat
	case errors.Is(err, gpx.ErrEmptyTrack):
		return KindEmptyTrack
	case errors.Is(err, ErrFileTooLarge):
		return KindFileTooLarge
	case errors.Is(err, ErrProcessingTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindProcessingTimeout
	case errors.Is(err, ErrPersistenceFailure):
		return KindPersistenceFailure
	default:
		return KindInternal
	}
}

func (k ErrorKind) httpStatus() int {
	switch k {
	case KindInvalidFormat, KindEmptyTrack:
		return fiber.StatusBadRequest
	case KindFileTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case KindProcessingTimeout:
		return fiber.StatusGatewayTimeout
	case KindPersistenceFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
